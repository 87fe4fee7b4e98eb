package adapter

import (
	"context"

	"storefront/internal/service/inventory/application"
)

// LedgerStockView 把库存台账的应用服务适配为购物车的 StockView 端口。
// 单体部署下是进程内直调，拆分部署时可以换成 HTTP 适配而不动购物车逻辑。
type LedgerStockView struct {
	ledger *application.StockLedgerService
}

func NewLedgerStockView(ledger *application.StockLedgerService) *LedgerStockView {
	return &LedgerStockView{ledger: ledger}
}

func (v *LedgerStockView) Available(ctx context.Context, variantID string) (int64, error) {
	return v.ledger.Available(ctx, variantID)
}

func (v *LedgerStockView) VariantActive(ctx context.Context, variantID string) (bool, error) {
	variant, err := v.ledger.Variant(ctx, variantID)
	if err != nil {
		return false, err
	}
	return variant.Active, nil
}
