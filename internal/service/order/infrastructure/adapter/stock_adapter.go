package adapter

import (
	"context"

	"github.com/pkg/errors"

	inventoryapp "storefront/internal/service/inventory/application"
	inventorydomain "storefront/internal/service/inventory/domain"
	orderdomain "storefront/internal/service/order/domain"
	"storefront/internal/service/order/port"
)

// StockLedgerAdapter 把库存服务的应用层适配成编排器的出站端口，
// 同时充当规格目录的来源。
type StockLedgerAdapter struct {
	ledger *inventoryapp.StockLedgerService
}

func NewStockLedgerAdapter(ledger *inventoryapp.StockLedgerService) *StockLedgerAdapter {
	return &StockLedgerAdapter{ledger: ledger}
}

// Reserve 只把真正的余量不足翻译成订单侧的 ErrInsufficientStock；
// 库存行缺失、基础设施故障原样透传，不能伪装成可理解的业务失败。
func (a *StockLedgerAdapter) Reserve(ctx context.Context, variantID string, qty int64) error {
	if err := a.ledger.Reserve(ctx, variantID, qty); err != nil {
		if errors.Is(err, inventorydomain.ErrInsufficientStock) {
			return orderdomain.ErrInsufficientStock
		}
		return err
	}
	return nil
}

func (a *StockLedgerAdapter) Release(ctx context.Context, variantID string, qty int64) error {
	return a.ledger.Release(ctx, variantID, qty)
}

func (a *StockLedgerAdapter) Commit(ctx context.Context, variantID string, qty int64) error {
	return a.ledger.Commit(ctx, variantID, qty)
}

func (a *StockLedgerAdapter) Variant(ctx context.Context, variantID string) (*port.CatalogVariant, error) {
	variant, err := a.ledger.Variant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	return &port.CatalogVariant{
		ID:         variant.ID,
		Name:       variant.Name,
		PriceCents: variant.PriceCents,
		Active:     variant.Active,
	}, nil
}
