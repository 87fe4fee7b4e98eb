package port

import (
	"context"

	"storefront/internal/service/order/domain"
)

// StockLedger 是编排器对库存账本的依赖。
type StockLedger interface {
	Reserve(ctx context.Context, variantID string, qty int64) error
	Release(ctx context.Context, variantID string, qty int64) error
	Commit(ctx context.Context, variantID string, qty int64) error
}

// CatalogVariant 是编排器需要的商品规格视图。
type CatalogVariant struct {
	ID         string
	Name       string
	PriceCents int64
	Active     bool
}

// VariantCatalog 提供下单时的规格快照来源。
type VariantCatalog interface {
	Variant(ctx context.Context, variantID string) (*CatalogVariant, error)
}

// CartLine 是购物车里的一行。
type CartLine struct {
	VariantID string
	Quantity  int64
}

// CartStore 是编排器对购物车的依赖：取快照、结算成功后清空。
type CartStore interface {
	Snapshot(ctx context.Context, userID string) ([]CartLine, error)
	Clear(ctx context.Context, userID string) error
}

// DiscountAssessment 是折扣评估的结果。
type DiscountAssessment struct {
	Code        string
	AmountCents int64
}

// DiscountService 是编排器对折扣服务的依赖。
// Assess 只读；ConsumeUsage 必须在订单落库的同一个事务 context 里调用。
type DiscountService interface {
	Assess(ctx context.Context, code, userID string, subtotalCents, shippingCents int64, itemCount int64, variantIDs []string) (*DiscountAssessment, error)
	ConsumeUsage(ctx context.Context, code, userID string) error
}

// TxRunner 把 fn 放进一个数据库事务里执行，
// 事务句柄通过 context 向下传递给各个仓储。
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// IndexNotifier 向搜索索引器广播可售量变化，投递是尽力而为的。
type IndexNotifier interface {
	NotifyStockChanged(ctx context.Context, variantIDs []string)
}

// EventPublisher 广播订单生命周期事件。
type EventPublisher interface {
	PublishLifecycle(ctx context.Context, event domain.OrderLifecycleEvent) error
}

// PaymentEventDeduper 以事件 ID 为键做幂等判定。
// FirstDelivery 返回 true 表示第一次见到这个事件。
// 事件处理失败时必须调用 Release 释放键，否则渠道重投会被当成重复吞掉。
type PaymentEventDeduper interface {
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}
