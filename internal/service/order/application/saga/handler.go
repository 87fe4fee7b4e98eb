package saga

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/port"
)

// CheckoutContext 在结算 Saga 流程中传递上下文数据。
// 所有外部依赖都是出站端口，便于在测试里替换。
type CheckoutContext struct {
	Ctx    context.Context
	Tracer trace.Tracer

	UserID       string
	DiscountCode string

	// 流程中逐步填充的数据
	Items         []domain.OrderItem // 定价后的商品快照
	SubtotalCents int64
	ShippingCents int64
	DiscountCents int64
	Order         *domain.Order

	// 出站端口
	Stock     port.StockLedger
	Catalog   port.VariantCatalog
	Carts     port.CartStore
	Discounts port.DiscountService
	Tx        port.TxRunner
	Repo      domain.OrderRepository
	Indexer   port.IndexNotifier
	Events    port.EventPublisher

	// 补偿栈：后注册的先执行
	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation 注册一个补偿函数，压到栈顶。
func (c *CheckoutContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

// TriggerCompensation 按 LIFO 顺序执行所有已注册的补偿。
func (c *CheckoutContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().
		Str("user_id", c.UserID).
		Int("compensations", len(c.compensations)).
		Msg("rolling back checkout")
	for _, comp := range c.compensations {
		comp(ctx)
	}
	c.compensations = nil
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(checkoutCtx *CheckoutContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(checkoutCtx *CheckoutContext) error {
	if h.next != nil {
		return h.next.Handle(checkoutCtx)
	}
	return nil
}
