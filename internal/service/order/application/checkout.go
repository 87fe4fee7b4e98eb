package application

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/application/saga"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/port"
)

var checkoutOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "checkout_total",
	Help: "Checkout attempts partitioned by outcome.",
}, []string{"outcome"})

// CheckoutService 是结算编排器的应用层入口。
// 每次结算构建一条处理链：取购物车、预占库存、评估折扣、订单落库、收尾。
// 任何一步失败都会按注册的逆序执行补偿，让系统回到结算前的状态。
type CheckoutService struct {
	stock     port.StockLedger
	catalog   port.VariantCatalog
	carts     port.CartStore
	discounts port.DiscountService
	tx        port.TxRunner
	repo      domain.OrderRepository
	indexer   port.IndexNotifier
	publisher port.EventPublisher
	tracer    trace.Tracer

	shippingFeeCents int64
	txRetryLimit     int
}

func NewCheckoutService(
	stock port.StockLedger,
	catalog port.VariantCatalog,
	carts port.CartStore,
	discounts port.DiscountService,
	tx port.TxRunner,
	repo domain.OrderRepository,
	indexer port.IndexNotifier,
	publisher port.EventPublisher,
	tracer trace.Tracer,
	shippingFeeCents int64,
	txRetryLimit int,
) *CheckoutService {
	return &CheckoutService{
		stock:            stock,
		catalog:          catalog,
		carts:            carts,
		discounts:        discounts,
		tx:               tx,
		repo:             repo,
		indexer:          indexer,
		publisher:        publisher,
		tracer:           tracer,
		shippingFeeCents: shippingFeeCents,
		txRetryLimit:     txRetryLimit,
	}
}

// Checkout 把用户当前的购物车原子地转换为一张订单。
// 成功返回订单聚合；失败返回错误，且所有已预占的库存已归还。
func (s *CheckoutService) Checkout(ctx context.Context, userID, discountCode string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Checkout")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	checkoutCtx := &saga.CheckoutContext{
		Ctx:          ctx,
		Tracer:       s.tracer,
		UserID:       userID,
		DiscountCode: discountCode,
		Stock:        s.stock,
		Catalog:      s.catalog,
		Carts:        s.carts,
		Discounts:    s.discounts,
		Tx:           s.tx,
		Repo:         s.repo,
		Indexer:      s.indexer,
		Events:       s.publisher,
	}

	loadCart := &saga.LoadCartHandler{}
	loadCart.
		SetNext(&saga.ReserveStockHandler{}).
		SetNext(saga.NewAssessDiscountHandler(s.shippingFeeCents)).
		SetNext(saga.NewCreateOrderHandler(s.txRetryLimit)).
		SetNext(&saga.FinalizeHandler{})

	if err := loadCart.Handle(checkoutCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout failed")
		checkoutOutcomes.WithLabelValues("failure").Inc()
		checkoutCtx.TriggerCompensation(ctx)
		return nil, err
	}

	checkoutOutcomes.WithLabelValues("success").Inc()
	logger.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("order_id", checkoutCtx.Order.ID).
		Int64("total_cents", checkoutCtx.Order.TotalCents).
		Msg("checkout completed")

	return checkoutCtx.Order, nil
}
