package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	cartdomain "storefront/internal/service/cart/domain"
	cartinfra "storefront/internal/service/cart/infrastructure"
	inventoryapp "storefront/internal/service/inventory/application"
	inventorydomain "storefront/internal/service/inventory/domain"
	inventoryinfra "storefront/internal/service/inventory/infrastructure"
	"storefront/internal/service/order/domain"
	orderinfra "storefront/internal/service/order/infrastructure"
	"storefront/internal/service/order/infrastructure/adapter"
	promotionapp "storefront/internal/service/promotion/application"
	promotiondomain "storefront/internal/service/promotion/domain"
	promotioninfra "storefront/internal/service/promotion/infrastructure"
	"storefront/internal/service/promotion/infrastructure/rule"
)

type recordingIndexer struct {
	notified [][]string
}

func (r *recordingIndexer) NotifyStockChanged(_ context.Context, variantIDs []string) {
	r.notified = append(r.notified, variantIDs)
}

type recordingPublisher struct {
	events []domain.OrderLifecycleEvent
}

func (r *recordingPublisher) PublishLifecycle(_ context.Context, event domain.OrderLifecycleEvent) error {
	r.events = append(r.events, event)
	return nil
}

type fixture struct {
	checkout  *CheckoutService
	lifecycle *OrderLifecycleService

	stockRepo    *inventoryinfra.MemoryStockRepository
	stockAdapter *adapter.StockLedgerAdapter
	cartRepo     *cartinfra.MemoryCartRepository
	discountRepo *promotioninfra.MemoryDiscountRepository
	orderRepo    *orderinfra.MemoryOrderRepository
	deduper      *adapter.MemoryPaymentDeduper
	indexer      *recordingIndexer
	publisher    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tracer := otel.Tracer("test")

	stockRepo := inventoryinfra.NewMemoryStockRepository()
	variantRepo := inventoryinfra.NewMemoryVariantRepository()
	variantRepo.Seed(&inventorydomain.Variant{ID: "v1", SKU: "SKU-1", Name: "Blue Tee / M", PriceCents: 2500, Active: true})
	variantRepo.Seed(&inventorydomain.Variant{ID: "v2", SKU: "SKU-2", Name: "Red Tee / L", PriceCents: 3000, Active: true})
	variantRepo.Seed(&inventorydomain.Variant{ID: "v3", SKU: "SKU-3", Name: "Retired Tee", PriceCents: 2000, Active: false})
	ledger := inventoryapp.NewStockLedgerService(stockRepo, variantRepo, tracer)
	stockAdapter := adapter.NewStockLedgerAdapter(ledger)

	cartRepo := cartinfra.NewMemoryCartRepository()
	discountRepo := promotioninfra.NewMemoryDiscountRepository()
	engine, err := rule.NewCELRuleEngine()
	require.NoError(t, err)
	promotions := promotionapp.NewPromotionService(discountRepo, engine, tracer)

	orderRepo := orderinfra.NewMemoryOrderRepository()
	deduper := adapter.NewMemoryPaymentDeduper()
	indexer := &recordingIndexer{}
	publisher := &recordingPublisher{}

	checkout := NewCheckoutService(
		stockAdapter,
		stockAdapter,
		adapter.NewCartStoreAdapter(cartRepo),
		adapter.NewDiscountAdapter(promotions),
		adapter.PassthroughTxRunner{},
		orderRepo,
		indexer,
		publisher,
		tracer,
		500,
		1,
	)
	lifecycle := NewOrderLifecycleService(
		orderRepo,
		stockAdapter,
		adapter.PassthroughTxRunner{},
		deduper,
		publisher,
		indexer,
		tracer,
	)

	return &fixture{
		checkout:     checkout,
		lifecycle:    lifecycle,
		stockRepo:    stockRepo,
		stockAdapter: stockAdapter,
		cartRepo:     cartRepo,
		discountRepo: discountRepo,
		orderRepo:    orderRepo,
		deduper:      deduper,
		indexer:      indexer,
		publisher:    publisher,
	}
}

func (f *fixture) seedCart(t *testing.T, userID string, lines map[string]int64) {
	t.Helper()
	cart := &cartdomain.Cart{UserID: userID}
	for variantID, qty := range lines {
		cart.Items = append(cart.Items, cartdomain.CartItem{
			ID:        "ci-" + variantID,
			VariantID: variantID,
			Quantity:  qty,
			AddedAt:   time.Now(),
		})
	}
	require.NoError(t, f.cartRepo.Save(context.Background(), cart))
}

func (f *fixture) reserved(t *testing.T, variantID string) int64 {
	t.Helper()
	stock, err := f.stockRepo.Get(context.Background(), variantID)
	require.NoError(t, err)
	return stock.Reserved
}

func (f *fixture) seedDiscount(d *promotiondomain.Discount) {
	if d.StartsAt.IsZero() {
		d.StartsAt = time.Now().Add(-time.Hour)
	}
	if d.EndsAt.IsZero() {
		d.EndsAt = time.Now().Add(time.Hour)
	}
	f.discountRepo.Seed(d)
}

func TestCheckoutSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockRepo.Seed("v1", 10, 0)
	f.stockRepo.Seed("v2", 5, 0)
	f.seedCart(t, "u1", map[string]int64{"v1": 2, "v2": 1})

	order, err := f.checkout.Checkout(ctx, "u1", "")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.EqualValues(t, 8000, order.SubtotalCents)
	assert.EqualValues(t, 500, order.ShippingCents)
	assert.EqualValues(t, 8500, order.TotalCents)

	// 预占生效
	assert.EqualValues(t, 2, f.reserved(t, "v1"))
	assert.EqualValues(t, 1, f.reserved(t, "v2"))

	// 购物车已清空，订单已落库
	cart, err := f.cartRepo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	persisted, err := f.orderRepo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, persisted.Items, 2)

	assert.NotEmpty(t, f.indexer.notified)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, order.ID, f.publisher.events[0].OrderID)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.checkout.Checkout(context.Background(), "u1", "")
	assert.ErrorIs(t, err, domain.ErrCartEmpty)
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockRepo.Seed("v1", 10, 0)
	f.stockRepo.Seed("v2", 5, 0)
	f.seedCart(t, "u1", map[string]int64{"v1": 1, "v2": 99})

	_, err := f.checkout.Checkout(ctx, "u1", "")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// v1 先预占成功，v2 失败后 v1 被补偿归还
	assert.EqualValues(t, 0, f.reserved(t, "v1"))
	assert.EqualValues(t, 0, f.reserved(t, "v2"))

	// 购物车原样保留
	cart, err := f.cartRepo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

// 规格在目录里但库存行缺失：错误必须原样透出，不能被归一成余量不足。
func TestCheckoutMissingStockRowSurfacedAsIs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedCart(t, "u1", map[string]int64{"v1": 1}) // v1 没有库存行

	_, err := f.checkout.Checkout(ctx, "u1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, inventorydomain.ErrVariantNotFound)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestCheckoutInactiveVariant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockRepo.Seed("v1", 10, 0)
	f.stockRepo.Seed("v3", 10, 0)
	f.seedCart(t, "u1", map[string]int64{"v1": 1, "v3": 1})

	_, err := f.checkout.Checkout(ctx, "u1", "")
	require.ErrorIs(t, err, domain.ErrProductUnavailable)

	// 定价阶段就失败，任何预占都不应发生
	assert.EqualValues(t, 0, f.reserved(t, "v1"))
	assert.EqualValues(t, 0, f.reserved(t, "v3"))
}

func TestCheckoutWithDiscount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockRepo.Seed("v1", 10, 0)
	f.seedCart(t, "u1", map[string]int64{"v1": 4})
	f.seedDiscount(&promotiondomain.Discount{
		Code:              "SAVE10",
		Type:              promotiondomain.DiscountTypeAmount,
		ValueCents:        1000,
		MinOrderCents:     5000,
		UsageLimitGlobal:  10,
		UsageLimitPerUser: 1,
		IsActive:          true,
	})

	order, err := f.checkout.Checkout(ctx, "u1", "SAVE10")
	require.NoError(t, err)

	assert.EqualValues(t, 10000, order.SubtotalCents)
	assert.EqualValues(t, 1000, order.DiscountCents)
	assert.EqualValues(t, 9500, order.TotalCents)
	assert.Equal(t, "SAVE10", order.AppliedDiscountCode)

	// 用量只在成功时消耗，而且恰好一次
	global, err := f.discountRepo.GlobalUsage(ctx, "SAVE10")
	require.NoError(t, err)
	assert.EqualValues(t, 1, global)
	user, err := f.discountRepo.UserUsage(ctx, "SAVE10", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, user)
}

func TestCheckoutDiscountIneligibleRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockRepo.Seed("v1", 100, 0)
	f.seedCart(t, "u1", map[string]int64{"v1": 32}) // 小计 80000
	f.seedDiscount(&promotiondomain.Discount{
		Code:              "SAVE10",
		Type:              promotiondomain.DiscountTypeAmount,
		ValueCents:        1000,
		MinOrderCents:     100000,
		UsageLimitGlobal:  10,
		UsageLimitPerUser: 1,
		IsActive:          true,
	})

	_, err := f.checkout.Checkout(ctx, "u1", "SAVE10")
	require.Error(t, err)

	var ineligible *promotiondomain.IneligibleError
	require.ErrorAs(t, err, &ineligible)
	assert.Equal(t, promotiondomain.ReasonMinOrderNotMet, ineligible.Reason)

	// 已做的预占必须全部归还，购物车原样保留，用量不消耗
	assert.EqualValues(t, 0, f.reserved(t, "v1"))
	cart, err := f.cartRepo.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	global, err := f.discountRepo.GlobalUsage(ctx, "SAVE10")
	require.NoError(t, err)
	assert.EqualValues(t, 0, global)
}

func TestCheckoutUnknownDiscountCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.stockRepo.Seed("v1", 10, 0)
	f.seedCart(t, "u1", map[string]int64{"v1": 1})

	_, err := f.checkout.Checkout(ctx, "u1", "NOPE")
	require.ErrorIs(t, err, promotiondomain.ErrDiscountNotFound)
	assert.EqualValues(t, 0, f.reserved(t, "v1"))
}
