package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"storefront/internal/service/order/domain"
)

// flakyTxRunner 让前 failures 次事务直接失败，模拟瞬时的持久化故障。
type flakyTxRunner struct {
	failures int
}

func (r *flakyTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset by peer")
	}
	return fn(ctx)
}

// checkoutOrder 先走一遍完整结算，返回落库的订单。
func checkoutOrder(t *testing.T, f *fixture) *domain.Order {
	t.Helper()
	f.stockRepo.Seed("v1", 10, 0)
	f.stockRepo.Seed("v2", 5, 0)
	f.seedCart(t, "u1", map[string]int64{"v1": 2, "v2": 1})

	order, err := f.checkout.Checkout(context.Background(), "u1", "")
	require.NoError(t, err)
	return order
}

func (f *fixture) stockOf(t *testing.T, variantID string) (quantity, reserved int64) {
	t.Helper()
	stock, err := f.stockRepo.Get(context.Background(), variantID)
	require.NoError(t, err)
	return stock.Quantity, stock.Reserved
}

func TestShipCommitsReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := checkoutOrder(t, f)

	_, err := f.lifecycle.Confirm(ctx, order.ID)
	require.NoError(t, err)
	shipped, err := f.lifecycle.Ship(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, shipped.Status)

	// 发货后预占转为真实扣减
	quantity, reserved := f.stockOf(t, "v1")
	assert.EqualValues(t, 8, quantity)
	assert.EqualValues(t, 0, reserved)
	quantity, reserved = f.stockOf(t, "v2")
	assert.EqualValues(t, 4, quantity)
	assert.EqualValues(t, 0, reserved)
}

func TestCancelReturnsReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := checkoutOrder(t, f)

	cancelled, err := f.lifecycle.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	// 预占全部归还，总量不变
	quantity, reserved := f.stockOf(t, "v1")
	assert.EqualValues(t, 10, quantity)
	assert.EqualValues(t, 0, reserved)
	quantity, reserved = f.stockOf(t, "v2")
	assert.EqualValues(t, 5, quantity)
	assert.EqualValues(t, 0, reserved)
}

func TestCancelAfterShipmentFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := checkoutOrder(t, f)

	_, err := f.lifecycle.Confirm(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.lifecycle.Ship(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.lifecycle.Cancel(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderCannotCancel)

	_, err = f.lifecycle.Deliver(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.lifecycle.Cancel(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderCannotCancel)
}

func TestTransitionOnUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.lifecycle.Confirm(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestPaymentEventPaid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := checkoutOrder(t, f)

	err := f.lifecycle.ApplyPaymentEvent(ctx, PaymentEvent{EventID: "e1", OrderID: order.ID, Status: domain.PaymentPaid})
	require.NoError(t, err)

	updated, err := f.lifecycle.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, domain.StatusPending, updated.Status)
}

func TestPaymentEventDuplicateIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := checkoutOrder(t, f)

	require.NoError(t, f.lifecycle.ApplyPaymentEvent(ctx, PaymentEvent{EventID: "e1", OrderID: order.ID, Status: domain.PaymentPaid}))
	published := len(f.publisher.events)

	// 同一 EventID 重投：吞掉，不再广播
	require.NoError(t, f.lifecycle.ApplyPaymentEvent(ctx, PaymentEvent{EventID: "e1", OrderID: order.ID, Status: domain.PaymentPaid}))
	assert.Len(t, f.publisher.events, published)

	updated, err := f.lifecycle.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
}

// 第一次投递因瞬时故障失败后，渠道按同一 EventID 重投，事件必须最终被应用，
// 不能被幂等键吞成重复。
func TestPaymentEventRedeliveryAfterTransientFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := checkoutOrder(t, f)

	lifecycle := NewOrderLifecycleService(
		f.orderRepo,
		f.stockAdapter,
		&flakyTxRunner{failures: 1},
		f.deduper,
		f.publisher,
		f.indexer,
		otel.Tracer("test"),
	)

	event := PaymentEvent{EventID: "e1", OrderID: order.ID, Status: domain.PaymentPaid}
	require.Error(t, lifecycle.ApplyPaymentEvent(ctx, event))

	updated, err := lifecycle.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentPending, updated.PaymentStatus)

	require.NoError(t, lifecycle.ApplyPaymentEvent(ctx, event))
	updated, err = lifecycle.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
}

func TestPaymentTerminalFailureCancelsPendingOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := checkoutOrder(t, f)

	err := f.lifecycle.ApplyPaymentEvent(ctx, PaymentEvent{EventID: "e1", OrderID: order.ID, Status: domain.PaymentExpired})
	require.NoError(t, err)

	updated, err := f.lifecycle.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentExpired, updated.PaymentStatus)
	assert.Equal(t, domain.StatusCancelled, updated.Status)

	quantity, reserved := f.stockOf(t, "v1")
	assert.EqualValues(t, 10, quantity)
	assert.EqualValues(t, 0, reserved)
}

func TestPaymentInvalidTransitionRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := checkoutOrder(t, f)

	require.NoError(t, f.lifecycle.ApplyPaymentEvent(ctx, PaymentEvent{EventID: "e1", OrderID: order.ID, Status: domain.PaymentPaid}))

	err := f.lifecycle.ApplyPaymentEvent(ctx, PaymentEvent{EventID: "e2", OrderID: order.ID, Status: domain.PaymentFailed})
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentTransition)

	updated, err := f.lifecycle.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
}
