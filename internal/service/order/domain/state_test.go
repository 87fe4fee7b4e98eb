package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrder("u1", []OrderItem{
		{VariantID: "v1", Name: "Blue Tee / M", UnitPriceCents: 2500, Quantity: 2},
		{VariantID: "v2", Name: "Red Tee / L", UnitPriceCents: 3000, Quantity: 1},
	}, "", 0, 500)
	require.NoError(t, err)
	return order
}

func TestNewOrderTotals(t *testing.T) {
	order := newTestOrder(t)
	assert.EqualValues(t, 8000, order.SubtotalCents)
	assert.EqualValues(t, 8500, order.TotalCents)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, PaymentPending, order.PaymentStatus)
}

func TestNewOrderWithDiscount(t *testing.T) {
	order, err := NewOrder("u1", []OrderItem{
		{VariantID: "v1", UnitPriceCents: 10000, Quantity: 1},
	}, "SAVE10", 1000, 500)
	require.NoError(t, err)
	assert.EqualValues(t, 9500, order.TotalCents)
	assert.Equal(t, "SAVE10", order.AppliedDiscountCode)
}

func TestNewOrderRejectsEmptyItems(t *testing.T) {
	_, err := NewOrder("u1", nil, "", 0, 0)
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusConfirmed, StatusShipped, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusPending, false},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestFullLifecycle(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.Confirm())
	require.NoError(t, order.Ship())
	require.NoError(t, order.Deliver())
	assert.Equal(t, StatusDelivered, order.Status)
}

func TestShippedOrderCannotGoBack(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.Confirm())
	require.NoError(t, order.Ship())

	assert.ErrorIs(t, order.Confirm(), ErrInvalidStatusTransition)
	assert.Equal(t, StatusShipped, order.Status)
}

func TestCancelAfterShipmentRejected(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.Confirm())
	require.NoError(t, order.Ship())

	assert.ErrorIs(t, order.Cancel(), ErrOrderCannotCancel)

	require.NoError(t, order.Deliver())
	assert.ErrorIs(t, order.Cancel(), ErrOrderCannotCancel)
}

func TestCancelPendingAndConfirmed(t *testing.T) {
	pending := newTestOrder(t)
	require.NoError(t, pending.Cancel())
	assert.Equal(t, StatusCancelled, pending.Status)

	confirmed := newTestOrder(t)
	require.NoError(t, confirmed.Confirm())
	require.NoError(t, confirmed.Cancel())
	assert.Equal(t, StatusCancelled, confirmed.Status)
}

func TestPaymentTransitionTable(t *testing.T) {
	cases := []struct {
		from PaymentStatus
		to   PaymentStatus
		ok   bool
	}{
		{PaymentPending, PaymentProcessing, true},
		{PaymentPending, PaymentPaid, true},
		{PaymentProcessing, PaymentPaid, true},
		{PaymentProcessing, PaymentUnderpaid, true},
		{PaymentUnderpaid, PaymentPaid, false},
		{PaymentUnderpaid, PaymentExpired, true},
		{PaymentUnderpaid, PaymentFailed, true},
		{PaymentUnderpaid, PaymentCancelled, true},
		{PaymentPaid, PaymentFailed, false},
		{PaymentPaid, PaymentProcessing, false},
		{PaymentExpired, PaymentPaid, false},
		{PaymentFailed, PaymentPaid, false},
		{PaymentCancelled, PaymentProcessing, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.ok, CanTransitionPayment(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestApplyPaymentRejectsInvalid(t *testing.T) {
	order := newTestOrder(t)
	require.NoError(t, order.ApplyPayment(PaymentPaid))
	assert.ErrorIs(t, order.ApplyPayment(PaymentFailed), ErrInvalidPaymentTransition)
	assert.Equal(t, PaymentPaid, order.PaymentStatus)
}

func TestTerminalFailureClassification(t *testing.T) {
	assert.True(t, PaymentExpired.IsTerminalFailure())
	assert.True(t, PaymentFailed.IsTerminalFailure())
	assert.True(t, PaymentCancelled.IsTerminalFailure())
	assert.False(t, PaymentPaid.IsTerminalFailure())
	assert.False(t, PaymentUnderpaid.IsTerminalFailure())
	assert.False(t, PaymentProcessing.IsTerminalFailure())
}
