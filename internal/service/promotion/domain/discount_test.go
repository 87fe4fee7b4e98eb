package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func baseDiscount() *Discount {
	return &Discount{
		Code:              "SAVE10",
		Type:              DiscountTypeAmount,
		ValueCents:        10000,
		MinOrderCents:     100000,
		StartsAt:          time.Now().Add(-24 * time.Hour),
		EndsAt:            time.Now().Add(24 * time.Hour),
		UsageLimitGlobal:  100,
		UsageLimitPerUser: 1,
		IsActive:          true,
	}
}

// 校验固定顺序短路，每条失败有独立原因。
func TestEvaluateOrderedChecks(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		mutate   func(d *Discount)
		subtotal int64
		global   int64
		user     int64
		want     FailureReason
	}{
		{
			name:   "inactive wins over everything else",
			mutate: func(d *Discount) { d.IsActive = false; d.EndsAt = now.Add(-time.Hour) },
			want:   ReasonDiscountInactive,
		},
		{
			name:   "not started",
			mutate: func(d *Discount) { d.StartsAt = now.Add(time.Hour) },
			want:   ReasonDiscountNotStarted,
		},
		{
			name:   "expired",
			mutate: func(d *Discount) { d.EndsAt = now.Add(-time.Hour) },
			want:   ReasonDiscountExpired,
		},
		{
			name:   "global limit reached",
			global: 100,
			want:   ReasonUsageLimitReached,
		},
		{
			name: "user limit reached",
			user: 1,
			want: ReasonUserUsageLimit,
		},
		{
			name:     "min order not met",
			subtotal: 80000,
			want:     ReasonMinOrderNotMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := baseDiscount()
			if tt.mutate != nil {
				tt.mutate(d)
			}
			subtotal := tt.subtotal
			if subtotal == 0 {
				subtotal = 200000
			}
			v := Evaluate(d, subtotal, 1500, tt.global, tt.user, now)
			assert.False(t, v.Eligible)
			assert.Equal(t, tt.want, v.Reason)
			assert.Zero(t, v.AmountCents)
		})
	}
}

// SAVE10 要求 minOrderAmount=100000，小计 80000 时失败 MinOrderNotMet。
func TestEvaluateMinOrderScenario(t *testing.T) {
	d := baseDiscount()
	v := Evaluate(d, 80000, 1500, 0, 0, time.Now())
	assert.False(t, v.Eligible)
	assert.Equal(t, ReasonMinOrderNotMet, v.Reason)
}

func TestEvaluateFlatAmount(t *testing.T) {
	d := baseDiscount()
	v := Evaluate(d, 150000, 1500, 0, 0, time.Now())
	assert.True(t, v.Eligible)
	assert.EqualValues(t, 10000, v.AmountCents)
}

// 立减金额超过小计时封顶，总价不能为负。
func TestEvaluateAmountCappedAtSubtotal(t *testing.T) {
	d := baseDiscount()
	d.ValueCents = 500000
	d.MinOrderCents = 0
	v := Evaluate(d, 120000, 1500, 0, 0, time.Now())
	assert.True(t, v.Eligible)
	assert.EqualValues(t, 120000, v.AmountCents)
}

func TestEvaluatePercentageWithCeiling(t *testing.T) {
	d := baseDiscount()
	d.Percent = 10
	d.MaxAmountCents = 5000
	v := Evaluate(d, 200000, 1500, 0, 0, time.Now())
	assert.True(t, v.Eligible)
	// 10% of 200000 = 20000, 封顶 5000
	assert.EqualValues(t, 5000, v.AmountCents)
}

// SHIP 类型只作用于运费，且封顶在运费。
func TestEvaluateShippingDiscount(t *testing.T) {
	d := baseDiscount()
	d.Type = DiscountTypeShip
	d.ValueCents = 99999
	v := Evaluate(d, 150000, 1500, 0, 0, time.Now())
	assert.True(t, v.Eligible)
	assert.EqualValues(t, 1500, v.AmountCents)
}

func TestEvaluateBoundaryTimes(t *testing.T) {
	now := time.Now()
	d := baseDiscount()
	d.StartsAt = now
	d.EndsAt = now

	// now 恰好等于边界时两端都算有效
	v := Evaluate(d, 150000, 1500, 0, 0, now)
	assert.True(t, v.Eligible)
}
