package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"storefront/internal/service/promotion/domain"
	"storefront/internal/service/promotion/infrastructure"
	"storefront/internal/service/promotion/infrastructure/rule"
)

func newService(t *testing.T) (*PromotionService, *infrastructure.MemoryDiscountRepository) {
	t.Helper()
	repo := infrastructure.NewMemoryDiscountRepository()
	engine, err := rule.NewCELRuleEngine()
	require.NoError(t, err)
	return NewPromotionService(repo, engine, otel.Tracer("test")), repo
}

func seedDiscount(repo *infrastructure.MemoryDiscountRepository, d *domain.Discount) {
	if d.StartsAt.IsZero() {
		d.StartsAt = time.Now().Add(-time.Hour)
	}
	if d.EndsAt.IsZero() {
		d.EndsAt = time.Now().Add(time.Hour)
	}
	repo.Seed(d)
}

func TestAssessEligible(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	seedDiscount(repo, &domain.Discount{
		Code:              "SAVE10",
		Type:              domain.DiscountTypeAmount,
		ValueCents:        1000,
		MinOrderCents:     5000,
		UsageLimitGlobal:  10,
		UsageLimitPerUser: 1,
		IsActive:          true,
	})

	assessment, err := svc.Assess(ctx, "SAVE10", "u1", 8000, 500, domain.Fact{SubtotalCents: 8000, ItemCount: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 1000, assessment.AmountCents)
}

// 两个请求都在对方消耗之前做完只读评估，靠消耗时的条件递增守住全局上限。
func TestConsumeUsageEnforcesGlobalLimit(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	seedDiscount(repo, &domain.Discount{
		Code:              "ONCE",
		Type:              domain.DiscountTypeAmount,
		ValueCents:        500,
		UsageLimitGlobal:  1,
		UsageLimitPerUser: 1,
		IsActive:          true,
	})

	_, err := svc.Assess(ctx, "ONCE", "u1", 8000, 500, domain.Fact{SubtotalCents: 8000})
	require.NoError(t, err)
	_, err = svc.Assess(ctx, "ONCE", "u2", 8000, 500, domain.Fact{SubtotalCents: 8000})
	require.NoError(t, err)

	require.NoError(t, svc.ConsumeUsage(ctx, "ONCE", "u1"))

	err = svc.ConsumeUsage(ctx, "ONCE", "u2")
	var ineligible *domain.IneligibleError
	require.ErrorAs(t, err, &ineligible)
	assert.Equal(t, domain.ReasonUsageLimitReached, ineligible.Reason)

	global, err := repo.GlobalUsage(ctx, "ONCE")
	require.NoError(t, err)
	assert.EqualValues(t, 1, global)
}

func TestConsumeUsageEnforcesPerUserLimit(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService(t)
	seedDiscount(repo, &domain.Discount{
		Code:              "LOYAL",
		Type:              domain.DiscountTypeAmount,
		ValueCents:        500,
		UsageLimitGlobal:  10,
		UsageLimitPerUser: 1,
		IsActive:          true,
	})

	require.NoError(t, svc.ConsumeUsage(ctx, "LOYAL", "u1"))

	err := svc.ConsumeUsage(ctx, "LOYAL", "u1")
	var ineligible *domain.IneligibleError
	require.ErrorAs(t, err, &ineligible)
	assert.Equal(t, domain.ReasonUserUsageLimit, ineligible.Reason)

	user, err := repo.UserUsage(ctx, "LOYAL", "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, user)
}
