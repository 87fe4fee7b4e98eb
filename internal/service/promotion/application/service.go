package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/promotion/domain"
)

// PromotionService 是折扣服务的应用层。
// 评估本身是纯函数；这一层负责取数（折扣记录和两个用量计数）和范围规则求值。
type PromotionService struct {
	repo       domain.DiscountRepository
	ruleEngine domain.RuleEngine
	tracer     trace.Tracer
}

func NewPromotionService(repo domain.DiscountRepository, ruleEngine domain.RuleEngine, tracer trace.Tracer) *PromotionService {
	return &PromotionService{repo: repo, ruleEngine: ruleEngine, tracer: tracer}
}

// Assessment 是一次完整评估的结果。
type Assessment struct {
	Code        string
	Type        domain.DiscountType
	AmountCents int64
}

// Assess 查找折扣并做完整的资格评估。
// 不合格时返回 *domain.IneligibleError；从不改动用量计数。
func (s *PromotionService) Assess(ctx context.Context, code, userID string, subtotalCents, shippingCents int64, fact domain.Fact) (*Assessment, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.Assess")
	defer span.End()
	span.SetAttributes(
		attribute.String("discount.code", code),
		attribute.String("user.id", userID),
		attribute.Int64("order.subtotal_cents", subtotalCents),
	)

	if code == "" {
		return nil, domain.ErrInvalidCode
	}

	discount, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	globalUsed, err := s.repo.GlobalUsage(ctx, code)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	userUsed, err := s.repo.UserUsage(ctx, code, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	verdict := domain.Evaluate(discount, subtotalCents, shippingCents, globalUsed, userUsed, time.Now())
	if !verdict.Eligible {
		span.SetAttributes(attribute.String("discount.failure_reason", string(verdict.Reason)))
		return nil, &domain.IneligibleError{Reason: verdict.Reason}
	}

	if discount.ScopeRule != "" {
		ok, err := s.ruleEngine.Evaluate(discount.ScopeRule, fact)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if !ok {
			return nil, &domain.IneligibleError{Reason: domain.ReasonDiscountNotApplicable}
		}
	}

	return &Assessment{Code: discount.Code, Type: discount.Type, AmountCents: verdict.AmountCents}, nil
}

// ConsumeUsage 递增折扣用量。只在订单成功落库的事务 context 里调用。
func (s *PromotionService) ConsumeUsage(ctx context.Context, code, userID string) error {
	if err := s.repo.IncrementUsage(ctx, code, userID); err != nil {
		return err
	}
	logger.Ctx(ctx).Info().Str("discount_code", code).Str("user_id", userID).Msg("discount usage consumed")
	return nil
}
