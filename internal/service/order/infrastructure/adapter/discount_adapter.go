package adapter

import (
	"context"

	"storefront/internal/service/order/port"
	promotionapp "storefront/internal/service/promotion/application"
	promotiondomain "storefront/internal/service/promotion/domain"
)

// DiscountAdapter 把折扣服务的应用层适配成编排器的出站端口。
type DiscountAdapter struct {
	promotions *promotionapp.PromotionService
}

func NewDiscountAdapter(promotions *promotionapp.PromotionService) *DiscountAdapter {
	return &DiscountAdapter{promotions: promotions}
}

func (a *DiscountAdapter) Assess(ctx context.Context, code, userID string, subtotalCents, shippingCents int64, itemCount int64, variantIDs []string) (*port.DiscountAssessment, error) {
	assessment, err := a.promotions.Assess(ctx, code, userID, subtotalCents, shippingCents, promotiondomain.Fact{
		SubtotalCents: subtotalCents,
		ItemCount:     itemCount,
		VariantIDs:    variantIDs,
	})
	if err != nil {
		return nil, err
	}
	return &port.DiscountAssessment{Code: assessment.Code, AmountCents: assessment.AmountCents}, nil
}

func (a *DiscountAdapter) ConsumeUsage(ctx context.Context, code, userID string) error {
	return a.promotions.ConsumeUsage(ctx, code, userID)
}
