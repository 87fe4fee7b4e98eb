package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AssessDiscountHandler 在库存预占之后、订单落库之前评估折扣码。
// 评估只读，不动用量计数；不合格会让整个结算失败并触发回滚。
// 未携带折扣码时直接跳过。
type AssessDiscountHandler struct {
	NextHandler
	shippingCents int64
}

func NewAssessDiscountHandler(shippingCents int64) *AssessDiscountHandler {
	return &AssessDiscountHandler{shippingCents: shippingCents}
}

func (h *AssessDiscountHandler) Handle(checkoutCtx *CheckoutContext) error {
	checkoutCtx.ShippingCents = h.shippingCents

	if checkoutCtx.DiscountCode == "" {
		return h.executeNext(checkoutCtx)
	}

	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.AssessDiscount")
	defer span.End()
	span.SetAttributes(attribute.String("discount.code", checkoutCtx.DiscountCode))

	var itemCount int64
	variantIDs := make([]string, 0, len(checkoutCtx.Items))
	for _, item := range checkoutCtx.Items {
		itemCount += item.Quantity
		variantIDs = append(variantIDs, item.VariantID)
	}

	assessment, err := checkoutCtx.Discounts.Assess(
		ctx,
		checkoutCtx.DiscountCode,
		checkoutCtx.UserID,
		checkoutCtx.SubtotalCents,
		h.shippingCents,
		itemCount,
		variantIDs,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discount assessment failed")
		return err
	}

	checkoutCtx.DiscountCents = assessment.AmountCents
	span.SetAttributes(attribute.Int64("discount.amount_cents", assessment.AmountCents))

	return h.executeNext(checkoutCtx)
}
