package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pkg/errors"

	"storefront/internal/service/order/domain"
)

// LoadCartHandler 负责取购物车快照并对每行重新定价。
// 规格以当前目录里的名称和单价为准冻结进订单；
// 任何一行的规格已下架，整个结算立即失败。
type LoadCartHandler struct {
	NextHandler
}

func (h *LoadCartHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.LoadCart")
	defer span.End()

	lines, err := checkoutCtx.Carts.Snapshot(ctx, checkoutCtx.UserID)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "load cart snapshot")
	}
	if len(lines) == 0 {
		span.SetStatus(codes.Error, "cart is empty")
		return domain.ErrCartEmpty
	}
	span.SetAttributes(attribute.Int("cart.lines", len(lines)))

	items := make([]domain.OrderItem, 0, len(lines))
	var subtotal int64
	for _, line := range lines {
		variant, err := checkoutCtx.Catalog.Variant(ctx, line.VariantID)
		if err != nil {
			span.RecordError(err)
			return errors.Wrapf(err, "load variant %s", line.VariantID)
		}
		if !variant.Active {
			span.SetStatus(codes.Error, "variant no longer purchasable")
			return errors.Wrapf(domain.ErrProductUnavailable, "variant %s", line.VariantID)
		}
		items = append(items, domain.OrderItem{
			VariantID:      variant.ID,
			Name:           variant.Name,
			UnitPriceCents: variant.PriceCents,
			Quantity:       line.Quantity,
		})
		subtotal += variant.PriceCents * line.Quantity
	}

	checkoutCtx.Items = items
	checkoutCtx.SubtotalCents = subtotal
	span.SetAttributes(attribute.Int64("order.subtotal_cents", subtotal))

	return h.executeNext(checkoutCtx)
}
