package saga

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pkg/errors"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
)

// ReserveStockHandler 负责逐行预占库存。
// 预占按规格 ID 升序进行，所有并发结算遵循同一顺序，避免交叉死锁。
// 每预占成功一行就注册一个对应的归还补偿；
// 任何一行失败，之前已成功的行会被补偿栈逐一归还。
type ReserveStockHandler struct {
	NextHandler
}

func (h *ReserveStockHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.ReserveStock")
	defer span.End()

	items := make([]domain.OrderItem, len(checkoutCtx.Items))
	copy(items, checkoutCtx.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].VariantID < items[j].VariantID })

	for _, item := range items {
		variantID, qty := item.VariantID, item.Quantity
		if err := checkoutCtx.Stock.Reserve(ctx, variantID, qty); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stock reservation failed")
			// 只有余量不足才归一成 ErrInsufficientStock，其余错误原样透传
			if errors.Is(err, domain.ErrInsufficientStock) {
				return errors.Wrapf(domain.ErrInsufficientStock, "variant %s", variantID)
			}
			return errors.Wrapf(err, "reserve variant %s", variantID)
		}
		span.AddEvent("variant reserved", trace.WithAttributes(
			attribute.String("variant.id", variantID),
			attribute.Int64("quantity", qty),
		))

		checkoutCtx.AddCompensation(func(compCtx context.Context) {
			compCtx, compSpan := checkoutCtx.Tracer.Start(compCtx, "saga.compensation.ReleaseStock")
			defer compSpan.End()
			compSpan.SetAttributes(attribute.String("variant.id", variantID))

			// 归还失败需要人工介入，这里只能记录
			if err := checkoutCtx.Stock.Release(compCtx, variantID, qty); err != nil {
				compSpan.RecordError(err)
				logger.Ctx(compCtx).Error().Err(err).
					Str("variant_id", variantID).
					Int64("quantity", qty).
					Msg("failed to release reserved stock during rollback")
			}
		})
	}

	return h.executeNext(checkoutCtx)
}
