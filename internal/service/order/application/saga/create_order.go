package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pkg/errors"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
)

// CreateOrderHandler 把订单落库。
// 订单写入和折扣用量递增在同一个数据库事务里完成，
// 事务失败时两者一起回滚，用量计数不会出现幻增。
// 事务允许有限次重试，应对偶发的写冲突。
type CreateOrderHandler struct {
	NextHandler
	retryLimit int
}

func NewCreateOrderHandler(retryLimit int) *CreateOrderHandler {
	if retryLimit < 0 {
		retryLimit = 0
	}
	return &CreateOrderHandler{retryLimit: retryLimit}
}

func (h *CreateOrderHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.CreateOrder")
	defer span.End()

	order, err := domain.NewOrder(
		checkoutCtx.UserID,
		checkoutCtx.Items,
		checkoutCtx.DiscountCode,
		checkoutCtx.DiscountCents,
		checkoutCtx.ShippingCents,
	)
	if err != nil {
		return err
	}
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.Int64("order.total_cents", order.TotalCents),
	)

	var lastErr error
	for attempt := 0; attempt <= h.retryLimit; attempt++ {
		lastErr = checkoutCtx.Tx.InTx(ctx, func(txCtx context.Context) error {
			if err := checkoutCtx.Repo.Create(txCtx, order); err != nil {
				return errors.Wrap(err, "persist order")
			}
			if checkoutCtx.DiscountCode != "" {
				if err := checkoutCtx.Discounts.ConsumeUsage(txCtx, checkoutCtx.DiscountCode, checkoutCtx.UserID); err != nil {
					return errors.Wrap(err, "consume discount usage")
				}
			}
			return nil
		})
		if lastErr == nil {
			break
		}
		logger.Ctx(ctx).Warn().Err(lastErr).
			Str("order_id", order.ID).
			Int("attempt", attempt+1).
			Msg("order transaction failed")
	}
	if lastErr != nil {
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, "order transaction failed")
		return lastErr
	}

	checkoutCtx.Order = order
	span.AddEvent("order persisted")

	return h.executeNext(checkoutCtx)
}
