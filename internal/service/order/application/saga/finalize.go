package saga

import (
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
)

// FinalizeHandler 是链上的最后一步：清空购物车、通知搜索索引器、广播订单事件。
// 走到这里订单已经成功落库，这几件事失败都只记日志，不回滚订单。
type FinalizeHandler struct {
	NextHandler
}

func (h *FinalizeHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.Finalize")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", checkoutCtx.Order.ID))

	if err := checkoutCtx.Carts.Clear(ctx, checkoutCtx.UserID); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).
			Str("user_id", checkoutCtx.UserID).
			Str("order_id", checkoutCtx.Order.ID).
			Msg("failed to clear cart after checkout")
	}

	if checkoutCtx.Indexer != nil {
		variantIDs := make([]string, 0, len(checkoutCtx.Order.Items))
		for _, item := range checkoutCtx.Order.Items {
			variantIDs = append(variantIDs, item.VariantID)
		}
		checkoutCtx.Indexer.NotifyStockChanged(ctx, variantIDs)
	}

	if checkoutCtx.Events != nil {
		event := domain.OrderLifecycleEvent{
			EventID:       uuid.New().String(),
			OrderID:       checkoutCtx.Order.ID,
			UserID:        checkoutCtx.Order.UserID,
			Status:        checkoutCtx.Order.Status,
			PaymentStatus: checkoutCtx.Order.PaymentStatus,
			OccurredAt:    time.Now(),
		}
		if err := checkoutCtx.Events.PublishLifecycle(ctx, event); err != nil {
			span.RecordError(err)
			logger.Ctx(ctx).Error().Err(err).
				Str("order_id", checkoutCtx.Order.ID).
				Msg("failed to publish order created event")
		}
	}

	return h.executeNext(checkoutCtx)
}
