package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/pkg/logger"
	"storefront/internal/service/order/domain"
	"storefront/internal/service/order/port"
)

// PaymentEvent 是支付渠道回调送来的事件。
// 同一个 EventID 可能被投递多次，处理必须幂等。
type PaymentEvent struct {
	EventID string
	OrderID string
	Status  domain.PaymentStatus
}

// OrderLifecycleService 负责订单创建之后的生命周期：
// 确认、发货、签收、取消，以及支付回调的消化。
type OrderLifecycleService struct {
	repo      domain.OrderRepository
	stock     port.StockLedger
	tx        port.TxRunner
	deduper   port.PaymentEventDeduper
	publisher port.EventPublisher
	indexer   port.IndexNotifier
	tracer    trace.Tracer
}

func NewOrderLifecycleService(
	repo domain.OrderRepository,
	stock port.StockLedger,
	tx port.TxRunner,
	deduper port.PaymentEventDeduper,
	publisher port.EventPublisher,
	indexer port.IndexNotifier,
	tracer trace.Tracer,
) *OrderLifecycleService {
	return &OrderLifecycleService{
		repo:      repo,
		stock:     stock,
		tx:        tx,
		deduper:   deduper,
		publisher: publisher,
		indexer:   indexer,
		tracer:    tracer,
	}
}

// Get 查询订单。
func (s *OrderLifecycleService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

// Confirm 把订单从 PENDING 推进到 CONFIRMED。
func (s *OrderLifecycleService) Confirm(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.mutate(ctx, "order.Confirm", orderID, func(txCtx context.Context, order *domain.Order) error {
		return order.Confirm()
	})
}

// Ship 发货：订单进入 SHIPPED，同一个事务里把每行的预占转为真实扣减。
func (s *OrderLifecycleService) Ship(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.mutate(ctx, "order.Ship", orderID, func(txCtx context.Context, order *domain.Order) error {
		if err := order.Ship(); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := s.stock.Commit(txCtx, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// Deliver 签收。
func (s *OrderLifecycleService) Deliver(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.mutate(ctx, "order.Deliver", orderID, func(txCtx context.Context, order *domain.Order) error {
		return order.Deliver()
	})
}

// Cancel 取消订单：订单进入 CANCELLED，同一个事务里把每行的预占归还。
// 已发货或已签收的订单不可取消。
func (s *OrderLifecycleService) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.mutate(ctx, "order.Cancel", orderID, func(txCtx context.Context, order *domain.Order) error {
		if err := order.Cancel(); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := s.stock.Release(txCtx, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyPaymentEvent 消化一条支付回调。
// 重复投递的事件直接吞掉；非法的支付状态流转返回错误。
// 支付进入失败类终态且订单仍是 PENDING 时，顺带取消订单并归还预占。
func (s *OrderLifecycleService) ApplyPaymentEvent(ctx context.Context, event PaymentEvent) error {
	ctx, span := s.tracer.Start(ctx, "order.ApplyPaymentEvent")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.event_id", event.EventID),
		attribute.String("order.id", event.OrderID),
		attribute.String("payment.status", string(event.Status)),
	)

	first, err := s.deduper.FirstDelivery(ctx, event.EventID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !first {
		span.AddEvent("duplicate payment event ignored")
		logger.Ctx(ctx).Info().
			Str("event_id", event.EventID).
			Str("order_id", event.OrderID).
			Msg("duplicate payment event ignored")
		return nil
	}

	var updated *domain.Order
	err = s.tx.InTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.FindByID(txCtx, event.OrderID)
		if err != nil {
			return err
		}
		if err := order.ApplyPayment(event.Status); err != nil {
			return err
		}
		if event.Status.IsTerminalFailure() && order.Status == domain.StatusPending {
			if err := order.Cancel(); err != nil {
				return err
			}
			for _, item := range order.Items {
				if err := s.stock.Release(txCtx, item.VariantID, item.Quantity); err != nil {
					return err
				}
			}
		}
		if err := s.repo.Save(txCtx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment event rejected")
		// 处理失败必须释放幂等键，否则渠道按事件 ID 重投时会被吞成重复，
		// 这条状态变更就永远丢了
		if relErr := s.deduper.Release(ctx, event.EventID); relErr != nil {
			logger.Ctx(ctx).Error().Err(relErr).
				Str("event_id", event.EventID).
				Msg("failed to release payment event dedup key")
		}
		return err
	}

	s.publish(ctx, updated)
	if updated.Status == domain.StatusCancelled {
		s.notifyStock(ctx, updated)
	}
	return nil
}

// mutate 是生命周期流转的公共骨架：加载、变更、保存在一个事务里完成，
// 成功后在事务外广播事件。
func (s *OrderLifecycleService) mutate(ctx context.Context, spanName, orderID string, fn func(txCtx context.Context, order *domain.Order) error) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	var updated *domain.Order
	err := s.tx.InTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.FindByID(txCtx, orderID)
		if err != nil {
			return err
		}
		if err := fn(txCtx, order); err != nil {
			return err
		}
		if err := s.repo.Save(txCtx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order transition failed")
		return nil, err
	}

	s.publish(ctx, updated)
	if updated.Status == domain.StatusCancelled || updated.Status == domain.StatusShipped {
		s.notifyStock(ctx, updated)
	}
	return updated, nil
}

func (s *OrderLifecycleService) publish(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	event := domain.OrderLifecycleEvent{
		EventID:       uuid.New().String(),
		OrderID:       order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		OccurredAt:    time.Now(),
	}
	if err := s.publisher.PublishLifecycle(ctx, event); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("order_id", order.ID).
			Msg("failed to publish order lifecycle event")
	}
}

func (s *OrderLifecycleService) notifyStock(ctx context.Context, order *domain.Order) {
	if s.indexer == nil {
		return
	}
	variantIDs := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		variantIDs = append(variantIDs, item.VariantID)
	}
	s.indexer.NotifyStockChanged(ctx, variantIDs)
}
