package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/service/order/domain"
)

// KafkaIndexNotifier 把可售量变化投递到搜索索引器消费的 topic。
// 投递是尽力而为的：失败只记日志，索引器有周期性兜底对账。
type KafkaIndexNotifier struct {
	writer *kafka.Writer
}

func NewKafkaIndexNotifier(writer *kafka.Writer) *KafkaIndexNotifier {
	return &KafkaIndexNotifier{writer: writer}
}

func (n *KafkaIndexNotifier) NotifyStockChanged(ctx context.Context, variantIDs []string) {
	now := time.Now()
	for _, variantID := range variantIDs {
		event := domain.StockVisibilityEvent{VariantID: variantID, OccurredAt: now}
		payload, err := json.Marshal(event)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("variant_id", variantID).Msg("failed to encode stock visibility event")
			continue
		}
		if err := mq.ProduceMessage(ctx, n.writer, []byte(variantID), payload); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("variant_id", variantID).Msg("failed to publish stock visibility event")
		}
	}
}

// KafkaEventPublisher 把订单生命周期事件投递到 Kafka，推送网关会消费这个 topic。
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

func NewKafkaEventPublisher(writer *kafka.Writer) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer}
}

func (p *KafkaEventPublisher) PublishLifecycle(ctx context.Context, event domain.OrderLifecycleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return mq.ProduceMessage(ctx, p.writer, []byte(event.OrderID), payload)
}
