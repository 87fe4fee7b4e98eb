package adapter

import (
	"context"
	"time"

	"storefront/internal/pkg/redisx"
)

const paymentEventTTL = 24 * time.Hour

// RedisPaymentDeduper 用 Redis SETNX 对支付回调做幂等判定。
// 键带 24 小时过期：支付渠道的重投窗口远小于这个值。
type RedisPaymentDeduper struct {
	client *redisx.Client
}

func NewRedisPaymentDeduper(client *redisx.Client) *RedisPaymentDeduper {
	return &RedisPaymentDeduper{client: client}
}

func (d *RedisPaymentDeduper) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	return d.client.SetNXOnce(ctx, "payment-event:"+eventID, paymentEventTTL)
}

// Release 删除幂等键。事件处理失败后调用，渠道重投才能再次进来。
func (d *RedisPaymentDeduper) Release(ctx context.Context, eventID string) error {
	return d.client.GetClient().Del(ctx, "payment-event:"+eventID).Err()
}

// MemoryPaymentDeduper 是进程内的幂等判定，供测试和本地模式使用。
type MemoryPaymentDeduper struct {
	seen map[string]bool
}

func NewMemoryPaymentDeduper() *MemoryPaymentDeduper {
	return &MemoryPaymentDeduper{seen: make(map[string]bool)}
}

func (d *MemoryPaymentDeduper) FirstDelivery(_ context.Context, eventID string) (bool, error) {
	if d.seen[eventID] {
		return false, nil
	}
	d.seen[eventID] = true
	return true, nil
}

func (d *MemoryPaymentDeduper) Release(_ context.Context, eventID string) error {
	delete(d.seen, eventID)
	return nil
}
