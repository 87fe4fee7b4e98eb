package domain

import "time"

// OrderLifecycleEvent 是订单生命周期变化对外广播的消息体，
// 供推送网关和其他下游消费者使用。
type OrderLifecycleEvent struct {
	EventID       string        `json:"event_id"`
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// StockVisibilityEvent 通知搜索索引器某个规格的可售量发生了变化。
// 投递是尽力而为的，索引器自身会周期性兜底对账。
type StockVisibilityEvent struct {
	VariantID  string    `json:"variant_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
