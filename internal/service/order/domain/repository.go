package domain

import "context"

// OrderRepository 定义订单聚合的持久化端口。
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, orderID string) (*Order, error)
	Save(ctx context.Context, order *Order) error
}
