package domain

import "context"

// CartRepository 定义购物车聚合的持久化接口。
// Load 在用户还没有购物车时返回一个空聚合（惰性创建）。
type CartRepository interface {
	Load(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	// Clear 删除购物车中的所有条目，结算成功后调用。
	Clear(ctx context.Context, userID string) error
}
