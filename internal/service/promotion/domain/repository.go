package domain

import "context"

// DiscountRepository 定义折扣记录与用量计数的持久化接口。
type DiscountRepository interface {
	FindByCode(ctx context.Context, code string) (*Discount, error)

	// GlobalUsage 返回该折扣码在成功完成的订单上被使用的总次数。
	GlobalUsage(ctx context.Context, code string) (int64, error)

	// UserUsage 返回 (折扣, 用户) 维度的使用次数。
	UserUsage(ctx context.Context, code, userID string) (int64, error)

	// IncrementUsage 递增全局和用户两个计数。
	// 必须和订单落库在同一个事务里执行，只增不减。
	IncrementUsage(ctx context.Context, code, userID string) error
}
