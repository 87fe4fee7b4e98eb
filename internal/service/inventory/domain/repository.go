package domain

import "context"

// StockRepository 定义库存计数对的持久化接口，由基础设施层实现。
// Reserve 必须是原子的条件更新：两个并发预占同一规格、合计超过可售量时，
// 必须恰好一个失败。
type StockRepository interface {
	// Reserve 原子执行 reserved += qty，前提 available >= qty；
	// 条件不满足返回 ErrInsufficientStock。
	Reserve(ctx context.Context, variantID string, qty int64) error

	// Release 执行 reserved -= qty，下限为 0。
	Release(ctx context.Context, variantID string, qty int64) error

	// Commit 同时扣减 quantity 和 reserved，表示库存实际出库；
	// qty > reserved 时返回 ErrInvalidState。
	Commit(ctx context.Context, variantID string, qty int64) error

	// Restock 执行 quantity += delta 并刷新 LastRestockedAt，不触碰 reserved。
	Restock(ctx context.Context, variantID string, delta int64) error

	// Get 返回当前计数对。
	Get(ctx context.Context, variantID string) (*VariantStock, error)
}

// VariantRepository 提供规格目录的读取。
type VariantRepository interface {
	FindByID(ctx context.Context, variantID string) (*Variant, error)
}
