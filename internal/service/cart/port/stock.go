package port

import "context"

// StockView 是购物车对库存/目录的出站端口。
// 这里的可售量只做提示性校验，最终裁决在结算时的预占。
type StockView interface {
	Available(ctx context.Context, variantID string) (int64, error)
	VariantActive(ctx context.Context, variantID string) (bool, error)
}

// CartLocker 串行化同一用户购物车的写操作，避免并发丢更新。
// 不同用户之间互不影响。
type CartLocker interface {
	WithLock(ctx context.Context, userID string, fn func() error) error
}
