package adapter

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/pkg/database"
)

// GormTxRunner 用一个 gorm 事务执行 fn，
// 事务句柄放进 context 传给沿途的仓储。
type GormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) *GormTxRunner {
	return &GormTxRunner{db: db}
}

func (r *GormTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.Transaction(ctx, r.db, fn)
}

// PassthroughTxRunner 直接执行 fn，不提供事务语义。
// 供进程内仓储的本地模式和测试使用。
type PassthroughTxRunner struct{}

func (PassthroughTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
