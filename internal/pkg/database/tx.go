package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// Transaction 在一个 gorm 事务中执行 fn，事务句柄通过 context 向下传递。
// 各仓储通过 FromContext 取事务句柄，从而让跨仓储的写入天然落在同一个事务里，
// 比如"创建订单 + 递增折扣用量"必须一起提交或一起回滚。
func Transaction(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// FromContext 返回 context 中携带的事务句柄；没有事务时退回普通连接。
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
