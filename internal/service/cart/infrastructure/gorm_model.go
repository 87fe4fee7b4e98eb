package infrastructure

import "time"

// CartItemModel 对应数据库中的 cart_item 表。
// 购物车本身没有独立的表，user_id 就是聚合边界。
type CartItemModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"index:idx_cart_user_variant,unique;size:64"`
	VariantID string `gorm:"index:idx_cart_user_variant,unique;size:64"`
	Quantity  int64
	AddedAt   time.Time
	UpdatedAt time.Time
}

func (CartItemModel) TableName() string {
	return "cart_item"
}
