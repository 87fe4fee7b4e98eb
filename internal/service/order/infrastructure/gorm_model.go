package infrastructure

import (
	"time"
)

// OrderModel 对应数据库中的 order_header 表。
type OrderModel struct {
	ID                  string `gorm:"primaryKey;size:64"`
	UserID              string `gorm:"index;size:64"`
	Status              string `gorm:"size:32"`
	PaymentStatus       string `gorm:"size:32"`
	AppliedDiscountCode string `gorm:"size:64"`
	DiscountCents       int64
	ShippingCents       int64
	SubtotalCents       int64
	TotalCents          int64
	Items               []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (OrderModel) TableName() string {
	return "order_header"
}

// OrderItemModel 对应数据库中的 order_item 表，存放下单瞬间的商品快照。
type OrderItemModel struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	OrderID        string `gorm:"index;size:64"`
	VariantID      string `gorm:"size:64"`
	Name           string
	UnitPriceCents int64
	Quantity       int64
	CreatedAt      time.Time
}

func (OrderItemModel) TableName() string {
	return "order_item"
}
