package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// VariantModel 对应数据库中的 variant 表。
type VariantModel struct {
	ID         string `gorm:"primaryKey;size:64"`
	SKU        string `gorm:"uniqueIndex;size:64"`
	Name       string
	PriceCents int64
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (VariantModel) TableName() string {
	return "variant"
}

// VariantStockModel 对应数据库中的 variant_stock 表。
// 和 variant 同生命周期：随规格创建、随规格删除。
type VariantStockModel struct {
	VariantID       string `gorm:"primaryKey;size:64"`
	Quantity        int64
	Reserved        int64
	LastRestockedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (VariantStockModel) TableName() string {
	return "variant_stock"
}
