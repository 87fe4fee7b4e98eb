package infrastructure

import (
	"time"

	"gorm.io/gorm"

	"storefront/internal/service/promotion/domain"
)

// DiscountModel 对应数据库中的 discount 表。
type DiscountModel struct {
	gorm.Model
	Code              string              `gorm:"uniqueIndex;size:64"`
	Type              domain.DiscountType `gorm:"size:16"`
	ValueCents        int64
	Percent           int64
	MaxAmountCents    int64
	MinOrderCents     int64
	StartsAt          time.Time
	EndsAt            time.Time
	UsageLimitGlobal  int64
	UsageLimitPerUser int64
	IsActive          bool
	ScopeRule         string `gorm:"type:text"`
	// UsedCount 是全局用量计数，和 discount_usage 行一起在订单事务里递增。
	UsedCount int64
}

func (DiscountModel) TableName() string {
	return "discount"
}

// DiscountUsageModel 对应 discount_usage 表，(折扣, 用户) 维度的计数。
type DiscountUsageModel struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"index:idx_usage_code_user,unique;size:64"`
	UserID    string `gorm:"index:idx_usage_code_user,unique;size:64"`
	UsedCount int64
	UpdatedAt time.Time
}

func (DiscountUsageModel) TableName() string {
	return "discount_usage"
}
