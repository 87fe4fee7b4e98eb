package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/pkg/database"
	"storefront/internal/service/promotion/domain"
)

// GormDiscountRepository 是 DiscountRepository 的 MySQL 实现。
type GormDiscountRepository struct {
	db *gorm.DB
}

func NewGormDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

func (r *GormDiscountRepository) FindByCode(ctx context.Context, code string) (*domain.Discount, error) {
	var model DiscountModel
	err := database.FromContext(ctx, r.db).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDiscountNotFound
		}
		return nil, errors.Wrap(err, "find discount")
	}
	return ToDomainDiscount(&model), nil
}

func (r *GormDiscountRepository) GlobalUsage(ctx context.Context, code string) (int64, error) {
	var model DiscountModel
	err := database.FromContext(ctx, r.db).Select("used_count").Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrDiscountNotFound
		}
		return 0, errors.Wrap(err, "read global usage")
	}
	return model.UsedCount, nil
}

func (r *GormDiscountRepository) UserUsage(ctx context.Context, code, userID string) (int64, error) {
	var usage DiscountUsageModel
	err := database.FromContext(ctx, r.db).Where("code = ? AND user_id = ?", code, userID).First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "read user usage")
	}
	return usage.UsedCount, nil
}

// IncrementUsage 递增两个计数。调用方负责把它放进订单落库的事务里
// （通过 database.Transaction 传下来的 context）。
// 只读评估和这里的递增之间存在窗口：两个并发结算可能都通过了评估，
// 所以递增自身带上限守卫，超限的那一个命中 0 行并让整个事务回滚。
func (r *GormDiscountRepository) IncrementUsage(ctx context.Context, code, userID string) error {
	db := database.FromContext(ctx, r.db)

	res := db.Model(&DiscountModel{}).
		Where("code = ? AND used_count < usage_limit_global", code).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return errors.Wrap(res.Error, "increment global usage")
	}
	if res.RowsAffected == 0 {
		var model DiscountModel
		if err := db.Select("id").Where("code = ?", code).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrDiscountNotFound
			}
			return errors.Wrap(err, "increment global usage")
		}
		return &domain.IneligibleError{Reason: domain.ReasonUsageLimitReached}
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"used_count": gorm.Expr("used_count + 1")}),
	}).Create(&DiscountUsageModel{Code: code, UserID: userID, UsedCount: 1}).Error
	if err != nil {
		return errors.Wrap(err, "increment user usage")
	}

	// 用户维度的上限在 upsert 之后读回校验，违规同样让事务回滚
	var d DiscountModel
	if err := db.Select("usage_limit_per_user").Where("code = ?", code).First(&d).Error; err != nil {
		return errors.Wrap(err, "read user usage limit")
	}
	var usage DiscountUsageModel
	if err := db.Where("code = ? AND user_id = ?", code, userID).First(&usage).Error; err != nil {
		return errors.Wrap(err, "read back user usage")
	}
	if usage.UsedCount > d.UsageLimitPerUser {
		return &domain.IneligibleError{Reason: domain.ReasonUserUsageLimit}
	}
	return nil
}
