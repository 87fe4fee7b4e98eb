package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/pkg/database"
	"storefront/internal/service/inventory/domain"
)

// GormStockRepository 是 StockRepository 的 MySQL 实现。
// 计数变更全部走带条件的单行 UPDATE，由数据库的行锁保证原子性，
// 不依赖进程内的同步原语，多副本部署下同样成立。
type GormStockRepository struct {
	db *gorm.DB
}

func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) Reserve(ctx context.Context, variantID string, qty int64) error {
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}
	// 条件更新：只有 available >= qty 的行才会被命中。
	// 两个并发请求合计超售时，后执行者命中 0 行。
	res := database.FromContext(ctx, r.db).Model(&VariantStockModel{}).
		Where("variant_id = ? AND quantity - reserved >= ?", variantID, qty).
		Update("reserved", gorm.Expr("reserved + ?", qty))
	if res.Error != nil {
		return errors.Wrap(res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		if err := r.mustExist(ctx, variantID); err != nil {
			return err
		}
		return domain.ErrInsufficientStock
	}
	return nil
}

func (r *GormStockRepository) Release(ctx context.Context, variantID string, qty int64) error {
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}
	// LEAST 保证 reserved 不会被扣成负数
	res := database.FromContext(ctx, r.db).Model(&VariantStockModel{}).
		Where("variant_id = ?", variantID).
		Update("reserved", gorm.Expr("reserved - LEAST(reserved, ?)", qty))
	if res.Error != nil {
		return errors.Wrap(res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

func (r *GormStockRepository) Commit(ctx context.Context, variantID string, qty int64) error {
	if qty < 1 {
		return domain.ErrInvalidQuantity
	}
	res := database.FromContext(ctx, r.db).Model(&VariantStockModel{}).
		Where("variant_id = ? AND reserved >= ?", variantID, qty).
		Updates(map[string]interface{}{
			"quantity": gorm.Expr("quantity - ?", qty),
			"reserved": gorm.Expr("reserved - ?", qty),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "commit stock")
	}
	if res.RowsAffected == 0 {
		if err := r.mustExist(ctx, variantID); err != nil {
			return err
		}
		return domain.ErrInvalidState
	}
	return nil
}

func (r *GormStockRepository) Restock(ctx context.Context, variantID string, delta int64) error {
	if delta < 1 {
		return domain.ErrInvalidQuantity
	}
	res := database.FromContext(ctx, r.db).Model(&VariantStockModel{}).
		Where("variant_id = ?", variantID).
		Updates(map[string]interface{}{
			"quantity":          gorm.Expr("quantity + ?", delta),
			"last_restocked_at": time.Now(),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "restock")
	}
	if res.RowsAffected == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

func (r *GormStockRepository) Get(ctx context.Context, variantID string) (*domain.VariantStock, error) {
	var model VariantStockModel
	err := database.FromContext(ctx, r.db).Where("variant_id = ?", variantID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, errors.Wrap(err, "get stock")
	}
	return &domain.VariantStock{
		VariantID:       model.VariantID,
		Quantity:        model.Quantity,
		Reserved:        model.Reserved,
		LastRestockedAt: model.LastRestockedAt,
	}, nil
}

func (r *GormStockRepository) mustExist(ctx context.Context, variantID string) error {
	var count int64
	if err := database.FromContext(ctx, r.db).Model(&VariantStockModel{}).
		Where("variant_id = ?", variantID).Count(&count).Error; err != nil {
		return errors.Wrap(err, "check stock row")
	}
	if count == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

// GormVariantRepository 是 VariantRepository 的 MySQL 实现。
type GormVariantRepository struct {
	db *gorm.DB
}

func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

func (r *GormVariantRepository) FindByID(ctx context.Context, variantID string) (*domain.Variant, error) {
	var model VariantModel
	err := database.FromContext(ctx, r.db).Where("id = ?", variantID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, errors.Wrap(err, "find variant")
	}
	return &domain.Variant{
		ID:         model.ID,
		SKU:        model.SKU,
		Name:       model.Name,
		PriceCents: model.PriceCents,
		Active:     model.Active,
	}, nil
}
