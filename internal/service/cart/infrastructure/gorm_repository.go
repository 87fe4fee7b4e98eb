package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/pkg/database"
	"storefront/internal/service/cart/domain"
)

// GormCartRepository 是 CartRepository 的 MySQL 实现。
type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// Load 按加购时间排序返回用户购物车；没有任何条目时返回空聚合。
func (r *GormCartRepository) Load(ctx context.Context, userID string) (*domain.Cart, error) {
	var models []CartItemModel
	err := database.FromContext(ctx, r.db).
		Where("user_id = ?", userID).
		Order("added_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	cart := &domain.Cart{UserID: userID}
	for _, m := range models {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        m.ID,
			VariantID: m.VariantID,
			Quantity:  m.Quantity,
			AddedAt:   m.AddedAt,
		})
		if m.UpdatedAt.After(cart.UpdatedAt) {
			cart.UpdatedAt = m.UpdatedAt
		}
	}
	return cart, nil
}

// Save 以聚合为準同步条目集合：先删后插。
// 写操作都在应用层的 per-user 锁里，所以这里不需要再做乐观并发控制。
func (r *GormCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	db := database.FromContext(ctx, r.db)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", cart.UserID).Delete(&CartItemModel{}).Error; err != nil {
			return errors.Wrap(err, "clear cart rows")
		}
		if len(cart.Items) == 0 {
			return nil
		}
		models := make([]CartItemModel, 0, len(cart.Items))
		for _, item := range cart.Items {
			models = append(models, CartItemModel{
				ID:        item.ID,
				UserID:    cart.UserID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
				AddedAt:   item.AddedAt,
				UpdatedAt: time.Now(),
			})
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&models).Error; err != nil {
			return errors.Wrap(err, "save cart rows")
		}
		return nil
	})
}

func (r *GormCartRepository) Clear(ctx context.Context, userID string) error {
	err := database.FromContext(ctx, r.db).Where("user_id = ?", userID).Delete(&CartItemModel{}).Error
	return errors.Wrap(err, "clear cart")
}
