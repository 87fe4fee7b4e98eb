package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"storefront/internal/pkg/database"
	"storefront/internal/service/order/domain"
)

// GormOrderRepository 是 OrderRepository 的 MySQL 实现。
// 所有写操作都通过 context 里的事务句柄执行，
// 订单头、订单条目和折扣用量可以落在同一个事务里。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := toOrderModel(order)
	if err := database.FromContext(ctx, r.db).Create(model).Error; err != nil {
		return errors.Wrap(err, "create order")
	}
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var model OrderModel
	err := database.FromContext(ctx, r.db).
		Preload("Items").
		First(&model, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}
	return toDomainOrder(&model), nil
}

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	// 条目是不可变快照，保存只更新订单头
	res := database.FromContext(ctx, r.db).Model(&OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":         string(order.Status),
			"payment_status": string(order.PaymentStatus),
			"updated_at":     order.UpdatedAt,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "save order")
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func toOrderModel(order *domain.Order) *OrderModel {
	items := make([]OrderItemModel, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemModel{
			OrderID:        order.ID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	return &OrderModel{
		ID:                  order.ID,
		UserID:              order.UserID,
		Status:              string(order.Status),
		PaymentStatus:       string(order.PaymentStatus),
		AppliedDiscountCode: order.AppliedDiscountCode,
		DiscountCents:       order.DiscountCents,
		ShippingCents:       order.ShippingCents,
		SubtotalCents:       order.SubtotalCents,
		TotalCents:          order.TotalCents,
		Items:               items,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
}

func toDomainOrder(model *OrderModel) *domain.Order {
	items := make([]domain.OrderItem, 0, len(model.Items))
	for _, item := range model.Items {
		items = append(items, domain.OrderItem{
			VariantID:      item.VariantID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	return &domain.Order{
		ID:                  model.ID,
		UserID:              model.UserID,
		Items:               items,
		Status:              domain.Status(model.Status),
		PaymentStatus:       domain.PaymentStatus(model.PaymentStatus),
		AppliedDiscountCode: model.AppliedDiscountCode,
		DiscountCents:       model.DiscountCents,
		ShippingCents:       model.ShippingCents,
		SubtotalCents:       model.SubtotalCents,
		TotalCents:          model.TotalCents,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}
