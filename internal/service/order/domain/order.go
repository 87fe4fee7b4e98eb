package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// OrderItem 是下单瞬间的商品快照：规格、单价、数量的只读拷贝。
// 它不引用在售的规格数据，后续改价、下架都不会影响历史订单。
type OrderItem struct {
	VariantID      string
	Name           string
	UnitPriceCents int64
	Quantity       int64
}

// Order 是订单聚合根。
// 由结算编排器原子创建：要么完整的订单连同预占一起存在，要么什么都不存在。
type Order struct {
	ID                  string
	UserID              string
	Items               []OrderItem
	Status              Status
	PaymentStatus       PaymentStatus
	AppliedDiscountCode string // 空串表示未用折扣码
	DiscountCents       int64
	ShippingCents       int64
	SubtotalCents       int64
	TotalCents          int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewOrder 是订单的工厂函数，初始状态恒为 PENDING / 支付 PENDING。
func NewOrder(userID string, items []OrderItem, discountCode string, discountCents, shippingCents int64) (*Order, error) {
	if userID == "" {
		return nil, errors.New("cannot create order without user")
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPriceCents * item.Quantity
	}

	now := time.Now()
	return &Order{
		ID:                  uuid.New().String(),
		UserID:              userID,
		Items:               append([]OrderItem(nil), items...),
		Status:              StatusPending,
		PaymentStatus:       PaymentPending,
		AppliedDiscountCode: discountCode,
		DiscountCents:       discountCents,
		ShippingCents:       shippingCents,
		SubtotalCents:       subtotal,
		TotalCents:          subtotal - discountCents + shippingCents,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}
