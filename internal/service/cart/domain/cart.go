package domain

import (
	"errors"
	"time"
)

var (
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrQuantityTooLarge   = errors.New("quantity exceeds ceiling or available stock")
	ErrProductUnavailable = errors.New("variant is not purchasable")
)

// CartItem 是购物车中的一行：指向某个规格的弱引用加数量。
// 数量恒 >= 1，数量归零即删行。
type CartItem struct {
	ID        string
	VariantID string
	Quantity  int64
	AddedAt   time.Time
}

// Cart 是单个用户的购物车聚合。首次加购时惰性创建，从不显式删除。
// 同一规格在车内只占一行，重复加购做数量合并。
type Cart struct {
	UserID    string
	Items     []CartItem
	UpdatedAt time.Time
}

// FindItem 按条目 ID 查找，返回下标。
func (c *Cart) FindItem(cartItemID string) (int, bool) {
	for i := range c.Items {
		if c.Items[i].ID == cartItemID {
			return i, true
		}
	}
	return -1, false
}

// FindByVariant 按规格查找已有条目，加购合并时用。
func (c *Cart) FindByVariant(variantID string) (int, bool) {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return i, true
		}
	}
	return -1, false
}

// IsEmpty 空车是合法状态，不是错误。
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
