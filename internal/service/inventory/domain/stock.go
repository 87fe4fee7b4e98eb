package domain

import (
	"errors"
	"time"
)

var (
	ErrVariantNotFound   = errors.New("variant not found")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidState 表示扣减出库的数量超过了已预占的数量。
	ErrInvalidState = errors.New("commit quantity exceeds reserved")
)

// Variant 是一个可购买的商品规格（颜色、尺码等组合）。
// 价格与上架状态挂在规格上，订单快照从这里取值。
type Variant struct {
	ID         string
	SKU        string
	Name       string
	PriceCents int64
	Active     bool
}

// VariantStock 维护单个规格的库存计数对。
// 不变式：0 <= Reserved <= Quantity。
// Quantity 是在库量，Reserved 是被结算流程临时持有的量，
// 对外只暴露 Available = Quantity - Reserved。
type VariantStock struct {
	VariantID       string
	Quantity        int64
	Reserved        int64
	LastRestockedAt time.Time
}

// Available 返回买家视角的可售库存。
func (s *VariantStock) Available() int64 {
	return s.Quantity - s.Reserved
}
