package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrOrderCannotCancel       = errors.New("order can no longer be cancelled")
)

// Status 定义了订单的生命周期状态。
type Status string

const (
	StatusPending   Status = "PENDING"   // 已创建，库存已预占，等待确认
	StatusConfirmed Status = "CONFIRMED" // 商家已确认
	StatusShipped   Status = "SHIPPED"   // 已出库，预占转为真实扣减
	StatusDelivered Status = "DELIVERED" // 买家已签收（终态）
	StatusCancelled Status = "CANCELLED" // 已取消，预占已归还（终态）
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:   {StatusDelivered: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition 判断一次状态流转是否合法。
func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// transition 执行一次通用流转，非法流转返回 ErrInvalidStatusTransition。
func (o *Order) transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return ErrInvalidStatusTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

// Confirm 确认订单。
func (o *Order) Confirm() error {
	return o.transition(StatusConfirmed)
}

// Ship 发货。进入 SHIPPED 的同时，调用方必须对每个条目执行库存 Commit。
func (o *Order) Ship() error {
	return o.transition(StatusShipped)
}

// Deliver 签收。
func (o *Order) Deliver() error {
	return o.transition(StatusDelivered)
}

// Cancel 取消订单。只有 PENDING / CONFIRMED 可取消，
// 取消的同时调用方必须把每个条目的预占归还库存。
// 注意区分两个错误：取消已发货的订单是 ErrOrderCannotCancel，
// 而不是一般的非法流转。
func (o *Order) Cancel() error {
	if !CanTransition(o.Status, StatusCancelled) {
		return ErrOrderCannotCancel
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}
