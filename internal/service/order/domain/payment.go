package domain

import (
	"errors"
	"time"
)

var ErrInvalidPaymentTransition = errors.New("invalid payment status transition")

// PaymentStatus 定义了支付侧的独立状态机。
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"    // 尚未发起支付
	PaymentProcessing PaymentStatus = "PROCESSING" // 支付中
	PaymentPaid       PaymentStatus = "PAID"       // 已全额支付（终态）
	PaymentUnderpaid  PaymentStatus = "UNDERPAID"  // 金额不足，等待补款或超时
	PaymentExpired    PaymentStatus = "EXPIRED"    // 支付窗口已过（终态）
	PaymentFailed     PaymentStatus = "FAILED"     // 渠道明确失败（终态）
	PaymentCancelled  PaymentStatus = "CANCELLED"  // 用户侧取消（终态）
)

var validPaymentNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending: {
		PaymentProcessing: true,
		PaymentPaid:       true,
		PaymentUnderpaid:  true,
		PaymentExpired:    true,
		PaymentFailed:     true,
		PaymentCancelled:  true,
	},
	PaymentProcessing: {
		PaymentPaid:      true,
		PaymentUnderpaid: true,
		PaymentExpired:   true,
		PaymentFailed:    true,
		PaymentCancelled: true,
	},
	PaymentUnderpaid: {
		PaymentExpired:   true,
		PaymentFailed:    true,
		PaymentCancelled: true,
	},
	PaymentPaid:      {},
	PaymentExpired:   {},
	PaymentFailed:    {},
	PaymentCancelled: {},
}

// CanTransitionPayment 判断一次支付状态流转是否合法。
// PAID 只能从 PENDING / PROCESSING 到达；PAID 之后不再变化。
func CanTransitionPayment(from, to PaymentStatus) bool {
	return validPaymentNext[from][to]
}

// IsTerminalFailure 判断支付是否进入了失败类终态。
// 订单仍处于 PENDING 时收到这类状态，应当走取消并归还预占的路径。
func (p PaymentStatus) IsTerminalFailure() bool {
	switch p {
	case PaymentExpired, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

// ApplyPayment 把支付侧状态应用到订单上，非法流转返回 ErrInvalidPaymentTransition。
func (o *Order) ApplyPayment(to PaymentStatus) error {
	if !CanTransitionPayment(o.PaymentStatus, to) {
		return ErrInvalidPaymentTransition
	}
	o.PaymentStatus = to
	o.UpdatedAt = time.Now()
	return nil
}
