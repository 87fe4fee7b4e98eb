package domain

import (
	"errors"
	"time"
)

var (
	ErrDiscountNotFound = errors.New("discount not found")
	ErrInvalidCode      = errors.New("malformed discount code")
)

// DiscountType 区分折扣作用的金额部分。
type DiscountType string

const (
	// DiscountTypeAmount 作用在商品小计上
	DiscountTypeAmount DiscountType = "AMOUNT"
	// DiscountTypeShip 作用在运费上
	DiscountTypeShip DiscountType = "SHIP"
)

// FailureReason 是资格校验失败的具体原因，会原样透给用户侧文案。
type FailureReason string

const (
	ReasonNone                 FailureReason = ""
	ReasonDiscountInactive     FailureReason = "DiscountInactive"
	ReasonDiscountNotStarted   FailureReason = "DiscountNotStarted"
	ReasonDiscountExpired      FailureReason = "DiscountExpired"
	ReasonUsageLimitReached    FailureReason = "UsageLimitReached"
	ReasonUserUsageLimit       FailureReason = "UserUsageLimitReached"
	ReasonMinOrderNotMet       FailureReason = "MinOrderNotMet"
	ReasonDiscountNotApplicable FailureReason = "DiscountNotApplicable"
)

// IneligibleError 携带具体失败原因的错误，结算层据此返回可读信息。
type IneligibleError struct {
	Reason FailureReason
}

func (e *IneligibleError) Error() string {
	return "discount ineligible: " + string(e.Reason)
}

// Discount 是一条折扣码的完整定义。
// 对结算流程只读；用量计数的递增由编排器在订单落库的同一事务里完成。
type Discount struct {
	Code           string
	Type           DiscountType
	// ValueCents 是立减金额（分）；Percent > 0 时按百分比计算，Value 无效。
	ValueCents     int64
	Percent        int64
	// MaxAmountCents 是百分比折扣的封顶金额，0 表示不封顶。
	MaxAmountCents int64

	MinOrderCents     int64
	StartsAt          time.Time
	EndsAt            time.Time
	UsageLimitGlobal  int64
	UsageLimitPerUser int64
	IsActive          bool

	// ScopeRule 是可选的 CEL 表达式，限定折扣的适用范围；空串适用于一切订单。
	ScopeRule string
}

// Verdict 是一次资格评估的结果。
type Verdict struct {
	Eligible    bool
	Reason      FailureReason
	AmountCents int64
}

// Evaluate 对折扣做资格评估并计算折扣金额。纯函数，不碰任何计数器。
// 校验按固定顺序短路，每一条对应一个独立的失败原因。
func Evaluate(d *Discount, subtotalCents, shippingCents, globalUsed, userUsed int64, now time.Time) Verdict {
	switch {
	case !d.IsActive:
		return Verdict{Reason: ReasonDiscountInactive}
	case now.Before(d.StartsAt):
		return Verdict{Reason: ReasonDiscountNotStarted}
	case now.After(d.EndsAt):
		return Verdict{Reason: ReasonDiscountExpired}
	case globalUsed >= d.UsageLimitGlobal:
		return Verdict{Reason: ReasonUsageLimitReached}
	case userUsed >= d.UsageLimitPerUser:
		return Verdict{Reason: ReasonUserUsageLimit}
	case subtotalCents < d.MinOrderCents:
		return Verdict{Reason: ReasonMinOrderNotMet}
	}
	return Verdict{Eligible: true, AmountCents: d.amount(subtotalCents, shippingCents)}
}

// amount 计算折扣金额：AMOUNT 封顶在小计，SHIP 封顶在运费，总价不可能为负。
func (d *Discount) amount(subtotalCents, shippingCents int64) int64 {
	base := subtotalCents
	if d.Type == DiscountTypeShip {
		base = shippingCents
	}

	var amount int64
	if d.Percent > 0 {
		amount = base * d.Percent / 100
		if d.MaxAmountCents > 0 && amount > d.MaxAmountCents {
			amount = d.MaxAmountCents
		}
	} else {
		amount = d.ValueCents
	}

	if amount > base {
		amount = base
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}
