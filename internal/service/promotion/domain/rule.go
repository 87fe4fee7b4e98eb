package domain

// Fact 是规则引擎评估折扣适用范围时能看到的订单事实。
type Fact struct {
	SubtotalCents int64    `json:"subtotal_cents"`
	ItemCount     int64    `json:"item_count"`
	VariantIDs    []string `json:"variant_ids"`
}

// RuleEngine 是范围规则的抽象，domain 不关心底层表达式语言。
// 由基础设施层提供 CEL 实现。
type RuleEngine interface {
	// Evaluate 对规则和事实求值，规则为空串视为恒真。
	Evaluate(ruleDefinition string, fact Fact) (bool, error)
}
