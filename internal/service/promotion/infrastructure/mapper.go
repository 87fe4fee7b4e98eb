package infrastructure

import "storefront/internal/service/promotion/domain"

// ToDomainDiscount 把数据库模型转换为领域模型。
func ToDomainDiscount(m *DiscountModel) *domain.Discount {
	return &domain.Discount{
		Code:              m.Code,
		Type:              m.Type,
		ValueCents:        m.ValueCents,
		Percent:           m.Percent,
		MaxAmountCents:    m.MaxAmountCents,
		MinOrderCents:     m.MinOrderCents,
		StartsAt:          m.StartsAt,
		EndsAt:            m.EndsAt,
		UsageLimitGlobal:  m.UsageLimitGlobal,
		UsageLimitPerUser: m.UsageLimitPerUser,
		IsActive:          m.IsActive,
		ScopeRule:         m.ScopeRule,
	}
}
