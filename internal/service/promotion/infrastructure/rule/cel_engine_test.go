package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/service/promotion/domain"
)

func TestCELRuleEngine(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	fact := domain.Fact{
		SubtotalCents: 150000,
		ItemCount:     3,
		VariantIDs:    []string{"v1", "v2", "v3"},
	}

	tests := []struct {
		name string
		rule string
		want bool
	}{
		{"empty rule is always true", "", true},
		{"subtotal threshold met", "subtotal_cents >= 100000", true},
		{"subtotal threshold not met", "subtotal_cents >= 200000", false},
		{"variant membership", `"v2" in variant_ids`, true},
		{"variant not in cart", `"v9" in variant_ids`, false},
		{"compound rule", "item_count >= 2 && subtotal_cents > 50000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Evaluate(tt.rule, fact)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCELRuleEngineRejectsBrokenRules(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	_, err = engine.Evaluate("this is not CEL )", domain.Fact{})
	assert.Error(t, err)

	// 非布尔结果同样是规则定义错误
	_, err = engine.Evaluate("subtotal_cents + 1", domain.Fact{})
	assert.Error(t, err)
}
