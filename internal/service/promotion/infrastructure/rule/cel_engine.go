package rule

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"storefront/internal/service/promotion/domain"
)

// CELRuleEngine 是 domain.RuleEngine 的 cel-go 实现。
// 范围规则写成 CEL 布尔表达式，比如：
//
//	subtotal_cents >= 5000 && item_count >= 2
//	"variant-blue-m" in variant_ids
type CELRuleEngine struct {
	env *cel.Env
}

func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("subtotal_cents", cel.IntType),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("variant_ids", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cel env")
	}
	return &CELRuleEngine{env: env}, nil
}

// Evaluate 对规则和事实求值。空规则恒真；非布尔结果视为规则定义错误。
func (e *CELRuleEngine) Evaluate(ruleDefinition string, fact domain.Fact) (bool, error) {
	if ruleDefinition == "" {
		return true, nil
	}

	ast, iss := e.env.Compile(ruleDefinition)
	if iss.Err() != nil {
		return false, errors.Wrap(iss.Err(), "compile scope rule")
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return false, errors.Wrap(err, "build scope rule program")
	}

	out, _, err := prg.Eval(map[string]interface{}{
		"subtotal_cents": fact.SubtotalCents,
		"item_count":     fact.ItemCount,
		"variant_ids":    fact.VariantIDs,
	})
	if err != nil {
		return false, errors.Wrap(err, "evaluate scope rule")
	}

	verdict, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("scope rule did not produce a boolean: %v", out.Value())
	}
	return verdict, nil
}
