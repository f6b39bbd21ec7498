package expressions

import (
	"context"
	"fmt"

	"github.com/rendis/algoscope/pkg/schema"
)

// Matcher selects an Engine by language and evaluates boolean predicates.
// It is safe for concurrent use.
type Matcher struct {
	engines map[string]Engine
}

// NewMatcher creates a Matcher with the CEL, Expr and jq engines.
func NewMatcher() (*Matcher, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	return &Matcher{
		engines: map[string]Engine{
			LangCEL:  celEngine,
			LangExpr: NewExprEngine(),
			LangJQ:   NewGoJQEngine(),
		},
	}, nil
}

// Engine returns the engine for lang. An empty lang selects CEL.
func (m *Matcher) Engine(lang string) (Engine, error) {
	if lang == "" {
		lang = LangCEL
	}
	e, ok := m.engines[lang]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"unknown expression language %q (want cel, expr or jq)", lang).
			WithDetails(map[string]any{"lang": lang})
	}
	return e, nil
}

// Match evaluates expression against a card document and requires a boolean result.
func (m *Matcher) Match(ctx context.Context, lang, expression string, card map[string]any) (bool, error) {
	e, err := m.Engine(lang)
	if err != nil {
		return false, err
	}

	out, err := e.Evaluate(ctx, expression, map[string]any{"card": card})
	if err != nil {
		return false, err
	}

	b, ok := out.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeExpression,
			"%s expression %q must evaluate to a boolean, got %s", e.Name(), expression, describe(out)).
			WithDetails(map[string]any{"expression": expression})
	}
	return b, nil
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
