// Package expressions evaluates catalog filter expressions written in CEL, Expr
// or jq against a model card document.
package expressions

import "context"

// Filter languages.
const (
	LangCEL  = "cel"
	LangExpr = "expr"
	LangJQ   = "jq"
)

// Engine evaluates an expression against a JSON-shaped document.
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
