package expressions

import "context"

// Engine evaluates expressions used by classification rules.
// Three implementations: CEL and Expr (line predicates), GoJQ (structured
// queries over JSON instructions).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Checker is implemented by engines that can validate an expression
// without evaluating it.
type Checker interface {
	Check(expression string) error
}

// ForName returns a fresh engine for the given identifier: "cel", "expr"
// or "jq". An empty name selects expr.
func ForName(name string) (Engine, error) {
	switch name {
	case "", "expr":
		return NewExprEngine(), nil
	case "cel":
		return NewCELEngine()
	case "jq":
		return NewGoJQEngine(), nil
	default:
		return nil, unknownEngine(name)
	}
}
