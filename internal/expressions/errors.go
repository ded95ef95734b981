package expressions

import "github.com/rendis/flowviz/pkg/schema"

func unknownEngine(name string) error {
	return schema.NewErrorf(schema.ErrCodeValidation, "unknown expression engine %q", name).
		WithDetails(map[string]any{"engine": name, "supported": []string{"cel", "expr", "jq"}})
}

func compileError(engine, expression string, err error) error {
	return schema.NewErrorf(schema.ErrCodeValidation,
		"%s compile error in %q: %s", engine, expression, err.Error()).
		WithCause(err).
		WithDetails(map[string]any{"expression": expression})
}

func evalError(engine, expression string, err error) error {
	return schema.NewErrorf(schema.ErrCodeExpression,
		"%s evaluation failed for %q: %s", engine, expression, err.Error()).
		WithCause(err).
		WithDetails(map[string]any{"expression": expression})
}
