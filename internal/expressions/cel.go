package expressions

import (
	"context"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/rendis/flowviz/pkg/schema"
)

// CELEngine implements the Engine interface using Google's Common Expression Language.
// It evaluates line predicates of classification rules.
// Thread-safe: compiled programs are cached and reused across goroutines.
type CELEngine struct {
	env *cel.Env

	mu    sync.RWMutex
	cache map[string]cel.Program
}

// NewCELEngine creates a new CEL expression engine. The environment exposes
// the variables of a line predicate:
//   - line (string): the trimmed line under test
//   - index (int): zero-based line number
//   - text (string): the full instruction text
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("line", cel.StringType),
		cel.Variable("index", cel.IntType),
		cel.Variable("text", cel.StringType),
	)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeConfig, "create CEL environment").WithCause(err)
	}

	return &CELEngine{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// Name returns the engine identifier.
func (e *CELEngine) Name() string {
	return "cel"
}

// Check compiles the expression and caches the program.
func (e *CELEngine) Check(expression string) error {
	if expression == "" {
		return schema.NewError(schema.ErrCodeValidation, "empty CEL expression")
	}
	_, err := e.getOrCompile(expression)
	return err
}

// Evaluate compiles (or retrieves from cache) a CEL expression and evaluates it
// against the provided data.
func (e *CELEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty CEL expression")
	}

	prg, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	out, _, err := prg.ContextEval(ctx, buildActivation(data))
	if err != nil {
		return nil, evalError("CEL", expression, err)
	}

	return out.Value(), nil
}

// getOrCompile returns a cached compiled program or compiles and caches a new one.
func (e *CELEngine) getOrCompile(expression string) (cel.Program, error) {
	e.mu.RLock()
	if prg, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if prg, ok := e.cache[expression]; ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, compileError("CEL", expression, issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, compileError("CEL", expression, err)
	}

	e.cache[expression] = prg
	return prg, nil
}

// buildActivation fills in zero values for missing variables so that a
// partial data map never causes a missing-attribute error.
func buildActivation(data map[string]any) map[string]any {
	activation := map[string]any{
		"line":  "",
		"index": int64(0),
		"text":  "",
	}
	for k := range activation {
		v, ok := data[k]
		if !ok || v == nil {
			continue
		}
		if n, isInt := v.(int); isInt {
			v = int64(n)
		}
		activation[k] = v
	}
	return activation
}
