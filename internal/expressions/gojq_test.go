package expressions

import (
	"context"
	"errors"
	"testing"

	"github.com/rendis/flowviz/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGoJQEngine(t *testing.T) {
	e := NewGoJQEngine()
	assert.NotNil(t, e)
	assert.Equal(t, "jq", e.Name())
}

func TestGoJQ_ArrayIteration(t *testing.T) {
	e := NewGoJQEngine()
	data := map[string]any{
		"integrations": []any{"GitHub", "Slack"},
	}

	out, err := e.EvaluateAll(context.Background(), ".integrations[]?", data)
	require.NoError(t, err)
	assert.Equal(t, []any{"GitHub", "Slack"}, out)
}

func TestGoJQ_MissingKeyYieldsNothing(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.EvaluateAll(context.Background(), ".agents[]?", map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, out)

	single, err := e.Evaluate(context.Background(), ".agents", map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, single)
}

func TestGoJQ_SingleAndMultipleOutputs(t *testing.T) {
	e := NewGoJQEngine()
	data := map[string]any{"steps": []any{map[string]any{"name": "a"}, map[string]any{"name": "b"}}}

	out, err := e.Evaluate(context.Background(), ".steps[0].name", data)
	require.NoError(t, err)
	assert.Equal(t, "a", out)

	out, err = e.Evaluate(context.Background(), ".steps[].name", data)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out)
}

func TestGoJQ_ParseError(t *testing.T) {
	e := NewGoJQEngine()

	err := e.Check(".[")
	require.Error(t, err)
	var fvErr *schema.Error
	require.True(t, errors.As(err, &fvErr))
	assert.Equal(t, schema.ErrCodeValidation, fvErr.Code)
}

func TestGoJQ_RuntimeError(t *testing.T) {
	e := NewGoJQEngine()

	_, err := e.EvaluateAll(context.Background(), `.name[]`, map[string]any{"name": "flowviz"})
	require.Error(t, err)
	var fvErr *schema.Error
	require.True(t, errors.As(err, &fvErr))
	assert.Equal(t, schema.ErrCodeExpression, fvErr.Code)
}

func TestGoJQ_Sandbox_NoEnvAccess(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), `$ENV`, map[string]any{})
	require.NoError(t, err)

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Empty(t, m)
}
