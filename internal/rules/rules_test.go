package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_DefaultsToCEL(t *testing.T) {
	set, err := NewSet()
	require.NoError(t, err)

	e, derr := set.Engine("")
	require.Nil(t, derr)
	assert.Equal(t, LanguageCEL, e.Name())
}

func TestSet_UnsupportedLanguage(t *testing.T) {
	set, err := NewSet()
	require.NoError(t, err)

	_, derr := set.Engine("lua")
	require.NotNil(t, derr)
	assert.Contains(t, derr.Message, "lua")
}

func TestCEL_Evaluate(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	out, err := e.Evaluate(context.Background(), `input.riskScore > 70`, map[string]any{
		"riskScore": 85,
	})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCEL_CheckSyntaxError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	assert.Error(t, e.Check(`input.riskScore >`))
	assert.NoError(t, e.Check(`input.riskScore > 70`))
}

func TestCEL_EmptyExpression(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	assert.Error(t, e.Check(""))
}

func TestExpr_Evaluate(t *testing.T) {
	e := NewExprEngine()

	out, err := e.Evaluate(context.Background(), `riskScore > 70 && tier == "critical"`, map[string]any{
		"riskScore": 85,
		"tier":      "critical",
	})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestExpr_CheckSyntaxError(t *testing.T) {
	e := NewExprEngine()
	assert.Error(t, e.Check(`riskScore >`))
	assert.NoError(t, e.Check(`riskScore > 70`))
}

func TestGoJQ_Evaluate(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), `.riskScore > 70`, map[string]any{
		"riskScore": 85.0,
	})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestGoJQ_NormalizesInts(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), `.count + 1`, map[string]any{
		"count": int64(4),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, out)
}

func TestGoJQ_MultipleOutputs(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), `.items[]`, map[string]any{
		"items": []any{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out)
}

func TestGoJQ_ParseError(t *testing.T) {
	e := NewGoJQEngine()
	assert.Error(t, e.Check(`.[unclosed`))
}
