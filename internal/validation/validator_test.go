package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/internal/rules"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

type fakeRuleLookup map[string]struct {
	expr string
	lang rules.Language
}

func (f fakeRuleLookup) Rule(id string) (string, rules.Language, bool) {
	r, ok := f[id]
	return r.expr, r.lang, ok
}

func TestValidate_NilGraph(t *testing.T) {
	pv, err := NewProcessValidator(nil, nil)
	require.NoError(t, err)

	result := pv.Validate(nil)
	assert.False(t, result.Valid())
}

func TestValidate_LinearFlowClean(t *testing.T) {
	g := graph.New("g1", "Review Flow", "")
	start, _ := g.AddStep(schema.StepKindStart, "Start", nil)
	review, _ := g.AddStep(schema.StepKindAction, "Review", nil)
	end, _ := g.AddStep(schema.StepKindEnd, "End", nil)
	require.Nil(t, g.Connect(start.ID, review.ID))
	require.Nil(t, g.Connect(review.ID, end.ID))

	pv, err := NewProcessValidator(nil, nil)
	require.NoError(t, err)

	result := pv.Validate(g)
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
	assert.False(t, SaveBlocking(result))
}

func TestValidate_SkipsDAGOnStructuralErrors(t *testing.T) {
	steps := []schema.Step{
		{ID: "a", Kind: schema.StepKindAction, Connections: []string{"missing"}},
	}
	g := graph.FromSteps("g1", "", "", steps)

	pv, err := NewProcessValidator(nil, nil)
	require.NoError(t, err)

	result := pv.Validate(g)
	assert.False(t, result.Valid())
	assert.True(t, hasCode(result.Errors, schema.ErrCodeDanglingReference))
	assert.False(t, hasCode(result.Errors, schema.ErrCodeCycleDetected))
	assert.True(t, SaveBlocking(result))
}

func TestValidate_RuleCompileCheck(t *testing.T) {
	lookup := fakeRuleLookup{
		"rule-ok":     {expr: `input.riskScore > 70`, lang: rules.LanguageCEL},
		"rule-broken": {expr: `input.riskScore >`, lang: rules.LanguageCEL},
	}

	pv, err := NewProcessValidator(lookup, nil)
	require.NoError(t, err)

	g := graph.New("g1", "", "")
	_, _ = g.AddStep(schema.StepKindStart, "Start", nil)
	dec, _ := g.AddStep(schema.StepKindDecision, "Risk?", nil)

	require.Nil(t, g.UpdateStep(dec.ID, graph.StepPatch{
		RuleRef: &schema.RuleRef{ID: "rule-ok", Name: "Risk threshold"},
	}))
	result := pv.Validate(g)
	assert.False(t, hasCode(result.Warnings, schema.ErrCodeRuleExpression))

	require.Nil(t, g.UpdateStep(dec.ID, graph.StepPatch{
		RuleRef: &schema.RuleRef{ID: "rule-broken", Name: "Broken"},
	}))
	result = pv.Validate(g)
	assert.True(t, hasCode(result.Warnings, schema.ErrCodeRuleExpression))
}

func TestValidate_StaleRuleIsWarningNotError(t *testing.T) {
	pv, err := NewProcessValidator(fakeRuleLookup{}, nil)
	require.NoError(t, err)

	g := graph.New("g1", "", "")
	_, _ = g.AddStep(schema.StepKindStart, "Start", nil)
	dec, _ := g.AddStep(schema.StepKindDecision, "Risk?", nil)
	require.Nil(t, g.UpdateStep(dec.ID, graph.StepPatch{
		RuleRef: &schema.RuleRef{ID: "rule-gone", Name: "Gone"},
	}))

	result := pv.Validate(g)
	assert.True(t, result.Valid())
	assert.True(t, hasCode(result.Warnings, schema.ErrCodeNotFound))
}

func TestNewProcessValidator_SharesEngineSet(t *testing.T) {
	set, err := rules.NewSet()
	require.NoError(t, err)

	pv, err := NewProcessValidator(nil, set)
	require.NoError(t, err)
	assert.Same(t, set, pv.engines)

	pv, err = NewProcessValidator(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, pv.engines)
}
