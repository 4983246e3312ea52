package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

func hasCode(issues []schema.ValidationIssue, code string) bool {
	for _, i := range issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func TestStructural_MissingStart(t *testing.T) {
	g := graph.New("g1", "", "")
	_, derr := g.AddStep(schema.StepKindAction, "A", nil)
	require.Nil(t, derr)

	result := validateStructural(g)
	assert.True(t, hasCode(result.Errors, schema.ErrCodeMissingStart))
}

func TestStructural_DuplicateStartAndEnd(t *testing.T) {
	// The model rejects second start/end steps, so load a tampered
	// document through FromSteps to exercise the validator path.
	steps := []schema.Step{
		{ID: "s1", Kind: schema.StepKindStart, Connections: []string{}},
		{ID: "s2", Kind: schema.StepKindStart, Connections: []string{}},
		{ID: "e1", Kind: schema.StepKindEnd, Connections: []string{}},
		{ID: "e2", Kind: schema.StepKindEnd, Connections: []string{}},
	}
	g := graph.FromSteps("g1", "", "", steps)

	result := validateStructural(g)
	assert.True(t, hasCode(result.Errors, schema.ErrCodeDuplicateStart))
	assert.True(t, hasCode(result.Errors, schema.ErrCodeDuplicateEnd))
}

func TestStructural_MultipleConnections(t *testing.T) {
	steps := []schema.Step{
		{ID: "start", Kind: schema.StepKindStart, Connections: []string{"a"}},
		{ID: "a", Kind: schema.StepKindAction, Connections: []string{"b", "c"}},
		{ID: "b", Kind: schema.StepKindAction, Connections: []string{}},
		{ID: "c", Kind: schema.StepKindAction, Connections: []string{}},
	}
	g := graph.FromSteps("g1", "", "", steps)

	result := validateStructural(g)
	assert.True(t, hasCode(result.Errors, schema.ErrCodeMultipleConns))
}

func TestStructural_DecisionWithPlainConnections(t *testing.T) {
	steps := []schema.Step{
		{ID: "start", Kind: schema.StepKindStart, Connections: []string{"d"}},
		{ID: "d", Kind: schema.StepKindDecision, Connections: []string{"start"}},
	}
	g := graph.FromSteps("g1", "", "", steps)

	result := validateStructural(g)
	assert.True(t, hasCode(result.Errors, schema.ErrCodeInvalidKind))
}

func TestStructural_DanglingAndSelfReferences(t *testing.T) {
	ghost := "ghost"
	self := "d"
	steps := []schema.Step{
		{ID: "start", Kind: schema.StepKindStart, Connections: []string{"missing"}},
		{ID: "d", Kind: schema.StepKindDecision, Connections: []string{}, Branches: []schema.Branch{
			{ID: "b1", ConditionLabel: "Yes", NextStepID: &ghost},
			{ID: "b2", ConditionLabel: "No", NextStepID: &self},
		}},
	}
	g := graph.FromSteps("g1", "", "", steps)

	result := validateStructural(g)
	assert.True(t, hasCode(result.Errors, schema.ErrCodeDanglingReference))
	assert.True(t, hasCode(result.Errors, schema.ErrCodeSelfReference))
}

func TestStructural_UnroutedBranchWarns(t *testing.T) {
	g := graph.New("g1", "", "")
	_, _ = g.AddStep(schema.StepKindStart, "Start", nil)
	_, _ = g.AddStep(schema.StepKindDecision, "Risk?", nil)

	result := validateStructural(g)
	assert.True(t, result.Valid())
	assert.True(t, hasCode(result.Warnings, schema.ErrCodeValidation))
}

func TestStructural_KindFieldMismatchWarns(t *testing.T) {
	g := graph.New("g1", "", "")
	_, _ = g.AddStep(schema.StepKindStart, "Start", nil)
	act, _ := g.AddStep(schema.StepKindAction, "A", nil)

	require.Nil(t, g.UpdateStep(act.ID, graph.StepPatch{
		EntityRef:      &schema.EntityRef{Name: "vendor", Label: "Vendor"},
		ScheduleConfig: &schema.ScheduleConfig{Frequency: "0 0 * * *", Enabled: true},
	}))

	result := validateStructural(g)
	assert.True(t, result.Valid())
	assert.GreaterOrEqual(t, len(result.Warnings), 2)
}

func TestStructural_ScheduleFrequency(t *testing.T) {
	g := graph.New("g1", "", "")
	_, _ = g.AddStep(schema.StepKindStart, "Start", nil)
	a, _ := g.AddStep(schema.StepKindAssessment, "Quarterly Review", nil)

	require.Nil(t, g.UpdateStep(a.ID, graph.StepPatch{
		ScheduleConfig: &schema.ScheduleConfig{Frequency: "0 0 1 */3 *", Enabled: true},
	}))
	result := validateStructural(g)
	assert.False(t, hasCode(result.Errors, schema.ErrCodeSchedule))

	require.Nil(t, g.UpdateStep(a.ID, graph.StepPatch{
		ScheduleConfig: &schema.ScheduleConfig{Frequency: "every full moon", Enabled: true},
	}))
	result = validateStructural(g)
	assert.True(t, hasCode(result.Errors, schema.ErrCodeSchedule))
}

func TestStructural_CleanLinearFlow(t *testing.T) {
	g := graph.New("g1", "", "")
	start, _ := g.AddStep(schema.StepKindStart, "Start", nil)
	review, _ := g.AddStep(schema.StepKindAction, "Review", nil)
	end, _ := g.AddStep(schema.StepKindEnd, "End", nil)

	require.Nil(t, g.Connect(start.ID, review.ID))
	require.Nil(t, g.Connect(review.ID, end.ID))

	result := validateStructural(g)
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
}
