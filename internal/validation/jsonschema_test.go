package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagerisk/procanvas/pkg/schema"
)

func TestDocumentValidator_ValidDocument(t *testing.T) {
	dv, err := NewDocumentValidator()
	require.NoError(t, err)

	raw := []byte(`{
		"steps": [
			{
				"id": "step-1",
				"ordinal": 1,
				"name": "Start",
				"kind": "start",
				"position": {"x": 80, "y": 80},
				"size": {"width": 96, "height": 96},
				"connections": ["step-2"]
			},
			{
				"id": "step-2",
				"ordinal": 2,
				"name": "Risk High?",
				"kind": "decision",
				"position": {"x": 320, "y": 80},
				"size": {"width": 128, "height": 128},
				"branches": [
					{"id": "branch-1", "conditionLabel": "Yes", "conditionValue": true, "nextStepId": null}
				],
				"connections": []
			}
		],
		"additionalAttributes": {"name": "Vendor Review"}
	}`)

	assert.NoError(t, dv.ValidateRaw(raw))
}

func TestDocumentValidator_OlderDocumentWithoutGeometry(t *testing.T) {
	dv, err := NewDocumentValidator()
	require.NoError(t, err)

	// position/size are optional so pre-geometry documents still load.
	raw := []byte(`{"steps": [{"id": "s1", "kind": "action"}]}`)
	assert.NoError(t, dv.ValidateRaw(raw))
}

func TestDocumentValidator_UnknownKind(t *testing.T) {
	dv, err := NewDocumentValidator()
	require.NoError(t, err)

	raw := []byte(`{"steps": [{"id": "s1", "kind": "teleport"}]}`)
	err = dv.ValidateRaw(raw)
	require.Error(t, err)

	derr, ok := err.(*schema.DesignError)
	require.True(t, ok)
	assert.Equal(t, schema.ErrCodeValidation, derr.Code)
}

func TestDocumentValidator_MissingSteps(t *testing.T) {
	dv, err := NewDocumentValidator()
	require.NoError(t, err)

	assert.Error(t, dv.ValidateRaw([]byte(`{"additionalAttributes": {}}`)))
}

func TestDocumentValidator_UnknownTopLevelField(t *testing.T) {
	dv, err := NewDocumentValidator()
	require.NoError(t, err)

	assert.Error(t, dv.ValidateRaw([]byte(`{"steps": [], "stages": []}`)))
}

func TestDocumentValidator_DuplicateStepIDs(t *testing.T) {
	dv, err := NewDocumentValidator()
	require.NoError(t, err)

	raw := []byte(`{"steps": [
		{"id": "s1", "kind": "start"},
		{"id": "s1", "kind": "end"}
	]}`)
	err = dv.ValidateRaw(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate step id")
}

func TestDocumentValidator_NotJSON(t *testing.T) {
	dv, err := NewDocumentValidator()
	require.NoError(t, err)

	assert.Error(t, dv.ValidateRaw([]byte(`{steps: }`)))
}

func TestDocumentValidator_ValidateDefinition(t *testing.T) {
	dv, err := NewDocumentValidator()
	require.NoError(t, err)

	def := &schema.ProcessDefinition{
		Steps: []schema.Step{
			{
				ID:          "s1",
				Ordinal:     1,
				Name:        "Start",
				Kind:        schema.StepKindStart,
				Position:    schema.Position{X: 0, Y: 0},
				Size:        schema.Size{Width: 96, Height: 96},
				Connections: []string{},
			},
		},
	}
	assert.NoError(t, dv.ValidateDefinition(def))
	assert.Error(t, dv.ValidateDefinition(nil))
}

func TestDocumentValidator_BranchConditionValueTypes(t *testing.T) {
	dv, err := NewDocumentValidator()
	require.NoError(t, err)

	// Boolean and string condition values are both legal.
	raw := []byte(`{"steps": [{
		"id": "d1", "kind": "decision",
		"branches": [
			{"id": "b1", "conditionLabel": "Yes", "conditionValue": true},
			{"id": "b2", "conditionLabel": "Tier", "conditionValue": "critical"}
		]
	}]}`)
	assert.NoError(t, dv.ValidateRaw(raw))

	// Numbers are not.
	raw = []byte(`{"steps": [{
		"id": "d1", "kind": "decision",
		"branches": [{"id": "b1", "conditionValue": 7}]
	}]}`)
	assert.Error(t, dv.ValidateRaw(raw))
}
