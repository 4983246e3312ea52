package schema

// ProcessDefinition is the JSON-serializable process document.
// It is embedded as a sub-document inside the host's workflow layout
// group record; this library owns only this shape.
type ProcessDefinition struct {
	Steps                []Step         `json:"steps"`
	AdditionalAttributes map[string]any `json:"additionalAttributes,omitempty"`
}

// Step is a single node in the process graph.
type Step struct {
	ID          string   `json:"id"`
	Ordinal     int      `json:"ordinal"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Kind        StepKind `json:"kind"`

	EntityRef      *EntityRef      `json:"entityRef,omitempty"`      // kind = entity
	MappedResource *MappedResource `json:"mappedResource,omitempty"` // kind = form | assessment | workflow
	RuleRef        *RuleRef        `json:"ruleRef,omitempty"`        // kind = decision
	Branches       []Branch        `json:"branches,omitempty"`       // kind = decision
	ScheduleConfig *ScheduleConfig `json:"scheduleConfig,omitempty"` // kind = assessment

	Position    Position `json:"position"`
	Size        Size     `json:"size"`
	Connections []string `json:"connections"`
}

// StepKind enumerates the kinds of steps in a process graph.
// This is a closed variant: different kinds unlock different optional fields.
type StepKind string

const (
	StepKindStart      StepKind = "start"
	StepKindEnd        StepKind = "end"
	StepKindEntity     StepKind = "entity"
	StepKindForm       StepKind = "form"
	StepKindAssessment StepKind = "assessment"
	StepKindWorkflow   StepKind = "workflow"
	StepKindAction     StepKind = "action"
	StepKindDecision   StepKind = "decision"
	StepKindCustom     StepKind = "custom"
)

// Valid reports whether k is one of the nine known kinds.
func (k StepKind) Valid() bool {
	switch k {
	case StepKindStart, StepKindEnd, StepKindEntity, StepKindForm,
		StepKindAssessment, StepKindWorkflow, StepKindAction,
		StepKindDecision, StepKindCustom:
		return true
	}
	return false
}

// Branch is a labeled conditional edge owned exclusively by a decision step.
// NextStepID nil means the branch is not yet routed, a valid intermediate
// state that the validator reports as a warning at save time.
type Branch struct {
	ID             string  `json:"id"`
	ConditionLabel string  `json:"conditionLabel"`
	ConditionValue any     `json:"conditionValue"` // string or bool
	NextStepID     *string `json:"nextStepId"`
}

// EntityRef associates an entity-operation step with a catalog entity.
type EntityRef struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// MappedResource associates a step with an external catalog resource by
// id plus a cached display name.
type MappedResource struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind ResourceKind `json:"kind"`
}

// ResourceKind enumerates the mappable catalog resource kinds.
type ResourceKind string

const (
	ResourceKindForm       ResourceKind = "form"
	ResourceKindAssessment ResourceKind = "assessment"
	ResourceKindWorkflow   ResourceKind = "workflow"
)

// RuleRef associates a decision step with a business rule.
type RuleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScheduleConfig holds recurrence settings for assessment steps.
// Frequency is a standard 5-field cron spec.
type ScheduleConfig struct {
	Frequency string `json:"frequency,omitempty"`
	Enabled   bool   `json:"enabled,omitempty"`
}

// Position is a step's top-left canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a step's rendered dimensions.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
