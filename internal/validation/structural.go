package validation

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// cronParser accepts standard 5-field cron specs for assessment
// schedule frequencies.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// validateStructural checks the per-step invariants: start/end
// cardinality, fan-out legality, reference integrity, kind-specific
// field placement, and schedule frequency syntax. All violations are
// collected; nothing short-circuits.
func validateStructural(g *graph.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	validateCardinality(g, result)

	for _, s := range g.Steps() {
		path := fmt.Sprintf("steps[%s]", s.ID)
		validateFanOut(s, path, result)
		validateReferences(g, s, path, result)
		validateKindFields(s, path, result)
		validateSchedule(s, path, result)
	}

	return result
}

func validateCardinality(g *graph.Graph, result *schema.ValidationResult) {
	starts, ends := 0, 0
	for _, s := range g.Steps() {
		switch s.Kind {
		case schema.StepKindStart:
			starts++
		case schema.StepKindEnd:
			ends++
		}
	}

	if starts == 0 {
		result.AddError("steps", schema.ErrCodeMissingStart, "process has no start step")
	}
	if starts > 1 {
		result.AddError("steps", schema.ErrCodeDuplicateStart,
			fmt.Sprintf("process has %d start steps, expected exactly one", starts))
	}
	if ends > 1 {
		result.AddError("steps", schema.ErrCodeDuplicateEnd,
			fmt.Sprintf("process has %d end steps, expected at most one", ends))
	}
}

func validateFanOut(s *schema.Step, path string, result *schema.ValidationResult) {
	switch s.Kind {
	case schema.StepKindDecision:
		// Decision fan-out goes through branches, never connections.
		if len(s.Connections) > 0 {
			result.AddStepError(path+".connections", schema.ErrCodeInvalidKind, s.ID,
				"decision steps must route through branches, not plain connections")
		}
	case schema.StepKindEnd:
		if len(s.Connections) > 0 {
			result.AddStepError(path+".connections", schema.ErrCodeInvalidKind, s.ID,
				"end steps cannot have outgoing connections")
		}
	default:
		if len(s.Connections) > 1 {
			result.AddStepError(path+".connections", schema.ErrCodeMultipleConns, s.ID,
				fmt.Sprintf("step has %d outgoing connections, only decision steps may have more than one", len(s.Connections)))
		}
		if len(s.Branches) > 0 {
			result.AddStepError(path+".branches", schema.ErrCodeInvalidKind, s.ID,
				"only decision steps have branches")
		}
	}
}

func validateReferences(g *graph.Graph, s *schema.Step, path string, result *schema.ValidationResult) {
	for i, to := range s.Connections {
		p := fmt.Sprintf("%s.connections[%d]", path, i)
		if to == s.ID {
			result.AddStepError(p, schema.ErrCodeSelfReference, s.ID, "step connects to itself")
			continue
		}
		if g.Step(to) == nil {
			result.AddStepError(p, schema.ErrCodeDanglingReference, s.ID,
				fmt.Sprintf("connection references non-existent step %q", to))
		}
	}

	for i, b := range s.Branches {
		p := fmt.Sprintf("%s.branches[%d]", path, i)
		if b.NextStepID == nil {
			result.AddStepWarning(p, schema.ErrCodeValidation, s.ID,
				fmt.Sprintf("branch %q is not routed to any step", b.ConditionLabel))
			continue
		}
		if *b.NextStepID == s.ID {
			result.AddStepError(p, schema.ErrCodeSelfReference, s.ID, "branch routes back to its own step")
			continue
		}
		if g.Step(*b.NextStepID) == nil {
			result.AddStepError(p, schema.ErrCodeDanglingReference, s.ID,
				fmt.Sprintf("branch %q references non-existent step %q", b.ConditionLabel, *b.NextStepID))
		}
	}
}

// validateKindFields warns when kind-specific optional fields appear on
// a step kind that never reads them. These are advisory: stale fields
// left behind by a kind change do not block a save.
func validateKindFields(s *schema.Step, path string, result *schema.ValidationResult) {
	if s.EntityRef != nil && s.Kind != schema.StepKindEntity {
		result.AddStepWarning(path+".entityRef", schema.ErrCodeValidation, s.ID,
			fmt.Sprintf("entityRef is only meaningful for entity steps, not %q", s.Kind))
	}
	if s.RuleRef != nil && s.Kind != schema.StepKindDecision {
		result.AddStepWarning(path+".ruleRef", schema.ErrCodeValidation, s.ID,
			fmt.Sprintf("ruleRef is only meaningful for decision steps, not %q", s.Kind))
	}
	if s.ScheduleConfig != nil && s.Kind != schema.StepKindAssessment {
		result.AddStepWarning(path+".scheduleConfig", schema.ErrCodeValidation, s.ID,
			fmt.Sprintf("scheduleConfig is only meaningful for assessment steps, not %q", s.Kind))
	}
	if s.MappedResource != nil {
		switch s.Kind {
		case schema.StepKindForm, schema.StepKindAssessment, schema.StepKindWorkflow:
		default:
			result.AddStepWarning(path+".mappedResource", schema.ErrCodeValidation, s.ID,
				fmt.Sprintf("mappedResource is only meaningful for form/assessment/workflow steps, not %q", s.Kind))
		}
	}
}

func validateSchedule(s *schema.Step, path string, result *schema.ValidationResult) {
	if s.ScheduleConfig == nil || s.ScheduleConfig.Frequency == "" {
		return
	}
	if _, err := cronParser.Parse(s.ScheduleConfig.Frequency); err != nil {
		result.AddStepError(path+".scheduleConfig.frequency", schema.ErrCodeSchedule, s.ID,
			fmt.Sprintf("invalid cron frequency %q: %s", s.ScheduleConfig.Frequency, err.Error()))
	}
}
