package validation

import (
	"fmt"

	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/internal/rules"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// RuleLookup resolves a business rule's expression by catalog id.
// May be nil to skip rule expression checks.
type RuleLookup interface {
	Rule(id string) (expression string, language rules.Language, ok bool)
}

// ProcessValidator runs the full validation pipeline over an in-memory
// process graph:
//  1. Structural (cardinality, fan-out, references, kind fields, schedules)
//  2. DAG (cycles, backward branches, reachability)
//  3. Rules (expression compile checks against the catalog)
//
// It runs on demand, at save time and optionally live for inline
// warnings. Violations are collected into a ValidationResult; the
// caller decides whether to block the save or warn.
type ProcessValidator struct {
	rules   RuleLookup
	engines *rules.Set
}

// NewProcessValidator creates a ProcessValidator. lookup may be nil to
// skip rule expression checks. A non-nil engines set is shared with the
// caller so expressions compile into one cache; pass nil to build a
// private set.
func NewProcessValidator(lookup RuleLookup, engines *rules.Set) (*ProcessValidator, error) {
	if engines == nil {
		var err error
		engines, err = rules.NewSet()
		if err != nil {
			return nil, err
		}
	}
	return &ProcessValidator{rules: lookup, engines: engines}, nil
}

// Validate runs the pipeline and returns the aggregated result.
// The DAG stage is skipped when structural errors exist, since
// dangling references make the edge analysis meaningless.
func (pv *ProcessValidator) Validate(g *graph.Graph) *schema.ValidationResult {
	if g == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, "process graph is nil")
		return r
	}

	result := validateStructural(g)

	if result.Valid() {
		result.Merge(validateDAG(g))
	}

	result.Merge(pv.validateRules(g))

	return result
}

// SaveBlocking reports whether the result must refuse a save: any
// error-severity issue blocks, warnings pass through to the host.
func SaveBlocking(result *schema.ValidationResult) bool {
	return !result.Valid()
}

// validateRules compile-checks rule expressions attached to decision
// steps. A rule id missing from the catalog snapshot is a warning, not
// an error: the snapshot may merely be stale and the mapping is kept
// (rendered as unavailable by the host).
func (pv *ProcessValidator) validateRules(g *graph.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if pv.rules == nil {
		return result
	}

	for _, s := range g.Steps() {
		if s.RuleRef == nil {
			continue
		}
		path := fmt.Sprintf("steps[%s].ruleRef", s.ID)

		expression, language, ok := pv.rules.Rule(s.RuleRef.ID)
		if !ok {
			result.AddStepWarning(path, schema.ErrCodeNotFound, s.ID,
				fmt.Sprintf("rule %q not present in the catalog snapshot", s.RuleRef.ID))
			continue
		}
		if expression == "" {
			continue
		}

		engine, derr := pv.engines.Engine(language)
		if derr != nil {
			result.AddStepWarning(path, schema.ErrCodeRuleExpression, s.ID, derr.Message)
			continue
		}
		if err := engine.Check(expression); err != nil {
			result.AddStepWarning(path, schema.ErrCodeRuleExpression, s.ID,
				fmt.Sprintf("rule %q does not compile: %s", s.RuleRef.Name, err.Error()))
		}
	}

	return result
}
