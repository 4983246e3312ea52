package catalog

import (
	"github.com/google/uuid"

	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/internal/rules"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// Mapper attaches catalog references to steps. It never performs
// network calls itself; it is handed an already-fetched snapshot,
// which keeps every operation synchronous.
type Mapper struct {
	snap *Snapshot
}

// NewMapper creates a Mapper over the given snapshot. A nil snapshot
// behaves like an empty one.
func NewMapper(snap *Snapshot) *Mapper {
	if snap == nil {
		snap = &Snapshot{}
	}
	return &Mapper{snap: snap}
}

// Snapshot returns the current catalog snapshot.
func (m *Mapper) Snapshot() *Snapshot {
	return m.snap
}

// Replace swaps in a fresher snapshot, e.g. when an outstanding
// catalog load completes mid-session.
func (m *Mapper) Replace(snap *Snapshot) {
	if snap != nil {
		m.snap = snap
	}
}

// Rule resolves a rule id to its expression, delegating to whichever
// snapshot is current. Validators hold the Mapper rather than a
// snapshot so a Replace is picked up on the next validation pass.
func (m *Mapper) Rule(id string) (string, rules.Language, bool) {
	return m.snap.Rule(id)
}

// MapResource attaches a form/assessment/workflow reference to a step,
// caching the display name from the snapshot. Mapping an id the
// snapshot does not offer is rejected: the picker only lists known
// resources, so a miss here is a programming error, unlike stale
// references in loaded documents.
func (m *Mapper) MapResource(g *graph.Graph, stepID string, kind schema.ResourceKind, resourceID string) *schema.DesignError {
	res, ok := m.snap.Resource(kind, resourceID)
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound,
			"%s %q not present in the catalog", kind, resourceID).WithStep(stepID)
	}
	return g.UpdateStep(stepID, graph.StepPatch{
		MappedResource: &schema.MappedResource{ID: res.ID, Name: res.Name, Kind: kind},
	})
}

// MapRule attaches a business rule to a decision step and resets its
// branches to the rule's expected shape: one branch per declared
// outcome, or the default Yes/No pair for boolean rules.
func (m *Mapper) MapRule(g *graph.Graph, stepID, ruleID string) *schema.DesignError {
	rule, ok := m.snap.RuleByID(ruleID)
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound,
			"rule %q not present in the catalog", ruleID).WithStep(stepID)
	}

	if derr := g.SetBranches(stepID, branchesFor(rule)); derr != nil {
		return derr
	}
	return g.UpdateStep(stepID, graph.StepPatch{
		RuleRef: &schema.RuleRef{ID: rule.ID, Name: rule.Name},
	})
}

// MapEntity attaches an entity reference to a step.
func (m *Mapper) MapEntity(g *graph.Graph, stepID, entityName string) *schema.DesignError {
	ent, ok := m.snap.Entity(entityName)
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound,
			"entity %q not present in the catalog", entityName).WithStep(stepID)
	}
	return g.UpdateStep(stepID, graph.StepPatch{
		EntityRef: &schema.EntityRef{Name: ent.EntityName, Label: ent.EntityLabel},
	})
}

// Unmap clears every catalog association from a step without touching
// its geometry or connections.
func (m *Mapper) Unmap(g *graph.Graph, stepID string) *schema.DesignError {
	return g.UpdateStep(stepID, graph.StepPatch{
		ClearEntityRef:      true,
		ClearMappedResource: true,
		ClearRuleRef:        true,
	})
}

// StaleRef is a catalog reference held by a step that the current
// snapshot no longer offers. The mapping itself is preserved, since
// the snapshot may merely be stale, and the host renders the step with a
// "resource unavailable" indicator.
type StaleRef struct {
	StepID string
	Kind   string // "form", "assessment", "workflow", "rule", "entity"
	RefID  string
}

// Unavailable scans the graph for references missing from the
// snapshot.
func (m *Mapper) Unavailable(g *graph.Graph) []StaleRef {
	var stale []StaleRef
	for _, s := range g.Steps() {
		if s.MappedResource != nil {
			if _, ok := m.snap.Resource(s.MappedResource.Kind, s.MappedResource.ID); !ok {
				stale = append(stale, StaleRef{StepID: s.ID, Kind: string(s.MappedResource.Kind), RefID: s.MappedResource.ID})
			}
		}
		if s.RuleRef != nil {
			if _, ok := m.snap.RuleByID(s.RuleRef.ID); !ok {
				stale = append(stale, StaleRef{StepID: s.ID, Kind: "rule", RefID: s.RuleRef.ID})
			}
		}
		if s.EntityRef != nil {
			if _, ok := m.snap.Entity(s.EntityRef.Name); !ok {
				stale = append(stale, StaleRef{StepID: s.ID, Kind: "entity", RefID: s.EntityRef.Name})
			}
		}
	}
	return stale
}

func branchesFor(rule *Rule) []schema.Branch {
	if len(rule.Outcomes) == 0 {
		return []schema.Branch{
			{ID: "branch-" + uuid.New().String(), ConditionLabel: "Yes", ConditionValue: true},
			{ID: "branch-" + uuid.New().String(), ConditionLabel: "No", ConditionValue: false},
		}
	}
	branches := make([]schema.Branch, 0, len(rule.Outcomes))
	for _, outcome := range rule.Outcomes {
		branches = append(branches, schema.Branch{
			ID:             "branch-" + uuid.New().String(),
			ConditionLabel: outcome,
			ConditionValue: outcome,
		})
	}
	return branches
}
