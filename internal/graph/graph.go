package graph

import (
	"github.com/google/uuid"

	"github.com/vantagerisk/procanvas/internal/geometry"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// Graph is the in-memory process graph owned by one editor session.
// Steps live in an indexed arena (map keyed by id plus an ordered id
// slice) so lookups and updates are O(1) instead of array scans.
// All mutations are synchronous; errors are returned as values.
type Graph struct {
	ID          string
	Name        string
	Description string

	steps map[string]*schema.Step
	order []string // step ids in ordinal order
}

// New creates an empty graph. A blank id is replaced with a fresh UUID.
func New(id, name, description string) *Graph {
	if id == "" {
		id = uuid.New().String()
	}
	return &Graph{
		ID:          id,
		Name:        name,
		Description: description,
		steps:       make(map[string]*schema.Step),
	}
}

// FromSteps builds a graph from already-decoded steps, preserving their
// declaration order and renumbering ordinals to a dense 1..N sequence.
func FromSteps(id, name, description string, steps []schema.Step) *Graph {
	g := New(id, name, description)
	for i := range steps {
		s := steps[i]
		g.steps[s.ID] = &s
		g.order = append(g.order, s.ID)
	}
	g.renumber()
	return g
}

// Step returns the step with the given id, or nil if absent.
// The returned pointer is live graph state; callers mutate it only
// through graph operations.
func (g *Graph) Step(id string) *schema.Step {
	return g.steps[id]
}

// Steps returns all steps in ordinal order.
func (g *Graph) Steps() []*schema.Step {
	out := make([]*schema.Step, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.steps[id])
	}
	return out
}

// Len returns the number of steps.
func (g *Graph) Len() int {
	return len(g.order)
}

// Snapshot returns deep copies of all steps in ordinal order, suitable
// for serialization without aliasing live graph state.
func (g *Graph) Snapshot() []schema.Step {
	out := make([]schema.Step, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, copyStep(g.steps[id]))
	}
	return out
}

// AddStep allocates a step of the given kind with kind-appropriate
// defaults and appends it at the next ordinal. A nil hint places the
// step on the staggered default grid. Second start/end steps are
// rejected so the cardinality invariant holds at mutation time.
func (g *Graph) AddStep(kind schema.StepKind, name string, hint *schema.Position) (*schema.Step, *schema.DesignError) {
	if !kind.Valid() {
		return nil, schema.NewErrorf(schema.ErrCodeInvalidKind, "unknown step kind %q", kind)
	}
	if kind == schema.StepKindStart && g.countKind(schema.StepKindStart) > 0 {
		return nil, schema.NewError(schema.ErrCodeDuplicateStart, "graph already has a start step")
	}
	if kind == schema.StepKindEnd && g.countKind(schema.StepKindEnd) > 0 {
		return nil, schema.NewError(schema.ErrCodeDuplicateEnd, "graph already has an end step")
	}

	pos := geometry.DefaultPosition(len(g.order))
	if hint != nil {
		pos = geometry.ClampPosition(*hint)
	}

	s := &schema.Step{
		ID:          "step-" + uuid.New().String(),
		Ordinal:     len(g.order) + 1,
		Name:        name,
		Kind:        kind,
		Position:    pos,
		Size:        geometry.DefaultSize(kind),
		Connections: []string{},
	}
	if kind == schema.StepKindDecision {
		s.Branches = defaultBranches()
	}

	g.steps[s.ID] = s
	g.order = append(g.order, s.ID)
	return s, nil
}

// RemoveStep deletes a step, scrubs it from every other step's
// connections, clears any branch routed to it, and renumbers ordinals
// back to a dense 1..N sequence.
func (g *Graph) RemoveStep(id string) *schema.DesignError {
	if _, ok := g.steps[id]; !ok {
		return stepNotFound(id)
	}

	delete(g.steps, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}

	for _, s := range g.steps {
		s.Connections = removeID(s.Connections, id)
		for bi := range s.Branches {
			if s.Branches[bi].NextStepID != nil && *s.Branches[bi].NextStepID == id {
				s.Branches[bi].NextStepID = nil
			}
		}
	}

	g.renumber()
	return nil
}

// StepPatch is a partial update applied by UpdateStep. Nil fields are
// left untouched; Clear flags null out the corresponding reference.
// Kind-specific field combinations are not re-validated here; that is
// the validator's job, run on demand.
type StepPatch struct {
	Name        *string
	Description *string
	Position    *schema.Position
	Size        *schema.Size

	EntityRef      *schema.EntityRef
	MappedResource *schema.MappedResource
	RuleRef        *schema.RuleRef
	ScheduleConfig *schema.ScheduleConfig

	ClearEntityRef      bool
	ClearMappedResource bool
	ClearRuleRef        bool
}

// UpdateStep shallow-merges the patch into the step.
func (g *Graph) UpdateStep(id string, patch StepPatch) *schema.DesignError {
	s, ok := g.steps[id]
	if !ok {
		return stepNotFound(id)
	}

	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.Position != nil {
		s.Position = *patch.Position
	}
	if patch.Size != nil {
		s.Size = *patch.Size
	}
	if patch.EntityRef != nil {
		s.EntityRef = patch.EntityRef
	}
	if patch.MappedResource != nil {
		s.MappedResource = patch.MappedResource
	}
	if patch.RuleRef != nil {
		s.RuleRef = patch.RuleRef
	}
	if patch.ScheduleConfig != nil {
		s.ScheduleConfig = patch.ScheduleConfig
	}
	if patch.ClearEntityRef {
		s.EntityRef = nil
	}
	if patch.ClearMappedResource {
		s.MappedResource = nil
	}
	if patch.ClearRuleRef {
		s.RuleRef = nil
	}
	return nil
}

// SetPosition moves a step, clamping to non-negative coordinates.
func (g *Graph) SetPosition(id string, pos schema.Position) *schema.DesignError {
	s, ok := g.steps[id]
	if !ok {
		return stepNotFound(id)
	}
	s.Position = geometry.ClampPosition(pos)
	return nil
}

// SetSize resizes a step, flooring at the minimum step dimensions.
func (g *Graph) SetSize(id string, size schema.Size) *schema.DesignError {
	s, ok := g.steps[id]
	if !ok {
		return stepNotFound(id)
	}
	s.Size = geometry.ClampSize(size)
	return nil
}

func (g *Graph) countKind(kind schema.StepKind) int {
	n := 0
	for _, s := range g.steps {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// renumber rewrites ordinals as a dense 1..N sequence following order.
func (g *Graph) renumber() {
	for i, id := range g.order {
		g.steps[id].Ordinal = i + 1
	}
}

func defaultBranches() []schema.Branch {
	return []schema.Branch{
		{ID: "branch-" + uuid.New().String(), ConditionLabel: "Yes", ConditionValue: true},
		{ID: "branch-" + uuid.New().String(), ConditionLabel: "No", ConditionValue: false},
	}
}

func stepNotFound(id string) *schema.DesignError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "step %q not found", id).WithStep(id)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func copyStep(s *schema.Step) schema.Step {
	c := *s
	c.Connections = append([]string(nil), s.Connections...)
	if s.Branches != nil {
		c.Branches = make([]schema.Branch, len(s.Branches))
		for i, b := range s.Branches {
			cb := b
			if b.NextStepID != nil {
				next := *b.NextStepID
				cb.NextStepID = &next
			}
			c.Branches[i] = cb
		}
	}
	if s.EntityRef != nil {
		er := *s.EntityRef
		c.EntityRef = &er
	}
	if s.MappedResource != nil {
		mr := *s.MappedResource
		c.MappedResource = &mr
	}
	if s.RuleRef != nil {
		rr := *s.RuleRef
		c.RuleRef = &rr
	}
	if s.ScheduleConfig != nil {
		sc := *s.ScheduleConfig
		c.ScheduleConfig = &sc
	}
	return c
}
