package graph

import (
	"github.com/google/uuid"

	"github.com/vantagerisk/procanvas/pkg/schema"
)

// Connect adds a plain directed edge from one step to another.
// Decision steps route exclusively through branches and end steps have
// no outgoing edges, so both are rejected here. Non-decision origins
// carry at most one connection.
func (g *Graph) Connect(fromID, toID string) *schema.DesignError {
	from, ok := g.steps[fromID]
	if !ok {
		return stepNotFound(fromID)
	}
	if _, ok := g.steps[toID]; !ok {
		return stepNotFound(toID)
	}
	if fromID == toID {
		return schema.NewError(schema.ErrCodeSelfReference, "a step cannot connect to itself").WithStep(fromID)
	}

	switch from.Kind {
	case schema.StepKindDecision:
		return schema.NewError(schema.ErrCodeInvalidKind,
			"decision steps connect through branches, not plain edges").WithStep(fromID)
	case schema.StepKindEnd:
		return schema.NewError(schema.ErrCodeInvalidKind,
			"end steps cannot originate connections").WithStep(fromID)
	}

	for _, existing := range from.Connections {
		if existing == toID {
			return schema.NewErrorf(schema.ErrCodeDuplicateConn,
				"connection to %q already exists", toID).WithStep(fromID)
		}
	}
	if len(from.Connections) >= 1 {
		return schema.NewError(schema.ErrCodeMultipleConns,
			"only decision steps can have multiple connections").WithStep(fromID)
	}

	from.Connections = append(from.Connections, toID)
	return nil
}

// Disconnect removes the plain edge from one step to another.
func (g *Graph) Disconnect(fromID, toID string) *schema.DesignError {
	from, ok := g.steps[fromID]
	if !ok {
		return stepNotFound(fromID)
	}
	for _, existing := range from.Connections {
		if existing == toID {
			from.Connections = removeID(from.Connections, toID)
			return nil
		}
	}
	return schema.NewErrorf(schema.ErrCodeNotFound, "no connection from %q to %q", fromID, toID).WithStep(fromID)
}

// AddBranch appends a labeled branch to a decision step.
func (g *Graph) AddBranch(stepID, label string, value any) (*schema.Branch, *schema.DesignError) {
	s, ok := g.steps[stepID]
	if !ok {
		return nil, stepNotFound(stepID)
	}
	if s.Kind != schema.StepKindDecision {
		return nil, schema.NewError(schema.ErrCodeInvalidKind,
			"only decision steps have branches").WithStep(stepID)
	}

	b := schema.Branch{
		ID:             "branch-" + uuid.New().String(),
		ConditionLabel: label,
		ConditionValue: value,
	}
	s.Branches = append(s.Branches, b)
	return &s.Branches[len(s.Branches)-1], nil
}

// BranchPatch is a partial update applied by UpdateBranch.
type BranchPatch struct {
	ConditionLabel *string
	ConditionValue any
}

// UpdateBranch shallow-merges the patch into the branch.
func (g *Graph) UpdateBranch(stepID, branchID string, patch BranchPatch) *schema.DesignError {
	b, derr := g.findBranch(stepID, branchID)
	if derr != nil {
		return derr
	}
	if patch.ConditionLabel != nil {
		b.ConditionLabel = *patch.ConditionLabel
	}
	if patch.ConditionValue != nil {
		b.ConditionValue = patch.ConditionValue
	}
	return nil
}

// RemoveBranch deletes a branch from a decision step.
func (g *Graph) RemoveBranch(stepID, branchID string) *schema.DesignError {
	s, ok := g.steps[stepID]
	if !ok {
		return stepNotFound(stepID)
	}
	for i := range s.Branches {
		if s.Branches[i].ID == branchID {
			s.Branches = append(s.Branches[:i], s.Branches[i+1:]...)
			return nil
		}
	}
	return branchNotFound(stepID, branchID)
}

// RouteBranch points a branch at a target step, or unroutes it when
// target is nil. The target must exist and differ from the origin.
func (g *Graph) RouteBranch(stepID, branchID string, target *string) *schema.DesignError {
	b, derr := g.findBranch(stepID, branchID)
	if derr != nil {
		return derr
	}
	if target == nil {
		b.NextStepID = nil
		return nil
	}
	if *target == stepID {
		return schema.NewError(schema.ErrCodeSelfReference,
			"a branch cannot route back to its own step").WithStep(stepID)
	}
	if _, ok := g.steps[*target]; !ok {
		return stepNotFound(*target)
	}
	next := *target
	b.NextStepID = &next
	return nil
}

// SetBranches replaces a decision step's branches wholesale. Used when
// mapping a business rule, which dictates the branch shape.
func (g *Graph) SetBranches(stepID string, branches []schema.Branch) *schema.DesignError {
	s, ok := g.steps[stepID]
	if !ok {
		return stepNotFound(stepID)
	}
	if s.Kind != schema.StepKindDecision {
		return schema.NewError(schema.ErrCodeInvalidKind,
			"only decision steps have branches").WithStep(stepID)
	}
	s.Branches = branches
	return nil
}

// Edge is a resolved directed edge: either a plain connection or a
// routed branch (BranchID non-empty, Label carrying the condition).
type Edge struct {
	From     string
	To       string
	BranchID string
	Label    string
}

// Edges returns every edge in the graph, plain connections plus
// routed branches, in ordinal order of the origin step.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, id := range g.order {
		s := g.steps[id]
		for _, to := range s.Connections {
			edges = append(edges, Edge{From: id, To: to})
		}
		for _, b := range s.Branches {
			if b.NextStepID != nil {
				edges = append(edges, Edge{From: id, To: *b.NextStepID, BranchID: b.ID, Label: b.ConditionLabel})
			}
		}
	}
	return edges
}

func (g *Graph) findBranch(stepID, branchID string) (*schema.Branch, *schema.DesignError) {
	s, ok := g.steps[stepID]
	if !ok {
		return nil, stepNotFound(stepID)
	}
	for i := range s.Branches {
		if s.Branches[i].ID == branchID {
			return &s.Branches[i], nil
		}
	}
	return nil, branchNotFound(stepID, branchID)
}

func branchNotFound(stepID, branchID string) *schema.DesignError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "branch %q not found", branchID).WithStep(stepID)
}
