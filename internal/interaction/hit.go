package interaction

import (
	"github.com/vantagerisk/procanvas/internal/geometry"
	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// edgeTolerance is the hit distance for clicking an edge line.
const edgeTolerance = 6.0

// HitKind classifies what part of the canvas a pointer event landed on.
type HitKind string

const (
	HitNone         HitKind = "none"
	HitStepBody     HitKind = "step"
	HitResizeHandle HitKind = "resize-handle"
	HitOutputPort   HitKind = "output-port"
	HitBranchPort   HitKind = "branch-port"
	HitEdge         HitKind = "edge"
)

// Hit is the result of hit-testing a pointer position.
type Hit struct {
	Kind     HitKind
	StepID   string
	BranchID string
	Edge     graph.Edge // populated for HitEdge
}

// hitTest resolves a pointer position against the graph, topmost step
// first. The resize handle is only live on the selected step. Ports
// take priority over step bodies so a connect gesture can start on a
// boundary anchor; edges are checked last since they run underneath
// everything.
func hitTest(g *graph.Graph, p schema.Position, selectedID string) Hit {
	steps := g.Steps()

	if selectedID != "" {
		if s := g.Step(selectedID); s != nil && geometry.ResizeHandle(s).Contains(p) {
			return Hit{Kind: HitResizeHandle, StepID: selectedID}
		}
	}

	// Later steps render on top, so walk in reverse ordinal order.
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		if h, ok := hitPort(s, p); ok {
			return h
		}
	}
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		if geometry.BoundsOf(s).Contains(p) {
			return Hit{Kind: HitStepBody, StepID: s.ID}
		}
	}

	if h, ok := hitEdge(g, p); ok {
		return h
	}

	return Hit{Kind: HitNone}
}

func hitPort(s *schema.Step, p schema.Position) (Hit, bool) {
	switch s.Kind {
	case schema.StepKindDecision:
		n := len(s.Branches)
		for i, b := range s.Branches {
			if geometry.NearPort(p, geometry.BranchPort(s, i, n)) {
				return Hit{Kind: HitBranchPort, StepID: s.ID, BranchID: b.ID}, true
			}
		}
	case schema.StepKindEnd:
		// End steps have no outgoing port.
	default:
		if geometry.NearPort(p, geometry.OutputPort(s)) {
			return Hit{Kind: HitOutputPort, StepID: s.ID}, true
		}
	}
	return Hit{}, false
}

func hitEdge(g *graph.Graph, p schema.Position) (Hit, bool) {
	for _, e := range g.Edges() {
		from := g.Step(e.From)
		to := g.Step(e.To)
		if from == nil || to == nil {
			continue
		}
		a := edgeOrigin(from, e)
		b := geometry.InputPort(to)
		if geometry.NearSegment(p, a, b, edgeTolerance) {
			return Hit{Kind: HitEdge, StepID: e.From, BranchID: e.BranchID, Edge: e}, true
		}
	}
	return Hit{}, false
}

// edgeOrigin returns the anchor an edge leaves from: the owning branch
// port for branch edges, the output port otherwise.
func edgeOrigin(from *schema.Step, e graph.Edge) schema.Position {
	if e.BranchID == "" {
		return geometry.OutputPort(from)
	}
	n := len(from.Branches)
	for i, b := range from.Branches {
		if b.ID == e.BranchID {
			return geometry.BranchPort(from, i, n)
		}
	}
	return geometry.OutputPort(from)
}
