package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagerisk/procanvas/internal/geometry"
	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

func at(x, y float64) *schema.Position {
	return &schema.Position{X: x, Y: y}
}

// canvas builds start(0,0) -> nothing, action A(300,0), action B(300,300).
func canvas(t *testing.T) (*graph.Graph, *schema.Step, *schema.Step, *schema.Step) {
	t.Helper()
	g := graph.New("g1", "", "")
	start, derr := g.AddStep(schema.StepKindStart, "Start", at(0, 0))
	require.Nil(t, derr)
	a, derr := g.AddStep(schema.StepKindAction, "A", at(300, 0))
	require.Nil(t, derr)
	b, derr := g.AddStep(schema.StepKindAction, "B", at(300, 300))
	require.Nil(t, derr)
	return g, start, a, b
}

func center(s *schema.Step) schema.Position {
	return schema.Position{X: s.Position.X + s.Size.Width/2, Y: s.Position.Y + s.Size.Height/2}
}

// --- Dragging ---

func TestDrag_MovesStepByPointerDelta(t *testing.T) {
	g, _, a, _ := canvas(t)
	c := NewController(g, nil)

	grab := schema.Position{X: a.Position.X + 10, Y: a.Position.Y + 20}
	c.PointerDown(grab)
	assert.Equal(t, StateDragging, c.State())
	assert.Equal(t, a.ID, c.Selected())

	c.PointerMove(schema.Position{X: grab.X + 50, Y: grab.Y + 40})
	assert.Equal(t, schema.Position{X: 350, Y: 40}, g.Step(a.ID).Position)

	c.PointerUp(schema.Position{X: grab.X + 50, Y: grab.Y + 40})
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, schema.Position{X: 350, Y: 40}, g.Step(a.ID).Position)
}

func TestDrag_ClampsToNonNegative(t *testing.T) {
	g, _, a, _ := canvas(t)
	c := NewController(g, nil)

	grab := center(a)
	c.PointerDown(grab)
	c.PointerMove(schema.Position{X: -5000, Y: -5000})

	pos := g.Step(a.ID).Position
	assert.Equal(t, schema.Position{X: 0, Y: 0}, pos)
}

// --- Resizing ---

func TestResize_RequiresSelection(t *testing.T) {
	g, _, a, _ := canvas(t)
	c := NewController(g, nil)

	corner := schema.Position{X: a.Position.X + a.Size.Width - 2, Y: a.Position.Y + a.Size.Height - 2}

	// Unselected: the corner hit falls through to the body and drags.
	c.PointerDown(corner)
	assert.Equal(t, StateDragging, c.State())
	c.PointerUp(corner)

	// Selected: the same corner starts a resize.
	c.PointerDown(corner)
	assert.Equal(t, StateResizing, c.State())
	c.PointerUp(corner)
	assert.Equal(t, StateIdle, c.State())
}

func TestResize_GrowsByDelta(t *testing.T) {
	g, _, a, _ := canvas(t)
	c := NewController(g, nil)
	c.Select(a.ID)

	corner := schema.Position{X: a.Position.X + a.Size.Width - 1, Y: a.Position.Y + a.Size.Height - 1}
	c.PointerDown(corner)
	require.Equal(t, StateResizing, c.State())

	c.PointerMove(schema.Position{X: corner.X + 60, Y: corner.Y + 30})
	assert.Equal(t, schema.Size{Width: 252, Height: 126}, g.Step(a.ID).Size)
}

func TestResize_FloorsAtMinimum(t *testing.T) {
	g, _, a, _ := canvas(t)
	c := NewController(g, nil)
	c.Select(a.ID)

	corner := schema.Position{X: a.Position.X + a.Size.Width - 1, Y: a.Position.Y + a.Size.Height - 1}
	c.PointerDown(corner)
	c.PointerMove(schema.Position{X: corner.X - 10000, Y: corner.Y - 10000})

	size := g.Step(a.ID).Size
	assert.Equal(t, geometry.MinStepWidth, size.Width)
	assert.Equal(t, geometry.MinStepHeight, size.Height)
}

// --- Connecting ---

func TestConnect_PortToBody(t *testing.T) {
	g, start, a, _ := canvas(t)
	c := NewController(g, nil)

	c.PointerDown(geometry.OutputPort(start))
	require.Equal(t, StateConnecting, c.State())

	_, _, active := c.GuideLine()
	assert.True(t, active)

	c.PointerUp(center(a))
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, []string{a.ID}, g.Step(start.ID).Connections)
	assert.Empty(t, c.Feedback())
}

func TestConnect_ReleaseOnCanvasCancels(t *testing.T) {
	g, start, _, _ := canvas(t)
	c := NewController(g, nil)

	c.PointerDown(geometry.OutputPort(start))
	c.PointerUp(schema.Position{X: 900, Y: 900})

	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, g.Step(start.ID).Connections)
}

func TestConnect_ReleaseOnOriginCancels(t *testing.T) {
	g, start, _, _ := canvas(t)
	c := NewController(g, nil)

	c.PointerDown(geometry.OutputPort(start))
	c.PointerUp(center(start))

	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, g.Step(start.ID).Connections)
}

func TestConnect_ModelErrorBecomesFeedback(t *testing.T) {
	g, _, a, b := canvas(t)
	require.Nil(t, g.Connect(a.ID, b.ID))

	c := NewController(g, nil)

	// Release over a second target: the model rejects the extra edge.
	c.PointerDown(geometry.OutputPort(g.Step(a.ID)))
	require.Equal(t, StateConnecting, c.State())
	start := g.Steps()[0]
	c.PointerUp(center(start))

	fb := c.Feedback()
	require.Len(t, fb, 1)
	assert.Equal(t, schema.ErrCodeMultipleConns, fb[0].Code)
	assert.Equal(t, []string{b.ID}, g.Step(a.ID).Connections)
}

func TestConnect_BranchPortRoutes(t *testing.T) {
	g := graph.New("g1", "", "")
	dec, _ := g.AddStep(schema.StepKindDecision, "Risk?", at(0, 0))
	end, _ := g.AddStep(schema.StepKindEnd, "End", at(400, 0))

	c := NewController(g, nil)
	port := geometry.BranchPort(g.Step(dec.ID), 0, len(dec.Branches))
	c.PointerDown(port)
	require.Equal(t, StateConnecting, c.State())

	c.PointerUp(center(end))
	require.NotNil(t, g.Step(dec.ID).Branches[0].NextStepID)
	assert.Equal(t, end.ID, *g.Step(dec.ID).Branches[0].NextStepID)
}

// --- Gesture robustness ---

func TestStrayPointerUpIgnored(t *testing.T) {
	g, _, _, _ := canvas(t)
	c := NewController(g, nil)

	c.PointerUp(schema.Position{X: 10, Y: 10})
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, c.Feedback())
}

func TestSecondPointerDownAbandonsGesture(t *testing.T) {
	g, _, a, _ := canvas(t)
	c := NewController(g, nil)

	c.PointerDown(center(a))
	require.Equal(t, StateDragging, c.State())

	c.PointerDown(center(a))
	assert.Equal(t, StateIdle, c.State())
}

func TestEmptyCanvasClickDeselects(t *testing.T) {
	g, _, a, _ := canvas(t)
	c := NewController(g, nil)
	c.Select(a.ID)

	c.PointerDown(schema.Position{X: 2000, Y: 2000})
	assert.Empty(t, c.Selected())
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, isValidTransition(StateIdle, StateDragging))
	assert.True(t, isValidTransition(StateIdle, StateConnecting))
	assert.True(t, isValidTransition(StateResizing, StateIdle))
	assert.False(t, isValidTransition(StateDragging, StateResizing))
	assert.False(t, isValidTransition(StateConnecting, StateDragging))
}

// --- Edge deletion ---

func TestEdgeClickReturnsEdgeAndRemoveDisconnects(t *testing.T) {
	g, start, a, _ := canvas(t)
	require.Nil(t, g.Connect(start.ID, a.ID))

	c := NewController(g, nil)

	mid := geometry.Midpoint(
		geometry.OutputPort(g.Step(start.ID)),
		geometry.InputPort(g.Step(a.ID)),
	)
	edge := c.PointerDown(mid)
	require.NotNil(t, edge)
	assert.Equal(t, start.ID, edge.From)
	assert.Equal(t, a.ID, edge.To)
	assert.Equal(t, StateIdle, c.State(), "edge click is not a gesture")

	require.Nil(t, c.RemoveEdge(*edge))
	assert.Empty(t, g.Step(start.ID).Connections)
}

func TestRemoveEdge_BranchUnroutes(t *testing.T) {
	g := graph.New("g1", "", "")
	dec, _ := g.AddStep(schema.StepKindDecision, "Risk?", at(0, 0))
	end, _ := g.AddStep(schema.StepKindEnd, "End", at(400, 0))
	require.Nil(t, g.RouteBranch(dec.ID, dec.Branches[0].ID, &end.ID))

	c := NewController(g, nil)
	edges := g.Edges()
	require.Len(t, edges, 1)

	require.Nil(t, c.RemoveEdge(edges[0]))
	assert.Nil(t, g.Step(dec.ID).Branches[0].NextStepID)
	// The branch itself survives; only the routing is cleared.
	assert.Len(t, g.Step(dec.ID).Branches, 2)
}

func TestGuideLine_FromBranchPort(t *testing.T) {
	g := graph.New("g1", "", "")
	dec, _ := g.AddStep(schema.StepKindDecision, "Risk?", at(0, 0))

	c := NewController(g, nil)
	port := geometry.BranchPort(g.Step(dec.ID), 1, len(dec.Branches))
	c.PointerDown(port)

	from, to, active := c.GuideLine()
	require.True(t, active)
	assert.Equal(t, port, from)
	assert.Equal(t, port, to) // pointer has not moved yet

	c.PointerMove(schema.Position{X: 500, Y: 500})
	_, to, _ = c.GuideLine()
	assert.Equal(t, schema.Position{X: 500, Y: 500}, to)
}
