package interaction

import (
	"log/slog"

	"github.com/vantagerisk/procanvas/internal/geometry"
	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// Controller is the finite-state machine that turns a raw pointer
// stream into graph mutations. It is single-threaded by contract: the
// host forwards pointer events from its UI loop, and every mutation
// happens synchronously inside the handler (no background mutation).
//
// Model errors raised mid-gesture are collected as feedback for the
// host to surface as non-fatal notices; malformed pointer sequences
// resolve silently to idle and are never surfaced, since they indicate
// a UI edge case rather than a data problem.
type Controller struct {
	g      *graph.Graph
	logger *slog.Logger

	state    State
	selected string
	pointer  schema.Position

	// dragging
	dragStep   string
	dragOffset schema.Position // pointer minus step position at pointer-down

	// resizing
	resizeStep    string
	originSize    schema.Size
	originPointer schema.Position

	// connecting
	connectFrom   string
	connectBranch string // empty for a plain output port

	feedback []*schema.DesignError
}

// NewController creates a controller over the given graph.
func NewController(g *graph.Graph, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{g: g, logger: logger, state: StateIdle}
}

// State returns the active gesture state.
func (c *Controller) State() State {
	return c.state
}

// Selected returns the id of the selected step, or "".
func (c *Controller) Selected() string {
	return c.selected
}

// Select sets the selection without starting a gesture.
func (c *Controller) Select(stepID string) {
	c.selected = stepID
}

// Feedback drains the accumulated non-fatal model errors.
func (c *Controller) Feedback() []*schema.DesignError {
	out := c.feedback
	c.feedback = nil
	return out
}

// PointerDown begins a gesture based on what the pointer landed on.
// Clicking an edge is an instantaneous action, not a gesture: the edge
// is returned so the host can prompt for deletion and call RemoveEdge.
// Clicking empty canvas clears the selection.
func (c *Controller) PointerDown(p schema.Position) *graph.Edge {
	c.pointer = p

	if c.state != StateIdle {
		// A second pointer-down mid-gesture is a malformed sequence;
		// abandon the gesture without mutating the graph.
		c.reset()
		return nil
	}

	hit := hitTest(c.g, p, c.selected)
	switch hit.Kind {
	case HitResizeHandle:
		s := c.g.Step(hit.StepID)
		c.transition(StateResizing)
		c.resizeStep = hit.StepID
		c.originSize = s.Size
		c.originPointer = p

	case HitOutputPort, HitBranchPort:
		c.transition(StateConnecting)
		c.connectFrom = hit.StepID
		c.connectBranch = hit.BranchID

	case HitStepBody:
		s := c.g.Step(hit.StepID)
		c.selected = hit.StepID
		c.transition(StateDragging)
		c.dragStep = hit.StepID
		c.dragOffset = schema.Position{X: p.X - s.Position.X, Y: p.Y - s.Position.Y}

	case HitEdge:
		edge := hit.Edge
		return &edge

	case HitNone:
		c.selected = ""
	}
	return nil
}

// PointerMove advances the active gesture. In the connecting state the
// only effect is moving the guide line endpoint; the graph is not
// touched until pointer-up.
func (c *Controller) PointerMove(p schema.Position) {
	c.pointer = p

	switch c.state {
	case StateDragging:
		if derr := c.g.SetPosition(c.dragStep, schema.Position{
			X: p.X - c.dragOffset.X,
			Y: p.Y - c.dragOffset.Y,
		}); derr != nil {
			c.logger.Debug("drag target vanished", slog.String("step_id", c.dragStep))
			c.reset()
		}

	case StateResizing:
		if derr := c.g.SetSize(c.resizeStep, schema.Size{
			Width:  c.originSize.Width + (p.X - c.originPointer.X),
			Height: c.originSize.Height + (p.Y - c.originPointer.Y),
		}); derr != nil {
			c.logger.Debug("resize target vanished", slog.String("step_id", c.resizeStep))
			c.reset()
		}

	case StateConnecting, StateIdle:
		// Nothing to mutate.
	}
}

// PointerUp completes the active gesture and returns to idle. For a
// connect gesture released over a different step's body, the edge is
// attempted and any model error becomes feedback. A pointer-up with no
// matching pointer-down resolves silently.
func (c *Controller) PointerUp(p schema.Position) {
	c.pointer = p

	switch c.state {
	case StateDragging, StateResizing:
		c.reset()

	case StateConnecting:
		from, branch := c.connectFrom, c.connectBranch
		c.reset()

		hit := hitTest(c.g, p, "")
		if hit.Kind != HitStepBody || hit.StepID == from {
			return // released on empty canvas or the origin: cancel
		}

		var derr *schema.DesignError
		if branch == "" {
			derr = c.g.Connect(from, hit.StepID)
		} else {
			target := hit.StepID
			derr = c.g.RouteBranch(from, branch, &target)
		}
		if derr != nil {
			c.feedback = append(c.feedback, derr)
		}

	case StateIdle:
		// Stray pointer-up: ignore.
	}
}

// GuideLine returns the dashed connect guide from the origin port to
// the live pointer. Active only while connecting; this is pure
// presentation state, never persisted.
func (c *Controller) GuideLine() (from, to schema.Position, active bool) {
	if c.state != StateConnecting {
		return schema.Position{}, schema.Position{}, false
	}
	origin := c.g.Step(c.connectFrom)
	if origin == nil {
		return schema.Position{}, schema.Position{}, false
	}
	anchor := geometry.OutputPort(origin)
	if c.connectBranch != "" {
		n := len(origin.Branches)
		for i, b := range origin.Branches {
			if b.ID == c.connectBranch {
				anchor = geometry.BranchPort(origin, i, n)
				break
			}
		}
	}
	return anchor, c.pointer, true
}

// RemoveEdge deletes a single edge after the host has confirmed the
// prompt raised by an edge click.
func (c *Controller) RemoveEdge(e graph.Edge) *schema.DesignError {
	if e.BranchID == "" {
		return c.g.Disconnect(e.From, e.To)
	}
	return c.g.RouteBranch(e.From, e.BranchID, nil)
}

// HitTest exposes hit resolution to the host for cursor styling.
func (c *Controller) HitTest(p schema.Position) Hit {
	return hitTest(c.g, p, c.selected)
}

// transition moves the FSM, falling back to idle on a table violation.
func (c *Controller) transition(to State) {
	if !isValidTransition(c.state, to) {
		c.logger.Debug("invalid gesture transition",
			slog.String("from", string(c.state)),
			slog.String("to", string(to)))
		c.reset()
		return
	}
	c.state = to
}

// reset clears gesture payload and returns to idle. Selection survives.
func (c *Controller) reset() {
	c.state = StateIdle
	c.dragStep = ""
	c.dragOffset = schema.Position{}
	c.resizeStep = ""
	c.originSize = schema.Size{}
	c.originPointer = schema.Position{}
	c.connectFrom = ""
	c.connectBranch = ""
}
