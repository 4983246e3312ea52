package geometry

import "github.com/vantagerisk/procanvas/pkg/schema"

// Minimum step dimensions enforced by the resize gesture. A node can
// never collapse below this regardless of pointer delta.
const (
	MinStepWidth  = 120.0
	MinStepHeight = 60.0
)

// Default placement grid for steps added without a position hint.
const (
	gridOriginX  = 80.0
	gridOriginY  = 80.0
	gridCellW    = 240.0
	gridCellH    = 160.0
	gridColumns  = 4
	gridStaggerY = 24.0
)

// Side length of the square resize handle anchored at a step's
// bottom-right corner.
const handleSize = 12.0

// Rect is an axis-aligned rectangle on the canvas.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies inside the rectangle
// (edges inclusive).
func (r Rect) Contains(p schema.Position) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// BoundsOf returns the bounding rectangle of a step.
func BoundsOf(s *schema.Step) Rect {
	return Rect{X: s.Position.X, Y: s.Position.Y, W: s.Size.Width, H: s.Size.Height}
}

// DefaultSize returns the kind-based default dimensions: start/end are
// small squares, decisions are larger squares rendered as diamonds,
// everything else is a wide rectangle.
func DefaultSize(kind schema.StepKind) schema.Size {
	switch kind {
	case schema.StepKindStart, schema.StepKindEnd:
		return schema.Size{Width: 96, Height: 96}
	case schema.StepKindDecision:
		return schema.Size{Width: 128, Height: 128}
	default:
		return schema.Size{Width: 192, Height: 96}
	}
}

// DefaultPosition computes a staggered-grid placement for the n-th step
// (zero-based). Alternating columns are nudged down so freshly added
// steps do not stack into a perfect row.
func DefaultPosition(n int) schema.Position {
	col := n % gridColumns
	row := n / gridColumns
	y := gridOriginY + float64(row)*gridCellH
	if col%2 == 1 {
		y += gridStaggerY
	}
	return schema.Position{X: gridOriginX + float64(col)*gridCellW, Y: y}
}

// ClampSize floors a size at the minimum step dimensions.
func ClampSize(s schema.Size) schema.Size {
	if s.Width < MinStepWidth {
		s.Width = MinStepWidth
	}
	if s.Height < MinStepHeight {
		s.Height = MinStepHeight
	}
	return s
}

// ClampPosition clamps a position to non-negative canvas coordinates.
func ClampPosition(p schema.Position) schema.Position {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	return p
}

// Midpoint returns the midpoint of the segment a-b, used to place
// edge and branch labels.
func Midpoint(a, b schema.Position) schema.Position {
	return schema.Position{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// InputPort returns the anchor where incoming edges terminate:
// the middle of the step's left edge.
func InputPort(s *schema.Step) schema.Position {
	return schema.Position{X: s.Position.X, Y: s.Position.Y + s.Size.Height/2}
}

// OutputPort returns the anchor where the plain outgoing connection
// originates: the middle of the step's right edge.
func OutputPort(s *schema.Step) schema.Position {
	return schema.Position{X: s.Position.X + s.Size.Width, Y: s.Position.Y + s.Size.Height/2}
}

// BranchPort returns the anchor for the i-th of n branch labels,
// spaced evenly down the step's right edge. Decision fan-out routes
// through these rather than the single output port.
func BranchPort(s *schema.Step, i, n int) schema.Position {
	if n <= 0 {
		return OutputPort(s)
	}
	frac := (float64(i) + 1) / (float64(n) + 1)
	return schema.Position{X: s.Position.X + s.Size.Width, Y: s.Position.Y + s.Size.Height*frac}
}

// PortRadius is the hit radius around a port anchor.
const PortRadius = 8.0

// NearPort reports whether the point is within the hit radius of the anchor.
func NearPort(p, anchor schema.Position) bool {
	dx := p.X - anchor.X
	dy := p.Y - anchor.Y
	return dx*dx+dy*dy <= PortRadius*PortRadius
}

// ResizeHandle returns the square handle rect at the step's
// bottom-right corner.
func ResizeHandle(s *schema.Step) Rect {
	return Rect{
		X: s.Position.X + s.Size.Width - handleSize,
		Y: s.Position.Y + s.Size.Height - handleSize,
		W: handleSize,
		H: handleSize,
	}
}

// NearSegment reports whether the point lies within tolerance of the
// segment a-b. Used for edge click hit testing.
func NearSegment(p, a, b schema.Position, tolerance float64) bool {
	abx, aby := b.X-a.X, b.Y-a.Y
	apx, apy := p.X-a.X, p.Y-a.Y

	lenSq := abx*abx + aby*aby
	t := 0.0
	if lenSq > 0 {
		t = (apx*abx + apy*aby) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	cx, cy := a.X+t*abx, a.Y+t*aby
	dx, dy := p.X-cx, p.Y-cy
	return dx*dx+dy*dy <= tolerance*tolerance
}
