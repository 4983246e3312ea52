package diagram

// Model is the intermediate representation used by all renderers.
type Model struct {
	Title string
	Nodes []*Node
	Edges []Edge
}

// Node represents a single step in the diagram.
type Node struct {
	ID      string
	Label   string
	Kind    NodeKind
	Overlay string // "", "error", "warning" or "stale"
}

// NodeKind selects the rendered shape.
type NodeKind string

const (
	NodeKindTerminal NodeKind = "terminal" // start and end
	NodeKindDecision NodeKind = "decision"
	NodeKindActivity NodeKind = "activity" // form, assessment, workflow, action, entity, custom
)

// Edge is a rendered connection. Branch edges carry the condition
// label.
type Edge struct {
	From  string
	To    string
	Label string
}
