package diagram

import (
	"fmt"

	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// BuildOptions tunes how the diagram model is derived from the graph.
type BuildOptions struct {
	// Result overlays validation severities onto the affected nodes.
	Result *schema.ValidationResult
	// StaleSteps marks steps whose catalog references are unavailable.
	StaleSteps []string
}

// Build constructs a renderer-agnostic Model from the process graph.
// Nodes keep ordinal order so diagrams read the way the document does.
func Build(g *graph.Graph, opts BuildOptions) *Model {
	overlays := overlayIndex(opts)

	steps := g.Steps()
	nodes := make([]*Node, 0, len(steps))
	for _, s := range steps {
		nodes = append(nodes, &Node{
			ID:      s.ID,
			Label:   nodeLabel(s),
			Kind:    kindOf(s.Kind),
			Overlay: overlays[s.ID],
		})
	}

	gEdges := g.Edges()
	edges := make([]Edge, 0, len(gEdges))
	for _, e := range gEdges {
		edges = append(edges, Edge{From: e.From, To: e.To, Label: e.Label})
	}

	title := g.Name
	if title == "" {
		title = "Process"
	}
	return &Model{Title: title, Nodes: nodes, Edges: edges}
}

// overlayIndex flattens options into a step-id -> overlay map.
// Errors win over warnings, warnings over staleness.
func overlayIndex(opts BuildOptions) map[string]string {
	overlays := make(map[string]string)
	for _, id := range opts.StaleSteps {
		overlays[id] = "stale"
	}
	if opts.Result != nil {
		for _, issue := range opts.Result.Warnings {
			if issue.StepID != "" {
				overlays[issue.StepID] = "warning"
			}
		}
		for _, issue := range opts.Result.Errors {
			if issue.StepID != "" {
				overlays[issue.StepID] = "error"
			}
		}
	}
	return overlays
}

func kindOf(k schema.StepKind) NodeKind {
	switch k {
	case schema.StepKindStart, schema.StepKindEnd:
		return NodeKindTerminal
	case schema.StepKindDecision:
		return NodeKindDecision
	default:
		return NodeKindActivity
	}
}

// nodeLabel prefers the step name, annotated with the mapped resource
// when one exists, and falls back to the kind for unnamed steps.
func nodeLabel(s *schema.Step) string {
	name := s.Name
	if name == "" {
		name = string(s.Kind)
	}
	if s.MappedResource != nil && s.MappedResource.Name != "" {
		return fmt.Sprintf("%s\n(%s)", name, s.MappedResource.Name)
	}
	return name
}
