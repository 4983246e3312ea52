package diagram

import (
	"fmt"
	"strings"
)

// RenderDOT renders a Model as Graphviz DOT text. Hosts hand this to
// their own graphviz tooling; RenderImage rasterizes it in-process.
func RenderDOT(model *Model) string {
	var b strings.Builder

	b.WriteString("digraph process {\n")
	b.WriteString("    rankdir=TB;\n")
	if model.Title != "" {
		b.WriteString(fmt.Sprintf("    label=%q;\n", model.Title))
	}

	for _, node := range model.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", firstLine(node.Label))}
		attrs = append(attrs, "shape="+dotShape(node.Kind))
		if fill, font := dotOverlayColors(node.Overlay); fill != "" {
			attrs = append(attrs, "style=filled", fmt.Sprintf("fillcolor=%q", fill), fmt.Sprintf("fontcolor=%q", font))
		}
		b.WriteString(fmt.Sprintf("    %q [%s];\n", node.ID, strings.Join(attrs, ", ")))
	}

	for _, edge := range model.Edges {
		if edge.Label != "" {
			b.WriteString(fmt.Sprintf("    %q -> %q [label=%q];\n", edge.From, edge.To, edge.Label))
			continue
		}
		b.WriteString(fmt.Sprintf("    %q -> %q;\n", edge.From, edge.To))
	}

	b.WriteString("}\n")
	return b.String()
}

func dotShape(kind NodeKind) string {
	switch kind {
	case NodeKindTerminal:
		return "circle"
	case NodeKindDecision:
		return "diamond"
	default:
		return "box"
	}
}

func dotOverlayColors(overlay string) (fill, font string) {
	switch overlay {
	case "error":
		return "#8b1a1a", "white"
	case "warning":
		return "#b7791a", "white"
	case "stale":
		return "#e8e8e8", "#888888"
	}
	return "", ""
}
