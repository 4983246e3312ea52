package persist

import (
	"encoding/json"

	"github.com/vantagerisk/procanvas/internal/geometry"
	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/internal/validation"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// Attribute keys the codec owns inside additionalAttributes. Every
// other key is host data and round-trips untouched.
const (
	AttrGraphID     = "graphId"
	AttrName        = "name"
	AttrDescription = "description"
)

// Codec converts between the in-memory graph and the persisted
// ProcessDefinition document. Decoding is gated by the JSON Schema
// document validator so malformed documents are rejected before any
// graph state exists.
type Codec struct {
	docs *validation.DocumentValidator
}

// NewCodec creates a Codec with the document schema pre-compiled.
func NewCodec() (*Codec, error) {
	dv, err := validation.NewDocumentValidator()
	if err != nil {
		return nil, err
	}
	return &Codec{docs: dv}, nil
}

// Encode snapshots the graph into a ProcessDefinition. Host-owned
// attributes passed in extra are preserved; the codec's own identity
// keys always reflect the graph.
func (c *Codec) Encode(g *graph.Graph, extra map[string]any) *schema.ProcessDefinition {
	steps := g.Snapshot()
	for i := range steps {
		if steps[i].Connections == nil {
			steps[i].Connections = []string{}
		}
	}

	attrs := make(map[string]any, len(extra)+3)
	for k, v := range extra {
		attrs[k] = v
	}
	attrs[AttrGraphID] = g.ID
	attrs[AttrName] = g.Name
	attrs[AttrDescription] = g.Description

	return &schema.ProcessDefinition{Steps: steps, AdditionalAttributes: attrs}
}

// Marshal encodes the graph into the persisted JSON document.
func (c *Codec) Marshal(g *graph.Graph, extra map[string]any) ([]byte, error) {
	def := c.Encode(g, extra)
	b, err := json.Marshal(def)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation,
			"failed to serialize process document").WithCause(err)
	}
	return b, nil
}

// Decode validates a raw persisted document and rebuilds the graph.
// It also returns the document's additionalAttributes so the caller
// can carry host-owned keys through the next save. Documents written
// before geometry existed get kind-default sizes and grid positions.
func (c *Codec) Decode(raw []byte) (*graph.Graph, map[string]any, error) {
	if err := c.docs.ValidateRaw(raw); err != nil {
		return nil, nil, err
	}

	var def schema.ProcessDefinition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, nil, schema.NewError(schema.ErrCodeValidation,
			"failed to decode process document").WithCause(err)
	}
	return c.DecodeDefinition(&def)
}

// DecodeDefinition rebuilds the graph from an already-decoded
// definition, normalizing geometry and renumbering ordinals.
func (c *Codec) DecodeDefinition(def *schema.ProcessDefinition) (*graph.Graph, map[string]any, error) {
	if def == nil {
		return nil, nil, schema.NewError(schema.ErrCodeValidation, "process definition is nil")
	}

	id := stringAttr(def.AdditionalAttributes, AttrGraphID)
	name := stringAttr(def.AdditionalAttributes, AttrName)
	description := stringAttr(def.AdditionalAttributes, AttrDescription)

	steps := make([]schema.Step, len(def.Steps))
	copy(steps, def.Steps)
	for i := range steps {
		normalizeGeometry(&steps[i], i)
		if steps[i].Connections == nil {
			steps[i].Connections = []string{}
		}
	}

	g := graph.FromSteps(id, name, description, steps)

	attrs := make(map[string]any, len(def.AdditionalAttributes))
	for k, v := range def.AdditionalAttributes {
		attrs[k] = v
	}
	return g, attrs, nil
}

// normalizeGeometry fills in geometry for steps persisted before the
// canvas recorded it. A zero size marks such a step; its position is
// only defaulted alongside the size so a legitimate (0,0) placement of
// a sized step survives. Sized steps pass through verbatim: the
// minimum-size floor belongs to the resize gesture, and rewriting
// persisted geometry here would make decode diverge from encode.
func normalizeGeometry(s *schema.Step, index int) {
	if s.Size.Width != 0 || s.Size.Height != 0 {
		return
	}
	s.Size = geometry.DefaultSize(s.Kind)
	if s.Position.X == 0 && s.Position.Y == 0 {
		s.Position = geometry.DefaultPosition(index)
	}
}

func stringAttr(attrs map[string]any, key string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}
