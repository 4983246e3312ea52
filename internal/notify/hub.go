package notify

import "context"

// Change event types published by an editing session. Hosts subscribe
// to re-render reactively instead of polling the graph.
const (
	EventStepAdded   = "step.added"
	EventStepRemoved = "step.removed"
	EventStepUpdated = "step.updated"
	EventEdgeCreated = "edge.created"
	EventEdgeRemoved = "edge.removed"
	EventGraphLoaded = "graph.loaded"
	EventGraphSaved  = "graph.saved"
	EventCatalogSwap = "catalog.replaced"
)

// ChangeEvent is a notification that graph or session state changed.
type ChangeEvent struct {
	GraphID   string `json:"graph_id"`
	StepID    string `json:"step_id,omitempty"`
	EventType string `json:"event_type"`
	Payload   any    `json:"payload,omitempty"`
}

// Filter specifies which events a subscriber wants to receive.
type Filter struct {
	GraphID    string   `json:"graph_id,omitempty"`
	EventTypes []string `json:"event_types,omitempty"`
}

// Hub provides pub/sub for editor change events.
type Hub interface {
	Publish(ctx context.Context, event ChangeEvent) error
	Subscribe(ctx context.Context, filter Filter) (<-chan ChangeEvent, func(), error)
}
