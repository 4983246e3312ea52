package store

import (
	"context"
	"encoding/json"
	"time"
)

// LayoutGroup is the host-side record a process document is embedded
// in. The editor core treats Document as opaque JSON produced by the
// persist codec; the surrounding columns exist so hosts can list and
// pick designs without decoding every document.
type LayoutGroup struct {
	ID          string
	Name        string
	Description string
	Document    json.RawMessage
	Revision    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Revision is one historical snapshot of a layout group's document.
// Revisions are append-only; saving never rewrites history.
type Revision struct {
	GroupID  string
	Revision int64
	Document json.RawMessage
	SavedAt  time.Time
}

// ListFilter narrows List results.
type ListFilter struct {
	NameContains string
	Since        *time.Time
	Limit        int
	Offset       int
}

// Store defines the layout-group persistence contract.
// All implementations must be safe for concurrent use.
type Store interface {
	Create(ctx context.Context, lg *LayoutGroup) error
	Get(ctx context.Context, id string) (*LayoutGroup, error)
	// Update replaces the whole document and bumps the revision.
	// Partial document writes do not exist at this layer.
	Update(ctx context.Context, id string, document json.RawMessage) error
	List(ctx context.Context, filter ListFilter) ([]*LayoutGroup, error)
	Delete(ctx context.Context, id string) error

	// Revisions returns a group's history with revision > since,
	// oldest first.
	Revisions(ctx context.Context, groupID string, since int64) ([]*Revision, error)
	// Restore replaces the current document with a historical
	// revision's, recorded as a new revision on top.
	Restore(ctx context.Context, groupID string, revision int64) error

	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error
	Close() error
}
