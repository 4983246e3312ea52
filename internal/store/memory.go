package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vantagerisk/procanvas/pkg/schema"
)

// MemoryStore is an in-memory Store for tests and hosts that manage
// persistence themselves.
type MemoryStore struct {
	mu        sync.RWMutex
	groups    map[string]*LayoutGroup
	revisions map[string][]*Revision
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups:    make(map[string]*LayoutGroup),
		revisions: make(map[string][]*Revision),
	}
}

func (s *MemoryStore) Create(_ context.Context, lg *LayoutGroup) error {
	if len(lg.Document) == 0 {
		return schema.NewError(schema.ErrCodeStore, "layout group document is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[lg.ID]; exists {
		return schema.NewErrorf(schema.ErrCodeStore, "layout group %q already exists", lg.ID)
	}
	now := time.Now().UTC()
	stored := &LayoutGroup{
		ID:          lg.ID,
		Name:        lg.Name,
		Description: lg.Description,
		Document:    cloneRaw(lg.Document),
		Revision:    1,
		CreatedAt:   timeOrNow(lg.CreatedAt),
		UpdatedAt:   now,
	}
	s.groups[lg.ID] = stored
	s.revisions[lg.ID] = append(s.revisions[lg.ID], &Revision{
		GroupID:  lg.ID,
		Revision: 1,
		Document: cloneRaw(lg.Document),
		SavedAt:  now,
	})
	lg.Revision = 1
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*LayoutGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lg, ok := s.groups[id]
	if !ok {
		return nil, storeNotFound("layout group", id)
	}
	out := *lg
	out.Document = cloneRaw(lg.Document)
	return &out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, document json.RawMessage) error {
	if len(document) == 0 {
		return schema.NewError(schema.ErrCodeStore, "layout group document is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(id, document)
}

func (s *MemoryStore) updateLocked(id string, document json.RawMessage) error {
	lg, ok := s.groups[id]
	if !ok {
		return storeNotFound("layout group", id)
	}
	now := time.Now().UTC()
	lg.Document = cloneRaw(document)
	lg.Revision++
	lg.UpdatedAt = now
	s.revisions[id] = append(s.revisions[id], &Revision{
		GroupID:  id,
		Revision: lg.Revision,
		Document: cloneRaw(document),
		SavedAt:  now,
	})
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*LayoutGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []*LayoutGroup
	for _, lg := range s.groups {
		if filter.NameContains != "" && !strings.Contains(lg.Name, filter.NameContains) {
			continue
		}
		if filter.Since != nil && lg.UpdatedAt.Before(*filter.Since) {
			continue
		}
		out := *lg
		out.Document = cloneRaw(lg.Document)
		groups = append(groups, &out)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].UpdatedAt.After(groups[j].UpdatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(groups) {
			return nil, nil
		}
		groups = groups[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(groups) {
		groups = groups[:filter.Limit]
	}
	return groups, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[id]; !ok {
		return storeNotFound("layout group", id)
	}
	delete(s.groups, id)
	delete(s.revisions, id)
	return nil
}

func (s *MemoryStore) Revisions(_ context.Context, groupID string, since int64) ([]*Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Revision
	for _, r := range s.revisions[groupID] {
		if r.Revision <= since {
			continue
		}
		cp := *r
		cp.Document = cloneRaw(r.Document)
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) Restore(_ context.Context, groupID string, revision int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.revisions[groupID] {
		if r.Revision == revision {
			return s.updateLocked(groupID, r.Document)
		}
	}
	return storeNotFound("revision", fmt.Sprintf("%s@%d", groupID, revision))
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }
func (s *MemoryStore) Vacuum(context.Context) error  { return nil }
func (s *MemoryStore) Close() error                  { return nil }

func cloneRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	out := make(json.RawMessage, len(r))
	copy(out, r)
	return out
}
