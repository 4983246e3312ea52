package catalog

import (
	"github.com/vantagerisk/procanvas/internal/rules"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// Resource is a selectable catalog item: a form layout, assessment, or
// workflow configuration. The catalog is read-only; the editor only
// ever copies ids and display names out of it.
type Resource struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Rule is a business rule a decision step can reference. Expression
// and Language are optional; when present the designer can preview
// branch routing and the validator compile-checks the expression.
type Rule struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Expression  string         `json:"expression,omitempty"`
	Language    rules.Language `json:"language,omitempty"`
	Outcomes    []string       `json:"outcomes,omitempty"`
}

// Entity is an entry in the entity catalog.
type Entity struct {
	EntityName  string `json:"entityName"`
	EntityLabel string `json:"entityLabel"`
	Category    string `json:"category,omitempty"`
}

// Snapshot is an already-fetched, immutable view of the external
// catalogs. The editor stays fully interactive with whatever portion
// has arrived; an empty snapshot simply means every reference shows
// as unavailable.
type Snapshot struct {
	Forms       []Resource `json:"forms"`
	Assessments []Resource `json:"assessments"`
	Workflows   []Resource `json:"workflows"`
	Rules       []Rule     `json:"rules"`
	Entities    []Entity   `json:"entities"`
}

// Resource finds a resource of the given kind by id.
func (s *Snapshot) Resource(kind schema.ResourceKind, id string) (*Resource, bool) {
	var list []Resource
	switch kind {
	case schema.ResourceKindForm:
		list = s.Forms
	case schema.ResourceKindAssessment:
		list = s.Assessments
	case schema.ResourceKindWorkflow:
		list = s.Workflows
	default:
		return nil, false
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], true
		}
	}
	return nil, false
}

// RuleByID finds a business rule by id.
func (s *Snapshot) RuleByID(id string) (*Rule, bool) {
	for i := range s.Rules {
		if s.Rules[i].ID == id {
			return &s.Rules[i], true
		}
	}
	return nil, false
}

// Entity finds an entity by its technical name.
func (s *Snapshot) Entity(name string) (*Entity, bool) {
	for i := range s.Entities {
		if s.Entities[i].EntityName == name {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

// Rule satisfies the validator's RuleLookup interface.
func (s *Snapshot) Rule(id string) (string, rules.Language, bool) {
	r, ok := s.RuleByID(id)
	if !ok {
		return "", "", false
	}
	return r.Expression, r.Language, true
}
