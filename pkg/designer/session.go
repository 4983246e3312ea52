// Package designer is the embedding surface of the process editor
// core. A Session owns one graph plus the controller, validator,
// catalog mapper and persistence codec operating on it; the host UI
// forwards pointer events in and renders from the graph state.
package designer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vantagerisk/procanvas/internal/catalog"
	"github.com/vantagerisk/procanvas/internal/diagram"
	"github.com/vantagerisk/procanvas/internal/graph"
	"github.com/vantagerisk/procanvas/internal/interaction"
	"github.com/vantagerisk/procanvas/internal/logging"
	"github.com/vantagerisk/procanvas/internal/notify"
	"github.com/vantagerisk/procanvas/internal/persist"
	"github.com/vantagerisk/procanvas/internal/rules"
	"github.com/vantagerisk/procanvas/internal/store"
	"github.com/vantagerisk/procanvas/internal/validation"
	"github.com/vantagerisk/procanvas/pkg/schema"
)

// Options configures a Session. Every field is optional: without a
// Store the session is memory-only (the host persists Document()
// itself), and without a Catalog mapping operations fail until
// SetCatalog delivers one.
type Options struct {
	Logger  *slog.Logger
	Store   store.Store
	Catalog *catalog.Snapshot
	// Hub receives change events so the host can re-render reactively.
	Hub notify.Hub
}

// Session is one editing session over one process graph.
// It is not safe for concurrent use; hosts drive it from their UI
// event loop.
type Session struct {
	id     string
	logger *slog.Logger

	g      *graph.Graph
	ctrl   *interaction.Controller
	mapper *catalog.Mapper

	codec     *persist.Codec
	validator *validation.ProcessValidator
	engines   *rules.Set

	store     store.Store
	hub       notify.Hub
	persisted bool
	attrs     map[string]any

	lastResult *schema.ValidationResult
}

// NewSession creates a session with an empty, unnamed graph.
func NewSession(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	codec, err := persist.NewCodec()
	if err != nil {
		return nil, err
	}
	engines, err := rules.NewSet()
	if err != nil {
		return nil, err
	}

	mapper := catalog.NewMapper(opts.Catalog)
	validator, err := validation.NewProcessValidator(mapper, engines)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	s := &Session{
		id:        id,
		logger:    logger.With(slog.String("session_id", id)),
		mapper:    mapper,
		codec:     codec,
		validator: validator,
		engines:   engines,
		store:     opts.Store,
		hub:       opts.Hub,
	}
	s.setGraph(graph.New("", "", ""), nil, false)
	return s, nil
}

// NewGraph discards the current graph and starts a fresh one.
func (s *Session) NewGraph(name, description string) *graph.Graph {
	g := graph.New("", name, description)
	s.setGraph(g, nil, false)
	s.logger.Info("new graph", slog.String("graph_id", g.ID))
	return g
}

// Graph returns the live graph. Mutations go through graph operations
// or the session's own methods, never direct field writes.
func (s *Session) Graph() *graph.Graph { return s.g }

// Controller returns the interaction controller for hosts that need
// hit testing beyond the pointer forwarding below.
func (s *Session) Controller() *interaction.Controller { return s.ctrl }

// ID returns the session's correlation id.
func (s *Session) ID() string { return s.id }

func (s *Session) setGraph(g *graph.Graph, attrs map[string]any, persisted bool) {
	s.g = g
	s.ctrl = interaction.NewController(g, s.logger)
	s.attrs = attrs
	s.persisted = persisted
	s.lastResult = nil
}

// publish emits a change event when a hub is configured. Delivery is
// best-effort; editing never blocks on a slow subscriber.
func (s *Session) publish(eventType, stepID string, payload any) {
	if s.hub == nil {
		return
	}
	_ = s.hub.Publish(context.Background(), notify.ChangeEvent{
		GraphID:   s.g.ID,
		StepID:    stepID,
		EventType: eventType,
		Payload:   payload,
	})
}

// --- Persistence ---

// Load fetches a layout group from the store and replaces the current
// graph with its document. The session's graph is untouched when the
// load fails.
func (s *Session) Load(ctx context.Context, groupID string) error {
	if s.store == nil {
		return schema.NewError(schema.ErrCodeStore, "session has no store configured")
	}
	lg, err := s.store.Get(ctx, groupID)
	if err != nil {
		return err
	}
	g, attrs, err := s.codec.Decode(lg.Document)
	if err != nil {
		return err
	}
	// The layout group is the identity authority when the two disagree.
	g.ID = lg.ID
	if lg.Name != "" {
		g.Name = lg.Name
	}
	s.setGraph(g, attrs, true)
	s.logger.InfoContext(logging.WithGraphID(ctx, g.ID), "graph loaded",
		slog.Int("steps", g.Len()), slog.Int64("revision", lg.Revision))
	s.publish(notify.EventGraphLoaded, "", lg.Revision)
	return nil
}

// LoadDocument replaces the current graph from a raw document, for
// hosts that persist documents themselves.
func (s *Session) LoadDocument(raw []byte) error {
	g, attrs, err := s.codec.Decode(raw)
	if err != nil {
		return err
	}
	s.setGraph(g, attrs, false)
	return nil
}

// Save validates and persists the graph. Validation errors block the
// save and are returned in the result; warnings are returned but do
// not block. The in-memory graph is never altered by a failed save.
func (s *Session) Save(ctx context.Context) (*schema.ValidationResult, error) {
	result := s.Validate()
	if validation.SaveBlocking(result) {
		return result, result.ToError()
	}
	if s.store == nil {
		return result, schema.NewError(schema.ErrCodeStore, "session has no store configured")
	}

	raw, err := s.codec.Marshal(s.g, s.attrs)
	if err != nil {
		return result, err
	}

	ctx = logging.WithIDs(ctx, s.id, s.g.ID, "")
	if s.persisted {
		if err := s.store.Update(ctx, s.g.ID, raw); err != nil {
			return result, err
		}
	} else {
		lg := &store.LayoutGroup{
			ID:          s.g.ID,
			Name:        s.g.Name,
			Description: s.g.Description,
			Document:    raw,
		}
		if err := s.store.Create(ctx, lg); err != nil {
			return result, err
		}
		s.persisted = true
	}
	s.logger.InfoContext(ctx, "graph saved",
		slog.Int("steps", s.g.Len()), slog.Int("warnings", len(result.Warnings)))
	s.publish(notify.EventGraphSaved, "", len(result.Warnings))
	return result, nil
}

// Document serializes the current graph without validating or
// persisting it, for hosts that own storage.
func (s *Session) Document() ([]byte, error) {
	return s.codec.Marshal(s.g, s.attrs)
}

// Revisions lists the persisted history of the current graph.
func (s *Session) Revisions(ctx context.Context, since int64) ([]*store.Revision, error) {
	if s.store == nil {
		return nil, schema.NewError(schema.ErrCodeStore, "session has no store configured")
	}
	return s.store.Revisions(ctx, s.g.ID, since)
}

// RestoreRevision rolls the persisted document back to a historical
// revision and reloads the session from it.
func (s *Session) RestoreRevision(ctx context.Context, revision int64) error {
	if s.store == nil {
		return schema.NewError(schema.ErrCodeStore, "session has no store configured")
	}
	if err := s.store.Restore(ctx, s.g.ID, revision); err != nil {
		return err
	}
	return s.Load(ctx, s.g.ID)
}

// --- Validation ---

// Validate runs the full pipeline and caches the result for the
// diagram overlays.
func (s *Session) Validate() *schema.ValidationResult {
	result := s.validator.Validate(s.g)
	s.lastResult = result
	return result
}

// --- Graph operations ---

func (s *Session) AddStep(kind schema.StepKind, name string, hint *schema.Position) (*schema.Step, *schema.DesignError) {
	step, derr := s.g.AddStep(kind, name, hint)
	if derr != nil {
		return nil, derr
	}
	s.logger.Info("step added", slog.String("step_id", step.ID), slog.String("kind", string(kind)))
	s.publish(notify.EventStepAdded, step.ID, string(kind))
	return step, nil
}

func (s *Session) RemoveStep(stepID string) *schema.DesignError {
	if derr := s.g.RemoveStep(stepID); derr != nil {
		return derr
	}
	if s.ctrl.Selected() == stepID {
		s.ctrl.Select("")
	}
	s.logger.Info("step removed", slog.String("step_id", stepID))
	s.publish(notify.EventStepRemoved, stepID, nil)
	return nil
}

func (s *Session) UpdateStep(stepID string, patch graph.StepPatch) *schema.DesignError {
	if derr := s.g.UpdateStep(stepID, patch); derr != nil {
		return derr
	}
	s.publish(notify.EventStepUpdated, stepID, nil)
	return nil
}

func (s *Session) Connect(fromID, toID string) *schema.DesignError {
	if derr := s.g.Connect(fromID, toID); derr != nil {
		return derr
	}
	s.publish(notify.EventEdgeCreated, fromID, toID)
	return nil
}

func (s *Session) Disconnect(fromID, toID string) *schema.DesignError {
	if derr := s.g.Disconnect(fromID, toID); derr != nil {
		return derr
	}
	s.publish(notify.EventEdgeRemoved, fromID, toID)
	return nil
}

func (s *Session) RouteBranch(stepID, branchID string, target *string) *schema.DesignError {
	if derr := s.g.RouteBranch(stepID, branchID, target); derr != nil {
		return derr
	}
	if target == nil {
		s.publish(notify.EventEdgeRemoved, stepID, branchID)
	} else {
		s.publish(notify.EventEdgeCreated, stepID, *target)
	}
	return nil
}

// --- Pointer forwarding ---

func (s *Session) PointerDown(p schema.Position) *graph.Edge { return s.ctrl.PointerDown(p) }
func (s *Session) PointerMove(p schema.Position)             { s.ctrl.PointerMove(p) }
func (s *Session) PointerUp(p schema.Position)               { s.ctrl.PointerUp(p) }
func (s *Session) Select(stepID string)                      { s.ctrl.Select(stepID) }
func (s *Session) Selected() string                          { return s.ctrl.Selected() }
func (s *Session) Feedback() []*schema.DesignError           { return s.ctrl.Feedback() }

func (s *Session) GuideLine() (from, to schema.Position, active bool) {
	return s.ctrl.GuideLine()
}

func (s *Session) RemoveEdge(e graph.Edge) *schema.DesignError {
	return s.ctrl.RemoveEdge(e)
}

// --- Catalog ---

// SetCatalog swaps in a fresh catalog snapshot. Existing mappings are
// untouched; ones the new snapshot no longer offers show up in
// UnavailableResources.
func (s *Session) SetCatalog(snap *catalog.Snapshot) {
	s.mapper.Replace(snap)
	s.logger.Info("catalog updated")
	s.publish(notify.EventCatalogSwap, "", nil)
}

func (s *Session) MapResource(stepID string, kind schema.ResourceKind, resourceID string) *schema.DesignError {
	return s.mapper.MapResource(s.g, stepID, kind, resourceID)
}

func (s *Session) MapRule(stepID, ruleID string) *schema.DesignError {
	return s.mapper.MapRule(s.g, stepID, ruleID)
}

func (s *Session) MapEntity(stepID, entityName string) *schema.DesignError {
	return s.mapper.MapEntity(s.g, stepID, entityName)
}

func (s *Session) Unmap(stepID string) *schema.DesignError {
	return s.mapper.Unmap(s.g, stepID)
}

// UnavailableResources lists catalog references held by steps that the
// current snapshot no longer offers.
func (s *Session) UnavailableResources() []catalog.StaleRef {
	return s.mapper.Unavailable(s.g)
}

// --- Rule preview ---

// PreviewDecision evaluates the rule mapped to a decision step against
// a sample input and returns the branch it would take. It never
// mutates the graph.
func (s *Session) PreviewDecision(ctx context.Context, stepID string, input map[string]any) (*schema.Branch, error) {
	step := s.g.Step(stepID)
	if step == nil {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "step %q not found", stepID)
	}
	if step.Kind != schema.StepKindDecision {
		return nil, schema.NewError(schema.ErrCodeInvalidKind,
			"only decision steps can be previewed").WithStep(stepID)
	}
	if step.RuleRef == nil {
		return nil, schema.NewError(schema.ErrCodeNotFound,
			"decision step has no rule mapped").WithStep(stepID)
	}

	expression, lang, ok := s.mapper.Rule(step.RuleRef.ID)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound,
			"rule %q not present in the catalog", step.RuleRef.ID).WithStep(stepID)
	}
	engine, derr := s.engines.Engine(lang)
	if derr != nil {
		return nil, derr.WithStep(stepID)
	}

	ctx = logging.WithIDs(ctx, s.id, s.g.ID, stepID)
	out, err := engine.Evaluate(ctx, expression, input)
	if err != nil {
		return nil, err
	}

	branch := matchBranch(step.Branches, out)
	if branch == nil {
		return nil, schema.NewErrorf(schema.ErrCodeRuleExpression,
			"rule produced %v, which matches no branch", out).WithStep(stepID)
	}
	s.logger.DebugContext(ctx, "decision previewed", slog.String("branch", branch.ConditionLabel))
	return branch, nil
}

// matchBranch finds the branch whose condition value equals the rule
// output, falling back to label comparison for string outcomes. Direct
// comparison is limited to scalars: hosts may store arbitrary values on
// a branch, and comparing two non-comparable dynamic types panics.
func matchBranch(branches []schema.Branch, out any) *schema.Branch {
	for i := range branches {
		if scalarEqual(branches[i].ConditionValue, out) {
			b := branches[i]
			return &b
		}
	}
	if str, ok := out.(string); ok {
		for i := range branches {
			if branches[i].ConditionLabel == str {
				b := branches[i]
				return &b
			}
		}
	}
	// Engines differ on numeric and stringer outputs; a textual match
	// is the last resort.
	text := fmt.Sprintf("%v", out)
	for i := range branches {
		if fmt.Sprintf("%v", branches[i].ConditionValue) == text {
			b := branches[i]
			return &b
		}
	}
	return nil
}

func scalarEqual(a, b any) bool {
	if !isScalar(a) || !isScalar(b) {
		return false
	}
	return a == b
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// --- Diagram export ---

func (s *Session) buildDiagram() *diagram.Model {
	var stale []string
	for _, ref := range s.mapper.Unavailable(s.g) {
		stale = append(stale, ref.StepID)
	}
	return diagram.Build(s.g, diagram.BuildOptions{
		Result:     s.lastResult,
		StaleSteps: stale,
	})
}

// ExportMermaid renders the graph as a Mermaid flowchart, overlaying
// the most recent validation result.
func (s *Session) ExportMermaid() string {
	return diagram.RenderMermaid(s.buildDiagram())
}

// ExportDOT renders the graph as Graphviz DOT text.
func (s *Session) ExportDOT() string {
	return diagram.RenderDOT(s.buildDiagram())
}

// ExportPNG rasterizes the graph to a PNG via graphviz.
func (s *Session) ExportPNG() ([]byte, error) {
	return diagram.RenderImage(s.buildDiagram())
}
