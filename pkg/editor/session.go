package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/pipeforge/internal/document"
	"github.com/aretw0/pipeforge/internal/logging"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/form"
	"github.com/aretw0/pipeforge/pkg/ledger"
	"github.com/aretw0/pipeforge/pkg/navigation"
	"github.com/aretw0/pipeforge/pkg/ports"
	"github.com/aretw0/pipeforge/pkg/promotion"
	"github.com/aretw0/pipeforge/pkg/registry"
	"github.com/google/uuid"
)

var (
	// ErrActionPending is returned when an action is issued while a previous
	// one has not resolved yet.
	ErrActionPending = errors.New("another action is still pending")

	// ErrNotEditing is returned when the current frame has no edited entity.
	ErrNotEditing = errors.New("the current frame does not edit anything")

	// ErrClosed is returned by every action once the session is closed.
	ErrClosed = errors.New("editor session is closed")
)

// frameState is the editing state attached to one stack frame.
type frameState struct {
	// nodeID is the document id the frame commits to. It is empty for a
	// definition that does not exist yet.
	nodeID string
	// original is the name the definition had when the frame was opened.
	original string
	entity   *form.EditedEntity
}

// Session is the editing state of one open document.
type Session struct {
	id        string
	registry  *registry.Registry
	ledger    *ledger.Ledger
	stack     *navigation.Stack
	bridge    *form.Bridge
	promoter  *promotion.Workflow
	sink      ports.DocumentSink
	confirmer ports.Confirmer
	notifier  ports.Notifier
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	// frames maps a stack index to the entity edited in that frame.
	frames map[int]*frameState
	busy   bool
}

// New opens an editing session over reg. Committed nodes are written to sink;
// parser backs the form bridge.
func New(reg *registry.Registry, parser ports.Parser, sink ports.DocumentSink, opts ...Option) *Session {
	s := &Session{
		registry: reg,
		ledger:   ledger.New(),
		sink:     sink,
		logger:   logging.NewNop(),
		frames:   make(map[int]*frameState),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.logger = s.logger.With("session_id", s.id)
	if s.confirmer == nil {
		s.confirmer = ports.ConfirmFunc(func(req ports.ConfirmationRequest) {
			s.logger.Warn("no confirmer configured, declining", "header", req.Header)
			req.OnDecline()
		})
	}
	if s.notifier == nil {
		s.notifier = ports.NotifyFunc(func(n ports.Notification) {
			s.logger.Info("notification", "title", n.Title, "body", n.Body, "severity", n.Severity)
		})
	}

	s.bridge = form.NewBridge(parser, form.WithLogger(s.logger))
	s.promoter = promotion.New(committingRegistrar{s}, s.confirmer, s.notifier,
		promotion.WithLogger(s.logger),
		promotion.WithLifecycleHooks(s.hooks),
		promotion.WithSessionID(s.id))
	s.stack = navigation.New(navigation.Frame{Component: navigation.DefinitionsRoot})
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Registry returns the session's definition registry.
func (s *Session) Registry() *registry.Registry { return s.registry }

// Subscriptions returns every orb entity referenced so far.
func (s *Session) Subscriptions() []domain.Subscription { return s.ledger.Drain() }

// Ledger returns the session's subscription ledger.
func (s *Session) Ledger() *ledger.Ledger { return s.ledger }

// Breadcrumbs returns the labels of the open frames, root first.
func (s *Session) Breadcrumbs() []navigation.Crumb { return s.stack.Breadcrumbs() }

// Depth returns the number of open frames.
func (s *Session) Depth() int { return s.stack.Depth() }

// Current returns the top frame.
func (s *Session) Current() (navigation.Frame, bool) { return s.stack.Current() }

// Options lists the selectable references of a kind.
func (s *Session) Options(kind domain.Kind) []registry.Choice { return s.registry.Options(kind) }

// PromotionState returns the state of the promotion workflow.
func (s *Session) PromotionState() promotion.State { return s.promoter.State() }

// Entity returns the entity edited by the current frame.
func (s *Session) Entity() (*form.EditedEntity, bool) {
	fs, ok := s.frames[s.stack.Depth()-1]
	if !ok {
		return nil, false
	}
	return fs.entity, true
}

func (s *Session) guard() error {
	if !s.stack.Open() {
		return ErrClosed
	}
	if s.busy || s.promoter.Pending() {
		return ErrActionPending
	}
	return nil
}

func (s *Session) editing() (*frameState, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	fs, ok := s.frames[s.stack.Depth()-1]
	if !ok {
		return nil, ErrNotEditing
	}
	return fs, nil
}

// EditDefinition opens an editing frame on a local definition.
func (s *Session) EditDefinition(ctx context.Context, kind domain.Kind, name string) error {
	if err := s.guard(); err != nil {
		return err
	}
	def, ok := s.registry.Get(kind, name)
	if !ok {
		return fmt.Errorf("%w: %s %q", domain.ErrReferenceNotFound, kind.Noun(), name)
	}
	return s.EditNode(ctx, document.NodeID(kind, name), def.Value)
}

// NewDefinition opens an editing frame on a definition that does not exist
// yet. Its document id is derived from the name it is saved with.
func (s *Session) NewDefinition(ctx context.Context, kind domain.Kind) error {
	if err := s.guard(); err != nil {
		return err
	}
	if !kind.Registrable() {
		return fmt.Errorf("%w: cannot create a %s", domain.ErrUnsupportedVariant, kind.Noun())
	}
	return s.push(ctx, &frameState{entity: form.NewEntity(kind)}, nil)
}

// EditNode opens an editing frame on node, committing to the document id.
func (s *Session) EditNode(ctx context.Context, id string, node domain.Node) error {
	if err := s.guard(); err != nil {
		return err
	}
	entity, err := s.bridge.ToForm(node)
	if err != nil {
		return err
	}
	fs := &frameState{nodeID: id, entity: entity}
	if node.NodeKind().Registrable() {
		fs.original = node.NodeName()
	}
	return s.push(ctx, fs, node)
}

func (s *Session) push(ctx context.Context, fs *frameState, node domain.Node) error {
	frame := navigation.Frame{
		Component: componentFor(fs.entity.Kind),
		Props: navigation.Props{
			navigation.PropNodeID: fs.nodeID,
			navigation.PropKind:   fs.entity.Kind,
			navigation.PropName:   fs.entity.Name(),
		},
	}
	if exec, ok := fs.entity.Executor.Embedded(); ok && fs.entity.Kind == domain.KindExecutor {
		frame.Props[navigation.PropExecutorType] = exec.ExecutorType()
	}
	if wj, ok := node.(*domain.WorkflowJob); ok {
		var source any = wj.Source
		if wj.Job != nil {
			source = wj.Job
		}
		frame.Props[navigation.PropSource] = source
		frame.Props[navigation.PropValues] = map[string]any{navigation.PropParameters: fs.entity.Parameters}
	}
	if err := s.stack.Push(frame, nil); err != nil {
		return err
	}
	depth := s.stack.Depth()
	s.frames[depth-1] = fs
	s.emitFrame(ctx, domain.EventFrameEnter, frame, depth)
	return nil
}

func componentFor(kind domain.Kind) navigation.Component {
	switch kind {
	case domain.KindJob:
		return navigation.JobEditor
	case domain.KindCommand:
		return navigation.CommandEditor
	case domain.KindWorkflowJob:
		return navigation.StagedJobEditor
	default:
		return navigation.ExecutorEditor
	}
}

// Navigate pushes a frame that edits nothing, such as a menu.
func (s *Session) Navigate(ctx context.Context, frame navigation.Frame, passThrough map[string]any) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := s.stack.Push(frame, passThrough); err != nil {
		return err
	}
	s.emitFrame(ctx, domain.EventFrameEnter, frame, s.stack.Depth())
	return nil
}

// Back pops distance frames. Entities of popped frames are discarded
// without being saved.
func (s *Session) Back(ctx context.Context, distance int) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.pop(ctx, distance)
}

func (s *Session) pop(ctx context.Context, distance int) error {
	before := s.stack.Frames()
	if err := s.stack.Pop(distance); err != nil {
		return err
	}
	for i := len(before) - 1; i >= s.stack.Depth(); i-- {
		delete(s.frames, i)
		s.emitFrame(ctx, domain.EventFrameLeave, before[i], i+1)
	}
	return nil
}

// Update merges edits into the current entity. A staged job keeps its
// values in the argument map; every other entity in its scalar values.
func (s *Session) Update(edits map[string]any) error {
	fs, err := s.editing()
	if err != nil {
		return err
	}
	if fs.entity.Kind == domain.KindWorkflowJob {
		fs.entity.ApplyParameters(edits)
		return nil
	}
	fs.entity.Apply(edits)
	return nil
}

// SetSteps replaces a step list of the current entity.
func (s *Session) SetSteps(key string, steps []domain.Step) error {
	fs, err := s.editing()
	if err != nil {
		return err
	}
	setSteps(fs.entity, key, steps)
	return nil
}

func setSteps(e *form.EditedEntity, key string, steps []domain.Step) {
	if e.Kind == domain.KindWorkflowJob {
		e.ApplyParameters(map[string]any{key: steps})
		return
	}
	e.SetList(key, steps)
}

func steps(e *form.EditedEntity, key string) []domain.Step {
	if e.Kind == domain.KindWorkflowJob {
		list, _ := e.Parameters[key].([]domain.Step)
		return list
	}
	return e.Lists[key]
}

// OpenStepMenu pushes the step type menu for the list named target of the
// current entity.
func (s *Session) OpenStepMenu(ctx context.Context, target string) error {
	fs, err := s.editing()
	if err != nil {
		return err
	}
	frame := navigation.SubTypeMenu(navigation.StepTypeMenu, fs.entity.Values, nil)
	return s.Navigate(ctx, frame, map[string]any{
		navigation.PassDataType: fs.entity.Kind,
		navigation.PassTarget:   target,
	})
}

// AddStep appends step to the list the step menu was opened for, then pops
// the menu.
func (s *Session) AddStep(ctx context.Context, step domain.Step) error {
	if err := s.guard(); err != nil {
		return err
	}
	raw, ok := s.stack.PassThrough(navigation.PassTarget)
	target, _ := raw.(string)
	if !ok || target == "" {
		return fmt.Errorf("%w: no step list was targeted", ErrNotEditing)
	}
	var owner *frameState
	for i := s.stack.Depth() - 1; i >= 0 && owner == nil; i-- {
		owner = s.frames[i]
	}
	if owner == nil {
		return ErrNotEditing
	}
	list := append(steps(owner.entity, target), step)
	setSteps(owner.entity, target, list)
	return s.pop(ctx, 1)
}

// SelectExecutor points the current entity's executor slot at a named
// executor, dropping any inline one. Orb executors are recorded in the
// ledger so they get materialized.
func (s *Session) SelectExecutor(ref string, args map[string]any) error {
	fs, err := s.editing()
	if err != nil {
		return err
	}
	parsed, err := domain.ParseReference(ref)
	if err != nil {
		return err
	}
	if err := fs.entity.Executor.SetReference(parsed.String(), args); err != nil {
		return err
	}
	if parsed.IsNamespaced() && s.ledger.Record(parsed.String(), domain.KindExecutor) {
		s.logger.Debug("subscription recorded", "name", parsed.String(), "type", domain.KindExecutor)
	}
	return nil
}

// EmbedExecutor sets an inline executor on the current entity.
func (s *Session) EmbedExecutor(exec domain.Executor) error {
	fs, err := s.editing()
	if err != nil {
		return err
	}
	return fs.entity.Executor.SetEmbedded(exec)
}

// ClearExecutor empties the current entity's executor slot.
func (s *Session) ClearExecutor() error {
	fs, err := s.editing()
	if err != nil {
		return err
	}
	fs.entity.Executor.Clear()
	return nil
}

// Submit saves the current entity: it is validated and parsed through the
// form bridge, written to the document, registered when it is a definition,
// and its frame is popped. On failure nothing changes and the entity is kept
// for correction.
func (s *Session) Submit(ctx context.Context) (domain.Node, error) {
	fs, err := s.editing()
	if err != nil {
		return nil, err
	}
	s.busy = true
	defer func() { s.busy = false }()

	kind := fs.entity.Kind
	node, err := s.bridge.ToModel(fs.entity, s.registry)
	if err != nil {
		s.emitSubmit(ctx, fs.nodeID, kind, err)
		return nil, err
	}

	id := fs.nodeID
	name := node.NodeName()
	if kind.Registrable() {
		if id == "" {
			id = document.NodeID(kind, name)
		}
		if name != fs.original {
			if _, exists := s.registry.Get(kind, name); exists {
				err := fmt.Errorf("%w: %s %q", domain.ErrDuplicateName, kind.Noun(), name)
				s.emitSubmit(ctx, id, kind, err)
				return nil, err
			}
		}
	}

	if err := s.sink.UpdateNode(id, node); err != nil {
		err = fmt.Errorf("failed to update %s: %w", id, err)
		s.emitSubmit(ctx, id, kind, err)
		return nil, err
	}
	if kind.Registrable() {
		if fs.original != "" && fs.original != name {
			if err := s.registry.Rename(kind, fs.original, name, node); err != nil {
				return nil, err
			}
			if rw, ok := s.sink.(ports.ReferenceRewriter); ok {
				n := rw.RenameReferences(kind, fs.original, node)
				s.logger.DebugContext(ctx, "references renamed", "kind", kind, "from", fs.original, "to", name, "uses", n)
			}
		} else if err := s.registry.Register(kind, name, node, true); err != nil {
			return nil, err
		}
	}
	s.logger.InfoContext(ctx, "node saved", "id", id, "kind", kind)
	s.emitSubmit(ctx, id, kind, nil)

	if err := s.pop(ctx, 1); err != nil {
		return nil, err
	}
	return node, nil
}

// Promote asks to turn the current job's inline executor into a reusable
// definition. See promotion.Workflow.
func (s *Session) Promote(ctx context.Context) (string, error) {
	fs, err := s.editing()
	if err != nil {
		return "", err
	}
	return s.promoter.Begin(ctx, fs.entity)
}

// Close ends the session. A pending promotion is cancelled, every frame is
// discarded and the registry is torn down.
func (s *Session) Close(ctx context.Context) {
	if !s.stack.Open() {
		return
	}
	s.promoter.Cancel(ctx)
	s.stack.Close()
	clear(s.frames)
	s.registry.Close()
	s.logger.DebugContext(ctx, "session closed")
}

func (s *Session) emitFrame(ctx context.Context, typ domain.EventType, f navigation.Frame, depth int) {
	hook := s.hooks.OnFrameEnter
	if typ == domain.EventFrameLeave {
		hook = s.hooks.OnFrameLeave
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.FrameEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, SessionID: s.id},
		Component: f.Component.ID(),
		Depth:     depth,
	})
}

func (s *Session) emitSubmit(ctx context.Context, id string, kind domain.Kind, err error) {
	if s.hooks.OnSubmit == nil {
		return
	}
	s.hooks.OnSubmit(ctx, &domain.SubmitEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventSubmit, SessionID: s.id},
		NodeID:    id,
		Kind:      kind,
		Err:       err,
	})
}

// committingRegistrar registers promoted definitions and writes them to the
// document in one step.
type committingRegistrar struct {
	s *Session
}

func (r committingRegistrar) Register(kind domain.Kind, name string, value domain.Node, overwrite bool) error {
	if err := r.s.registry.Register(kind, name, value, overwrite); err != nil {
		return err
	}
	if err := r.s.sink.UpdateNode(document.NodeID(kind, name), value); err != nil {
		r.s.registry.Remove(kind, name)
		return fmt.Errorf("failed to commit %s %q: %w", kind.Noun(), name, err)
	}
	return nil
}
