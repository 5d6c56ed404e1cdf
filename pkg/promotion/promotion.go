// Package promotion turns an inline executor into a named reusable
// definition and rewires its owning job to reference it.
//
// A promotion is gated by a confirmation. The workflow moves from Idle to
// AwaitingConfirmation when it asks, and to Confirmed or Declined when the
// confirmer answers. Registering the definition, clearing the inline executor
// and setting the reference happen together on confirmation; if registering
// fails the entity is put back exactly as it was.
package promotion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/pipeforge/internal/logging"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/form"
	"github.com/aretw0/pipeforge/pkg/ports"
)

// NameSuffix is appended to the owner's name to name the new definition.
const NameSuffix = "-exec-export"

// Confirmation texts.
const (
	ConfirmHeader = "Confirm Executor Export"
	ConfirmBody   = "Upon extracting this %s, a %s with the name %s will be created. This operation cannot be undone."
	ConfirmLabel  = "Confirm"
	ExportedBody  = "has been exported."
)

// ErrPromotionPending is returned when a promotion is started while another
// one is still awaiting confirmation.
var ErrPromotionPending = errors.New("a promotion is already awaiting confirmation")

// ErrNotPromotable is returned when the entity has no inline executor to
// promote, or is not a job.
var ErrNotPromotable = errors.New("entity cannot be promoted")

// State of the workflow.
type State int

const (
	Idle State = iota
	AwaitingConfirmation
	Confirmed
	Declined
)

func (s State) String() string {
	switch s {
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Confirmed:
		return "confirmed"
	case Declined:
		return "declined"
	default:
		return "idle"
	}
}

// Registrar stores reusable definitions.
type Registrar interface {
	Register(kind domain.Kind, name string, value domain.Node, overwrite bool) error
}

// CandidateName derives the definition name for an executor owned by owner.
func CandidateName(owner string) string {
	return owner + NameSuffix
}

// Workflow runs promotions for one editing session. It is not safe for
// concurrent use.
type Workflow struct {
	registry  Registrar
	confirmer ports.Confirmer
	notifier  ports.Notifier
	hooks     domain.LifecycleHooks
	sessionID string
	logger    *slog.Logger

	state       State
	pending     uint64
	pendingName string
	lastErr     error
}

// Option configures the Workflow.
type Option func(*Workflow)

// WithLogger configures a logger for the Workflow.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// WithLifecycleHooks registers hooks notified at the end of every attempt.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workflow) {
		w.hooks = hooks
	}
}

// WithSessionID tags emitted events.
func WithSessionID(id string) Option {
	return func(w *Workflow) {
		w.sessionID = id
	}
}

// New creates a workflow.
func New(reg Registrar, confirmer ports.Confirmer, notifier ports.Notifier, opts ...Option) *Workflow {
	w := &Workflow{
		registry:  reg,
		confirmer: confirmer,
		notifier:  notifier,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current state.
func (w *Workflow) State() State {
	return w.state
}

// Pending reports whether a confirmation is outstanding.
func (w *Workflow) Pending() bool {
	return w.state == AwaitingConfirmation
}

// Err returns the error of the last attempt that failed after confirmation.
func (w *Workflow) Err() error {
	return w.lastErr
}

// Begin asks for confirmation to promote the inline executor of e. It
// returns the name the definition will get. Nothing changes until the
// confirmer answers; the confirmer may answer before Begin returns.
func (w *Workflow) Begin(ctx context.Context, e *form.EditedEntity) (string, error) {
	if w.state == AwaitingConfirmation {
		return "", ErrPromotionPending
	}
	if e == nil || e.Kind != domain.KindJob {
		return "", fmt.Errorf("%w: only a job's executor can be promoted", ErrNotPromotable)
	}
	if _, ok := e.Executor.Embedded(); !ok {
		return "", fmt.Errorf("%w: executor slot is %s", ErrNotPromotable, e.Executor.State())
	}
	owner := e.Name()
	if owner == "" {
		return "", &domain.MissingRequiredFieldError{Field: form.KeyName}
	}

	name := CandidateName(owner)
	w.pending++
	ticket := w.pending
	w.state = AwaitingConfirmation
	w.pendingName = name
	w.lastErr = nil
	w.logger.DebugContext(ctx, "promotion requested", "owner", owner, "name", name)

	w.confirmer.Request(ports.ConfirmationRequest{
		Header:       ConfirmHeader,
		Body:         ConfirmBody,
		Labels:       []string{domain.KindExecutor.Noun(), "reusable " + domain.KindExecutor.Noun(), name},
		ConfirmLabel: ConfirmLabel,
		OnConfirm:    func() { w.confirm(ctx, ticket, e, name) },
		OnDecline:    func() { w.decline(ctx, ticket, name) },
	})
	return name, nil
}

// Cancel abandons an outstanding confirmation as if it had been declined.
// A later answer to that confirmation is ignored.
func (w *Workflow) Cancel(ctx context.Context) {
	if w.state == AwaitingConfirmation {
		w.decline(ctx, w.pending, w.pendingName)
	}
}

func (w *Workflow) confirm(ctx context.Context, ticket uint64, e *form.EditedEntity, name string) {
	if !w.current(ticket) {
		return
	}
	saved := e.Executor
	exec, err := e.Executor.Extract(name)
	if err != nil {
		w.fail(ctx, name, fmt.Errorf("%w: %w", ErrNotPromotable, err))
		return
	}
	if err := w.registry.Register(domain.KindExecutor, name, domain.AsReusable(name, exec), false); err != nil {
		e.Executor = saved
		w.fail(ctx, name, err)
		return
	}

	w.state = Confirmed
	w.logger.InfoContext(ctx, "executor promoted", "name", name)
	w.notifier.Notify(ports.Notification{Title: name, Body: ExportedBody, Severity: ports.SeveritySuccess})
	w.emit(ctx, name, domain.PromotionConfirmed)
}

func (w *Workflow) decline(ctx context.Context, ticket uint64, name string) {
	if !w.current(ticket) {
		return
	}
	w.state = Declined
	w.logger.DebugContext(ctx, "promotion declined", "name", name)
	w.emit(ctx, name, domain.PromotionDeclined)
}

func (w *Workflow) fail(ctx context.Context, name string, err error) {
	w.state = Idle
	w.lastErr = err
	w.logger.WarnContext(ctx, "promotion failed", "name", name, "err", err)
	w.notifier.Notify(ports.Notification{
		Title:    name,
		Body:     fmt.Sprintf("could not be exported: %v", err),
		Severity: ports.SeverityError,
	})
	w.emit(ctx, name, domain.PromotionFailed)
}

// current reports whether ticket identifies the outstanding request.
func (w *Workflow) current(ticket uint64) bool {
	return w.state == AwaitingConfirmation && ticket == w.pending
}

func (w *Workflow) emit(ctx context.Context, name, outcome string) {
	if w.hooks.OnPromotion == nil {
		return
	}
	w.hooks.OnPromotion(ctx, &domain.PromotionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPromotion, SessionID: w.sessionID},
		Name:      name,
		Outcome:   outcome,
	})
}
