package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/pipeforge"
	"github.com/aretw0/pipeforge/internal/document"
	"github.com/aretw0/pipeforge/internal/dto"
	"github.com/aretw0/pipeforge/internal/logging"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/editor"
	"github.com/aretw0/pipeforge/pkg/form"
	"github.com/aretw0/pipeforge/pkg/navigation"
	"github.com/aretw0/pipeforge/pkg/promotion"
	"github.com/aretw0/pipeforge/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OpenFunc loads a fresh workspace for a new session.
type OpenFunc func(ctx context.Context) (*pipeforge.Workspace, error)

// Server exposes editor sessions over JSON.
type Server struct {
	open     OpenFunc
	sessions *session.Manager
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	mu         sync.Mutex
	workspaces map[string]*pipeforge.Workspace
	inboxes    map[string]*inbox
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithManager shares a session manager, for example one with a distributed locker.
func WithManager(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithMetrics serves the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a server that opens workspaces with open.
func NewServer(open OpenFunc, opts ...Option) *Server {
	s := &Server{
		open:       open,
		logger:     logging.NewNop(),
		workspaces: make(map[string]*pipeforge.Workspace),
		inboxes:    make(map[string]*inbox),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = session.NewManager(session.WithLogger(s.logger))
	}
	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.CloseSession)
			r.Get("/document", s.GetDocument)
			r.Get("/options/{kind}", s.GetOptions)
			r.Post("/edit", s.Edit)
			r.Post("/update", s.Update)
			r.Post("/steps", s.SetSteps)
			r.Post("/executor", s.SetExecutor)
			r.Post("/submit", s.Submit)
			r.Post("/back", s.Back)
			r.Post("/promote", s.Promote)
			r.Get("/confirmation", s.GetConfirmation)
			r.Post("/confirmation", s.AnswerConfirmation)
			r.Get("/notifications", s.GetNotifications)
			r.Post("/sync", s.Sync)
		})
	})
	return r
}

// Close closes every open session.
func (s *Server) Close(ctx context.Context) {
	s.sessions.CloseAll(ctx)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	ws, err := s.open(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	box := &inbox{}
	es := ws.Session(
		editor.WithLogger(s.logger),
		editor.WithConfirmer(box),
		editor.WithNotifier(box),
	)

	s.mu.Lock()
	s.workspaces[es.ID()] = ws
	s.inboxes[es.ID()] = box
	s.mu.Unlock()

	id := s.sessions.Add(es)
	s.logger.Info("session opened", "session_id", id)
	writeJSON(w, http.StatusCreated, view(es))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.sessions.List()})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		return view(es), nil
	})
}

// CloseSession handles DELETE /sessions/{id}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Close(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	s.mu.Lock()
	delete(s.workspaces, id)
	delete(s.inboxes, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// GetDocument handles GET /sessions/{id}/document and returns the YAML.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(chi.URLParam(r, "id"))
	if !ok {
		s.fail(w, domain.ErrSessionNotFound)
		return
	}
	var data []byte
	err := s.sessions.Do(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, _ *editor.Session) error {
		var err error
		data, err = ws.Encode()
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(data)
}

// GetOptions handles GET /sessions/{id}/options/{kind}.
func (s *Server) GetOptions(w http.ResponseWriter, r *http.Request) {
	kind := domain.Kind(chi.URLParam(r, "kind"))
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		opts := es.Options(kind)
		out := make([]dto.Option, 0, len(opts))
		for _, o := range opts {
			out = append(out, dto.Option{Value: o.Value, Label: o.Value})
		}
		return out, nil
	})
}

type editRequest struct {
	Kind domain.Kind `json:"kind"`
	Name string      `json:"name"`
	// Workflow and Index address a staged job instead of a definition.
	Workflow string `json:"workflow"`
	Index    *int   `json:"index"`
}

// Edit handles POST /sessions/{id}/edit. An empty name opens a new definition.
func (s *Server) Edit(w http.ResponseWriter, r *http.Request) {
	var body editRequest
	if !decode(w, r, &body) {
		return
	}
	ws, _ := s.workspace(chi.URLParam(r, "id"))
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		var err error
		switch {
		case body.Workflow != "" && body.Index != nil:
			err = editStagedJob(ctx, es, ws, body.Workflow, *body.Index)
		case body.Name == "":
			err = es.NewDefinition(ctx, body.Kind)
		default:
			err = es.EditDefinition(ctx, body.Kind, body.Name)
		}
		if err != nil {
			return nil, err
		}
		return view(es), nil
	})
}

func editStagedJob(ctx context.Context, es *editor.Session, ws *pipeforge.Workspace, workflow string, index int) error {
	if ws == nil {
		return domain.ErrSessionNotFound
	}
	wf := ws.Document.Workflow(workflow)
	if wf == nil || index < 0 || index >= len(wf.Jobs) {
		return fmt.Errorf("%w: workflow job %s[%d]", domain.ErrReferenceNotFound, workflow, index)
	}
	return es.EditNode(ctx, document.WorkflowJobID(workflow, index), wf.Jobs[index])
}

type updateRequest struct {
	Values map[string]any `json:"values"`
	// Unset lists keys to clear.
	Unset []string `json:"unset"`
}

// Update handles POST /sessions/{id}/update.
func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	var body updateRequest
	if !decode(w, r, &body) {
		return
	}
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		if err := es.Update(edits(body.Values, body.Unset)); err != nil {
			return nil, err
		}
		return view(es), nil
	})
}

type stepsRequest struct {
	Key   string     `json:"key"`
	Steps []dto.Step `json:"steps"`
}

// SetSteps handles POST /sessions/{id}/steps.
func (s *Server) SetSteps(w http.ResponseWriter, r *http.Request) {
	var body stepsRequest
	if !decode(w, r, &body) {
		return
	}
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		if err := es.SetSteps(body.Key, dto.ToSteps(body.Steps)); err != nil {
			return nil, err
		}
		return view(es), nil
	})
}

type executorRequest struct {
	Reference string         `json:"reference"`
	Arguments map[string]any `json:"arguments"`
	Embedded  *embedded      `json:"embedded"`
	Clear     bool           `json:"clear"`
}

type embedded struct {
	Type          string `json:"type"`
	Image         string `json:"image"`
	Xcode         string `json:"xcode"`
	ResourceClass string `json:"resource_class"`
}

func (e embedded) executor() domain.Executor {
	switch e.Type {
	case domain.ExecutorDocker:
		return &domain.DockerExecutor{Image: e.Image, ResourceClass: e.ResourceClass}
	case domain.ExecutorMachine:
		return &domain.MachineExecutor{Image: e.Image, ResourceClass: e.ResourceClass}
	case domain.ExecutorMacOS:
		return &domain.MacOSExecutor{Xcode: e.Xcode, ResourceClass: e.ResourceClass}
	default:
		return nil
	}
}

// SetExecutor handles POST /sessions/{id}/executor.
func (s *Server) SetExecutor(w http.ResponseWriter, r *http.Request) {
	var body executorRequest
	if !decode(w, r, &body) {
		return
	}
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		var err error
		switch {
		case body.Clear:
			err = es.ClearExecutor()
		case body.Embedded != nil:
			err = es.EmbedExecutor(body.Embedded.executor())
		default:
			err = es.SelectExecutor(body.Reference, body.Arguments)
		}
		if err != nil {
			return nil, err
		}
		return view(es), nil
	})
}

// Submit handles POST /sessions/{id}/submit.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		if _, err := es.Submit(ctx); err != nil {
			return nil, err
		}
		return view(es), nil
	})
}

type backRequest struct {
	Distance int `json:"distance"`
}

// Back handles POST /sessions/{id}/back.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	body := backRequest{Distance: 1}
	if r.ContentLength > 0 && !decode(w, r, &body) {
		return
	}
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		if err := es.Back(ctx, body.Distance); err != nil {
			return nil, err
		}
		return view(es), nil
	})
}

// Promote handles POST /sessions/{id}/promote. The answer is given through
// the confirmation endpoint.
func (s *Server) Promote(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		name, err := es.Promote(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"name": name, "state": es.PromotionState().String()}, nil
	})
}

// GetConfirmation handles GET /sessions/{id}/confirmation.
func (s *Server) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	box, ok := s.inbox(chi.URLParam(r, "id"))
	if !ok {
		s.fail(w, domain.ErrSessionNotFound)
		return
	}
	req, ok := box.Pending()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, dto.Confirmation{Header: req.Header, Message: req.Message(), ConfirmLabel: req.ConfirmLabel})
}

type answerRequest struct {
	Confirm bool `json:"confirm"`
}

// AnswerConfirmation handles POST /sessions/{id}/confirmation.
func (s *Server) AnswerConfirmation(w http.ResponseWriter, r *http.Request) {
	var body answerRequest
	if !decode(w, r, &body) {
		return
	}
	box, ok := s.inbox(chi.URLParam(r, "id"))
	if !ok {
		s.fail(w, domain.ErrSessionNotFound)
		return
	}
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		req, ok := box.Take()
		if !ok {
			return nil, errNoConfirmation
		}
		if body.Confirm {
			req.OnConfirm()
		} else {
			req.OnDecline()
		}
		return view(es), nil
	})
}

// GetNotifications handles GET /sessions/{id}/notifications.
func (s *Server) GetNotifications(w http.ResponseWriter, r *http.Request) {
	box, ok := s.inbox(chi.URLParam(r, "id"))
	if !ok {
		s.fail(w, domain.ErrSessionNotFound)
		return
	}
	notes := box.Drain()
	out := make([]dto.Notification, 0, len(notes))
	for _, n := range notes {
		out = append(out, dto.Notification{Title: n.Title, Body: n.Body, Severity: string(n.Severity)})
	}
	writeJSON(w, http.StatusOK, out)
}

// Sync handles POST /sessions/{id}/sync.
func (s *Server) Sync(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(chi.URLParam(r, "id"))
	if !ok {
		s.fail(w, domain.ErrSessionNotFound)
		return
	}
	s.do(w, r, func(ctx context.Context, es *editor.Session) (any, error) {
		n, err := ws.Sync(ctx, es)
		if err != nil {
			return nil, err
		}
		return map[string]int{"imported": n}, nil
	})
}

func (s *Server) workspace(id string) (*pipeforge.Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	return ws, ok
}

func (s *Server) inbox(id string) (*inbox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	box, ok := s.inboxes[id]
	return box, ok
}

// do runs fn under the session lock and writes its result.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func(context.Context, *editor.Session) (any, error)) {
	var out any
	err := s.sessions.Do(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, es *editor.Session) error {
		var err error
		out, err = fn(ctx, es)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

var errNoConfirmation = errors.New("no confirmation is pending")

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "status", code, "err", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case domain.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrActionPending),
		errors.Is(err, promotion.ErrPromotionPending),
		errors.Is(err, domain.ErrDuplicateName),
		errors.Is(err, errNoConfirmation):
		return http.StatusConflict
	case errors.Is(err, editor.ErrNotEditing),
		errors.Is(err, promotion.ErrNotPromotable),
		errors.Is(err, domain.ErrUnsupportedVariant),
		errors.Is(err, domain.ErrStackUnderflow),
		errors.Is(err, navigation.ErrInvalidDistance):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func view(es *editor.Session) dto.Session {
	out := dto.Session{
		ID:          es.ID(),
		Depth:       es.Depth(),
		Breadcrumbs: es.Breadcrumbs(),
		Promotion:   es.PromotionState().String(),
	}
	if e, ok := es.Entity(); ok {
		out.Entity = dto.FromEntity(e)
	}
	return out
}

// edits merges values with the keys to clear.
func edits(values map[string]any, unset []string) map[string]any {
	out := make(map[string]any, len(values)+len(unset))
	for k, v := range values {
		out[k] = v
	}
	for _, k := range unset {
		out[k] = form.Unset
	}
	return out
}
