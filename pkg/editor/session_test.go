package editor_test

import (
	"context"
	"testing"

	"github.com/aretw0/pipeforge/internal/compiler"
	"github.com/aretw0/pipeforge/internal/document"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/editor"
	"github.com/aretw0/pipeforge/pkg/form"
	"github.com/aretw0/pipeforge/pkg/navigation"
	"github.com/aretw0/pipeforge/pkg/ports"
	"github.com/aretw0/pipeforge/pkg/promotion"
	"github.com/aretw0/pipeforge/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pipeline = `version: 2.1
orbs:
  node: circleci/node@5.1.0
executors:
  docker-default:
    docker:
      - image: cimg/base:stable
jobs:
  build:
    docker:
      - image: cimg/go:1.25
    steps:
      - checkout
  lint:
    executor: docker-default
    steps:
      - checkout
workflows:
  main:
    jobs:
      - build
      - lint:
          name: lint-strict
`

type harness struct {
	doc       *document.Document
	reg       *registry.Registry
	session   *editor.Session
	parser    *compiler.Parser
	requests  []ports.ConfirmationRequest
	notes     []ports.Notification
	enters    int
	leaves    int
	submits   []*domain.SubmitEvent
	autoReply func(ports.ConfirmationRequest)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{parser: compiler.NewParser(), reg: registry.New()}
	doc, err := h.parser.ParseDocument([]byte(pipeline), h.reg)
	require.NoError(t, err)
	h.doc = doc

	hooks := domain.LifecycleHooks{
		OnFrameEnter: func(context.Context, *domain.FrameEvent) { h.enters++ },
		OnFrameLeave: func(context.Context, *domain.FrameEvent) { h.leaves++ },
		OnSubmit:     func(_ context.Context, ev *domain.SubmitEvent) { h.submits = append(h.submits, ev) },
	}
	h.session = editor.New(h.reg, h.parser, doc,
		editor.WithID("test-session"),
		editor.WithLifecycleHooks(hooks),
		editor.WithConfirmer(ports.ConfirmFunc(func(req ports.ConfirmationRequest) {
			h.requests = append(h.requests, req)
			if h.autoReply != nil {
				h.autoReply(req)
			}
		})),
		editor.WithNotifier(ports.NotifyFunc(func(n ports.Notification) { h.notes = append(h.notes, n) })),
	)
	return h
}

func TestSession_PromoteAndSave(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.autoReply = func(req ports.ConfirmationRequest) { req.OnConfirm() }

	require.NoError(t, h.session.EditDefinition(ctx, domain.KindJob, "build"))
	assert.Equal(t, []navigation.Crumb{
		{Label: "Definitions", Icon: "definitions"},
		{Label: "build", Icon: "job"},
	}, h.session.Breadcrumbs())

	name, err := h.session.Promote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "build-exec-export", name)
	assert.Equal(t, promotion.Confirmed, h.session.PromotionState())

	// The new definition is committed to both the registry and the document.
	_, ok := h.reg.Get(domain.KindExecutor, "build-exec-export")
	assert.True(t, ok)
	exported, err := h.doc.Node(document.NodeID(domain.KindExecutor, "build-exec-export"))
	require.NoError(t, err)
	assert.Equal(t, "cimg/go:1.25", exported.(*domain.ReusableExecutor).Executor.(*domain.DockerExecutor).Image)

	node, err := h.session.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.session.Depth(), "a successful save pops the editing frame")

	ref := node.(*domain.Job).Executor.(*domain.ExecutorRef)
	assert.Equal(t, "build-exec-export", ref.Name)
	assert.Same(t, node, h.doc.Jobs[0])

	out, err := h.parser.EncodeDocument(h.doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "executor: build-exec-export")

	require.Len(t, h.submits, 1)
	assert.NoError(t, h.submits[0].Err)
	assert.Equal(t, "jobs/build", h.submits[0].NodeID)
	assert.Equal(t, 1, h.enters)
	assert.Equal(t, 1, h.leaves)
}

func TestSession_PendingPromotionBlocksActions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.EditDefinition(ctx, domain.KindJob, "build"))
	_, err := h.session.Promote(ctx)
	require.NoError(t, err)

	_, err = h.session.Submit(ctx)
	assert.ErrorIs(t, err, editor.ErrActionPending)
	assert.ErrorIs(t, h.session.Back(ctx, 1), editor.ErrActionPending)
	assert.ErrorIs(t, h.session.ClearExecutor(), editor.ErrActionPending)
	_, err = h.session.Promote(ctx)
	assert.ErrorIs(t, err, editor.ErrActionPending)
	assert.Len(t, h.requests, 1)

	h.requests[0].OnDecline()
	assert.Equal(t, promotion.Declined, h.session.PromotionState())

	e, ok := h.session.Entity()
	require.True(t, ok)
	_, embedded := e.Executor.Embedded()
	assert.True(t, embedded, "declining changes nothing")
	assert.NoError(t, h.session.Back(ctx, 1))
}

func TestSession_FailedSubmitKeepsEntity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.EditDefinition(ctx, domain.KindJob, "lint"))
	require.NoError(t, h.session.SelectExecutor("missing", nil))

	_, err := h.session.Submit(ctx)
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	assert.Equal(t, 2, h.session.Depth())

	e, ok := h.session.Entity()
	require.True(t, ok)
	ref, _ := e.Executor.Reference()
	assert.Equal(t, "missing", ref)

	require.Len(t, h.submits, 1)
	assert.Error(t, h.submits[0].Err)

	require.NoError(t, h.session.Update(map[string]any{form.KeyName: form.Unset}))
	require.NoError(t, h.session.SelectExecutor("docker-default", nil))
	_, err = h.session.Submit(ctx)
	var missing *domain.MissingRequiredFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "name", missing.Field)
}

func TestSession_StepMenuPassThrough(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.EditDefinition(ctx, domain.KindJob, "lint"))
	require.NoError(t, h.session.OpenStepMenu(ctx, form.KeySteps))
	assert.Equal(t, 3, h.session.Depth())
	_, ok := h.session.Entity()
	assert.False(t, ok, "a menu frame edits nothing")

	require.NoError(t, h.session.AddStep(ctx, domain.Step{Command: "run", Parameters: map[string]any{"command": "make lint"}}))
	assert.Equal(t, 2, h.session.Depth())

	node, err := h.session.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Step{
		{Command: "checkout"},
		{Command: "run", Parameters: map[string]any{"command": "make lint"}},
	}, node.(*domain.Job).Steps)
}

func TestSession_StagedJob(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := document.WorkflowJobID("main", 1)

	staged, err := h.doc.Node(id)
	require.NoError(t, err)
	require.NoError(t, h.session.EditNode(ctx, id, staged))
	assert.Equal(t, "lint-strict", h.session.Breadcrumbs()[1].Label)

	require.NoError(t, h.session.Update(map[string]any{form.KeyName: form.Unset, "context": ""}))
	assert.Equal(t, "lint", h.session.Breadcrumbs()[1].Label, "the label falls back to the source job")

	require.NoError(t, h.session.OpenStepMenu(ctx, form.KeyPreSteps))
	require.NoError(t, h.session.AddStep(ctx, domain.Step{Command: "checkout"}))

	node, err := h.session.Submit(ctx)
	require.NoError(t, err)

	wj := node.(*domain.WorkflowJob)
	assert.Equal(t, "lint", wj.NodeName())
	assert.Equal(t, map[string]any{"context": ""}, wj.Parameters)
	assert.Equal(t, []domain.Step{{Command: "checkout"}}, wj.PreSteps)
	assert.Same(t, wj, h.doc.Workflow("main").Jobs[1])
}

func TestSession_NewAndRename(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("duplicate name", func(t *testing.T) {
		require.NoError(t, h.session.NewDefinition(ctx, domain.KindJob))
		require.NoError(t, h.session.Update(map[string]any{form.KeyName: "build"}))
		require.NoError(t, h.session.EmbedExecutor(&domain.MachineExecutor{}))
		require.NoError(t, h.session.SetSteps(form.KeySteps, []domain.Step{{Command: "checkout"}}))

		_, err := h.session.Submit(ctx)
		assert.ErrorIs(t, err, domain.ErrDuplicateName)
		assert.Len(t, h.doc.Jobs, 2)

		require.NoError(t, h.session.Update(map[string]any{form.KeyName: "deploy"}))
		_, err = h.session.Submit(ctx)
		require.NoError(t, err)
		assert.Len(t, h.doc.Jobs, 3)
		_, ok := h.reg.Get(domain.KindJob, "deploy")
		assert.True(t, ok)
	})

	t.Run("rename", func(t *testing.T) {
		require.NoError(t, h.session.EditDefinition(ctx, domain.KindJob, "build"))
		require.NoError(t, h.session.Update(map[string]any{form.KeyName: "build-all"}))
		_, err := h.session.Submit(ctx)
		require.NoError(t, err)

		_, ok := h.reg.Get(domain.KindJob, "build")
		assert.False(t, ok)
		assert.Equal(t, []string{"build-all", "lint", "deploy"}, jobNames(h.reg), "a rename keeps the registry position")
		assert.Equal(t, "build-all", h.doc.Jobs[0].Name, "a rename keeps the document position")
		assert.Equal(t, "build-all", h.doc.Workflow("main").Jobs[0].Source)

		require.NoError(t, h.session.EditDefinition(ctx, domain.KindExecutor, "docker-default"))
		assert.Equal(t, navigation.Crumb{Label: "docker-default", Icon: "docker"}, h.session.Breadcrumbs()[1])
		require.NoError(t, h.session.Update(map[string]any{form.KeyName: "docker-base"}))
		_, err = h.session.Submit(ctx)
		require.NoError(t, err)

		lint, ok := h.reg.Get(domain.KindJob, "lint")
		require.True(t, ok)
		assert.Equal(t, "docker-base", lint.Value.(*domain.Job).Executor.(*domain.ExecutorRef).Name)

		data, err := h.parser.EncodeDocument(h.doc)
		require.NoError(t, err)
		reopened, err := h.parser.ParseDocument(data, registry.New())
		require.NoError(t, err, "the saved document must parse again")
		assert.Equal(t, "build-all", reopened.Workflow("main").Jobs[0].Source)
		assert.Equal(t, "lint-strict", reopened.Workflow("main").Jobs[1].Name)
	})

	t.Run("not a definition", func(t *testing.T) {
		assert.ErrorIs(t, h.session.NewDefinition(ctx, domain.KindWorkflowJob), domain.ErrUnsupportedVariant)
		assert.ErrorIs(t, h.session.EditDefinition(ctx, domain.KindJob, "nope"), domain.ErrReferenceNotFound)
	})
}

func jobNames(reg *registry.Registry) []string {
	var out []string
	for def := range reg.AllOfKind(domain.KindJob) {
		out = append(out, def.Name)
	}
	return out
}

func TestSession_OrbSelectionIsRecorded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.EditDefinition(ctx, domain.KindJob, "lint"))
	require.NoError(t, h.session.SelectExecutor("node/default", map[string]any{"tag": "lts"}))
	require.NoError(t, h.session.SelectExecutor("node/default", nil))
	require.NoError(t, h.session.SelectExecutor("docker-default", nil))

	assert.Equal(t, []domain.Subscription{{Name: "node/default", Type: domain.KindExecutor}}, h.session.Subscriptions())

	assert.ErrorIs(t, h.session.SelectExecutor("a/b/c", nil), domain.ErrReferenceNotFound)
}

func TestSession_Close(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.session.EditDefinition(ctx, domain.KindJob, "build"))
	_, err := h.session.Promote(ctx)
	require.NoError(t, err)

	h.session.Close(ctx)
	h.session.Close(ctx)

	assert.Equal(t, promotion.Declined, h.session.PromotionState(), "closing cancels the pending promotion")
	assert.Equal(t, 0, h.reg.Len(domain.KindJob))
	assert.ErrorIs(t, h.session.Back(ctx, 1), editor.ErrClosed)
	_, err = h.session.Submit(ctx)
	assert.ErrorIs(t, err, editor.ErrClosed)
	assert.NotEmpty(t, h.session.ID())
}
