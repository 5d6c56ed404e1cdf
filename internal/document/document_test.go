package document_test

import (
	"testing"

	"github.com/aretw0/pipeforge/internal/document"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *document.Document {
	build := &domain.Job{Name: "build", Executor: &domain.MachineExecutor{}, Steps: []domain.Step{{Command: "checkout"}}}
	return &document.Document{
		Jobs: []*domain.Job{
			build,
			{Name: "lint", Executor: &domain.MachineExecutor{}, Steps: []domain.Step{{Command: "checkout"}}},
		},
		Workflows: []*document.Workflow{
			{Name: "main", Jobs: []*domain.WorkflowJob{{Source: "build", Job: build}}},
		},
	}
}

func TestDocument_UpdateDefinition(t *testing.T) {
	doc := sample()

	renamed := &domain.Job{Name: "compile", Executor: &domain.MachineExecutor{}, Steps: []domain.Step{{Command: "checkout"}}}
	require.NoError(t, doc.UpdateNode(document.NodeID(domain.KindJob, "build"), renamed))
	assert.Same(t, renamed, doc.Jobs[0], "a rename keeps the position")

	added := &domain.Job{Name: "deploy", Executor: &domain.MachineExecutor{}, Steps: []domain.Step{{Command: "checkout"}}}
	require.NoError(t, doc.UpdateNode(document.NodeID(domain.KindJob, "deploy"), added))
	assert.Len(t, doc.Jobs, 3)

	got, err := doc.Node("jobs/deploy")
	require.NoError(t, err)
	assert.Same(t, added, got)

	exec := domain.AsReusable("build-exec-export", &domain.DockerExecutor{Image: "cimg/base:stable"})
	require.NoError(t, doc.UpdateNode(document.NodeID(domain.KindExecutor, exec.Name), exec))
	assert.Equal(t, []*domain.ReusableExecutor{exec}, doc.Executors)
}

func TestDocument_UpdateWorkflowJob(t *testing.T) {
	doc := sample()
	staged := &domain.WorkflowJob{Source: "build", Name: "build-linux"}

	require.NoError(t, doc.UpdateNode(document.WorkflowJobID("main", 0), staged))
	assert.Same(t, staged, doc.Workflow("main").Jobs[0])

	require.NoError(t, doc.UpdateNode(document.WorkflowJobID("main", 1), staged), "index == len appends")
	assert.Len(t, doc.Workflow("main").Jobs, 2)

	err := doc.UpdateNode(document.WorkflowJobID("main", 5), staged)
	assert.ErrorIs(t, err, document.ErrNodeNotFound)

	err = doc.UpdateNode(document.WorkflowJobID("nightly", 0), staged)
	assert.ErrorIs(t, err, document.ErrNodeNotFound)
}

func TestDocument_RenameReferences(t *testing.T) {
	base := domain.AsReusable("base", &domain.DockerExecutor{Image: "cimg/base:stable"})
	greet := &domain.Command{Name: "greet", Steps: []domain.Step{{Command: "run"}}}
	build := &domain.Job{Name: "build", Executor: &domain.ExecutorRef{Name: "base", Definition: base}, Steps: []domain.Step{{Command: "greet"}}}
	doc := &document.Document{
		Executors: []*domain.ReusableExecutor{base},
		Commands:  []*domain.Command{greet, {Name: "twice", Steps: []domain.Step{{Command: "greet"}, {Command: "greet"}}}},
		Jobs:      []*domain.Job{build},
		Workflows: []*document.Workflow{{Name: "main", Jobs: []*domain.WorkflowJob{
			{Source: "build", Job: build, PreSteps: []domain.Step{{Command: "greet"}}},
			{Source: "build", Name: "build-again", Job: build},
		}}},
	}

	t.Run("job", func(t *testing.T) {
		compile := &domain.Job{Name: "compile", Executor: build.Executor, Steps: build.Steps}
		assert.Equal(t, 2, doc.RenameReferences(domain.KindJob, "build", compile))
		for _, wj := range doc.Workflow("main").Jobs {
			assert.Equal(t, "compile", wj.Source)
			assert.Same(t, compile, wj.Job)
		}
		assert.Equal(t, "build-again", doc.Workflow("main").Jobs[1].Name, "staged names are left alone")
	})

	t.Run("executor", func(t *testing.T) {
		renamed := domain.AsReusable("base-image", base.Executor)
		assert.Equal(t, 1, doc.RenameReferences(domain.KindExecutor, "base", renamed))
		ref := build.Executor.(*domain.ExecutorRef)
		assert.Equal(t, "base-image", ref.Name)
		assert.Same(t, renamed, ref.Definition)
	})

	t.Run("command", func(t *testing.T) {
		hello := &domain.Command{Name: "hello", Steps: greet.Steps}
		assert.Equal(t, 4, doc.RenameReferences(domain.KindCommand, "greet", hello))
		assert.Equal(t, "hello", build.Steps[0].Command)
		assert.Equal(t, []domain.Step{{Command: "hello"}, {Command: "hello"}}, doc.Commands[1].Steps)
		assert.Equal(t, "hello", doc.Workflow("main").Jobs[0].PreSteps[0].Command)
		assert.Equal(t, "run", doc.Commands[0].Steps[0].Command)
	})

	t.Run("mismatched kind", func(t *testing.T) {
		assert.Zero(t, doc.RenameReferences(domain.KindJob, "compile", greet))
	})
}

func TestDocument_Errors(t *testing.T) {
	doc := sample()
	job := &domain.Job{Name: "x"}

	assert.ErrorIs(t, doc.UpdateNode("jobs", job), document.ErrInvalidID)
	assert.ErrorIs(t, doc.UpdateNode("orbs/node", job), document.ErrInvalidID)
	assert.ErrorIs(t, doc.UpdateNode("workflows/main/jobs/-1", job), document.ErrInvalidID)
	assert.ErrorIs(t, doc.UpdateNode("executors/x", job), domain.ErrKindMismatch)
	assert.ErrorIs(t, doc.UpdateNode("jobs/x", nil), domain.ErrKindMismatch)

	_, err := doc.Node("commands/none")
	assert.ErrorIs(t, err, document.ErrNodeNotFound)
}

func TestOrbImport_Version(t *testing.T) {
	assert.Equal(t, "5.1.0", document.OrbImport{Namespace: "node", Ref: "circleci/node@5.1.0"}.Version())
	assert.Empty(t, document.OrbImport{Namespace: "local", Ref: "circleci/local"}.Version())
}
