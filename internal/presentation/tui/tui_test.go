package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/pipeforge/internal/document"
	"github.com/aretw0/pipeforge/internal/presentation/tui"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/navigation"
	"github.com/aretw0/pipeforge/pkg/ports"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func plain(w *bytes.Buffer) *termenv.Output {
	return termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
}

func request(answers *[]string) ports.ConfirmationRequest {
	return ports.ConfirmationRequest{
		Header:       "Promote executor",
		Body:         "Save the inline executor of %s as %s?",
		Labels:       []string{"build", "build-linux"},
		ConfirmLabel: "Promote",
		OnConfirm:    func() { *answers = append(*answers, "confirm") },
		OnDecline:    func() { *answers = append(*answers, "decline") },
	}
}

func TestPrompt_Request(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []tui.PromptOption
		want  string
	}{
		{name: "yes", input: "y\n", want: "confirm"},
		{name: "confirm label", input: "  Promote \n", want: "confirm"},
		{name: "no", input: "n\n", want: "decline"},
		{name: "empty line", input: "\n", want: "decline"},
		{name: "end of input", input: "", want: "decline"},
		{name: "assume yes", input: "", opts: []tui.PromptOption{tui.WithAssumeYes(true)}, want: "confirm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			var answers []string
			opts := append([]tui.PromptOption{tui.WithOutput(plain(&out))}, tt.opts...)
			p := tui.NewPrompt(strings.NewReader(tt.input), &out, opts...)

			p.Request(request(&answers))

			assert.Equal(t, []string{tt.want}, answers)
			assert.Contains(t, out.String(), "Promote executor")
			assert.Contains(t, out.String(), "Save the inline executor of build as build-linux?")
		})
	}
}

func TestPrompt_Notify(t *testing.T) {
	var out bytes.Buffer
	p := tui.NewPrompt(strings.NewReader(""), &out, tui.WithOutput(plain(&out)))

	p.Notify(ports.Notification{Title: "Executor promoted", Body: "build-linux", Severity: ports.SeveritySuccess})
	p.Notify(ports.Notification{Title: "Done"})

	assert.Equal(t, "Executor promoted: build-linux\nDone\n", out.String())
}

func TestBreadcrumbs(t *testing.T) {
	var out bytes.Buffer
	got := tui.Breadcrumbs(plain(&out), []navigation.Crumb{
		{Label: "jobs"},
		{Label: "build", Icon: "*"},
	})
	assert.Equal(t, "jobs > * build", got)
	assert.Empty(t, tui.Breadcrumbs(plain(&out), nil))
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	tui.PrintBanner(&out)
	assert.GreaterOrEqual(t, strings.Count(out.String(), "\n"), 8)
}

func TestSummary(t *testing.T) {
	base := domain.AsReusable("base", &domain.DockerExecutor{Image: "cimg/base:stable"})
	doc := &document.Document{
		Version:   "2.1",
		Orbs:      []document.OrbImport{{Namespace: "node", Ref: "circleci/node@5.1.0"}},
		Executors: []*domain.ReusableExecutor{base},
		Commands:  []*domain.Command{{Name: "greet", Description: "says hi", Steps: []domain.Step{{Command: "checkout"}}}},
		Jobs: []*domain.Job{
			{Name: "lint", Executor: &domain.ExecutorRef{Name: "base"}, Steps: []domain.Step{{Command: "checkout"}, {Command: "run"}}},
			{Name: "mac", Executor: &domain.MacOSExecutor{Xcode: "15.0"}},
		},
		Workflows: []*document.Workflow{{
			Name: "main",
			Jobs: []*domain.WorkflowJob{{Source: "lint", Name: "lint-strict"}, {Source: "mac"}},
		}},
	}

	got := tui.Summary(doc)
	for _, want := range []string{
		"Config version `2.1`",
		"- **node** `circleci/node@5.1.0`",
		"| base | docker | docker `cimg/base:stable` |",
		"- **greet** (1 steps): says hi",
		"| lint | `base` | 2 |",
		"| mac | macos xcode 15.0 | 0 |",
		"## Workflow main",
		"1. lint-strict (from `lint`)",
		"2. mac\n",
	} {
		assert.Contains(t, got, want)
	}
}
