package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/pipeforge/internal/document"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// The style follows the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Summary describes the definitions of a document as markdown.
func Summary(doc *document.Document) string {
	var sb strings.Builder
	sb.WriteString("# Pipeline\n\n")
	if doc.Version != "" {
		fmt.Fprintf(&sb, "Config version `%s`\n\n", doc.Version)
	}

	if len(doc.Orbs) > 0 {
		sb.WriteString("## Orbs\n\n")
		for _, o := range doc.Orbs {
			fmt.Fprintf(&sb, "- **%s** `%s`\n", o.Namespace, o.Ref)
		}
		sb.WriteString("\n")
	}

	if len(doc.Executors) > 0 {
		sb.WriteString("## Executors\n\n| Name | Type | Detail |\n| --- | --- | --- |\n")
		for _, e := range doc.Executors {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", e.Name, executorType(e.Executor), executorDetail(e.Executor))
		}
		sb.WriteString("\n")
	}

	if len(doc.Commands) > 0 {
		sb.WriteString("## Commands\n\n")
		for _, c := range doc.Commands {
			fmt.Fprintf(&sb, "- **%s** (%d steps)", c.Name, len(c.Steps))
			if c.Description != "" {
				fmt.Fprintf(&sb, ": %s", c.Description)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(doc.Jobs) > 0 {
		sb.WriteString("## Jobs\n\n| Name | Executor | Steps |\n| --- | --- | --- |\n")
		for _, j := range doc.Jobs {
			fmt.Fprintf(&sb, "| %s | %s | %d |\n", j.Name, executorDetail(j.Executor), len(j.Steps))
		}
		sb.WriteString("\n")
	}

	for _, wf := range doc.Workflows {
		fmt.Fprintf(&sb, "## Workflow %s\n\n", wf.Name)
		for i, wj := range wf.Jobs {
			fmt.Fprintf(&sb, "%d. %s", i+1, wj.NodeName())
			if wj.Name != "" && wj.Name != wj.Source {
				fmt.Fprintf(&sb, " (from `%s`)", wj.Source)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func executorType(e domain.Executor) string {
	if e == nil {
		return "-"
	}
	return e.ExecutorType()
}

func executorDetail(e domain.Executor) string {
	switch v := e.(type) {
	case *domain.DockerExecutor:
		return "docker `" + v.Image + "`"
	case *domain.MachineExecutor:
		if v.Image == "" {
			return "machine"
		}
		return "machine `" + v.Image + "`"
	case *domain.MacOSExecutor:
		return "macos xcode " + v.Xcode
	case *domain.ExecutorRef:
		return "`" + v.Name + "`"
	default:
		return "-"
	}
}
