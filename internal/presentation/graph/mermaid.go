package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/pipeforge/internal/document"
	"github.com/aretw0/pipeforge/pkg/domain"
)

// GraphOverlay marks nodes to highlight, addressed by document node id.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of a document's definitions.
// Shapes follow the kind:
// - Executor: [(Database)]
// - Job: [Rectangle]
// - Command: [[Subroutine]]
// - Orb entity: {{Hexagon}}
// Jobs point at the executor they use; each workflow is a subgraph of its
// staged jobs pointing at their source job. References into orbs are dotted.
func GenerateMermaid(doc *document.Document, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, e := range doc.Executors {
		id := document.NodeID(domain.KindExecutor, e.Name)
		fmt.Fprintf(&sb, "    %s[(\"%s\")]\n", sanitizeMermaidID(id), e.Name)
	}
	for _, c := range doc.Commands {
		id := document.NodeID(domain.KindCommand, c.Name)
		fmt.Fprintf(&sb, "    %s[[\"%s\"]]\n", sanitizeMermaidID(id), c.Name)
	}

	orbNodes := make(map[string]bool)
	for _, j := range doc.Jobs {
		id := sanitizeMermaidID(document.NodeID(domain.KindJob, j.Name))
		exec, isRef := j.Executor.(*domain.ExecutorRef)
		if !isRef && j.Executor != nil {
			// Inline executors are annotated on the job itself.
			fmt.Fprintf(&sb, "    %s[\"%s <br/> %s\"]\n", id, j.Name, j.Executor.ExecutorType())
			continue
		}
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, j.Name)
		if isRef {
			writeEdge(&sb, id, domain.KindExecutor, exec.Name, orbNodes)
		}
	}

	for _, wf := range doc.Workflows {
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", sanitizeMermaidID("workflows/"+wf.Name), wf.Name)
		for i, wj := range wf.Jobs {
			id := sanitizeMermaidID(document.WorkflowJobID(wf.Name, i))
			fmt.Fprintf(&sb, "        %s([\"%s\"])\n", id, wj.NodeName())
		}
		sb.WriteString("    end\n")
		for i, wj := range wf.Jobs {
			id := sanitizeMermaidID(document.WorkflowJobID(wf.Name, i))
			writeEdge(&sb, id, domain.KindJob, wj.Source, orbNodes)
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// writeEdge links from to the definition named ref. References into orbs
// are dotted and their target node is declared on first use.
func writeEdge(sb *strings.Builder, from string, kind domain.Kind, ref string, orbNodes map[string]bool) {
	target := document.NodeID(kind, ref)
	arrow := "-->"
	if r, err := domain.ParseReference(ref); err == nil && r.IsNamespaced() {
		arrow = "-.->"
		if !orbNodes[target] {
			orbNodes[target] = true
			fmt.Fprintf(sb, "    %s{{\"%s\"}}\n", sanitizeMermaidID(target), ref)
		}
	}
	fmt.Fprintf(sb, "    %s %s %s\n", from, arrow, sanitizeMermaidID(target))
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "@", "_")
	return s
}
