package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/bookflow/pkg/domain"
)

// GraphOverlay contains session state to visualize on the graph.
type GraphOverlay struct {
	Visited []domain.StepID
	Current domain.StepID
	// Hidden lists steps whose visibility predicate is false.
	Hidden []domain.StepID
}

// GenerateMermaid produces a Mermaid flowchart of the wizard steps.
// Shapes:
// - Terminal: ((Circle))
// - Conditional: {{Hexagon}}
// - Default: [Rectangle]
// Dotted edges skip over conditional steps.
func GenerateMermaid(steps []domain.Step, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, step := range steps {
		opener, closer := "[", "]"
		switch {
		case step.Terminal:
			opener, closer = "((", "))"
		case step.Visible != nil:
			opener, closer = "{{", "}}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%d. %s\"%s\n", nodeID(step), opener, step.ID, label(step), closer)
	}

	for i, from := range steps {
		for j := i + 1; j < len(steps); j++ {
			to := steps[j]
			if j == i+1 {
				fmt.Fprintf(&sb, "    %s --> %s\n", nodeID(from), nodeID(to))
			} else {
				fmt.Fprintf(&sb, "    %s -. \"skip\" .-> %s\n", nodeID(from), nodeID(to))
			}
			if to.Visible == nil {
				break
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef hidden fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4 4,color:#757575;\n")

		seen := make(map[domain.StepID]bool)
		for _, id := range overlay.Visited {
			if !seen[id] && id != overlay.Current {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeMermaidID(id.String()))
			}
		}
		for _, id := range overlay.Hidden {
			fmt.Fprintf(&sb, "    class %s hidden;\n", sanitizeMermaidID(id.String()))
		}
		if overlay.Current != 0 {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current.String()))
		}
	}

	return sb.String()
}

func nodeID(s domain.Step) string {
	return sanitizeMermaidID(s.ID.String())
}

func label(s domain.Step) string {
	if s.Name != "" {
		return strings.ReplaceAll(s.Name, "\"", "'")
	}
	return s.ID.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", " ", "_").Replace(id)
}
