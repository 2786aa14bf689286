package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/tgdialogs/pkg/dialog"
)

// endID is the terminal node every completing path points to.
const endID = "__end__"

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	CurrentStep string
}

// GenerateMermaid produces a Mermaid flowchart of a dialog definition.
// It applies semantic styling:
// - First step: ((Circle))
// - Handler step: [[Subroutine]]
// - Message with a keyboard: [/Parallelogram/]
// - Default: [Rectangle]
// Advances are solid arrows, nextStep jumps are labelled arrows and same-turn
// switches are dotted.
func GenerateMermaid(def *dialog.Definition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	last := len(def.Steps) - 1
	for i, step := range def.Steps {
		name := step.Name()
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case step.Config == nil:
			opener, closer = "[[", "]]"
		case step.Config.SendMessage != nil && step.Config.SendMessage.Keyboard != nil:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, name, closer))

		next := endID
		if i < last {
			next = sanitizeMermaidID(def.Steps[i+1].Name())
		}

		cfg := step.Config
		switch {
		case cfg != nil && cfg.Control.Switch != "":
			sb.WriteString(fmt.Sprintf("    %s -. \"switch\" .-> %s\n", safeID, sanitizeMermaidID(cfg.Control.Switch)))
		case cfg != nil && cfg.Control.Complete:
			sb.WriteString(fmt.Sprintf("    %s -- \"complete\" --> %s\n", safeID, endID))
		case cfg != nil && cfg.Control.NextStep != "":
			sb.WriteString(fmt.Sprintf("    %s -- \"next\" --> %s\n", safeID, sanitizeMermaidID(cfg.Control.NextStep)))
		default:
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID, next))
		}
	}
	sb.WriteString(fmt.Sprintf("    %s((\"end\"))\n", endID))

	if overlay != nil && overlay.CurrentStep != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep)))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
