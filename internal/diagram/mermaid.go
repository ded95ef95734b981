package diagram

import (
	"fmt"
	"strings"

	"github.com/rendis/flowviz/pkg/schema"
)

// RenderMermaid exports a layout as a Mermaid flowchart. Node positions
// are dropped; Mermaid lays the graph out itself. The output is meant for
// READMEs and issue comments, not for the interactive view.
func RenderMermaid(layout *schema.FlowLayout) string {
	var b strings.Builder

	b.WriteString("graph TD\n")
	if t, ok := layout.Node(TriggerNodeID); ok {
		// %% comments end at the newline, so the description is kept on one line.
		if desc := strings.Join(strings.Fields(t.Description), " "); desc != "" {
			b.WriteString(fmt.Sprintf("    %%%% %s\n", desc))
		}
	}

	for _, node := range layout.Nodes {
		b.WriteString(fmt.Sprintf("    %s\n", mermaidNodeDef(node)))
	}
	for _, c := range layout.Connections {
		b.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidSafeID(c.From), mermaidSafeID(c.To)))
	}

	b.WriteString("\n")
	b.WriteString("    classDef trigger fill:#1a5276,stroke:#0e3a52,color:#fff\n")
	b.WriteString("    classDef integration fill:#2d6a2d,stroke:#1a4a1a,color:#fff\n")
	b.WriteString("    classDef agent fill:#b7791a,stroke:#8a5c14,color:#fff\n")
	b.WriteString("    classDef task fill:#6b6b6b,stroke:#4a4a4a,color:#fff\n")

	for _, node := range layout.Nodes {
		b.WriteString(fmt.Sprintf("    class %s %s\n", mermaidSafeID(node.ID), node.Type))
	}
	return b.String()
}

// mermaidNodeDef returns a node definition with a shape per node type.
func mermaidNodeDef(node schema.FlowNode) string {
	id := mermaidSafeID(node.ID)
	label := mermaidEscapeLabel(node.Label)

	switch node.Type {
	case schema.NodeTypeTrigger:
		return fmt.Sprintf("%s((%q))", id, label)
	case schema.NodeTypeIntegration:
		return fmt.Sprintf("%s[(%q)]", id, label)
	case schema.NodeTypeAgent:
		return fmt.Sprintf("%s{{%q}}", id, label)
	default:
		return fmt.Sprintf("%s[%q]", id, label)
	}
}

// mermaidSafeID replaces dots, dashes and spaces with underscores.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(id)
}

// mermaidEscapeLabel replaces double quotes, which %q would otherwise
// backslash-escape into text Mermaid does not understand.
func mermaidEscapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}
