package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/comalice/chromafsm"
	"github.com/comalice/chromafsm/internal/primitives"
)

// Edge represents a transition edge.
type Edge struct {
	From  string
	To    string
	Label string
}

// DefaultVisualizer renders machines as Graphviz DOT or JSON.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for a definition, highlighting current.
func (v *DefaultVisualizer) ExportDOT(def primitives.MachineDefinition, current string) string {
	names := make([]string, 0, len(def.States))
	var edges []Edge
	for _, s := range def.States {
		names = append(names, s.Name)
		for _, t := range s.Transitions {
			labels := make([]string, 0, len(t.When))
			for _, c := range t.When {
				labels = append(labels, conditionLabel(c))
			}
			edges = append(edges, Edge{From: s.Name, To: t.To, Label: strings.Join(labels, " && ")})
		}
	}
	return renderDOT(def.ID, def.Entry, current, names, edges)
}

// ExportMachineDOT generates DOT source for a built machine and its current state.
func (v *DefaultVisualizer) ExportMachineDOT(m *chromafsm.Machine) string {
	var names []string
	var edges []Edge
	for _, s := range m.States() {
		names = append(names, s.Name())
		for _, t := range m.Transitions(s.Name()) {
			conds := t.Conditions()
			labels := make([]string, 0, len(conds))
			for _, c := range conds {
				labels = append(labels, c.String())
			}
			edges = append(edges, Edge{From: s.Name(), To: t.To.Name(), Label: strings.Join(labels, " && ")})
		}
	}
	entry := ""
	if e := m.EntryState(); e != nil {
		entry = e.Name()
	}
	return renderDOT(m.ID(), entry, m.CurrentName(), names, edges)
}

// ExportJSON serializes the definition to JSON.
func (v *DefaultVisualizer) ExportJSON(def primitives.MachineDefinition) ([]byte, error) {
	return json.MarshalIndent(def, "", "  ")
}

func renderDOT(id, entry, current string, states []string, edges []Edge) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Machine {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)
	if id != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", id)
	}
	if entry != "" {
		buf.WriteString("  \"(entry)\" [shape=point];\n")
		fmt.Fprintf(&buf, "  \"(entry)\" -> %q;\n", entry)
	}

	for _, name := range states {
		style := ""
		if name == current {
			style = ` style=filled fillcolor=lightgreen`
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", name, name, style)
	}

	for _, edge := range edges {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", edge.From, edge.To, edge.Label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func conditionLabel(c primitives.ConditionDefinition) string {
	switch c.Op {
	case "true":
		return c.Field
	case "false":
		return "!" + c.Field
	case "none":
		return c.Field + "?"
	}
	op := c.Op
	if parsed, err := chromafsm.ParseOperator(c.Op); err == nil {
		op = parsed.String()
	}
	return fmt.Sprintf("%s %s %g", c.Field, op, c.Value)
}
