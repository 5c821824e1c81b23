package primitives

import (
	"errors"
	"fmt"

	"github.com/comalice/chromafsm"
)

// MachineDefinition is the complete declarative form of a machine.
type MachineDefinition struct {
	Version string            `json:"version,omitempty" yaml:"version,omitempty"`
	ID      string            `json:"id" yaml:"id"`
	Entry   string            `json:"entry" yaml:"entry"`
	Fields  []FieldDefinition `json:"fields,omitempty" yaml:"fields,omitempty"`
	States  []StateDefinition `json:"states" yaml:"states"`
}

// FieldDefinition declares one field. Initial is ignored for triggers.
type FieldDefinition struct {
	Name    string  `json:"name" yaml:"name"`
	Type    string  `json:"type" yaml:"type"`
	Initial float64 `json:"initial,omitempty" yaml:"initial,omitempty"`
}

// Validate validates the entire machine definition:
// - Non-empty ID and Entry
// - Unique, well-typed fields
// - Unique state names, entry exists
// - All transitions validate (targets exist, conditions legal)
// - No orphaned states (all reachable from Entry)
func (m *MachineDefinition) Validate() error {
	if m.ID == "" {
		return errors.New("machine ID is required")
	}
	if m.Entry == "" {
		return errors.New("entry state is required")
	}
	if len(m.States) == 0 {
		return errors.New("states are required and cannot be empty")
	}

	fields, err := m.FieldTypes()
	if err != nil {
		return err
	}

	states := make(map[string]*StateDefinition, len(m.States))
	for i := range m.States {
		s := &m.States[i]
		if s.Name == "" {
			return fmt.Errorf("state %d: name is required", i)
		}
		if _, dup := states[s.Name]; dup {
			return fmt.Errorf("state %q: %w", s.Name, chromafsm.ErrDuplicateState)
		}
		states[s.Name] = s
	}
	if _, ok := states[m.Entry]; !ok {
		return fmt.Errorf("entry state %q not found in states", m.Entry)
	}

	for _, s := range m.States {
		if err := s.Validate(states, fields); err != nil {
			return fmt.Errorf("state %q validation failed: %w", s.Name, err)
		}
	}

	// Check no orphaned states via reachability
	visited := make(map[string]bool)
	markReachable(m.Entry, states, visited)
	for _, s := range m.States {
		if !visited[s.Name] {
			return fmt.Errorf("orphaned state %q (not reachable from entry %q)", s.Name, m.Entry)
		}
	}
	return nil
}

// FieldTypes parses the field declarations into a name to type map.
func (m *MachineDefinition) FieldTypes() (map[string]chromafsm.FieldType, error) {
	types := make(map[string]chromafsm.FieldType, len(m.Fields))
	for i, f := range m.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d: name is required", i)
		}
		if _, dup := types[f.Name]; dup {
			return nil, fmt.Errorf("field %q: %w", f.Name, chromafsm.ErrDuplicateField)
		}
		typ, err := chromafsm.ParseFieldType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		types[f.Name] = typ
	}
	return types, nil
}

// FindState returns the named state definition.
func (m *MachineDefinition) FindState(name string) (*StateDefinition, error) {
	for i := range m.States {
		if m.States[i].Name == name {
			return &m.States[i], nil
		}
	}
	return nil, fmt.Errorf("state %q: %w", name, chromafsm.ErrUnknownState)
}

// markReachable marks every state reachable from name through transitions.
func markReachable(name string, states map[string]*StateDefinition, visited map[string]bool) {
	if visited[name] {
		return
	}
	visited[name] = true
	s, ok := states[name]
	if !ok {
		return
	}
	for _, t := range s.Transitions {
		markReachable(t.To, states, visited)
	}
}
