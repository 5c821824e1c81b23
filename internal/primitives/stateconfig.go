package primitives

import (
	"fmt"

	"github.com/comalice/chromafsm"
)

// StateDefinition names a state and lists its outgoing transitions in
// evaluation order.
type StateDefinition struct {
	Name        string                 `json:"name" yaml:"name"`
	Transitions []TransitionDefinition `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

// AddTransition appends a transition and returns the state for chaining.
func (s *StateDefinition) AddTransition(t TransitionDefinition) *StateDefinition {
	s.Transitions = append(s.Transitions, t)
	return s
}

// Validate checks every transition against the known states and fields.
func (s *StateDefinition) Validate(states map[string]*StateDefinition, fields map[string]chromafsm.FieldType) error {
	for i, t := range s.Transitions {
		if err := t.Validate(fields); err != nil {
			return fmt.Errorf("transition %d: %w", i, err)
		}
		if _, ok := states[t.To]; !ok {
			return fmt.Errorf("transition %d: invalid target %q", i, t.To)
		}
	}
	return nil
}
