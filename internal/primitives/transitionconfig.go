package primitives

import (
	"errors"
	"fmt"

	"github.com/comalice/chromafsm"
)

// TransitionDefinition is one outgoing edge. All conditions must hold.
type TransitionDefinition struct {
	To   string                `json:"to" yaml:"to"`
	When []ConditionDefinition `json:"when,omitempty" yaml:"when,omitempty"`
}

// ConditionDefinition compares a field with a value. Op accepts the forms
// understood by chromafsm.ParseOperator; bool conditions use "true" or
// "false", triggers "none".
type ConditionDefinition struct {
	Field string  `json:"field" yaml:"field"`
	Op    string  `json:"op" yaml:"op"`
	Value float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// Validate checks the target is present and every condition is legal.
func (t *TransitionDefinition) Validate(fields map[string]chromafsm.FieldType) error {
	if t.To == "" {
		return errors.New("target is required")
	}
	for i, c := range t.When {
		if _, err := c.Condition(fields); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	return nil
}

// Condition resolves the definition into a validated chromafsm.Condition,
// taking the field type from the declarations.
func (c ConditionDefinition) Condition(fields map[string]chromafsm.FieldType) (chromafsm.Condition, error) {
	typ, ok := fields[c.Field]
	if !ok {
		return chromafsm.Condition{}, fmt.Errorf("field %q: %w", c.Field, chromafsm.ErrUnknownField)
	}
	op, err := chromafsm.ParseOperator(c.Op)
	if err != nil {
		return chromafsm.Condition{}, err
	}
	return chromafsm.NewCondition(typ, op, c.Field, c.Value)
}
