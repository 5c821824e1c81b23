package chromafsm

import "fmt"

// FieldValues returns a snapshot copy of every field value for serialization.
// Modifying the returned map does not affect the machine.
func (m *Machine) FieldValues() map[string]float64 {
	snapshot := make(map[string]float64, len(m.fields))
	for name, f := range m.fields {
		snapshot[name] = f.Value
	}
	return snapshot
}

// Fields returns copies of every registered field.
func (m *Machine) Fields() []Field {
	out := make([]Field, 0, len(m.fields))
	for _, f := range m.fields {
		out = append(out, *f)
	}
	return out
}

// Restore loads a persisted snapshot: field values are overwritten without
// evaluating transitions and current becomes the named state without calling
// Enter. Fields missing from values keep their current value. Restoring marks
// the machine as started.
func (m *Machine) Restore(current string, values map[string]float64) error {
	s, ok := m.states[current]
	if !ok {
		return fmt.Errorf("restore %q: %w", current, ErrUnknownState)
	}
	for name := range values {
		if _, ok := m.fields[name]; !ok {
			return fmt.Errorf("restore: field %q: %w", name, ErrUnknownField)
		}
	}
	for name, v := range values {
		m.fields[name].Value = v
	}
	m.current = s
	m.started = true
	return nil
}
