package primitives

import (
	"fmt"

	"github.com/comalice/chromafsm"
)

// Builder translates the definition into a chromafsm.MachineBuilder.
// States found in impl are added as-is; the rest become plain FuncStates.
// The definition is validated first.
func (m *MachineDefinition) Builder(impl map[string]chromafsm.State, opts ...chromafsm.Option) (*chromafsm.MachineBuilder, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.ID != "" {
		opts = append([]chromafsm.Option{chromafsm.WithID(m.ID)}, opts...)
	}
	b := chromafsm.NewMachineBuilder(opts...)

	for _, f := range m.Fields {
		typ, _ := chromafsm.ParseFieldType(f.Type)
		switch typ {
		case chromafsm.FieldFloat:
			b.Float(f.Name, f.Initial)
		case chromafsm.FieldInt:
			b.Int(f.Name, int(f.Initial))
		case chromafsm.FieldBool:
			b.Bool(f.Name, f.Initial != 0)
		case chromafsm.FieldTrigger:
			b.Trigger(f.Name)
		}
	}

	for _, s := range m.States {
		if st, ok := impl[s.Name]; ok {
			if st.Name() != s.Name {
				return nil, fmt.Errorf("state %q implemented by state named %q", s.Name, st.Name())
			}
			b.Add(st)
		} else {
			b.State(s.Name)
		}
	}
	b.Entry(m.Entry)

	for _, s := range m.States {
		for _, t := range s.Transitions {
			tb := b.Transition(s.Name, t.To)
			for _, c := range t.When {
				op, _ := chromafsm.ParseOperator(c.Op)
				tb.When(c.Field, op, c.Value)
			}
		}
	}
	return b, nil
}

// Build is Builder followed by MachineBuilder.Build.
func (m *MachineDefinition) Build(impl map[string]chromafsm.State, opts ...chromafsm.Option) (*chromafsm.Machine, error) {
	b, err := m.Builder(impl, opts...)
	if err != nil {
		return nil, err
	}
	return b.Build()
}
