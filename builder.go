package chromafsm

import (
	"errors"
	"fmt"
)

// MachineBuilder provides a fluent API for constructing a Machine by state and
// field names instead of wiring State values and Conditions by hand.
// Errors are collected and reported by Build.
type MachineBuilder struct {
	opts        []Option
	fields      []fieldSpec
	fieldTypes  map[string]FieldType
	states      map[string]State
	order       []string
	entry       string
	transitions []*TransitionBuilder
	errs        []error
}

type fieldSpec struct {
	name    string
	typ     FieldType
	initial float64
}

// StateBuilder configures one state.
type StateBuilder struct {
	b     *MachineBuilder
	state State
}

// TransitionBuilder accumulates the conditions of one transition.
type TransitionBuilder struct {
	b       *MachineBuilder
	from    string
	to      string
	pending []pendingCondition
}

// pendingCondition is resolved against the declared field types at Build.
type pendingCondition struct {
	field   string
	op      Operator
	operand float64
}

// NewMachineBuilder creates a builder; opts are passed to NewMachine.
func NewMachineBuilder(opts ...Option) *MachineBuilder {
	return &MachineBuilder{
		opts:       opts,
		fieldTypes: make(map[string]FieldType),
		states:     make(map[string]State),
	}
}

// Float declares a float field.
func (b *MachineBuilder) Float(name string, initial float64) *MachineBuilder {
	return b.field(name, FieldFloat, initial)
}

// Int declares an int field.
func (b *MachineBuilder) Int(name string, initial int) *MachineBuilder {
	return b.field(name, FieldInt, float64(initial))
}

// Bool declares a bool field.
func (b *MachineBuilder) Bool(name string, initial bool) *MachineBuilder {
	return b.field(name, FieldBool, boolValue(initial))
}

// Trigger declares a trigger field.
func (b *MachineBuilder) Trigger(name string) *MachineBuilder {
	return b.field(name, FieldTrigger, 0)
}

func (b *MachineBuilder) field(name string, typ FieldType, initial float64) *MachineBuilder {
	if _, exists := b.fieldTypes[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("field %q: %w", name, ErrDuplicateField))
		return b
	}
	b.fieldTypes[name] = typ
	b.fields = append(b.fields, fieldSpec{name: name, typ: typ, initial: initial})
	return b
}

// State creates or retrieves a state by name. New states are FuncStates.
func (b *MachineBuilder) State(name string) *StateBuilder {
	if s, ok := b.states[name]; ok {
		return &StateBuilder{b: b, state: s}
	}
	s := NewState(name)
	b.states[name] = s
	b.order = append(b.order, name)
	return &StateBuilder{b: b, state: s}
}

// Add registers an application-defined State. Its name must be unused.
func (b *MachineBuilder) Add(s State) *StateBuilder {
	if s == nil {
		b.errs = append(b.errs, fmt.Errorf("%w: nil state", ErrInvalidConfiguration))
		return &StateBuilder{b: b, state: NewState("")}
	}
	if _, ok := b.states[s.Name()]; ok {
		b.errs = append(b.errs, fmt.Errorf("state %q: %w", s.Name(), ErrDuplicateState))
		return &StateBuilder{b: b, state: b.states[s.Name()]}
	}
	b.states[s.Name()] = s
	b.order = append(b.order, s.Name())
	return &StateBuilder{b: b, state: s}
}

// Entry names the state entered on Start.
func (b *MachineBuilder) Entry(name string) *MachineBuilder {
	b.entry = name
	return b
}

// Transition starts a transition between two named states.
func (b *MachineBuilder) Transition(from, to string) *TransitionBuilder {
	tb := &TransitionBuilder{b: b, from: from, to: to}
	b.transitions = append(b.transitions, tb)
	return tb
}

// Build validates the configuration and constructs the Machine.
func (b *MachineBuilder) Build() (*Machine, error) {
	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}
	if b.entry == "" {
		return nil, ErrNoEntryPoint
	}

	m := NewMachine(b.opts...)
	for _, f := range b.fields {
		if err := m.registerField(f.name, f.typ, f.initial); err != nil {
			return nil, err
		}
	}
	for _, name := range b.order {
		if err := m.AddState(b.states[name]); err != nil {
			return nil, err
		}
	}

	entry, ok := b.states[b.entry]
	if !ok {
		return nil, fmt.Errorf("entry %q: %w", b.entry, ErrUnknownState)
	}
	if err := m.SetEntryPoint(entry); err != nil {
		return nil, err
	}

	for _, tb := range b.transitions {
		from, ok := b.states[tb.from]
		if !ok {
			return nil, fmt.Errorf("transition source %q: %w", tb.from, ErrUnknownState)
		}
		to, ok := b.states[tb.to]
		if !ok {
			return nil, fmt.Errorf("transition target %q: %w", tb.to, ErrUnknownState)
		}
		conds := make([]Condition, 0, len(tb.pending))
		for _, p := range tb.pending {
			typ, ok := b.fieldTypes[p.field]
			if !ok {
				return nil, fmt.Errorf("transition %s -> %s: field %q: %w", tb.from, tb.to, p.field, ErrUnknownField)
			}
			c, err := NewCondition(typ, p.op, p.field, p.operand)
			if err != nil {
				return nil, fmt.Errorf("transition %s -> %s: %w", tb.from, tb.to, err)
			}
			conds = append(conds, c)
		}
		if _, err := m.AddTransition(from, to, conds...); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// StateBuilder fluent methods. The hook setters only apply to states created
// through MachineBuilder.State; on application-defined states they record an
// error.

// OnEnter sets the enter hook.
func (sb *StateBuilder) OnEnter(fn func()) *StateBuilder {
	if fs := sb.funcState("OnEnter"); fs != nil {
		fs.OnEnter = fn
	}
	return sb
}

// OnExit sets the exit hook.
func (sb *StateBuilder) OnExit(fn func()) *StateBuilder {
	if fs := sb.funcState("OnExit"); fs != nil {
		fs.OnExit = fn
	}
	return sb
}

// OnUpdate sets the per-frame hook.
func (sb *StateBuilder) OnUpdate(fn func(dt float64)) *StateBuilder {
	if fs := sb.funcState("OnUpdate"); fs != nil {
		fs.OnUpdate = fn
	}
	return sb
}

// OnInterrupt sets the interrupt hook.
func (sb *StateBuilder) OnInterrupt(fn func()) *StateBuilder {
	if fs := sb.funcState("OnInterrupt"); fs != nil {
		fs.OnInterrupt = fn
	}
	return sb
}

// To starts a transition from this state.
func (sb *StateBuilder) To(target string) *TransitionBuilder {
	return sb.b.Transition(sb.state.Name(), target)
}

// Entry marks this state as the entry point.
func (sb *StateBuilder) Entry() *StateBuilder {
	sb.b.entry = sb.state.Name()
	return sb
}

func (sb *StateBuilder) funcState(hook string) *FuncState {
	fs, ok := sb.state.(*FuncState)
	if !ok {
		sb.b.errs = append(sb.b.errs, fmt.Errorf("%w: %s on non-builder state %q", ErrInvalidConfiguration, hook, sb.state.Name()))
		return nil
	}
	return fs
}

// TransitionBuilder fluent methods. The field type of each condition is
// taken from the field declaration.

// When adds a condition; the operator must be legal for the field's type.
func (tb *TransitionBuilder) When(field string, op Operator, operand float64) *TransitionBuilder {
	tb.pending = append(tb.pending, pendingCondition{field: field, op: op, operand: operand})
	return tb
}

// Above requires field > v.
func (tb *TransitionBuilder) Above(field string, v float64) *TransitionBuilder {
	return tb.When(field, OpGreater, v)
}

// Below requires field < v.
func (tb *TransitionBuilder) Below(field string, v float64) *TransitionBuilder {
	return tb.When(field, OpLess, v)
}

// Equals requires field == v.
func (tb *TransitionBuilder) Equals(field string, v float64) *TransitionBuilder {
	return tb.When(field, OpEqual, v)
}

// NotEquals requires field != v.
func (tb *TransitionBuilder) NotEquals(field string, v float64) *TransitionBuilder {
	return tb.When(field, OpNotEqual, v)
}

// Is requires a bool field to hold want.
func (tb *TransitionBuilder) Is(field string, want bool) *TransitionBuilder {
	op := OpFalse
	if want {
		op = OpTrue
	}
	return tb.When(field, op, 0)
}

// Triggered requires a trigger field to be raised.
func (tb *TransitionBuilder) Triggered(field string) *TransitionBuilder {
	return tb.When(field, OpNone, 0)
}
