package chromafsm

import "fmt"

// FieldType is the declared type of a machine field.
type FieldType int

const (
	FieldFloat FieldType = iota
	FieldInt
	FieldBool
	FieldTrigger
)

var fieldTypeNames = [...]string{
	FieldFloat:   "float",
	FieldInt:     "int",
	FieldBool:    "bool",
	FieldTrigger: "trigger",
}

func (t FieldType) String() string {
	if t < 0 || int(t) >= len(fieldTypeNames) {
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
	return fieldTypeNames[t]
}

// ParseFieldType maps a lowercase type name back to its FieldType.
func ParseFieldType(s string) (FieldType, error) {
	for i, name := range fieldTypeNames {
		if name == s {
			return FieldType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field type %q", ErrInvalidConfiguration, s)
}

// Field is a named blackboard variable. Every type is stored as a float64;
// bools and triggers use 0 and 1.
type Field struct {
	Name  string
	Type  FieldType
	Value float64
}

// Bool reports the field value as a boolean (non-zero is true).
func (f Field) Bool() bool {
	return f.Value != 0
}

// Int truncates the stored value.
func (f Field) Int() int {
	return int(f.Value)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// RegisterFloatField adds a float field with an initial value.
func (m *Machine) RegisterFloatField(name string, initial float64) error {
	return m.registerField(name, FieldFloat, initial)
}

// RegisterIntField adds an int field with an initial value.
func (m *Machine) RegisterIntField(name string, initial int) error {
	return m.registerField(name, FieldInt, float64(initial))
}

// RegisterBoolField adds a bool field with an initial value.
func (m *Machine) RegisterBoolField(name string, initial bool) error {
	return m.registerField(name, FieldBool, boolValue(initial))
}

// RegisterTriggerField adds a trigger field. Triggers start cleared.
func (m *Machine) RegisterTriggerField(name string) error {
	return m.registerField(name, FieldTrigger, 0)
}

func (m *Machine) registerField(name string, typ FieldType, initial float64) error {
	if m.started {
		return fmt.Errorf("register field %q: %w", name, ErrAlreadyStarted)
	}
	if name == "" {
		return fmt.Errorf("%w: field name is required", ErrInvalidConfiguration)
	}
	if _, exists := m.fields[name]; exists {
		return fmt.Errorf("field %q: %w", name, ErrDuplicateField)
	}
	m.fields[name] = &Field{Name: name, Type: typ, Value: initial}
	return nil
}

// lookup returns the field registered under name, checking its type when
// want is not nil.
func (m *Machine) lookup(name string, want ...FieldType) (*Field, error) {
	f, ok := m.fields[name]
	if !ok {
		return nil, fmt.Errorf("field %q: %w", name, ErrUnknownField)
	}
	if len(want) > 0 {
		for _, t := range want {
			if f.Type == t {
				return f, nil
			}
		}
		return nil, fmt.Errorf("field %q is %s, not %s: %w", name, f.Type, want[0], ErrFieldType)
	}
	return f, nil
}

// SetFloatField writes a float field and evaluates the current state's transitions.
func (m *Machine) SetFloatField(name string, value float64) error {
	f, err := m.lookup(name, FieldFloat)
	if err != nil {
		return err
	}
	f.Value = value
	return m.evaluate(name)
}

// SetIntField writes an int field and evaluates the current state's transitions.
func (m *Machine) SetIntField(name string, value int) error {
	f, err := m.lookup(name, FieldInt)
	if err != nil {
		return err
	}
	f.Value = float64(value)
	return m.evaluate(name)
}

// SetBoolField writes a bool field and evaluates the current state's transitions.
func (m *Machine) SetBoolField(name string, value bool) error {
	f, err := m.lookup(name, FieldBool)
	if err != nil {
		return err
	}
	f.Value = boolValue(value)
	return m.evaluate(name)
}

// SetTrigger raises a trigger and evaluates the current state's transitions.
// The trigger stays raised until ResetTrigger is called.
func (m *Machine) SetTrigger(name string) error {
	f, err := m.lookup(name, FieldTrigger)
	if err != nil {
		return err
	}
	f.Value = 1
	return m.evaluate(name)
}

// ResetTrigger clears a trigger without evaluating transitions.
func (m *Machine) ResetTrigger(name string) error {
	f, err := m.lookup(name, FieldTrigger)
	if err != nil {
		return err
	}
	f.Value = 0
	return nil
}

// Field returns a copy of the named field.
func (m *Machine) Field(name string) (Field, error) {
	f, err := m.lookup(name)
	if err != nil {
		return Field{}, err
	}
	return *f, nil
}

// FloatField returns the value of a float field.
func (m *Machine) FloatField(name string) (float64, error) {
	f, err := m.lookup(name, FieldFloat)
	if err != nil {
		return 0, err
	}
	return f.Value, nil
}

// IntField returns the value of an int field.
func (m *Machine) IntField(name string) (int, error) {
	f, err := m.lookup(name, FieldInt)
	if err != nil {
		return 0, err
	}
	return f.Int(), nil
}

// BoolField returns the value of a bool field.
func (m *Machine) BoolField(name string) (bool, error) {
	f, err := m.lookup(name, FieldBool)
	if err != nil {
		return false, err
	}
	return f.Bool(), nil
}

// TriggerSet reports whether a trigger is currently raised.
func (m *Machine) TriggerSet(name string) (bool, error) {
	f, err := m.lookup(name, FieldTrigger)
	if err != nil {
		return false, err
	}
	return f.Value == 1, nil
}
