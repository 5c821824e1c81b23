package chromafsm

import (
	"fmt"
	"math"
)

// Operator compares a field against a condition's right operand.
// OpFalse and OpTrue are 0 and 1 so a bool field matches when its stored
// value equals the operator.
type Operator int

const (
	OpFalse Operator = iota
	OpTrue
	OpGreater
	OpLess
	OpEqual
	OpNotEqual
	OpNone
)

var operatorNames = [...]string{
	OpFalse:    "false",
	OpTrue:     "true",
	OpGreater:  ">",
	OpLess:     "<",
	OpEqual:    "==",
	OpNotEqual: "!=",
	OpNone:     "none",
}

func (o Operator) String() string {
	if o < 0 || int(o) >= len(operatorNames) {
		return fmt.Sprintf("Operator(%d)", int(o))
	}
	return operatorNames[o]
}

// ParseOperator accepts the symbolic form used by String as well as the
// word forms "gt", "lt", "eq" and "ne".
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "gt", "greater":
		return OpGreater, nil
	case "lt", "less":
		return OpLess, nil
	case "eq", "equal":
		return OpEqual, nil
	case "ne", "notequal":
		return OpNotEqual, nil
	}
	for i, name := range operatorNames {
		if name == s {
			return Operator(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrInvalidConfiguration, s)
}

// Condition guards a transition. All conditions on a transition must hold.
type Condition struct {
	FieldType    FieldType
	Operator     Operator
	FieldName    string
	RightOperand float64
}

// NewCondition validates the operator against the field type.
//
//	float, int: any operator except true/false
//	bool:       true, false
//	trigger:    none
func NewCondition(typ FieldType, op Operator, fieldName string, operand float64) (Condition, error) {
	c := Condition{FieldType: typ, Operator: op, FieldName: fieldName, RightOperand: operand}
	if err := c.Validate(); err != nil {
		return Condition{}, err
	}
	return c, nil
}

// MustCondition is NewCondition that panics on an illegal pairing.
func MustCondition(typ FieldType, op Operator, fieldName string, operand float64) Condition {
	c, err := NewCondition(typ, op, fieldName, operand)
	if err != nil {
		panic(err)
	}
	return c
}

// Validate reports whether the operator is legal for the field type.
func (c Condition) Validate() error {
	if c.FieldName == "" {
		return fmt.Errorf("%w: condition field name is required", ErrInvalidConfiguration)
	}
	if c.Operator < OpFalse || c.Operator > OpNone {
		return fmt.Errorf("%w: unknown operator %d", ErrInvalidConfiguration, int(c.Operator))
	}
	legal := false
	switch c.FieldType {
	case FieldFloat, FieldInt:
		legal = c.Operator != OpTrue && c.Operator != OpFalse
	case FieldBool:
		legal = c.Operator == OpTrue || c.Operator == OpFalse
	case FieldTrigger:
		legal = c.Operator == OpNone
	default:
		return fmt.Errorf("%w: unknown field type %d", ErrInvalidConfiguration, int(c.FieldType))
	}
	if !legal {
		return fmt.Errorf("%w: operator %s not allowed on %s field %q",
			ErrInvalidConfiguration, c.Operator, c.FieldType, c.FieldName)
	}
	return nil
}

// Evaluate tests the condition against a stored field value. A tolerance of
// zero gives exact equality for == and !=.
func (c Condition) Evaluate(value, tolerance float64) bool {
	switch c.FieldType {
	case FieldFloat, FieldInt:
		switch c.Operator {
		case OpGreater:
			return value > c.RightOperand
		case OpLess:
			return value < c.RightOperand
		case OpEqual:
			return equal(value, c.RightOperand, tolerance)
		case OpNotEqual:
			return !equal(value, c.RightOperand, tolerance)
		}
		return false
	case FieldBool:
		return int(value) == int(c.Operator)
	case FieldTrigger:
		return value == 1
	}
	return false
}

func (c Condition) String() string {
	switch c.FieldType {
	case FieldBool:
		return fmt.Sprintf("%s is %s", c.FieldName, c.Operator)
	case FieldTrigger:
		return c.FieldName + " triggered"
	}
	return fmt.Sprintf("%s %s %g", c.FieldName, c.Operator, c.RightOperand)
}

func equal(a, b, tolerance float64) bool {
	if tolerance <= 0 {
		return a == b
	}
	return math.Abs(a-b) <= tolerance
}
