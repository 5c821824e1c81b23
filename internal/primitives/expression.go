package primitives

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseCondition parses the shorthand forms
//
//	"speed > 0"    "count == 3"    "armed == true"    "armed"
//	"!armed"       "jump?"
//
// A bare name is a bool test, a leading ! negates it and a trailing ?
// tests a trigger.
func ParseCondition(expr string) (ConditionDefinition, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ConditionDefinition{}, fmt.Errorf("empty condition")
	}

	parts := strings.Fields(expr)
	switch len(parts) {
	case 1:
		name := parts[0]
		switch {
		case strings.HasSuffix(name, "?"):
			return ConditionDefinition{Field: strings.TrimSuffix(name, "?"), Op: "none"}, nil
		case strings.HasPrefix(name, "!"):
			return ConditionDefinition{Field: strings.TrimPrefix(name, "!"), Op: "false"}, nil
		default:
			return ConditionDefinition{Field: name, Op: "true"}, nil
		}
	case 3:
		key, op, valStr := parts[0], parts[1], parts[2]
		switch valStr {
		case "true", "false":
			switch op {
			case "==":
				return ConditionDefinition{Field: key, Op: valStr}, nil
			case "!=":
				return ConditionDefinition{Field: key, Op: negate(valStr)}, nil
			}
			return ConditionDefinition{}, fmt.Errorf("condition %q: operator %q not allowed with %s", expr, op, valStr)
		}
		v, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return ConditionDefinition{}, fmt.Errorf("condition %q: %w", expr, err)
		}
		return ConditionDefinition{Field: key, Op: op, Value: v}, nil
	}
	return ConditionDefinition{}, fmt.Errorf("condition %q: want \"field op value\"", expr)
}

func negate(b string) string {
	if b == "true" {
		return "false"
	}
	return "true"
}

// UnmarshalYAML accepts either the mapping form or the shorthand string.
func (c *ConditionDefinition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseCondition(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = parsed
		return nil
	}
	type plain ConditionDefinition
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = ConditionDefinition(p)
	return nil
}

// UnmarshalJSON accepts either an object or the shorthand string. Unknown
// object keys are rejected.
func (c *ConditionDefinition) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var expr string
		if err := json.Unmarshal(data, &expr); err != nil {
			return err
		}
		parsed, err := ParseCondition(expr)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}
	type plain ConditionDefinition
	var p plain
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*c = ConditionDefinition(p)
	return nil
}
