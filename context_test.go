package chromafsm_test

import (
	"errors"
	"testing"

	. "github.com/comalice/chromafsm"
)

func restoreMachine(t *testing.T) (*Machine, *countingState, *countingState) {
	t.Helper()
	m := NewMachine(WithID("npc"))
	m.RegisterFloatField("speed", 0)
	m.RegisterBoolField("armed", false)
	idle, moving := newCounting("Idle"), newCounting("Moving")
	m.SetEntryPoint(idle)
	m.AddTransition(idle, moving, MustCondition(FieldFloat, OpGreater, "speed", 0))
	m.AddTransition(moving, idle, MustCondition(FieldFloat, OpEqual, "speed", 0))
	return m, idle, moving
}

func TestFieldValuesIsCopy(t *testing.T) {
	m, _, _ := restoreMachine(t)
	m.SetFloatField("speed", 4)
	values := m.FieldValues()
	if values["speed"] != 4 || values["armed"] != 0 {
		t.Errorf("values = %v", values)
	}
	values["speed"] = 100
	if v, _ := m.FloatField("speed"); v != 4 {
		t.Errorf("mutating snapshot changed machine: speed = %v", v)
	}
}

func TestFieldsReportsTypes(t *testing.T) {
	m, _, _ := restoreMachine(t)
	m.SetBoolField("armed", true)
	types := map[string]FieldType{}
	for _, f := range m.Fields() {
		types[f.Name] = f.Type
		if f.Name == "armed" && !f.Bool() {
			t.Error("armed should read true")
		}
	}
	if types["speed"] != FieldFloat || types["armed"] != FieldBool {
		t.Errorf("types = %v", types)
	}
	f, err := m.Field("speed")
	if err != nil || f.Type != FieldFloat {
		t.Errorf("Field(speed) = %+v, %v", f, err)
	}
}

func TestRestore(t *testing.T) {
	m, idle, moving := restoreMachine(t)
	if err := m.Restore("Moving", map[string]float64{"speed": 3, "armed": 1}); err != nil {
		t.Fatal(err)
	}
	if !m.Started() || m.CurrentName() != "Moving" {
		t.Fatalf("started=%v current=%q", m.Started(), m.CurrentName())
	}
	if idle.enters != 0 || moving.enters != 0 {
		t.Error("Restore must not call Enter")
	}
	if armed, _ := m.BoolField("armed"); !armed {
		t.Error("armed not restored")
	}
	// Transitions continue from the restored state.
	m.SetFloatField("speed", 0)
	if m.CurrentName() != "Idle" {
		t.Errorf("current = %q, want Idle", m.CurrentName())
	}
}

func TestRestoreErrors(t *testing.T) {
	m, _, _ := restoreMachine(t)
	if err := m.Restore("Flying", nil); !errors.Is(err, ErrUnknownState) {
		t.Errorf("expected ErrUnknownState, got %v", err)
	}
	if err := m.Restore("Idle", map[string]float64{"mana": 1}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	if m.Started() {
		t.Error("failed Restore must leave the machine unstarted")
	}
}

func TestFieldTypeRoundTrip(t *testing.T) {
	for _, typ := range []FieldType{FieldFloat, FieldInt, FieldBool, FieldTrigger} {
		got, err := ParseFieldType(typ.String())
		if err != nil || got != typ {
			t.Errorf("ParseFieldType(%q) = %v, %v", typ.String(), got, err)
		}
	}
	if _, err := ParseFieldType("string"); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}
