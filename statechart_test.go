package chromafsm_test

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	. "github.com/comalice/chromafsm"
)

// countingState records how often each hook ran.
type countingState struct {
	BaseState
	enters, exits, interrupts int
	updated                   float64
}

func newCounting(name string) *countingState {
	return &countingState{BaseState: BaseState{StateName: name}}
}

func (s *countingState) Enter()            { s.enters++ }
func (s *countingState) Exit()             { s.exits++ }
func (s *countingState) Interrupt()        { s.interrupts++ }
func (s *countingState) Update(dt float64) { s.updated += dt }

func TestConditionLegality(t *testing.T) {
	types := []FieldType{FieldFloat, FieldInt, FieldBool, FieldTrigger}
	ops := []Operator{OpFalse, OpTrue, OpGreater, OpLess, OpEqual, OpNotEqual, OpNone}

	legal := map[FieldType]map[Operator]bool{
		FieldFloat:   {OpGreater: true, OpLess: true, OpEqual: true, OpNotEqual: true, OpNone: true},
		FieldInt:     {OpGreater: true, OpLess: true, OpEqual: true, OpNotEqual: true, OpNone: true},
		FieldBool:    {OpTrue: true, OpFalse: true},
		FieldTrigger: {OpNone: true},
	}

	for _, typ := range types {
		for _, op := range ops {
			_, err := NewCondition(typ, op, "f", 0)
			if legal[typ][op] {
				if err != nil {
					t.Errorf("%s/%s: unexpected error %v", typ, op, err)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("%s/%s: expected ErrInvalidConfiguration, got %v", typ, op, err)
			}
		}
	}
}

func TestConditionRejectsEmptyFieldName(t *testing.T) {
	if _, err := NewCondition(FieldFloat, OpGreater, "", 0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestMustConditionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for bool field with > operator")
		}
	}()
	MustCondition(FieldBool, OpGreater, "armed", 0)
}

func TestConditionEvaluate(t *testing.T) {
	// Runtime sum; a constant 0.1 + 0.2 folds to exactly 0.3.
	a, b := 0.1, 0.2
	tests := []struct {
		name string
		c    Condition
		v    float64
		want bool
	}{
		{"greater true", MustCondition(FieldFloat, OpGreater, "f", 1), 1.5, true},
		{"greater equal", MustCondition(FieldFloat, OpGreater, "f", 1), 1, false},
		{"less", MustCondition(FieldInt, OpLess, "f", 3), 2, true},
		{"equal exact", MustCondition(FieldFloat, OpEqual, "f", 0.3), a + b, false},
		{"not equal", MustCondition(FieldFloat, OpNotEqual, "f", 0), 0.0001, true},
		{"none numeric", MustCondition(FieldFloat, OpNone, "f", 0), 5, false},
		{"bool true", MustCondition(FieldBool, OpTrue, "b", 0), 1, true},
		{"bool true unset", MustCondition(FieldBool, OpTrue, "b", 0), 0, false},
		{"bool false", MustCondition(FieldBool, OpFalse, "b", 0), 0, true},
		{"trigger set", MustCondition(FieldTrigger, OpNone, "t", 0), 1, true},
		{"trigger clear", MustCondition(FieldTrigger, OpNone, "t", 0), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Evaluate(tt.v, 0); got != tt.want {
				t.Errorf("Evaluate(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestConditionTolerance(t *testing.T) {
	a, b := 0.1, 0.2
	sum := a + b
	c := MustCondition(FieldFloat, OpEqual, "f", 0.3)
	if c.Evaluate(sum, 0) {
		t.Errorf("Evaluate(%v) matched 0.3 exactly", sum)
	}
	if !c.Evaluate(sum, 1e-9) {
		t.Error("expected match within tolerance")
	}
	ne := MustCondition(FieldFloat, OpNotEqual, "f", 0.3)
	if !ne.Evaluate(sum, 0) {
		t.Error("expected != to hold without tolerance")
	}
	if ne.Evaluate(sum, 1e-9) {
		t.Error("expected != to fail within tolerance")
	}
}

func TestParseOperator(t *testing.T) {
	tests := map[string]Operator{
		">": OpGreater, "gt": OpGreater, "<": OpLess, "lt": OpLess,
		"==": OpEqual, "eq": OpEqual, "!=": OpNotEqual, "ne": OpNotEqual,
		"true": OpTrue, "false": OpFalse, "none": OpNone,
	}
	for in, want := range tests {
		got, err := ParseOperator(in)
		if err != nil || got != want {
			t.Errorf("ParseOperator(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseOperator(">="); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for >=, got %v", err)
	}
}

func TestRegisterDuplicateField(t *testing.T) {
	m := NewMachine()
	if err := m.RegisterFloatField("speed", 0); err != nil {
		t.Fatal(err)
	}
	if err := m.RegisterBoolField("speed", false); !errors.Is(err, ErrDuplicateField) {
		t.Errorf("expected ErrDuplicateField, got %v", err)
	}
}

func TestSetterTypeChecks(t *testing.T) {
	m := NewMachine()
	m.RegisterFloatField("speed", 0)
	m.RegisterTriggerField("jump")

	if err := m.SetBoolField("speed", true); !errors.Is(err, ErrFieldType) {
		t.Errorf("SetBoolField on float: expected ErrFieldType, got %v", err)
	}
	if err := m.SetFloatField("missing", 1); !errors.Is(err, ErrUnknownField) {
		t.Errorf("SetFloatField on missing: expected ErrUnknownField, got %v", err)
	}
	if err := m.SetTrigger("speed"); !errors.Is(err, ErrFieldType) {
		t.Errorf("SetTrigger on float: expected ErrFieldType, got %v", err)
	}
	// Writes before Start only store the value.
	if err := m.SetFloatField("speed", 3); err != nil {
		t.Fatal(err)
	}
	if v, _ := m.FloatField("speed"); v != 3 {
		t.Errorf("speed = %v, want 3", v)
	}
}

func TestAddTransitionValidatesFields(t *testing.T) {
	m := NewMachine()
	m.RegisterFloatField("speed", 0)
	a, b := NewState("A"), NewState("B")

	if _, err := m.AddTransition(a, b, MustCondition(FieldFloat, OpGreater, "missing", 0)); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	if _, err := m.AddTransition(a, b, MustCondition(FieldInt, OpGreater, "speed", 0)); !errors.Is(err, ErrFieldType) {
		t.Errorf("expected ErrFieldType, got %v", err)
	}
	if _, err := m.AddTransition(a, b, Condition{FieldType: FieldBool, Operator: OpGreater, FieldName: "speed"}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestDuplicateStateName(t *testing.T) {
	m := NewMachine()
	if err := m.AddState(NewState("A")); err != nil {
		t.Fatal(err)
	}
	if err := m.AddState(NewState("A")); !errors.Is(err, ErrDuplicateState) {
		t.Errorf("expected ErrDuplicateState, got %v", err)
	}
}

func TestStartWithoutEntryPoint(t *testing.T) {
	m := NewMachine()
	m.AddState(NewState("A"))
	if err := m.Start(); !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("expected ErrNoEntryPoint, got %v", err)
	}
	if m.Current() != nil {
		t.Error("current state should be nil before a successful Start")
	}
}

func TestStartEntersOnce(t *testing.T) {
	m := NewMachine()
	idle := newCounting("Idle")
	if err := m.SetEntryPoint(idle); err != nil {
		t.Fatal(err)
	}
	if m.Current() != nil {
		t.Error("current state should be nil before Start")
	}
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if m.Current() != State(idle) {
		t.Errorf("current = %v, want Idle", m.CurrentName())
	}
	if idle.enters != 1 {
		t.Errorf("Enter called %d times, want 1", idle.enters)
	}
	if err := m.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start: expected ErrAlreadyStarted, got %v", err)
	}
	if err := m.SetEntryPoint(newCounting("Other")); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("SetEntryPoint after Start: expected ErrAlreadyStarted, got %v", err)
	}
}

func TestSingleEntryPoint(t *testing.T) {
	m := NewMachine()
	m.SetEntryPoint(NewState("A"))
	if err := m.SetEntryPoint(NewState("B")); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestFirstMatchWins(t *testing.T) {
	m := NewMachine()
	m.RegisterFloatField("speed", 0)
	idle, first, second := newCounting("Idle"), newCounting("First"), newCounting("Second")
	m.SetEntryPoint(idle)
	m.AddTransition(idle, first, MustCondition(FieldFloat, OpGreater, "speed", 0))
	m.AddTransition(idle, second, MustCondition(FieldFloat, OpGreater, "speed", 1))

	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if err := m.SetFloatField("speed", 5); err != nil {
		t.Fatal(err)
	}
	if m.CurrentName() != "First" {
		t.Errorf("current = %q, want First", m.CurrentName())
	}
	if second.enters != 0 {
		t.Errorf("second transition target entered %d times", second.enters)
	}
}

func TestAllConditionsMustHold(t *testing.T) {
	m := NewMachine()
	m.RegisterFloatField("speed", 0)
	m.RegisterBoolField("grounded", false)
	a, b := NewState("A"), NewState("B")
	m.SetEntryPoint(a)
	tr, err := m.AddTransition(a, b, MustCondition(FieldFloat, OpGreater, "speed", 0))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.AddCondition(tr, MustCondition(FieldBool, OpTrue, "grounded", 0)); err != nil {
		t.Fatal(err)
	}
	if len(tr.Conditions()) != 2 {
		t.Fatalf("conditions = %d, want 2", len(tr.Conditions()))
	}
	m.Start()

	m.SetFloatField("speed", 1)
	if m.CurrentName() != "A" {
		t.Fatalf("moved to %q with grounded false", m.CurrentName())
	}
	m.SetBoolField("grounded", true)
	if m.CurrentName() != "B" {
		t.Errorf("current = %q, want B", m.CurrentName())
	}
}

func TestAddConditionForeignTransition(t *testing.T) {
	m1, m2 := NewMachine(), NewMachine()
	m1.RegisterBoolField("b", false)
	m2.RegisterBoolField("b", false)
	tr, _ := m1.AddTransition(NewState("A"), NewState("B"))
	if err := m2.AddCondition(tr, MustCondition(FieldBool, OpTrue, "b", 0)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestTriggerRefiresWithoutReset(t *testing.T) {
	m := NewMachine()
	m.RegisterTriggerField("hit")
	stagger := newCounting("Stagger")
	m.SetEntryPoint(stagger)
	m.AddTransition(stagger, stagger, MustCondition(FieldTrigger, OpNone, "hit", 0))
	m.Start()

	m.SetTrigger("hit")
	m.SetTrigger("hit")
	if stagger.enters != 3 {
		t.Errorf("Enter called %d times, want 3 (start + two triggers)", stagger.enters)
	}
	if set, _ := m.TriggerSet("hit"); !set {
		t.Error("trigger should stay raised until reset")
	}
}

func TestStaleTriggerFiresOnUnrelatedWrite(t *testing.T) {
	build := func() *Machine {
		m := NewMachine()
		m.RegisterTriggerField("jump")
		m.RegisterFloatField("speed", 0)
		a, b, c := NewState("A"), NewState("B"), NewState("C")
		m.SetEntryPoint(a)
		m.AddTransition(a, b, MustCondition(FieldFloat, OpGreater, "speed", 0))
		m.AddTransition(b, c, MustCondition(FieldTrigger, OpNone, "jump", 0))
		m.Start()
		return m
	}

	m := build()
	m.SetTrigger("jump") // A ignores jump
	m.SetFloatField("speed", 1)
	if m.CurrentName() != "B" {
		t.Fatalf("current = %q, want B", m.CurrentName())
	}
	m.SetFloatField("speed", 2)
	if m.CurrentName() != "C" {
		t.Errorf("pending trigger: current = %q, want C", m.CurrentName())
	}

	m = build()
	m.SetTrigger("jump")
	m.ResetTrigger("jump")
	m.SetFloatField("speed", 1)
	m.SetFloatField("speed", 2)
	if m.CurrentName() != "B" {
		t.Errorf("reset trigger: current = %q, want B", m.CurrentName())
	}
}

func TestResetTriggerDoesNotEvaluate(t *testing.T) {
	m := NewMachine()
	m.RegisterTriggerField("t")
	m.RegisterBoolField("off", false)
	a, b := NewState("A"), NewState("B")
	m.SetEntryPoint(a)
	m.AddTransition(a, b, MustCondition(FieldBool, OpFalse, "off", 0))
	m.Start()

	if err := m.ResetTrigger("t"); err != nil {
		t.Fatal(err)
	}
	if m.CurrentName() != "A" {
		t.Errorf("ResetTrigger evaluated transitions; current = %q", m.CurrentName())
	}
}

func TestIdleMovingScenario(t *testing.T) {
	m := NewMachine()
	if err := m.RegisterFloatField("speed", 0); err != nil {
		t.Fatal(err)
	}
	idle, moving := newCounting("Idle"), newCounting("Moving")
	if err := m.SetEntryPoint(idle); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddTransition(idle, moving, MustCondition(FieldFloat, OpGreater, "speed", 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddTransition(moving, idle, MustCondition(FieldFloat, OpEqual, "speed", 0)); err != nil {
		t.Fatal(err)
	}

	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	if m.CurrentName() != "Idle" {
		t.Fatalf("after Start: %q, want Idle", m.CurrentName())
	}
	m.SetFloatField("speed", 2.0)
	if m.CurrentName() != "Moving" {
		t.Fatalf("after speed=2: %q, want Moving", m.CurrentName())
	}
	m.SetFloatField("speed", 0.0)
	if m.CurrentName() != "Idle" {
		t.Fatalf("after speed=0: %q, want Idle", m.CurrentName())
	}
	if idle.enters != 2 || moving.enters != 1 {
		t.Errorf("enters idle=%d moving=%d, want 2 and 1", idle.enters, moving.enters)
	}
	if idle.exits != 0 || moving.exits != 0 {
		t.Errorf("Exit called without WithExitOnTransition")
	}
}

func TestExitOnTransition(t *testing.T) {
	m := NewMachine(WithExitOnTransition(true))
	m.RegisterBoolField("go", false)
	a, b := newCounting("A"), newCounting("B")
	m.SetEntryPoint(a)
	m.AddTransition(a, b, MustCondition(FieldBool, OpTrue, "go", 0))
	m.Start()
	m.SetBoolField("go", true)
	if a.exits != 1 {
		t.Errorf("A.Exit called %d times, want 1", a.exits)
	}
	if b.exits != 0 {
		t.Errorf("B.Exit called %d times, want 0", b.exits)
	}
}

func TestFloatToleranceOption(t *testing.T) {
	m := NewMachine(WithFloatTolerance(1e-6))
	m.RegisterFloatField("speed", 1)
	a, b := NewState("A"), NewState("B")
	m.SetEntryPoint(a)
	m.AddTransition(a, b, MustCondition(FieldFloat, OpEqual, "speed", 0))
	m.Start()
	m.SetFloatField("speed", 1e-9)
	if m.CurrentName() != "B" {
		t.Errorf("current = %q, want B", m.CurrentName())
	}
}

func TestFloatEqualityExactByDefault(t *testing.T) {
	a, b := 0.1, 0.2
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"exact", nil, "A"},
		{"tolerance", []Option{WithFloatTolerance(1e-9)}, "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(tt.opts...)
			if err := m.RegisterFloatField("speed", 0); err != nil {
				t.Fatal(err)
			}
			sa, sb := NewState("A"), NewState("B")
			m.SetEntryPoint(sa)
			if _, err := m.AddTransition(sa, sb, MustCondition(FieldFloat, OpEqual, "speed", 0.3)); err != nil {
				t.Fatal(err)
			}
			m.Start()
			if err := m.SetFloatField("speed", a+b); err != nil {
				t.Fatal(err)
			}
			if m.CurrentName() != tt.want {
				t.Errorf("current = %q, want %s", m.CurrentName(), tt.want)
			}
		})
	}
}

func TestTerminalState(t *testing.T) {
	m := NewMachine()
	m.RegisterIntField("hp", 10)
	alive, dead := NewState("Alive"), NewState("Dead")
	m.SetEntryPoint(alive)
	m.AddTransition(alive, dead, MustCondition(FieldInt, OpLess, "hp", 1))
	m.Start()
	m.SetIntField("hp", 0)
	m.SetIntField("hp", 10)
	if m.CurrentName() != "Dead" {
		t.Errorf("current = %q, want Dead", m.CurrentName())
	}
}

func TestUpdateAndInterruptForward(t *testing.T) {
	m := NewMachine()
	s := newCounting("S")
	m.Update(1) // no current state
	m.SetEntryPoint(s)
	m.Start()
	m.Update(0.5)
	m.Update(0.25)
	m.Interrupt()
	if s.updated != 0.75 {
		t.Errorf("updated = %v, want 0.75", s.updated)
	}
	if s.interrupts != 1 {
		t.Errorf("interrupts = %d, want 1", s.interrupts)
	}
}

func TestTransitionFromEnterIsOrdered(t *testing.T) {
	var buf bytes.Buffer
	m := NewMachine(WithID("hero"), WithLogger(log.New(&buf, "", 0)))
	m.RegisterBoolField("ready", false)
	a := NewState("A")
	b := NewState("B")
	m.SetEntryPoint(a)
	m.AddTransition(a, b, MustCondition(FieldBool, OpTrue, "ready", 0))
	a.OnEnter = func() { m.SetBoolField("ready", true) }
	m.Start()

	if m.CurrentName() != "B" {
		t.Fatalf("current = %q, want B", m.CurrentName())
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{"hero: (entry) -> A (start)", "hero: A -> B (ready)"}
	if len(lines) != len(want) {
		t.Fatalf("log = %q", buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestConfigurationLockedAfterStart(t *testing.T) {
	m := NewMachine()
	a := NewState("A")
	m.SetEntryPoint(a)
	m.Start()
	if err := m.RegisterFloatField("late", 0); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("RegisterFloatField: expected ErrAlreadyStarted, got %v", err)
	}
	if _, err := m.AddTransition(a, NewState("B")); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("AddTransition: expected ErrAlreadyStarted, got %v", err)
	}
	if err := m.AddState(NewState("C")); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("AddState: expected ErrAlreadyStarted, got %v", err)
	}
}

func TestIntrospection(t *testing.T) {
	m := NewMachine()
	m.RegisterFloatField("speed", 0)
	a, b := NewState("A"), NewState("B")
	m.SetEntryPoint(a)
	m.AddTransition(a, b, MustCondition(FieldFloat, OpGreater, "speed", 0))

	if m.EntryState() != State(a) {
		t.Error("EntryState should be A")
	}
	states := m.States()
	if len(states) != 2 || states[0].Name() != "A" || states[1].Name() != "B" {
		t.Errorf("States() = %v", states)
	}
	if s, ok := m.State("B"); !ok || s != State(b) {
		t.Error("State(B) lookup failed")
	}
	ts := m.Transitions("A")
	if len(ts) != 1 || ts[0].To != State(b) {
		t.Errorf("Transitions(A) = %v", ts)
	}
	ts[0] = nil
	if m.Transitions("A")[0] == nil {
		t.Error("Transitions returned the internal slice")
	}
}
