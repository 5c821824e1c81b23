package chromafsm

import (
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrDuplicateField       = errors.New("duplicate field")
	ErrDuplicateState       = errors.New("duplicate state name")
	ErrUnknownField         = errors.New("unknown field")
	ErrUnknownState         = errors.New("unknown state")
	ErrFieldType            = errors.New("field type mismatch")
	ErrNoEntryPoint         = errors.New("no entry point")
	ErrAlreadyStarted       = errors.New("machine already started")
	ErrNotStarted           = errors.New("machine not started")
)

// State is a node of the machine. The machine calls the lifecycle hooks;
// states never switch the machine themselves except through field writes.
//
// Implementations must be comparable (pointer receivers are the usual choice).
type State interface {
	Name() string
	Enter()
	Exit()
	Update(dt float64)
	Interrupt()
}

// BaseState is an embeddable State with no-op hooks.
type BaseState struct {
	StateName string
}

func (s *BaseState) Name() string   { return s.StateName }
func (s *BaseState) Enter()         {}
func (s *BaseState) Exit()          {}
func (s *BaseState) Update(float64) {}
func (s *BaseState) Interrupt()     {}

// FuncState is a State whose hooks are optional closures.
type FuncState struct {
	StateName   string
	OnEnter     func()
	OnExit      func()
	OnUpdate    func(dt float64)
	OnInterrupt func()
}

// NewState creates a FuncState with no hooks.
func NewState(name string) *FuncState {
	return &FuncState{StateName: name}
}

func (s *FuncState) Name() string { return s.StateName }

func (s *FuncState) Enter() {
	if s.OnEnter != nil {
		s.OnEnter()
	}
}

func (s *FuncState) Exit() {
	if s.OnExit != nil {
		s.OnExit()
	}
}

func (s *FuncState) Update(dt float64) {
	if s.OnUpdate != nil {
		s.OnUpdate(dt)
	}
}

func (s *FuncState) Interrupt() {
	if s.OnInterrupt != nil {
		s.OnInterrupt()
	}
}

// entryPoint is the pseudo-state the machine leaves on Start.
type entryPoint struct{ BaseState }

const entryName = "(entry)"

// Transition is a directed edge guarded by an AND of conditions.
type Transition struct {
	From       State
	To         State
	conditions []Condition
}

// Conditions returns a copy of the transition's guard list.
func (t *Transition) Conditions() []Condition {
	out := make([]Condition, len(t.conditions))
	copy(out, t.conditions)
	return out
}

// TransitionRecord describes one applied transition.
type TransitionRecord struct {
	MachineID string             `json:"machineID" yaml:"machineID"`
	From      string             `json:"from" yaml:"from"`
	To        string             `json:"to" yaml:"to"`
	Cause     string             `json:"cause" yaml:"cause"`
	Fields    map[string]float64 `json:"fields" yaml:"fields"`
	Timestamp time.Time          `json:"timestamp" yaml:"timestamp"`
}

// TransitionObserver is notified after every applied transition.
type TransitionObserver interface {
	ObserveTransition(rec TransitionRecord)
}

// Machine is a flat state machine whose transitions are guarded by typed
// fields. It is not safe for concurrent use; drive it from one goroutine.
type Machine struct {
	id          string
	fields      map[string]*Field
	states      map[string]State
	order       []string // state names in registration order
	transitions map[string][]*Transition
	entry       *entryPoint
	current     State
	started     bool

	exitOnTransition bool
	tolerance        float64
	logger           *log.Logger
	observers        []TransitionObserver
}

// NewMachine creates an empty machine.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		fields:      make(map[string]*Field),
		states:      make(map[string]State),
		transitions: make(map[string][]*Transition),
		entry:       &entryPoint{BaseState{StateName: entryName}},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ID returns the identifier set with WithID.
func (m *Machine) ID() string {
	return m.id
}

// AddState registers a state without adding transitions. States are also
// registered implicitly by AddTransition and SetEntryPoint.
func (m *Machine) AddState(s State) error {
	if m.started {
		return fmt.Errorf("add state: %w", ErrAlreadyStarted)
	}
	return m.register(s)
}

func (m *Machine) register(s State) error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidConfiguration)
	}
	name := s.Name()
	if name == "" || name == entryName {
		return fmt.Errorf("%w: invalid state name %q", ErrInvalidConfiguration, name)
	}
	if existing, ok := m.states[name]; ok {
		if existing != s {
			return fmt.Errorf("state %q: %w", name, ErrDuplicateState)
		}
		return nil
	}
	m.states[name] = s
	m.order = append(m.order, name)
	return nil
}

// SetEntryPoint adds the single transition out of the entry pseudo-state.
func (m *Machine) SetEntryPoint(s State) error {
	if m.started {
		return fmt.Errorf("set entry point: %w", ErrAlreadyStarted)
	}
	if len(m.transitions[entryName]) > 0 {
		return fmt.Errorf("%w: entry point already set to %q",
			ErrInvalidConfiguration, m.transitions[entryName][0].To.Name())
	}
	if err := m.register(s); err != nil {
		return err
	}
	m.transitions[entryName] = []*Transition{{From: m.entry, To: s}}
	return nil
}

// AddTransition appends a transition to from's outgoing list. Declaration
// order is evaluation order.
func (m *Machine) AddTransition(from, to State, conditions ...Condition) (*Transition, error) {
	if m.started {
		return nil, fmt.Errorf("add transition: %w", ErrAlreadyStarted)
	}
	if err := m.register(from); err != nil {
		return nil, err
	}
	if err := m.register(to); err != nil {
		return nil, err
	}
	t := &Transition{From: from, To: to}
	for _, c := range conditions {
		if err := m.checkCondition(c); err != nil {
			return nil, fmt.Errorf("transition %s -> %s: %w", from.Name(), to.Name(), err)
		}
		t.conditions = append(t.conditions, c)
	}
	m.transitions[from.Name()] = append(m.transitions[from.Name()], t)
	return t, nil
}

// AddCondition appends a guard to a transition created by this machine.
func (m *Machine) AddCondition(t *Transition, c Condition) error {
	if m.started {
		return fmt.Errorf("add condition: %w", ErrAlreadyStarted)
	}
	if t == nil || t.From == nil || !m.owns(t) {
		return fmt.Errorf("%w: transition does not belong to this machine", ErrInvalidConfiguration)
	}
	if err := m.checkCondition(c); err != nil {
		return fmt.Errorf("transition %s -> %s: %w", t.From.Name(), t.To.Name(), err)
	}
	t.conditions = append(t.conditions, c)
	return nil
}

func (m *Machine) owns(t *Transition) bool {
	for _, candidate := range m.transitions[t.From.Name()] {
		if candidate == t {
			return true
		}
	}
	return false
}

// checkCondition validates operator legality and that the named field
// exists with the declared type.
func (m *Machine) checkCondition(c Condition) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := m.lookup(c.FieldName, c.FieldType)
	return err
}

// Start leaves the entry pseudo-state and enters its target.
func (m *Machine) Start() error {
	if m.started {
		return ErrAlreadyStarted
	}
	entry := m.transitions[entryName]
	if len(entry) == 0 {
		return ErrNoEntryPoint
	}
	m.started = true
	m.apply(entry[0], "start")
	return nil
}

// Started reports whether Start has succeeded.
func (m *Machine) Started() bool {
	return m.started
}

// Update forwards a frame tick to the current state.
func (m *Machine) Update(dt float64) {
	if m.current != nil {
		m.current.Update(dt)
	}
}

// Interrupt forwards an interruption to the current state.
func (m *Machine) Interrupt() {
	if m.current != nil {
		m.current.Interrupt()
	}
}

// Current returns the active state, or nil before Start.
func (m *Machine) Current() State {
	return m.current
}

// CurrentName returns the active state's name, or "" before Start.
func (m *Machine) CurrentName() string {
	if m.current == nil {
		return ""
	}
	return m.current.Name()
}

// State looks up a registered state by name.
func (m *Machine) State(name string) (State, bool) {
	s, ok := m.states[name]
	return s, ok
}

// States returns the registered states in registration order.
func (m *Machine) States() []State {
	out := make([]State, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.states[name])
	}
	return out
}

// Transitions returns a copy of the outgoing transitions of the named state.
func (m *Machine) Transitions(from string) []*Transition {
	list := m.transitions[from]
	out := make([]*Transition, len(list))
	copy(out, list)
	return out
}

// EntryState returns the target of the entry transition, or nil.
func (m *Machine) EntryState() State {
	if entry := m.transitions[entryName]; len(entry) > 0 {
		return entry[0].To
	}
	return nil
}

// evaluate applies the first outgoing transition of the current state whose
// conditions all hold.
func (m *Machine) evaluate(cause string) error {
	if m.current == nil {
		return nil
	}
	for _, t := range m.transitions[m.current.Name()] {
		if m.satisfied(t) {
			m.apply(t, cause)
			return nil
		}
	}
	return nil
}

func (m *Machine) satisfied(t *Transition) bool {
	for _, c := range t.conditions {
		f, ok := m.fields[c.FieldName]
		if !ok || !c.Evaluate(f.Value, m.tolerance) {
			return false
		}
	}
	return true
}

// apply switches to t.To. Logging and observers run before Enter so that
// transitions caused by field writes inside Enter are reported after this one.
func (m *Machine) apply(t *Transition, cause string) {
	from := t.From
	if m.exitOnTransition && m.current != nil {
		m.current.Exit()
	}
	m.current = t.To

	if m.logger != nil {
		m.logger.Printf("%s: %s -> %s (%s)", m.label(), from.Name(), t.To.Name(), cause)
	}
	if len(m.observers) > 0 {
		rec := TransitionRecord{
			MachineID: m.id,
			From:      from.Name(),
			To:        t.To.Name(),
			Cause:     cause,
			Fields:    m.FieldValues(),
			Timestamp: time.Now(),
		}
		for _, o := range m.observers {
			o.ObserveTransition(rec)
		}
	}

	t.To.Enter()
}

func (m *Machine) label() string {
	if m.id == "" {
		return "machine"
	}
	return m.id
}
