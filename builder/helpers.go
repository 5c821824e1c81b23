package builder

import (
	"github.com/comalice/chromafsm" // the core package
)

// New creates a state with optional hooks.
func New(name string, opts ...Option) *chromafsm.FuncState {
	s := chromafsm.NewState(name)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option pattern for configuring states
type Option func(*chromafsm.FuncState)

// OnEnter sets the hook run when the state is entered.
func OnEnter(fn func()) Option {
	return func(s *chromafsm.FuncState) { s.OnEnter = fn }
}

// OnExit sets the hook run when the state is exited.
func OnExit(fn func()) Option {
	return func(s *chromafsm.FuncState) { s.OnExit = fn }
}

// OnUpdate sets the per-frame hook.
func OnUpdate(fn func(dt float64)) Option {
	return func(s *chromafsm.FuncState) { s.OnUpdate = fn }
}

// OnInterrupt sets the interrupt hook.
func OnInterrupt(fn func()) Option {
	return func(s *chromafsm.FuncState) { s.OnInterrupt = fn }
}

// Condition shortcuts. They panic on illegal pairings, which can only come
// from a wrong helper choice at the call site.

func FloatAbove(field string, v float64) chromafsm.Condition {
	return chromafsm.MustCondition(chromafsm.FieldFloat, chromafsm.OpGreater, field, v)
}

func FloatBelow(field string, v float64) chromafsm.Condition {
	return chromafsm.MustCondition(chromafsm.FieldFloat, chromafsm.OpLess, field, v)
}

func FloatEquals(field string, v float64) chromafsm.Condition {
	return chromafsm.MustCondition(chromafsm.FieldFloat, chromafsm.OpEqual, field, v)
}

func FloatNotEquals(field string, v float64) chromafsm.Condition {
	return chromafsm.MustCondition(chromafsm.FieldFloat, chromafsm.OpNotEqual, field, v)
}

func IntAbove(field string, v int) chromafsm.Condition {
	return chromafsm.MustCondition(chromafsm.FieldInt, chromafsm.OpGreater, field, float64(v))
}

func IntBelow(field string, v int) chromafsm.Condition {
	return chromafsm.MustCondition(chromafsm.FieldInt, chromafsm.OpLess, field, float64(v))
}

func IntEquals(field string, v int) chromafsm.Condition {
	return chromafsm.MustCondition(chromafsm.FieldInt, chromafsm.OpEqual, field, float64(v))
}

func IsTrue(field string) chromafsm.Condition {
	return chromafsm.MustCondition(chromafsm.FieldBool, chromafsm.OpTrue, field, 0)
}

func IsFalse(field string) chromafsm.Condition {
	return chromafsm.MustCondition(chromafsm.FieldBool, chromafsm.OpFalse, field, 0)
}

func Triggered(field string) chromafsm.Condition {
	return chromafsm.MustCondition(chromafsm.FieldTrigger, chromafsm.OpNone, field, 0)
}
