// Package extensibility provides pluggable wrappers and input sources for
// machines: state decorators and command sources for the tick runtime.
package extensibility

import (
	"log"
	"time"

	"github.com/comalice/chromafsm"
)

// LoggingState wraps a State and adds logging around its lifecycle hooks.
// Update is not logged; it runs every frame.
type LoggingState struct {
	inner  chromafsm.State
	logger *log.Logger
}

// NewLoggingState creates a new LoggingState wrapping the given inner state.
// A nil logger logs to the standard logger.
func NewLoggingState(inner chromafsm.State, logger *log.Logger) *LoggingState {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingState{inner: inner, logger: logger}
}

// Unwrap returns the decorated state.
func (s *LoggingState) Unwrap() chromafsm.State {
	return s.inner
}

func (s *LoggingState) Name() string {
	return s.inner.Name()
}

// Enter logs before and after delegating to the inner state.
func (s *LoggingState) Enter() {
	s.logger.Printf("LOG: Entering state %q", s.inner.Name())
	start := time.Now()
	s.inner.Enter()
	s.logger.Printf("LOG: Entered state %q in %v", s.inner.Name(), time.Since(start))
}

// Exit logs before and after delegating to the inner state.
func (s *LoggingState) Exit() {
	s.logger.Printf("LOG: Exiting state %q", s.inner.Name())
	start := time.Now()
	s.inner.Exit()
	s.logger.Printf("LOG: Exited state %q in %v", s.inner.Name(), time.Since(start))
}

func (s *LoggingState) Update(dt float64) {
	s.inner.Update(dt)
}

// Interrupt logs and delegates.
func (s *LoggingState) Interrupt() {
	s.logger.Printf("LOG: Interrupting state %q", s.inner.Name())
	s.inner.Interrupt()
}

// WrapAll decorates every state in the map.
func WrapAll(states map[string]chromafsm.State, logger *log.Logger) map[string]chromafsm.State {
	out := make(map[string]chromafsm.State, len(states))
	for name, s := range states {
		out[name] = NewLoggingState(s, logger)
	}
	return out
}
