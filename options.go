package chromafsm

import "log"

// Option configures a Machine at construction.
type Option func(*Machine)

// WithID names the machine in logs, transition records and snapshots.
func WithID(id string) Option {
	return func(m *Machine) {
		m.id = id
	}
}

// WithExitOnTransition makes the machine call Exit on the outgoing state
// before entering the next one. Off by default: only Enter is called.
func WithExitOnTransition(enabled bool) Option {
	return func(m *Machine) {
		m.exitOnTransition = enabled
	}
}

// WithFloatTolerance switches == and != conditions on float and int fields
// from exact comparison to |a-b| <= tolerance.
func WithFloatTolerance(tolerance float64) Option {
	return func(m *Machine) {
		m.tolerance = tolerance
	}
}

// WithLogger logs every applied transition.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// WithObserver registers an observer for applied transitions. May be given
// more than once.
func WithObserver(o TransitionObserver) Option {
	return func(m *Machine) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}
