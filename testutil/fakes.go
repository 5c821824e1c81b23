package testutil

import (
	"sync"

	"github.com/comalice/chromafsm"
)

// MovementRecorder records velocity changes.
type MovementRecorder struct {
	X, Z   float64
	Moves  int
	Stops  int
	Moving bool
}

func (m *MovementRecorder) SetVelocity(x, z float64) {
	m.X, m.Z = x, z
	m.Moves++
	m.Moving = x != 0 || z != 0
}

func (m *MovementRecorder) Stop() {
	m.X, m.Z = 0, 0
	m.Stops++
	m.Moving = false
}

// WeaponRecorder counts weapon calls.
type WeaponRecorder struct {
	Draws, Sheathes, Fires, Cancels int
}

func (w *WeaponRecorder) Draw()    { w.Draws++ }
func (w *WeaponRecorder) Sheathe() { w.Sheathes++ }
func (w *WeaponRecorder) Fire()    { w.Fires++ }
func (w *WeaponRecorder) Cancel()  { w.Cancels++ }

// RecordingObserver keeps every transition it observes.
type RecordingObserver struct {
	mu      sync.Mutex
	records []chromafsm.TransitionRecord
}

func (o *RecordingObserver) ObserveTransition(rec chromafsm.TransitionRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, rec)
}

// Records returns a copy of the observed transitions.
func (o *RecordingObserver) Records() []chromafsm.TransitionRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]chromafsm.TransitionRecord, len(o.records))
	copy(out, o.records)
	return out
}

// Path returns the target state names in order.
func (o *RecordingObserver) Path() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.records))
	for i, r := range o.records {
		out[i] = r.To
	}
	return out
}

// Log records hook calls by name.
type Log struct {
	Calls []string
}

// Hook returns a function that appends name to the log when called.
func (l *Log) Hook(name string) func() {
	return func() { l.Calls = append(l.Calls, name) }
}

// Count reports how often name was recorded.
func (l *Log) Count(name string) int {
	n := 0
	for _, c := range l.Calls {
		if c == name {
			n++
		}
	}
	return n
}
