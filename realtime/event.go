package realtime

import (
	"fmt"
	"sort"

	"github.com/comalice/chromafsm"
)

// CommandKind selects the machine operation a Command performs.
type CommandKind int

const (
	SetFloat CommandKind = iota
	SetInt
	SetBool
	Trigger
	ResetTrigger
	Interrupt
)

// Command is a field write queued for the next tick.
type Command struct {
	Kind  CommandKind
	Field string
	Value float64
}

// CommandWithMeta adds sequencing metadata for deterministic ordering
type CommandWithMeta struct {
	Command     Command
	SequenceNum uint64
	Priority    int
}

// Apply performs the command against the machine.
func (c Command) Apply(m *chromafsm.Machine) error {
	switch c.Kind {
	case SetFloat:
		return m.SetFloatField(c.Field, c.Value)
	case SetInt:
		return m.SetIntField(c.Field, int(c.Value))
	case SetBool:
		return m.SetBoolField(c.Field, c.Value != 0)
	case Trigger:
		return m.SetTrigger(c.Field)
	case ResetTrigger:
		return m.ResetTrigger(c.Field)
	case Interrupt:
		m.Interrupt()
		return nil
	}
	return fmt.Errorf("unknown command kind %d", c.Kind)
}

// sortCommands orders commands deterministically
func sortCommands(cmds []CommandWithMeta) {
	// Stable sort preserves insertion order for equal priorities
	sort.SliceStable(cmds, func(i, j int) bool {
		// Primary: Higher priority first
		if cmds[i].Priority != cmds[j].Priority {
			return cmds[i].Priority > cmds[j].Priority
		}

		// Secondary: Earlier sequence number first (FIFO)
		return cmds[i].SequenceNum < cmds[j].SequenceNum
	})
}
