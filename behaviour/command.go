// Package behaviour provides the commandable states of an armed actor: idle,
// moving, drawing a weapon and attacking. Each state holds only the
// capabilities it uses and changes the machine exclusively through field
// writes.
package behaviour

import (
	"math"

	"github.com/comalice/chromafsm"
)

// CommandKind identifies an actor command.
type CommandKind int

const (
	CommandMove CommandKind = iota
	CommandStop
	CommandDraw
	CommandSheathe
	CommandAttack
)

func (k CommandKind) String() string {
	switch k {
	case CommandMove:
		return "move"
	case CommandStop:
		return "stop"
	case CommandDraw:
		return "draw"
	case CommandSheathe:
		return "sheathe"
	case CommandAttack:
		return "attack"
	}
	return "unknown"
}

// Command is an input intent. X and Z carry the move direction scaled by
// the desired speed.
type Command struct {
	Kind CommandKind
	X, Z float64
}

// Move builds a move command.
func Move(x, z float64) Command {
	return Command{Kind: CommandMove, X: x, Z: z}
}

// Speed is the magnitude of the move vector.
func (c Command) Speed() float64 {
	return math.Hypot(c.X, c.Z)
}

// Commandable is a state that reacts to commands while current.
type Commandable interface {
	chromafsm.State
	ProcessCommand(cmd Command)
}

// Dispatch forwards cmd to the current state when it is Commandable and
// reports whether it was delivered. Decorators exposing Unwrap are looked
// through.
func Dispatch(m *chromafsm.Machine, cmd Command) bool {
	s := m.Current()
	for s != nil {
		if c, ok := s.(Commandable); ok {
			c.ProcessCommand(cmd)
			return true
		}
		u, ok := s.(interface{ Unwrap() chromafsm.State })
		if !ok {
			return false
		}
		s = u.Unwrap()
	}
	return false
}

// Movement moves the actor.
type Movement interface {
	SetVelocity(x, z float64)
	Stop()
}

// WeaponControl drives the actor's weapon.
type WeaponControl interface {
	Draw()
	Sheathe()
	Fire()
	Cancel()
}

// Blackboard is the part of the machine states may touch.
type Blackboard interface {
	SetFloatField(name string, value float64) error
	SetBoolField(name string, value bool) error
	SetTrigger(name string) error
	ResetTrigger(name string) error
	BoolField(name string) (bool, error)
}
