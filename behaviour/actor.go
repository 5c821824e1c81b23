package behaviour

import (
	"fmt"

	"github.com/comalice/chromafsm"
)

// ActorConfig wires the capabilities of one actor. Weapon may be nil for an
// unarmed actor, in which case the weapon states are omitted.
type ActorConfig struct {
	Movement     Movement
	Weapon       WeaponControl
	DrawDuration float64
	Cooldown     float64
	Options      []chromafsm.Option
}

// Actor bundles the machine with its states.
type Actor struct {
	Machine   *chromafsm.Machine
	Idle      *Idle
	Moving    *Moving
	Drawing   *DrawingWeapon
	Attacking *Attacking
}

// NewActor builds the locomotion and weapon machine:
//
//	Idle   -> Moving        speed > 0
//	Moving -> Idle          speed == 0
//	Idle   -> DrawingWeapon draw triggered, not armed
//	Moving -> DrawingWeapon draw triggered, not armed
//	DrawingWeapon -> Idle   armed
//	DrawingWeapon -> Idle   cancel triggered
//	Idle   -> Attacking     attack triggered, armed
//	Moving -> Attacking     attack triggered, armed
//	Attacking -> Idle       attackDone triggered
//
// The machine is returned unstarted.
func NewActor(cfg ActorConfig) (*Actor, error) {
	if cfg.Movement == nil {
		return nil, fmt.Errorf("%w: actor requires movement", chromafsm.ErrInvalidConfiguration)
	}
	a := &Actor{
		Idle:   &Idle{BaseState: chromafsm.BaseState{StateName: StateIdle}, Movement: cfg.Movement, Weapon: cfg.Weapon},
		Moving: &Moving{BaseState: chromafsm.BaseState{StateName: StateMoving}, Movement: cfg.Movement},
	}

	b := chromafsm.NewMachineBuilder(cfg.Options...).
		Float(FieldSpeed, 0).
		Bool(FieldArmed, false).
		Trigger(FieldDraw).
		Trigger(FieldAttack).
		Trigger(FieldAttackDone).
		Trigger(FieldCancel)
	b.Add(a.Idle).Entry()
	b.Add(a.Moving)
	b.Transition(StateIdle, StateMoving).Above(FieldSpeed, 0)
	b.Transition(StateMoving, StateIdle).Equals(FieldSpeed, 0)

	if cfg.Weapon != nil {
		a.Drawing = &DrawingWeapon{
			BaseState: chromafsm.BaseState{StateName: StateDrawingWeapon},
			Movement:  cfg.Movement,
			Weapon:    cfg.Weapon,
			Duration:  cfg.DrawDuration,
		}
		a.Attacking = &Attacking{
			BaseState: chromafsm.BaseState{StateName: StateAttacking},
			Movement:  cfg.Movement,
			Weapon:    cfg.Weapon,
			Cooldown:  cfg.Cooldown,
		}
		b.Add(a.Drawing)
		b.Add(a.Attacking)
		for _, from := range []string{StateIdle, StateMoving} {
			b.Transition(from, StateDrawingWeapon).Triggered(FieldDraw).Is(FieldArmed, false)
			b.Transition(from, StateAttacking).Triggered(FieldAttack).Is(FieldArmed, true)
		}
		b.Transition(StateDrawingWeapon, StateIdle).Is(FieldArmed, true)
		b.Transition(StateDrawingWeapon, StateIdle).Triggered(FieldCancel)
		b.Transition(StateAttacking, StateIdle).Triggered(FieldAttackDone)
	}

	m, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build actor: %w", err)
	}
	a.Machine = m
	a.Idle.Fields = m
	a.Moving.Fields = m
	if a.Drawing != nil {
		a.Drawing.Fields = m
		a.Attacking.Fields = m
	}
	return a, nil
}

// Command dispatches cmd to the current state.
func (a *Actor) Command(cmd Command) bool {
	return Dispatch(a.Machine, cmd)
}
