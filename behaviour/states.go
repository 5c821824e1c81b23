package behaviour

import "github.com/comalice/chromafsm"

// Field names shared by the actor states.
const (
	FieldSpeed      = "speed"
	FieldArmed      = "armed"
	FieldDraw       = "draw"
	FieldAttack     = "attack"
	FieldAttackDone = "attackDone"
	FieldCancel     = "cancel"
)

// State names.
const (
	StateIdle          = "Idle"
	StateMoving        = "Moving"
	StateDrawingWeapon = "DrawingWeapon"
	StateAttacking     = "Attacking"
)

// Idle waits for input. Movement and Weapon are optional.
type Idle struct {
	chromafsm.BaseState
	Fields   Blackboard
	Movement Movement
	Weapon   WeaponControl
}

func (s *Idle) Enter() {
	if s.Movement != nil {
		s.Movement.Stop()
	}
	if s.Weapon != nil {
		_ = s.Fields.ResetTrigger(FieldCancel)
	}
	_ = s.Fields.SetFloatField(FieldSpeed, 0)
}

func (s *Idle) ProcessCommand(cmd Command) {
	switch cmd.Kind {
	case CommandMove:
		if s.Movement == nil {
			return
		}
		s.Movement.SetVelocity(cmd.X, cmd.Z)
		_ = s.Fields.SetFloatField(FieldSpeed, cmd.Speed())
	case CommandDraw, CommandAttack:
		weaponCommand(s.Fields, cmd)
	case CommandSheathe:
		if armed, _ := s.Fields.BoolField(FieldArmed); s.Weapon == nil || !armed {
			return
		}
		s.Weapon.Sheathe()
		_ = s.Fields.SetBoolField(FieldArmed, false)
	}
}

// Moving steers the actor until it is told to stop.
type Moving struct {
	chromafsm.BaseState
	Fields   Blackboard
	Movement Movement
}

func (s *Moving) ProcessCommand(cmd Command) {
	switch cmd.Kind {
	case CommandMove:
		if s.Movement != nil {
			s.Movement.SetVelocity(cmd.X, cmd.Z)
		}
		_ = s.Fields.SetFloatField(FieldSpeed, cmd.Speed())
	case CommandStop:
		halt(s.Fields, s.Movement)
	case CommandDraw, CommandAttack:
		weaponCommand(s.Fields, cmd)
	}
}

func (s *Moving) Interrupt() {
	halt(s.Fields, s.Movement)
}

// halt stops the actor in place and zeroes its speed.
func halt(fields Blackboard, mv Movement) {
	if mv != nil {
		mv.Stop()
	}
	_ = fields.SetFloatField(FieldSpeed, 0)
}

// DrawingWeapon runs the draw animation for Duration seconds, then arms the
// actor. The actor holds still and ignores commands while drawing; an
// interrupt cancels the draw and returns to Idle unarmed.
type DrawingWeapon struct {
	chromafsm.BaseState
	Fields   Blackboard
	Movement Movement
	Weapon   WeaponControl
	Duration float64

	elapsed  float64
	canceled bool
}

func (s *DrawingWeapon) Enter() {
	_ = s.Fields.ResetTrigger(FieldDraw)
	_ = s.Fields.ResetTrigger(FieldCancel)
	s.elapsed = 0
	s.canceled = false
	halt(s.Fields, s.Movement)
	s.Weapon.Draw()
}

func (s *DrawingWeapon) Update(dt float64) {
	if s.canceled {
		return
	}
	s.elapsed += dt
	if s.elapsed >= s.Duration {
		_ = s.Fields.SetBoolField(FieldArmed, true)
	}
}

func (s *DrawingWeapon) Interrupt() {
	s.Weapon.Cancel()
	s.canceled = true
	_ = s.Fields.SetTrigger(FieldCancel)
}

func (s *DrawingWeapon) ProcessCommand(Command) {}

// Attacking stops the actor, fires once on entry and raises attackDone after
// Cooldown seconds.
type Attacking struct {
	chromafsm.BaseState
	Fields   Blackboard
	Movement Movement
	Weapon   WeaponControl
	Cooldown float64

	elapsed float64
	done    bool
}

func (s *Attacking) Enter() {
	_ = s.Fields.ResetTrigger(FieldAttack)
	_ = s.Fields.ResetTrigger(FieldAttackDone)
	s.elapsed = 0
	s.done = false
	halt(s.Fields, s.Movement)
	s.Weapon.Fire()
}

func (s *Attacking) Update(dt float64) {
	if s.done {
		return
	}
	s.elapsed += dt
	if s.elapsed >= s.Cooldown {
		s.done = true
		_ = s.Fields.SetTrigger(FieldAttackDone)
	}
}

func (s *Attacking) Interrupt() {
	s.Weapon.Cancel()
	s.done = true
	_ = s.Fields.SetTrigger(FieldAttackDone)
}

func (s *Attacking) ProcessCommand(Command) {}

// weaponCommand raises draw only while unarmed and attack only while armed so
// that a stray trigger never fires a later transition.
func weaponCommand(fields Blackboard, cmd Command) {
	armed, err := fields.BoolField(FieldArmed)
	if err != nil {
		return
	}
	switch {
	case cmd.Kind == CommandDraw && !armed:
		_ = fields.SetTrigger(FieldDraw)
	case cmd.Kind == CommandAttack && armed:
		_ = fields.SetTrigger(FieldAttack)
	}
}
