package simulation

import (
	"time"

	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/dice"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
)

// ScriptedInput stands in for a human: it points at the adversary with a
// random yaw wobble and walks toward it until within ApproachRange.
type ScriptedInput struct {
	dice *dice.Roller
	// Wobble is the maximum aim error in degrees.
	Wobble float64
	// ApproachRange is the distance kept from the adversary; 0 never moves.
	ApproachRange float64
}

// NewScriptedInput returns a ScriptedInput drawing wobble from roller.
//
// Precondition: roller must not be nil.
func NewScriptedInput(roller *dice.Roller, wobble, approachRange float64) *ScriptedInput {
	if roller == nil {
		panic("simulation.NewScriptedInput: roller must not be nil")
	}
	return &ScriptedInput{dice: roller, Wobble: wobble, ApproachRange: approachRange}
}

// Next implements PlayerInput.
func (s *ScriptedInput) Next(_ time.Duration, player, adversary *combat.Combatant) Input {
	to := adversary.Position.Sub(player.Position)
	yaw, ok := geom.YawOf(to)
	if !ok {
		return Input{}
	}
	in := Input{Aim: geom.Forward(yaw + s.dice.Jitter("player wobble", s.Wobble))}
	if s.ApproachRange > 0 && to.Flat().Len() > s.ApproachRange {
		in.Move = true
		in.MoveTarget = adversary.Position
	}
	return in
}
