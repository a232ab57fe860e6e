// Package ai implements the adversary's perception and pursuit controller.
//
// The controller owns an adversary Belief and advances it once per tick from
// line-of-sight queries, a search timer and retaliation signals. Its output is
// a Directive naming where the adversary should move and which way it faces.
package ai

import (
	"time"

	"github.com/cory-johannsen/duelpanto/internal/game/geom"
	"github.com/cory-johannsen/duelpanto/internal/game/npc"
)

// Belief is the adversary's view of where its opponent is.
//
// Invariant: LastKnownPosition changes only while HasTarget is true, on
// retaliation, or when a search point is committed.
type Belief struct {
	Mode              npc.Mode
	HasTarget         bool
	LastKnownPosition geom.Vec3
	// SearchTimer accumulates time spent without contact.
	SearchTimer time.Duration
}

// Directive is the controller's per-tick output.
type Directive struct {
	// MoveTarget is where the adversary should walk.
	MoveTarget geom.Vec3
	// Yaw is the adversary's facing after this tick's bounded turn.
	Yaw float64
	// HasTarget mirrors the belief after this tick.
	HasTarget bool
}
