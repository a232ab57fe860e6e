package combat

import (
	"github.com/cory-johannsen/duelpanto/internal/game/entity"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
)

// Cue is the audio/visual outcome selected for one shot.
type Cue int

const (
	// CueDefault is selected when the ray strikes nothing within range.
	CueDefault Cue = iota
	// CueWall is selected when the ray strikes an object without a Health.
	CueWall
	// CueHit is selected when the ray strikes a Health-bearing combatant.
	CueHit
)

// String returns the presentation-layer name of the cue.
func (c Cue) String() string {
	switch c {
	case CueDefault:
		return "default"
	case CueWall:
		return "wall"
	case CueHit:
		return "hit"
	default:
		return "unknown"
	}
}

// Presenter renders shot outcomes. Implementations live outside the core.
type Presenter interface {
	// ShowLineOfFire draws the shooter's ray from origin to its endpoint.
	ShowLineOfFire(shooter entity.ID, from, to geom.Vec3)
	// PlayCue switches the shooter's looping cue.
	PlayCue(shooter entity.ID, cue Cue)
}

// NopPresenter discards every presentation request.
type NopPresenter struct{}

func (NopPresenter) ShowLineOfFire(entity.ID, geom.Vec3, geom.Vec3) {}
func (NopPresenter) PlayCue(entity.ID, Cue)                         {}

// CueTracker forwards to an inner Presenter, passing PlayCue through only
// when a shooter's cue differs from the one it last played. Lines of fire are
// always forwarded.
//
// Not safe for concurrent use.
type CueTracker struct {
	inner   Presenter
	current map[entity.ID]Cue
}

// NewCueTracker wraps inner.
//
// Precondition: inner must not be nil.
func NewCueTracker(inner Presenter) *CueTracker {
	if inner == nil {
		panic("combat.NewCueTracker: inner must not be nil")
	}
	return &CueTracker{inner: inner, current: make(map[entity.ID]Cue)}
}

// ShowLineOfFire forwards unchanged.
func (t *CueTracker) ShowLineOfFire(shooter entity.ID, from, to geom.Vec3) {
	t.inner.ShowLineOfFire(shooter, from, to)
}

// PlayCue forwards cue iff it differs from the shooter's current cue. The
// first cue seen for a shooter is recorded without being forwarded, since
// that shooter's default loop is already playing.
func (t *CueTracker) PlayCue(shooter entity.ID, cue Cue) {
	prev, seen := t.current[shooter]
	t.current[shooter] = cue
	if !seen || prev == cue {
		return
	}
	t.inner.PlayCue(shooter, cue)
}

// Current returns the cue last selected for shooter.
func (t *CueTracker) Current(shooter entity.ID) (Cue, bool) {
	c, ok := t.current[shooter]
	return c, ok
}
