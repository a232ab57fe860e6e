package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/duelpanto/internal/game/entity"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
	"github.com/cory-johannsen/duelpanto/internal/game/health"
	"github.com/cory-johannsen/duelpanto/internal/game/spatial"
)

// TargetLookup maps a struck entity to the Health it owns, if any.
type TargetLookup interface {
	HealthOf(id entity.ID) (*health.Health, bool)
}

// Shot records the outcome of one Resolve call.
type Shot struct {
	ShooterID entity.ID
	// Assisted is true when the ray was snapped to the known target.
	Assisted bool
	From     geom.Vec3
	// To is the hit point, or From + direction*MaxRange on a miss.
	To  geom.Vec3
	Cue Cue
	// Struck is the entity hit by the ray; entity.None on a miss or anonymous scenery.
	Struck entity.ID
	// Damaged is true when ApplyDamage was called on Struck's Health.
	Damaged bool
}

// Resolver fires one combatant's weapon once per tick.
//
// Not safe for concurrent use; one Resolver per armed combatant.
type Resolver struct {
	shooter   *Combatant
	weapon    Weapon
	scene     spatial.Raycaster
	targets   TargetLookup
	presenter Presenter
	logger    *zap.Logger
}

// NewResolver builds a Resolver for shooter. A nil presenter discards output.
//
// Precondition: shooter, scene, targets and logger must be non-nil; weapon must be valid.
func NewResolver(shooter *Combatant, weapon Weapon, scene spatial.Raycaster, targets TargetLookup, presenter Presenter, logger *zap.Logger) *Resolver {
	if shooter == nil {
		panic("combat.NewResolver: shooter must not be nil")
	}
	if scene == nil {
		panic("combat.NewResolver: scene must not be nil")
	}
	if targets == nil {
		panic("combat.NewResolver: targets must not be nil")
	}
	if logger == nil {
		panic("combat.NewResolver: logger must not be nil")
	}
	if presenter == nil {
		presenter = NopPresenter{}
	}
	return &Resolver{
		shooter:   shooter,
		weapon:    weapon,
		scene:     scene,
		targets:   targets,
		presenter: presenter,
		logger:    logger.With(zap.String("shooter", string(shooter.ID))),
	}
}

// Weapon returns the weapon this resolver fires.
func (r *Resolver) Weapon() Weapon { return r.weapon }

// Resolve fires once. target is the shooter's known opponent, or nil.
//
// When assist is enabled and target lies within the weapon cone the ray is
// cast along the exact direction to target; otherwise along the shooter's
// forward. Only the nearest struck surface is considered. A miss ends the
// line of fire at full range along the shooter's forward, even when assisted.
//
// Postcondition: at most one ApplyDamage call is made; the presenter receives
// exactly one line of fire and one cue.
func (r *Resolver) Resolve(target *Combatant) Shot {
	origin := r.shooter.Position
	dir := r.shooter.Forward()
	assisted := false

	if r.weapon.Assist && target != nil && target.Active {
		if dev, toTarget, ok := r.shooter.DeviationTo(target.Position); ok && dev <= r.weapon.ConeHalfAngle {
			if unit, ok := toTarget.Normalized(); ok {
				dir = unit
				assisted = true
			}
		}
	}

	shot := Shot{ShooterID: r.shooter.ID, Assisted: assisted, From: origin}

	hit, ok := r.scene.Raycast(origin, dir, r.weapon.MaxRange, r.weapon.Mask)
	switch {
	case !ok:
		shot.To = origin.Add(r.shooter.Forward().Scale(r.weapon.MaxRange))
		shot.Cue = CueDefault
	default:
		shot.To = hit.Point
		shot.Struck = hit.Entity
		h, bearing := r.healthOf(hit.Entity)
		if bearing {
			h.ApplyDamage(r.weapon.Damage, r.shooter.ID)
			shot.Cue = CueHit
			shot.Damaged = true
			r.logger.Debug("shot hit",
				zap.String("target", string(hit.Entity)),
				zap.Int("damage", r.weapon.Damage),
				zap.Int("remaining", h.Points()),
				zap.Bool("assisted", assisted),
			)
		} else {
			shot.Cue = CueWall
		}
	}

	r.presenter.ShowLineOfFire(r.shooter.ID, shot.From, shot.To)
	r.presenter.PlayCue(r.shooter.ID, shot.Cue)
	return shot
}

func (r *Resolver) healthOf(id entity.ID) (*health.Health, bool) {
	if id.IsNone() || id == r.shooter.ID {
		return nil, false
	}
	h, ok := r.targets.HealthOf(id)
	if !ok || h == nil {
		return nil, false
	}
	return h, true
}
