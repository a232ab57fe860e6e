package ai

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/dice"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
	"github.com/cory-johannsen/duelpanto/internal/game/npc"
	"github.com/cory-johannsen/duelpanto/internal/game/spatial"
)

// Deps are the collaborators a Controller queries every tick.
type Deps struct {
	// Sight answers line-of-sight queries.
	Sight spatial.Raycaster
	// Nav projects search points onto walkable ground.
	Nav spatial.Navigator
	// Dice draws aim jitter and search offsets.
	Dice *dice.Roller
	// SightMask selects the layers that block or satisfy sight.
	SightMask spatial.Mask
	Logger    *zap.Logger
}

// Controller drives one adversary. Not safe for concurrent use; the
// simulation goroutine is its only caller.
type Controller struct {
	self   *combat.Combatant
	tier   npc.Tier
	deps   Deps
	belief Belief
	logger *zap.Logger
	// trailing is true while LastKnownPosition is a sighting or a
	// retaliation rather than a spawn or search point.
	trailing bool
	// aimOffset is this tick's aim jitter in degrees, applied inside the
	// bounded turn.
	aimOffset float64
}

// NewController creates a controller for self using tier.
//
// Precondition: self, deps.Sight, deps.Nav, deps.Dice and deps.Logger must be
// non-nil; tier must be valid.
// Postcondition: belief has no target until Reset is called.
func NewController(self *combat.Combatant, tier npc.Tier, deps Deps) *Controller {
	if self == nil {
		panic("ai.NewController: self must not be nil")
	}
	if deps.Sight == nil {
		panic("ai.NewController: deps.Sight must not be nil")
	}
	if deps.Nav == nil {
		panic("ai.NewController: deps.Nav must not be nil")
	}
	if deps.Dice == nil {
		panic("ai.NewController: deps.Dice must not be nil")
	}
	if deps.Logger == nil {
		panic("ai.NewController: deps.Logger must not be nil")
	}
	if deps.SightMask == 0 {
		deps.SightMask = spatial.LayerWalls | spatial.LayerCombatants
	}
	return &Controller{
		self:   self,
		tier:   tier,
		deps:   deps,
		belief: Belief{Mode: tier.Mode(), LastKnownPosition: self.Position},
		logger: deps.Logger.With(zap.String("adversary", string(self.ID))),
	}
}

// Tier returns the configuration currently driving the controller.
func (c *Controller) Tier() npc.Tier { return c.tier }

// SetTier replaces the configuration. The belief is left untouched until the
// next Reset.
func (c *Controller) SetTier(tier npc.Tier) {
	c.tier = tier
	c.belief.Mode = tier.Mode()
}

// Belief returns a snapshot of the current belief.
func (c *Controller) Belief() Belief { return c.belief }

// Reset starts a fresh encounter against opponent.
//
// Postcondition: with AttackAtStart, HasTarget is true and LastKnownPosition is
// the opponent's spawn; otherwise HasTarget is false and LastKnownPosition is
// the adversary's own position. SearchTimer is zero.
func (c *Controller) Reset(opponent *combat.Combatant) {
	c.belief = Belief{Mode: c.tier.Mode(), LastKnownPosition: c.self.Position}
	c.trailing = false
	c.aimOffset = 0
	if c.tier.AttackAtStart && opponent != nil {
		c.belief.HasTarget = true
		c.belief.LastKnownPosition = opponent.Position
		c.trailing = true
	}
	c.logger.Debug("belief reset",
		zap.Stringer("mode", c.belief.Mode),
		zap.Bool("has_target", c.belief.HasTarget),
	)
}

// GotShot reports that source damaged the adversary.
//
// Postcondition: when the tier returns fire and source is non-nil, HasTarget is
// true and LastKnownPosition is source's position; otherwise nothing changes.
func (c *Controller) GotShot(source *combat.Combatant) {
	if !c.tier.ReturnsFire || source == nil {
		return
	}
	c.belief.HasTarget = true
	c.belief.LastKnownPosition = source.Position
	c.belief.SearchTimer = 0
	c.trailing = true
	c.logger.Debug("retaliation", zap.String("source", string(source.ID)))
}

// Tick advances the belief by dt against opponent and turns the adversary.
//
// Precondition: opponent must not be nil; dt >= 0.
// Postcondition: the adversary's Yaw moved by at most TurnRate degrees toward
// the returned MoveTarget, offset by this tick's aim jitter.
func (c *Controller) Tick(dt time.Duration, opponent *combat.Combatant) Directive {
	c.aimOffset = 0
	switch c.belief.Mode {
	case npc.ModePursuit:
		c.belief.HasTarget = true
		c.belief.LastKnownPosition = opponent.Position
		c.belief.SearchTimer = 0
		c.trailing = true
	default:
		c.perceive(opponent)
		if !c.belief.HasTarget {
			switch {
			case c.arrived():
				c.logger.Debug("reached last sighting")
				c.search()
				c.belief.SearchTimer = 0
			case c.belief.SearchTimer >= c.tier.TimeBeforeSearch:
				c.search()
				c.belief.SearchTimer = 0
			default:
				c.belief.SearchTimer += dt
			}
		}
	}

	c.face(c.belief.LastKnownPosition)
	return Directive{
		MoveTarget: c.belief.LastKnownPosition,
		Yaw:        c.self.Yaw,
		HasTarget:  c.belief.HasTarget,
	}
}

// perceive updates HasTarget from field of view and line of sight.
func (c *Controller) perceive(opponent *combat.Combatant) {
	toOpponent := opponent.Position.Sub(c.self.Position)
	dist := toOpponent.Len()
	if dist < geom.Epsilon {
		// Standing on the opponent: contact is kept without a cast.
		c.setContact(true)
		c.belief.LastKnownPosition = opponent.Position
		c.trailing = true
		return
	}

	if geom.AngleBetween(c.self.Forward(), toOpponent) > c.tier.FieldOfView {
		c.setContact(false)
		return
	}

	hit, ok := c.deps.Sight.Raycast(c.self.Position, toOpponent, dist, c.deps.SightMask)
	seen := ok && hit.Entity == opponent.ID
	c.setContact(seen)
	if !seen {
		return
	}
	c.belief.LastKnownPosition = opponent.Position
	c.trailing = true
	c.aimOffset = c.deps.Dice.Jitter("aim jitter", c.tier.Inaccuracy)
}

// arrived reports whether the adversary has reached its last sighting without
// regaining contact.
func (c *Controller) arrived() bool {
	r := c.tier.ReacquireDistance
	return r > 0 && c.trailing && c.self.Position.Flat().Dist(c.belief.LastKnownPosition.Flat()) <= r
}

func (c *Controller) setContact(has bool) {
	if c.belief.HasTarget == has {
		return
	}
	c.belief.HasTarget = has
	if has {
		c.belief.SearchTimer = 0
		c.logger.Debug("contact acquired")
	} else {
		c.logger.Debug("contact lost")
	}
}

// search commits a random walkable point near the adversary as the new
// LastKnownPosition. A failed projection leaves the belief unchanged.
func (c *Controller) search() {
	c.trailing = false
	dx, dz := c.deps.Dice.Disc("search offset", c.tier.SearchRadius)
	candidate := c.self.Position.Add(geom.V(dx, 0, dz))
	point, ok := c.deps.Nav.FindWalkablePoint(candidate, c.tier.SearchRadius)
	if !ok {
		c.logger.Debug("search point not walkable",
			zap.Float64("x", candidate.X),
			zap.Float64("z", candidate.Z),
		)
		return
	}
	c.belief.LastKnownPosition = point
	c.logger.Debug("search committed",
		zap.Float64("x", point.X),
		zap.Float64("z", point.Z),
	)
}

// face turns the adversary toward point, offset by the aim jitter, by at most
// TurnRate degrees.
func (c *Controller) face(point geom.Vec3) {
	want, ok := geom.YawOf(point.Sub(c.self.Position))
	if !ok {
		return
	}
	c.self.Yaw = geom.RotateTowards(c.self.Yaw, geom.NormalizeDegrees(want+c.aimOffset), c.tier.TurnRate)
}
