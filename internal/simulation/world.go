// Package simulation advances one duel a tick at a time and drives it from a
// fixed-step loop.
package simulation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/duelpanto/internal/game/ai"
	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
	"github.com/cory-johannsen/duelpanto/internal/game/health"
	"github.com/cory-johannsen/duelpanto/internal/game/npc"
	"github.com/cory-johannsen/duelpanto/internal/game/spatial"
	"github.com/cory-johannsen/duelpanto/internal/game/world"
)

// Heartbeat rates used for the player's low-health cue.
const (
	HeartbeatStartBPM = 60
	HeartbeatEndBPM   = 220
)

// Input is the external control state of the player for one tick.
type Input struct {
	// Aim is the pointing direction; a zero vector keeps the current facing.
	Aim geom.Vec3
	// Move requests a step toward MoveTarget.
	Move       bool
	MoveTarget geom.Vec3
}

// PlayerInput supplies the player's control state each tick.
type PlayerInput interface {
	Next(dt time.Duration, player, adversary *combat.Combatant) Input
}

// Referee ends an encounter once a combatant is defeated.
type Referee interface {
	Resolve(ctx context.Context, defeated *combat.Combatant, elapsed time.Duration) error
}

// Config holds the tunables of a World.
type Config struct {
	// PlayerSpeed is the player's movement speed in units per second.
	PlayerSpeed     float64
	PlayerWeapon    combat.Weapon
	AdversaryWeapon combat.Weapon
}

// Deps are the collaborators a World is built from.
type Deps struct {
	Scene      spatial.Scene
	Targets    combat.TargetLookup
	Spawns     [2]world.Spawn
	Player     *combat.Combatant
	Adversary  *combat.Combatant
	Controller *ai.Controller
	Input      PlayerInput
	Presenter  combat.Presenter
	Logger     *zap.Logger
}

// armed pairs a shooter's resolver with the opponent it assists toward.
type armed struct {
	shooter, target *combat.Combatant
	resolver        *combat.Resolver
}

// World advances one encounter. It is the session's Stage.
//
// Not safe for concurrent use; the Loop goroutine is its only caller.
type World struct {
	cfg        Config
	scene      spatial.Scene
	spawns     [2]world.Spawn
	player     *combat.Combatant
	adversary  *combat.Combatant
	controller *ai.Controller
	input      PlayerInput
	armed      []armed
	heartbeat  *health.Heartbeat
	onBeat     func(bpm float64)
	referee    Referee
	logger     *zap.Logger

	elapsed time.Duration
	ticks   uint64
	pending *combat.Combatant
}

// NewWorld wires a World. Defeat and damage listeners are registered on both
// combatants' Health.
//
// Precondition: every Deps field except Presenter must be non-nil; weapons
// must be valid.
func NewWorld(cfg Config, deps Deps) *World {
	switch {
	case deps.Scene == nil:
		panic("simulation.NewWorld: deps.Scene must not be nil")
	case deps.Targets == nil:
		panic("simulation.NewWorld: deps.Targets must not be nil")
	case deps.Player == nil || deps.Adversary == nil:
		panic("simulation.NewWorld: combatants must not be nil")
	case deps.Controller == nil:
		panic("simulation.NewWorld: deps.Controller must not be nil")
	case deps.Input == nil:
		panic("simulation.NewWorld: deps.Input must not be nil")
	case deps.Logger == nil:
		panic("simulation.NewWorld: deps.Logger must not be nil")
	}
	presenter := deps.Presenter
	if presenter == nil {
		presenter = combat.NopPresenter{}
	}

	w := &World{
		cfg:        cfg,
		scene:      deps.Scene,
		spawns:     deps.Spawns,
		player:     deps.Player,
		adversary:  deps.Adversary,
		controller: deps.Controller,
		input:      deps.Input,
		heartbeat:  health.NewHeartbeat(HeartbeatStartBPM, HeartbeatEndBPM),
		logger:     deps.Logger,
	}
	w.armed = []armed{
		{shooter: w.player, target: w.adversary, resolver: combat.NewResolver(w.player, cfg.PlayerWeapon, deps.Scene, deps.Targets, presenter, deps.Logger)},
		{shooter: w.adversary, target: w.player, resolver: combat.NewResolver(w.adversary, cfg.AdversaryWeapon, deps.Scene, deps.Targets, presenter, deps.Logger)},
	}

	for _, c := range []*combat.Combatant{w.player, w.adversary} {
		c := c
		c.Health.OnDefeated(func(health.DefeatEvent) {
			if w.pending == nil {
				w.pending = c
			}
		})
	}
	w.adversary.Health.OnDamaged(func(e health.DamageEvent) {
		if e.Source == w.player.ID {
			w.controller.GotShot(w.player)
		}
	})
	return w
}

// SetReferee installs the component told about defeats.
func (w *World) SetReferee(r Referee) { w.referee = r }

// OnHeartbeat registers fn to be called on every player heartbeat.
func (w *World) OnHeartbeat(fn func(bpm float64)) { w.onBeat = fn }

// Player returns the human-controlled combatant.
func (w *World) Player() *combat.Combatant { return w.player }

// Adversary returns the autonomous combatant.
func (w *World) Adversary() *combat.Combatant { return w.adversary }

// Elapsed returns the encounter time accumulated since the last Reset.
func (w *World) Elapsed() time.Duration { return w.elapsed }

// Ticks returns the number of steps taken since construction.
func (w *World) Ticks() uint64 { return w.ticks }

// Reset begins a fresh encounter against tier.
//
// Postcondition: both combatants are at their spawns, active, with full
// health; the adversary's pool is tier.MaxHealth; Elapsed() == 0.
func (w *World) Reset(tier npc.Tier) error {
	if err := w.adversary.Health.Resize(tier.MaxHealth); err != nil {
		return fmt.Errorf("applying tier %q: %w", tier.ID, err)
	}
	w.player.Spawn(w.spawns[0].Position, w.spawns[0].Yaw)
	w.adversary.Spawn(w.spawns[1].Position, w.spawns[1].Yaw)
	w.controller.SetTier(tier)
	w.controller.Reset(w.player)
	w.heartbeat = health.NewHeartbeat(HeartbeatStartBPM, HeartbeatEndBPM)
	w.elapsed = 0
	w.pending = nil
	return nil
}

// Step advances the encounter by dt.
//
// Order within a tick: adversary perception, movement of both combatants,
// every armed combatant fires once, then a defeat is reported to the
// referee. A step while either combatant is inactive does nothing.
func (w *World) Step(ctx context.Context, dt time.Duration) error {
	if !w.player.Active || !w.adversary.Active {
		return nil
	}
	w.ticks++
	seconds := dt.Seconds()

	directive := w.controller.Tick(dt, w.player)

	w.scene.MoveTowards(w.adversary.ID, directive.MoveTarget, w.controller.Tier().Speed*seconds)
	in := w.input.Next(dt, w.player, w.adversary)
	if !in.Aim.IsZero() {
		w.player.Aim(in.Aim)
	}
	if in.Move {
		w.scene.MoveTowards(w.player.ID, in.MoveTarget, w.cfg.PlayerSpeed*seconds)
	}

	for _, a := range w.armed {
		// A shooter defeated earlier this tick does not fire.
		if a.shooter.Health.IsDefeated() {
			continue
		}
		a.resolver.Resolve(a.target)
	}

	w.elapsed += dt
	if w.heartbeat.Tick(dt, w.player.Health) && w.onBeat != nil {
		w.onBeat(w.heartbeat.BPM(w.player.Health))
	}

	if w.pending == nil {
		return nil
	}
	defeated := w.pending
	w.pending = nil
	w.logger.Debug("combatant defeated",
		zap.String("defeated", string(defeated.ID)),
		zap.Duration("elapsed", w.elapsed),
		zap.Uint64("tick", w.ticks),
	)
	if w.referee == nil {
		defeated.Deactivate()
		return nil
	}
	if err := w.referee.Resolve(ctx, defeated, w.elapsed); err != nil {
		return fmt.Errorf("resolving defeat: %w", err)
	}
	return nil
}
