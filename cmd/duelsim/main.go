// Package main runs a headless duel series: a scripted player against every
// adversary tier in order, ending with the final score and leaderboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/duelpanto/internal/config"
	"github.com/cory-johannsen/duelpanto/internal/game/ai"
	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/dice"
	"github.com/cory-johannsen/duelpanto/internal/game/npc"
	"github.com/cory-johannsen/duelpanto/internal/game/session"
	"github.com/cory-johannsen/duelpanto/internal/game/spatial"
	"github.com/cory-johannsen/duelpanto/internal/game/world"
	"github.com/cory-johannsen/duelpanto/internal/lifecycle"
	"github.com/cory-johannsen/duelpanto/internal/observability"
	"github.com/cory-johannsen/duelpanto/internal/replay"
	"github.com/cory-johannsen/duelpanto/internal/simulation"
)

// errEncounterTimeout ends a run whose encounter outlived simulation.max_encounter.
var errEncounterTimeout = errors.New("encounter exceeded the time limit")

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	runID := uuid.New().String()
	logger, err := observability.NewLogger(cfg.Logging,
		zap.String("run", runID),
		zap.Int64("seed", cfg.Seed),
	)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting duel series",
		zap.String("tiers_file", cfg.Session.TiersFile),
		zap.String("arena_file", cfg.Session.ArenaFile),
		zap.Float64("tick_hz", cfg.Simulation.TickHz),
		zap.Bool("realtime", cfg.Simulation.Realtime),
	)

	if err := run(context.Background(), cfg, logger, runID, start); err != nil {
		logger.Fatal("duel series failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, runID string, start time.Time) (err error) {
	tiers, err := npc.LoadTiersFromFile(cfg.Session.TiersFile)
	if err != nil {
		return fmt.Errorf("loading tiers: %w", err)
	}
	arena, err := world.LoadArenaFromFile(cfg.Session.ArenaFile)
	if err != nil {
		return fmt.Errorf("loading arena: %w", err)
	}
	logger.Info("content loaded",
		zap.Int("tiers", len(tiers)),
		zap.String("arena", arena.ID),
		zap.Int("walls", len(arena.Walls)),
	)

	var src dice.Source
	if cfg.Seed != 0 {
		src = dice.NewSeededSource(uint64(cfg.Seed))
	} else {
		src = dice.NewCryptoSource()
	}
	roller := dice.NewLoggedRoller(src, logger.Named("dice"))

	scene := world.NewScene(arena, logger.Named("scene"))
	player, err := combat.NewCombatant(combat.KindPlayer, cfg.Player.Name, cfg.Player.MaxHealth)
	if err != nil {
		return err
	}
	adversary, err := combat.NewCombatant(combat.KindAdversary, tiers[0].Name, tiers[0].MaxHealth)
	if err != nil {
		return err
	}
	for _, c := range []*combat.Combatant{player, adversary} {
		if err := scene.AddBody(c); err != nil {
			return fmt.Errorf("placing %s: %w", c.Name, err)
		}
	}

	controller := ai.NewController(adversary, tiers[0], ai.Deps{
		Sight:  scene,
		Nav:    scene,
		Dice:   roller,
		Logger: logger.Named("ai"),
	})

	presenter := observability.NewLogPresenter(logger)
	w := simulation.NewWorld(simulation.Config{
		PlayerSpeed:     cfg.Player.Speed,
		PlayerWeapon:    weapon(cfg.Player.Weapon),
		AdversaryWeapon: weapon(cfg.AdversaryWeapon),
	}, simulation.Deps{
		Scene:      scene,
		Targets:    scene,
		Spawns:     [2]world.Spawn{arena.PlayerSpawn, arena.AdversarySpawn},
		Player:     player,
		Adversary:  adversary,
		Controller: controller,
		Input:      simulation.NewScriptedInput(roller, cfg.Player.AimWobble, cfg.Player.ApproachRange),
		Presenter:  combat.NewCueTracker(presenter),
		Logger:     logger.Named("world"),
	})
	w.OnHeartbeat(presenter.Heartbeat)

	var observer session.Observer = session.NewLogObserver(logger.Named("series"))
	var rec *replay.Recorder
	if cfg.Replay.Dir != "" {
		rec, _, err = replay.NewRecorder(cfg.Replay.Dir, runID, cfg.Replay.FrameInterval, time.Now, logger.Named("replay"))
		if err != nil {
			return fmt.Errorf("opening replay: %w", err)
		}
		defer func() {
			if cerr := rec.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing replay: %w", cerr)
			}
		}()
		observer = session.Observers{observer, rec}
	}

	board := session.NewMemoryLeaderboard()
	series, err := session.NewSeries(tiers, w, board, observer, session.Config{
		StartLevel:  cfg.Session.StartLevel,
		TrophyScore: cfg.Session.TrophyScore,
		Debug:       cfg.Session.Debug,
		PlayerName:  cfg.Player.Name,
	}, logger)
	if err != nil {
		return fmt.Errorf("building series: %w", err)
	}
	w.SetReferee(series)

	var runClock time.Duration
	step := func(ctx context.Context, dt time.Duration) error {
		if err := w.Step(ctx, dt); err != nil {
			return err
		}
		runClock += dt
		if rec != nil {
			if err := rec.Capture(w.Ticks(), runClock, player, adversary); err != nil {
				return fmt.Errorf("recording frame: %w", err)
			}
		}
		if limit := cfg.Simulation.MaxEncounter; limit > 0 && w.Elapsed() >= limit {
			return fmt.Errorf("level %d after %s: %w", series.Snapshot().Level+1, w.Elapsed(), errEncounterTimeout)
		}
		return nil
	}
	loop := simulation.NewLoop(cfg.Simulation.TickHz, step, logger.Named("loop"))

	logger.Info("duel initialized", zap.Duration("startup", time.Since(start)))
	if err := series.Start(ctx); err != nil {
		return fmt.Errorf("starting series: %w", err)
	}

	if cfg.Simulation.Realtime {
		err = runRealtime(ctx, loop, series, logger)
	} else {
		var steps uint64
		steps, err = loop.Run(ctx, func() bool { return series.Phase() == session.PhaseOver })
		logger.Info("simulation finished", zap.Uint64("steps", steps))
	}
	if err != nil {
		return err
	}

	snap := series.Snapshot()
	logger.Info("final score",
		zap.Int("score", snap.GameScore),
		zap.Int("player_wins", snap.PlayerWins),
		zap.Int("adversary_wins", snap.AdversaryWins),
		zap.Duration("total_time", snap.TotalTime),
	)
	for i, e := range board.Top(10) {
		logger.Info("leaderboard",
			zap.Int("rank", i+1),
			zap.String("name", e.Name),
			zap.Int("score", e.Score),
			zap.Int("seconds", e.Seconds),
		)
	}
	return nil
}

// runRealtime paces the loop against the wall clock and reports progress
// until the series ends, a step fails or the process is signalled.
func runRealtime(ctx context.Context, loop *simulation.Loop, series *session.Series, logger *zap.Logger) error {
	lc := lifecycle.New(logger.Named("lifecycle"))

	simCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	lc.Add("simulation", &lifecycle.FuncService{
		StartFn: func() error {
			loop.Start(simCtx)
			select {
			case <-series.Done():
				loop.Stop()
				return nil
			case <-loop.Done():
				return loop.Err()
			}
		},
		StopFn: func() {
			cancel()
			loop.Stop()
		},
	})

	quit := make(chan struct{})
	lc.Add("status", &lifecycle.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-quit:
					return nil
				case <-ticker.C:
					snap := series.Snapshot()
					logger.Info("series status",
						zap.String("phase", string(snap.Phase)),
						zap.Int("level", snap.Level+1),
						zap.Int("score", snap.GameScore),
						zap.Uint64("steps", loop.Steps()),
					)
				}
			}
		},
		StopFn: func() { close(quit) },
	})

	return lc.Run(ctx)
}

func weapon(c config.WeaponConfig) combat.Weapon {
	return combat.Weapon{
		Damage:        c.Damage,
		MaxRange:      c.MaxRange,
		ConeHalfAngle: c.ConeHalfAngle,
		Assist:        c.Assist,
		Mask:          spatial.LayerWalls | spatial.LayerCombatants,
	}
}
