// Package session orchestrates a series of duels: one encounter per
// adversary tier, round tallies, the running game score and the final
// leaderboard submission.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/npc"
	"github.com/cory-johannsen/duelpanto/internal/game/scoring"
)

// ErrInvalidTier is returned when an encounter is requested for a tier that
// does not exist or does not validate.
var ErrInvalidTier = errors.New("invalid tier")

// Phase is the series' lifecycle state.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseActive   Phase = "active"
	PhaseResolved Phase = "resolved"
	PhaseOver     Phase = "over"
)

const (
	eventStart  = "start"
	eventDefeat = "defeat"
	eventNext   = "next"
	eventFinish = "finish"
)

// DefaultTrophyScore is the game score that earns a trophy.
const DefaultTrophyScore = 10000

// Stage is the encounter the series drives.
type Stage interface {
	Player() *combat.Combatant
	Adversary() *combat.Combatant
	// Reset places both combatants at their spawns with full health, applies
	// tier to the adversary and activates both.
	Reset(tier npc.Tier) error
}

// Config tunes a Series.
type Config struct {
	// StartLevel is the zero-based tier index the series begins at.
	StartLevel int
	// TrophyScore is the game score that earns a trophy.
	TrophyScore int
	// Debug skips the leaderboard submission.
	Debug bool
	// PlayerName is submitted with the final score.
	PlayerName string
}

// Snapshot is a consistent copy of the series state.
type Snapshot struct {
	Phase         Phase
	Level         int
	EncounterID   string
	PlayerWins    int
	AdversaryWins int
	GameScore     int
	TotalTime     time.Duration
	Results       []scoring.Result
}

// Series runs encounters for each tier in order.
//
// Resolve is called from the simulation goroutine; Snapshot and Phase may be
// called from any goroutine.
type Series struct {
	mu       sync.Mutex
	tiers    []npc.Tier
	stage    Stage
	board    Leaderboard
	observer Observer
	cfg      Config
	logger   *zap.Logger
	machine  *fsm.FSM
	done     chan struct{}

	level         int
	encounterID   string
	playerWins    int
	adversaryWins int
	gameScore     int
	totalTime     time.Duration
	results       []scoring.Result
}

// NewSeries builds a Series in the idle phase.
//
// An out-of-range cfg.StartLevel is logged and replaced by 0.
//
// Precondition: stage and logger must be non-nil; tiers must be non-empty.
// A nil board or observer is replaced by a no-op.
// Postcondition: Returns an idle Series or an error if tiers is empty.
func NewSeries(tiers []npc.Tier, stage Stage, board Leaderboard, observer Observer, cfg Config, logger *zap.Logger) (*Series, error) {
	if stage == nil {
		panic("session.NewSeries: stage must not be nil")
	}
	if logger == nil {
		panic("session.NewSeries: logger must not be nil")
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("series needs at least one tier: %w", ErrInvalidTier)
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if cfg.TrophyScore == 0 {
		cfg.TrophyScore = DefaultTrophyScore
	}
	if cfg.PlayerName == "" {
		cfg.PlayerName = "player"
	}
	if cfg.StartLevel < 0 || cfg.StartLevel >= len(tiers) {
		logger.Warn("start level out of range, resetting to 0",
			zap.Int("level", cfg.StartLevel),
			zap.Int("tiers", len(tiers)),
		)
		cfg.StartLevel = 0
	}

	s := &Series{
		tiers:    append([]npc.Tier(nil), tiers...),
		stage:    stage,
		board:    board,
		observer: observer,
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
		level:    cfg.StartLevel,
	}
	s.machine = fsm.NewFSM(
		string(PhaseIdle),
		fsm.Events{
			{Name: eventStart, Src: []string{string(PhaseIdle)}, Dst: string(PhaseActive)},
			{Name: eventDefeat, Src: []string{string(PhaseActive)}, Dst: string(PhaseResolved)},
			{Name: eventNext, Src: []string{string(PhaseResolved)}, Dst: string(PhaseActive)},
			{Name: eventFinish, Src: []string{string(PhaseResolved)}, Dst: string(PhaseOver)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.logger.Debug("series phase", zap.String("from", e.Src), zap.String("to", e.Dst))
			},
		},
	)
	return s, nil
}

// Phase returns the current lifecycle phase.
func (s *Series) Phase() Phase { return Phase(s.machine.Current()) }

// Done is closed when the series reaches PhaseOver.
func (s *Series) Done() <-chan struct{} { return s.done }

// Tiers returns the number of tiers in the series.
func (s *Series) Tiers() int { return len(s.tiers) }

// Start begins the first encounter.
//
// Precondition: Phase() == PhaseIdle.
// Postcondition: Phase() == PhaseActive and both combatants are active, or an error.
func (s *Series) Start(ctx context.Context) error {
	s.mu.Lock()
	level := s.level
	s.mu.Unlock()
	return s.StartEncounter(ctx, level)
}

// StartEncounter begins the encounter for level. From PhaseIdle it starts
// the series; from PhaseActive it restarts the running encounter at level;
// from PhaseResolved it retries an encounter whose reset failed.
//
// Postcondition: Returns an error wrapping ErrInvalidTier when level is out of
// range or its tier does not validate; the phase is then unchanged.
func (s *Series) StartEncounter(ctx context.Context, level int) error {
	s.mu.Lock()
	if level < 0 || level >= len(s.tiers) {
		s.mu.Unlock()
		return fmt.Errorf("starting level %d of %d: %w", level, len(s.tiers), ErrInvalidTier)
	}
	phase := s.Phase()
	var event string
	switch phase {
	case PhaseIdle:
		event = eventStart
	case PhaseResolved:
		event = eventNext
	case PhaseActive:
	default:
		s.mu.Unlock()
		return fmt.Errorf("cannot start an encounter in phase %s", phase)
	}
	prev := s.level
	s.level = level
	id, tier, err := s.resetLocked()
	if err != nil {
		s.level = prev
		s.mu.Unlock()
		return err
	}
	if event != "" {
		if err := s.machine.Event(ctx, event); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("starting level %d: %w", level, err)
		}
	}
	playerWins, adversaryWins := s.playerWins, s.adversaryWins
	s.mu.Unlock()

	s.observer.ScoreChanged(playerWins, adversaryWins)
	s.observer.EncounterStarted(id, level, tier)
	return nil
}

// resetLocked resets the stage for s.level. Caller holds s.mu.
func (s *Series) resetLocked() (string, npc.Tier, error) {
	tier := s.tiers[s.level]
	if err := tier.Validate(); err != nil {
		return "", npc.Tier{}, fmt.Errorf("level %d: %w: %w", s.level, ErrInvalidTier, err)
	}
	if err := s.stage.Reset(tier); err != nil {
		return "", npc.Tier{}, fmt.Errorf("resetting stage for level %d: %w", s.level, err)
	}
	s.encounterID = uuid.New().String()
	s.logger.Debug("encounter reset",
		zap.String("encounter", s.encounterID),
		zap.Int("level", s.level),
		zap.String("tier", tier.ID),
	)
	return s.encounterID, tier, nil
}

// Resolve ends the active encounter because defeated was defeated after
// elapsed of encounter time. Both combatants are deactivated, the winner's
// tally and the game score are updated, and the next encounter starts, or the
// game ends after the last tier.
//
// Precondition: Phase() == PhaseActive; defeated is the stage's player or adversary.
// Postcondition: Phase() is PhaseActive for the next level, or PhaseOver.
func (s *Series) Resolve(ctx context.Context, defeated *combat.Combatant, elapsed time.Duration) error {
	s.mu.Lock()
	if s.Phase() != PhaseActive {
		s.mu.Unlock()
		return fmt.Errorf("cannot resolve an encounter in phase %s", s.Phase())
	}
	if err := s.machine.Event(ctx, eventDefeat); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("resolving encounter: %w", err)
	}

	player, adversary := s.stage.Player(), s.stage.Adversary()
	player.Deactivate()
	adversary.Deactivate()

	playerWon := defeated != player
	if playerWon {
		s.playerWins++
	} else {
		s.adversaryWins++
	}

	result := scoring.Evaluate(player.Health.Points(), adversary.Health.Points(), elapsed, s.level)
	s.gameScore += result.LevelScoreDelta
	s.totalTime += elapsed
	s.results = append(s.results, result)

	summary := EncounterSummary{
		EncounterID:     s.encounterID,
		Level:           s.level,
		TierID:          s.tiers[s.level].ID,
		PlayerWon:       playerWon,
		PlayerHealth:    result.PlayerHealth,
		AdversaryHealth: result.AdversaryHealth,
		Elapsed:         elapsed,
		LevelScoreDelta: result.LevelScoreDelta,
		GameScore:       s.gameScore,
	}
	playerWins, adversaryWins := s.playerWins, s.adversaryWins

	s.level++
	if s.level >= len(s.tiers) {
		over := s.finishLocked(ctx)
		s.mu.Unlock()
		s.observer.ScoreChanged(playerWins, adversaryWins)
		s.observer.EncounterEnded(summary)
		s.observer.GameOver(over)
		close(s.done)
		return nil
	}

	id, tier, err := s.resetLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.machine.Event(ctx, eventNext); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("advancing to level %d: %w", s.level, err)
	}
	level := s.level
	s.mu.Unlock()

	s.observer.ScoreChanged(playerWins, adversaryWins)
	s.observer.EncounterEnded(summary)
	s.observer.EncounterStarted(id, level, tier)
	return nil
}

// finishLocked moves to PhaseOver and submits the score. Caller holds s.mu.
func (s *Series) finishLocked(ctx context.Context) GameSummary {
	if err := s.machine.Event(ctx, eventFinish); err != nil {
		s.logger.Error("finishing series", zap.Error(err))
	}
	summary := GameSummary{
		GameScore:     s.gameScore,
		TotalTime:     s.totalTime,
		PlayerWins:    s.playerWins,
		AdversaryWins: s.adversaryWins,
		Trophy:        s.gameScore >= s.cfg.TrophyScore,
	}
	switch {
	case s.cfg.Debug:
		s.logger.Info("debug mode, skipping leaderboard", zap.Int("score", s.gameScore))
	case s.board == nil:
		s.logger.Info("no leaderboard configured", zap.Int("score", s.gameScore))
	default:
		if err := s.board.Submit(s.cfg.PlayerName, s.gameScore, int(s.totalTime/time.Second)); err != nil {
			s.logger.Error("submitting score", zap.Error(err))
		} else {
			summary.Submitted = true
		}
	}
	return summary
}

// Snapshot returns a copy of the series state.
func (s *Series) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Phase:         s.Phase(),
		Level:         s.level,
		EncounterID:   s.encounterID,
		PlayerWins:    s.playerWins,
		AdversaryWins: s.adversaryWins,
		GameScore:     s.gameScore,
		TotalTime:     s.totalTime,
		Results:       append([]scoring.Result(nil), s.results...),
	}
}
