package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/duelpanto/internal/game/npc"
)

// EncounterSummary describes one finished encounter.
type EncounterSummary struct {
	EncounterID string
	Level       int
	TierID      string
	// PlayerWon is false when the player was defeated.
	PlayerWon       bool
	PlayerHealth    int
	AdversaryHealth int
	Elapsed         time.Duration
	LevelScoreDelta int
	GameScore       int
}

// GameSummary describes a finished series.
type GameSummary struct {
	GameScore     int
	TotalTime     time.Duration
	PlayerWins    int
	AdversaryWins int
	// Trophy is true when GameScore reached the trophy score.
	Trophy bool
	// Submitted is false in debug mode or when the leaderboard refused the entry.
	Submitted bool
}

// Observer receives series events. Speech and UI layers implement it.
// Calls are made synchronously from the simulation goroutine.
type Observer interface {
	EncounterStarted(encounterID string, level int, tier npc.Tier)
	EncounterEnded(summary EncounterSummary)
	ScoreChanged(playerWins, adversaryWins int)
	GameOver(summary GameSummary)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) EncounterStarted(string, int, npc.Tier) {}
func (NopObserver) EncounterEnded(EncounterSummary)       {}
func (NopObserver) ScoreChanged(int, int)                 {}
func (NopObserver) GameOver(GameSummary)                  {}

// Observers fans every event out to each observer in order.
type Observers []Observer

func (fan Observers) EncounterStarted(encounterID string, level int, tier npc.Tier) {
	for _, o := range fan {
		o.EncounterStarted(encounterID, level, tier)
	}
}

func (fan Observers) EncounterEnded(s EncounterSummary) {
	for _, o := range fan {
		o.EncounterEnded(s)
	}
}

func (fan Observers) ScoreChanged(playerWins, adversaryWins int) {
	for _, o := range fan {
		o.ScoreChanged(playerWins, adversaryWins)
	}
}

func (fan Observers) GameOver(s GameSummary) {
	for _, o := range fan {
		o.GameOver(s)
	}
}

// LogObserver reports series events through a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver returns an Observer writing to logger.
//
// Precondition: logger must not be nil.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		panic("session.NewLogObserver: logger must not be nil")
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) EncounterStarted(encounterID string, level int, tier npc.Tier) {
	o.logger.Info("encounter started",
		zap.String("encounter", encounterID),
		zap.Int("level", level+1),
		zap.String("tier", tier.ID),
		zap.Stringer("mode", tier.Mode()),
	)
}

func (o *LogObserver) EncounterEnded(s EncounterSummary) {
	who := "enemy"
	if !s.PlayerWon {
		who = "player"
	}
	o.logger.Info("encounter ended",
		zap.String("encounter", s.EncounterID),
		zap.String("defeated", who),
		zap.Int("player_health", s.PlayerHealth),
		zap.Int("adversary_health", s.AdversaryHealth),
		zap.Duration("elapsed", s.Elapsed),
		zap.Int("level_score", s.LevelScoreDelta),
		zap.Int("game_score", s.GameScore),
	)
}

func (o *LogObserver) ScoreChanged(playerWins, adversaryWins int) {
	o.logger.Info("round tally", zap.Int("player", playerWins), zap.Int("adversary", adversaryWins))
}

func (o *LogObserver) GameOver(s GameSummary) {
	o.logger.Info("game over",
		zap.Int("score", s.GameScore),
		zap.Duration("total_time", s.TotalTime),
		zap.Bool("trophy", s.Trophy),
		zap.Bool("submitted", s.Submitted),
	)
}
