package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/duelpanto/internal/config"
	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
)

func TestNewLogger_JSON(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "json"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	cfg := config.LoggingConfig{Level: "debug", Format: "console"}
	logger, err := NewLogger(cfg, zap.String("run", "r1"))
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := config.LoggingConfig{Level: "trace", Format: "json"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "xml"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := config.LoggingConfig{Level: level, Format: "json"}
		logger, err := NewLogger(cfg)
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, logger)
	}
}

func TestLogPresenter_LogsShotsAndCues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := NewLogPresenter(zap.New(core))

	p.ShowLineOfFire("player-1", geom.V(0, 0, 0), geom.V(0, 0, 5))
	p.PlayCue("player-1", combat.CueHit)
	p.Heartbeat(100)

	require.Equal(t, 3, logs.Len())
	fire := logs.FilterMessage("line of fire").All()
	require.Len(t, fire, 1)
	assert.Equal(t, 5.0, fire[0].ContextMap()["to_z"])
	cue := logs.FilterMessage("cue").All()
	require.Len(t, cue, 1)
	assert.Equal(t, combat.CueHit.String(), cue[0].ContextMap()["cue"])
	assert.Equal(t, 1, logs.FilterMessage("heartbeat").Len())
}

func TestLogPresenter_WithCueTracker(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tracker := combat.NewCueTracker(NewLogPresenter(zap.New(core)))

	tracker.PlayCue("a", combat.CueWall)
	tracker.PlayCue("a", combat.CueWall)
	tracker.PlayCue("a", combat.CueHit)
	tracker.PlayCue("a", combat.CueHit)
	assert.Equal(t, 1, logs.FilterMessage("cue").Len(), "only the change from wall to hit is rendered")
}

func TestNewLogPresenter_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewLogPresenter(nil) })
}
