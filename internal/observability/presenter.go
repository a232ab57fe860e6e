package observability

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/duelpanto/internal/game/combat"
	"github.com/cory-johannsen/duelpanto/internal/game/entity"
	"github.com/cory-johannsen/duelpanto/internal/game/geom"
)

// LogPresenter renders shots and cues as debug log entries. Wrap it in a
// combat.CueTracker so repeated cues are logged once.
type LogPresenter struct {
	logger *zap.Logger
}

// NewLogPresenter returns a presenter writing to logger.
//
// Precondition: logger must not be nil.
func NewLogPresenter(logger *zap.Logger) *LogPresenter {
	if logger == nil {
		panic("observability.NewLogPresenter: logger must not be nil")
	}
	return &LogPresenter{logger: logger.Named("presenter")}
}

func (p *LogPresenter) ShowLineOfFire(shooter entity.ID, from, to geom.Vec3) {
	p.logger.Debug("line of fire",
		zap.String("shooter", string(shooter)),
		zap.Float64("from_x", from.X),
		zap.Float64("from_z", from.Z),
		zap.Float64("to_x", to.X),
		zap.Float64("to_z", to.Z),
	)
}

func (p *LogPresenter) PlayCue(shooter entity.ID, cue combat.Cue) {
	p.logger.Debug("cue", zap.String("shooter", string(shooter)), zap.Stringer("cue", cue))
}

// Heartbeat logs one player heartbeat.
func (p *LogPresenter) Heartbeat(bpm float64) {
	p.logger.Debug("heartbeat", zap.Float64("bpm", bpm))
}
