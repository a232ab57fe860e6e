package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged draws.
// Every draw is logged at debug level with its purpose, bounds and result.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each draw to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil {
		panic("dice.NewLoggedRoller: src must not be nil")
	}
	if logger == nil {
		panic("dice.NewLoggedRoller: logger must not be nil")
	}
	return &Roller{src: src, logger: logger}
}

// Jitter draws a symmetric offset in [-bound, bound) labelled with purpose.
//
// Precondition: bound >= 0.
// Postcondition: result logged; -bound <= result < bound, or 0 when bound == 0.
func (r *Roller) Jitter(purpose string, bound float64) float64 {
	if bound <= 0 {
		return 0
	}
	v := Uniform(r.src, -bound, bound)
	r.logger.Debug("dice jitter",
		zap.String("purpose", purpose),
		zap.Float64("bound", bound),
		zap.Float64("result", v),
	)
	return v
}

// Disc draws a horizontal offset within radius labelled with purpose.
//
// Precondition: radius >= 0.
// Postcondition: result logged; dx*dx + dz*dz <= radius*radius.
func (r *Roller) Disc(purpose string, radius float64) (dx, dz float64) {
	dx, dz = InDisc(r.src, radius)
	r.logger.Debug("dice disc",
		zap.String("purpose", purpose),
		zap.Float64("radius", radius),
		zap.Float64("dx", dx),
		zap.Float64("dz", dz),
	)
	return dx, dz
}
