package health

import "time"

// Heartbeat paces an audible heartbeat that quickens as health drops.
// The beat is active while points are in (0, 2/3 of max]; its rate follows
// bpm = (endBPM-startBPM)/max² · (points-max)² + startBPM.
type Heartbeat struct {
	startBPM float64
	endBPM   float64
	period   time.Duration
	elapsed  time.Duration
}

// NewHeartbeat returns a Heartbeat between startBPM (full health) and endBPM
// (near defeat).
//
// Precondition: 0 < startBPM <= endBPM.
func NewHeartbeat(startBPM, endBPM int) *Heartbeat {
	return &Heartbeat{
		startBPM: float64(startBPM),
		endBPM:   float64(endBPM),
		period:   time.Second,
	}
}

// BPM returns the beat rate for h, or 0 when the heartbeat is silent.
func (b *Heartbeat) BPM(h *Health) float64 {
	if h.points <= 0 || h.points > 2*h.max/3 {
		return 0
	}
	coef := (b.endBPM - b.startBPM) / float64(h.max*h.max)
	d := float64(h.points - h.max)
	return coef*d*d + b.startBPM
}

// Tick advances the heartbeat by dt and reports whether a beat is due.
// The beat period is recomputed from h each time a beat fires.
//
// Postcondition: returns false whenever BPM(h) == 0.
func (b *Heartbeat) Tick(dt time.Duration, h *Health) bool {
	bpm := b.BPM(h)
	if bpm == 0 {
		return false
	}
	if b.elapsed > b.period {
		b.period = time.Duration(float64(time.Minute) / bpm)
		b.elapsed = 0
		return true
	}
	b.elapsed += dt
	return false
}
