package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTickHz is the step rate used when none is configured.
const DefaultTickHz = 50

// StepFunc advances the simulation by one fixed timestep.
type StepFunc func(ctx context.Context, dt time.Duration) error

// Loop drives a StepFunc at a fixed timestep.
//
// Invariant: every call to the StepFunc receives the same dt, and calls never
// overlap.
type Loop struct {
	step     time.Duration
	stepFunc StepFunc
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	steps  uint64
}

// NewLoop returns a loop stepping tickHz times per second. A non-positive
// tickHz selects DefaultTickHz.
//
// Precondition: step and logger must not be nil.
func NewLoop(tickHz float64, step StepFunc, logger *zap.Logger) *Loop {
	if step == nil {
		panic("simulation.NewLoop: step must not be nil")
	}
	if logger == nil {
		panic("simulation.NewLoop: logger must not be nil")
	}
	if tickHz <= 0 {
		tickHz = DefaultTickHz
	}
	interval := time.Duration(float64(time.Second) / tickHz)
	if interval <= 0 {
		interval = time.Second / DefaultTickHz
	}
	return &Loop{step: interval, stepFunc: step, logger: logger}
}

// StepDuration returns the fixed timestep.
func (l *Loop) StepDuration() time.Duration { return l.step }

// Steps returns the number of steps run so far.
func (l *Loop) Steps() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.steps
}

// Start begins stepping in a new goroutine against the wall clock until ctx
// is cancelled, Stop is called or a step returns an error. Elapsed real time
// is accumulated and drained in whole steps, so a late tick runs several
// steps to catch up.
//
// Precondition: the loop is not already running.
func (l *Loop) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.mu.Lock()
	if l.done != nil {
		l.mu.Unlock()
		cancel()
		panic("simulation.Loop.Start: loop already running")
	}
	l.cancel = cancel
	l.done = done
	l.err = nil
	l.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		ticker := time.NewTicker(l.step)
		defer ticker.Stop()
		last := time.Now()
		var accumulator time.Duration
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				accumulator += now.Sub(last)
				last = now
				for accumulator >= l.step {
					accumulator -= l.step
					if err := l.runStep(ctx); err != nil {
						l.fail(err)
						return
					}
				}
			}
		}
	}()
}

// Stop cancels a running loop and waits for its goroutine to exit. Stop on
// a loop that is not running does nothing.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if done == nil {
		return
	}
	cancel()
	<-done

	l.mu.Lock()
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()
}

// Done is closed when the running loop exits; it is nil before Start.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Err returns the step error that ended the loop, if any.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Run steps synchronously, without waiting on the clock, until until returns
// true, ctx is cancelled or a step fails. It returns the number of steps run.
//
// Precondition: until must not be nil; the loop is not running.
func (l *Loop) Run(ctx context.Context, until func() bool) (uint64, error) {
	var n uint64
	for !until() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := l.runStep(ctx); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (l *Loop) runStep(ctx context.Context) error {
	if err := l.stepFunc(ctx, l.step); err != nil {
		return fmt.Errorf("step %d: %w", l.Steps(), err)
	}
	l.mu.Lock()
	l.steps++
	l.mu.Unlock()
	return nil
}

func (l *Loop) fail(err error) {
	l.logger.Error("simulation loop stopped", zap.Error(err))
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}
