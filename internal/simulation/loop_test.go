package simulation_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/duelpanto/internal/simulation"
)

func TestNewLoop_StepDuration(t *testing.T) {
	nop := func(context.Context, time.Duration) error { return nil }
	assert.Equal(t, 20*time.Millisecond, simulation.NewLoop(50, nop, zap.NewNop()).StepDuration())
	assert.Equal(t, time.Second/simulation.DefaultTickHz, simulation.NewLoop(0, nop, zap.NewNop()).StepDuration())
	assert.Panics(t, func() { simulation.NewLoop(50, nil, zap.NewNop()) })
	assert.Panics(t, func() { simulation.NewLoop(50, nop, nil) })
}

func TestLoop_RunStepsUntilDone(t *testing.T) {
	var dts []time.Duration
	loop := simulation.NewLoop(100, func(_ context.Context, dt time.Duration) error {
		dts = append(dts, dt)
		return nil
	}, zap.NewNop())

	n, err := loop.Run(context.Background(), func() bool { return len(dts) == 5 })
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)
	assert.Equal(t, uint64(5), loop.Steps())
	for _, dt := range dts {
		assert.Equal(t, 10*time.Millisecond, dt)
	}
}

func TestLoop_RunStopsOnStepError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	loop := simulation.NewLoop(100, func(context.Context, time.Duration) error {
		calls++
		if calls == 3 {
			return boom
		}
		return nil
	}, zap.NewNop())

	n, err := loop.Run(context.Background(), func() bool { return false })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(2), n)
}

func TestLoop_RunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	loop := simulation.NewLoop(100, func(context.Context, time.Duration) error { return nil }, zap.NewNop())

	n, err := loop.Run(ctx, func() bool { return false })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestLoop_StartAndStop(t *testing.T) {
	var steps atomic.Int64
	loop := simulation.NewLoop(500, func(context.Context, time.Duration) error {
		steps.Add(1)
		return nil
	}, zap.NewNop())

	loop.Start(context.Background())
	require.Eventually(t, func() bool { return steps.Load() >= 3 }, 2*time.Second, time.Millisecond)
	loop.Stop()

	after := steps.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, steps.Load(), "no steps after Stop")
	assert.NoError(t, loop.Err())
	loop.Stop()
}

func TestLoop_StartEndsOnStepError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	boom := errors.New("boom")
	loop := simulation.NewLoop(500, func(context.Context, time.Duration) error { return boom }, zap.New(core))

	loop.Start(context.Background())
	select {
	case <-loop.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after a failing step")
	}
	assert.ErrorIs(t, loop.Err(), boom)
	assert.Equal(t, 1, logs.FilterMessage("simulation loop stopped").Len())
	loop.Stop()
}

func TestLoop_StartEndsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	loop := simulation.NewLoop(500, func(context.Context, time.Duration) error { return nil }, zap.NewNop())
	loop.Start(ctx)
	done := loop.Done()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on cancellation")
	}
	loop.Stop()
}
