package acceptor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalScheduler_RunOnce(t *testing.T) {
	scheduler := NewIntervalScheduler(0, log.New())

	var callCount atomic.Int32
	scheduler.RegisterCallback(func() error {
		callCount.Add(1)
		return nil
	})

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Equal(t, int32(1), callCount.Load(), "Expected callback to be called exactly once")

	// Wait a bit to make sure no more calls happen
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), callCount.Load())
	assert.True(t, scheduler.Stopped())
}

func TestIntervalScheduler_RunOncePropagatesError(t *testing.T) {
	scheduler := NewIntervalScheduler(0, log.New())

	wantErr := errors.New("run failed")
	scheduler.RegisterCallback(func() error { return wantErr })

	err := scheduler.Start(context.Background())
	require.ErrorIs(t, err, wantErr)
}

func TestIntervalScheduler_Periodic(t *testing.T) {
	scheduler := NewIntervalScheduler(10*time.Millisecond, log.New())

	callChan := make(chan struct{}, 10)
	scheduler.RegisterCallback(func() error {
		select {
		case callChan <- struct{}{}:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))
	defer scheduler.Stop() //nolint:errcheck

	// The first call happens immediately, then the interval kicks in.
	for i := 0; i < 3; i++ {
		select {
		case <-callChan:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for callback %d", i+1)
		}
	}
}

func TestIntervalScheduler_PeriodicContinuesAfterCallbackError(t *testing.T) {
	scheduler := NewIntervalScheduler(10*time.Millisecond, log.New())

	callChan := make(chan struct{}, 10)
	var calls atomic.Int32
	scheduler.RegisterCallback(func() error {
		n := calls.Add(1)
		select {
		case callChan <- struct{}{}:
		default:
		}
		if n > 1 {
			return errors.New("periodic failure")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, scheduler.Start(ctx))
	defer scheduler.Stop() //nolint:errcheck

	// Errors from periodic runs are logged, not fatal; later runs still fire.
	for i := 0; i < 3; i++ {
		select {
		case <-callChan:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler stopped after a callback error")
		}
	}
}

func TestIntervalScheduler_Stop(t *testing.T) {
	scheduler := NewIntervalScheduler(10*time.Millisecond, log.New())
	scheduler.RegisterCallback(func() error { return nil })

	require.NoError(t, scheduler.Start(context.Background()))
	require.NoError(t, scheduler.Stop())
	assert.True(t, scheduler.Stopped())

	// Stopping twice is fine.
	require.NoError(t, scheduler.Stop())
}

func TestIntervalScheduler_RequiresCallback(t *testing.T) {
	scheduler := NewIntervalScheduler(0, log.New())
	require.Error(t, scheduler.Start(context.Background()))
}
