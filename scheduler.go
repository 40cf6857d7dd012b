package acceptor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// RunScheduler triggers test runs, either once or periodically.
type RunScheduler interface {
	Start(ctx context.Context) error
	Stop() error
	RegisterCallback(func() error)
	Stopped() bool
}

// IntervalScheduler implements the RunScheduler interface. With a zero
// interval it runs the callback once and stops; otherwise it keeps running
// the callback at the configured interval until stopped.
type IntervalScheduler struct {
	interval time.Duration
	runOnce  bool
	logger   log.Logger
	callback func() error

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewIntervalScheduler creates a new IntervalScheduler.
func NewIntervalScheduler(interval time.Duration, logger log.Logger) *IntervalScheduler {
	return &IntervalScheduler{
		interval: interval,
		runOnce:  interval == 0,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// RegisterCallback registers the callback to be called when a run is due.
func (s *IntervalScheduler) RegisterCallback(callback func() error) {
	s.callback = callback
}

// Start starts the scheduler. The first run always happens immediately; the
// error of that first run is returned so run-once mode reports it directly.
func (s *IntervalScheduler) Start(ctx context.Context) error {
	if s.callback == nil {
		return errors.New("callback must be registered before starting scheduler")
	}

	s.done = make(chan struct{})
	s.running.Store(true)

	if s.runOnce {
		s.logger.Info("Starting scheduler in run-once mode")
		defer s.running.Store(false)
		return s.callback()
	}

	s.logger.Info("Starting scheduler in continuous mode", "interval", s.interval)

	if err := s.callback(); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-time.After(s.interval):
				if !s.running.Load() {
					return
				}
				s.logger.Info("Running periodic tests")
				if err := s.callback(); err != nil {
					s.logger.Error("Error running periodic tests", "error", err)
				}
			case <-s.done:
				s.logger.Debug("Done signal received, stopping scheduler")
				return
			case <-ctx.Done():
				s.logger.Debug("Context canceled, stopping scheduler")
				s.running.Store(false)
				return
			}
		}
	}()
	return nil
}

// Stop stops the scheduler and waits for an in-flight run to settle.
func (s *IntervalScheduler) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.done)
	s.wg.Wait()
	return nil
}

// Stopped reports whether the scheduler has stopped.
func (s *IntervalScheduler) Stopped() bool {
	return !s.running.Load()
}
