// Package acceptor orchestrates cargo test runs: it resolves the requested
// test scope from the project's manifest, drives the runner, and reports
// results to the console, prometheus and per-run log files.
package acceptor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cratekit/cargo-acceptor/manifest"
	"github.com/cratekit/cargo-acceptor/metrics"
	"github.com/cratekit/cargo-acceptor/runner"
)

// Service is the cargo acceptance tester. It owns the runner, the scheduler
// and the optional metrics server.
type Service struct {
	config    *Config
	version   string
	workspace *manifest.Workspace
	runner    runner.TestRunner
	formatter ResultFormatter
	reporter  MetricsReporter
	scheduler RunScheduler

	metricsServer *metrics.Server

	mu     sync.Mutex
	result *runner.RunnerResult
}

// New builds a Service from a validated Config.
func New(ctx context.Context, config *Config, version string) (*Service, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating service",
		"projectDir", config.ProjectDir,
		"backend", config.Backend,
		"package", config.Package,
		"target", config.Target,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	ws, err := manifest.Load(config.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load cargo manifest: %w", err)
	}

	scope, err := ws.ResolveScope(config.Package, config.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve test scope: %w", err)
	}

	testRunner, err := runner.NewTestRunner(runner.Config{
		Backend:     config.Backend,
		Filter:      config.Filter,
		Scope:       scope,
		Options:     config.Options,
		WorkDir:     config.ProjectDir,
		CargoBinary: config.CargoBinary,
		Log:         config.Log,
		LogDir:      config.LogDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}

	return &Service{
		config:    config,
		version:   version,
		workspace: ws,
		runner:    testRunner,
		formatter: NewConsoleResultFormatter(config.Log),
		reporter:  NewDefaultMetricsReporter(),
		scheduler: NewIntervalScheduler(config.RunInterval, config.Log),
	}, nil
}

// Start runs the first test run immediately and, in continuous mode, keeps
// scheduling further runs. In run-once mode the returned error reflects the
// run's outcome: nil for a passing run, a TestFailureError for a failing
// one, a RuntimeError when the run could not be executed at all.
func (s *Service) Start(ctx context.Context) error {
	if s.config.MetricsEnabled {
		server, err := metrics.StartServer(s.config.MetricsHost, s.config.MetricsPort)
		if err != nil {
			return NewRuntimeError(fmt.Errorf("failed to start metrics server: %w", err))
		}
		s.metricsServer = server
	}

	s.scheduler.RegisterCallback(func() error {
		err := s.runTests(ctx)
		// In continuous mode a failing run is reported but does not stop
		// the service; the next interval gets a fresh run.
		if err != nil && !s.config.RunOnce && IsTestFailureError(err) {
			s.config.Log.Warn("Test run completed with failures", "error", err)
			return nil
		}
		return err
	})

	if err := s.scheduler.Start(ctx); err != nil {
		if IsTestFailureError(err) {
			return err
		}
		return NewRuntimeError(err)
	}
	return nil
}

// Stop shuts down the scheduler and the metrics server.
func (s *Service) Stop(ctx context.Context) error {
	var firstErr error
	if err := s.scheduler.Stop(); err != nil {
		firstErr = err
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.config.Log.Info("Service stopped")
	return firstErr
}

// Result returns the most recent completed run result.
func (s *Service) Result() *runner.RunnerResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// runTests executes one run and reports it.
func (s *Service) runTests(ctx context.Context) error {
	result, err := s.runner.RunTests(ctx)
	if err != nil {
		metrics.RecordError("test_run_failed")
		return err
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	s.reporter.ReportResults(result)
	if err := s.formatter.FormatResults(result); err != nil {
		s.config.Log.Error("Failed to format results", "error", err)
	}

	if result.Status == runner.RunStatusFail {
		return NewTestFailureError(fmt.Sprintf("%d of %d tests failed",
			result.Stats.Failed, result.Stats.Total))
	}
	return nil
}
