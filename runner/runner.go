package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/cratekit/cargo-acceptor/logging"
	"github.com/cratekit/cargo-acceptor/metrics"
	"github.com/cratekit/cargo-acceptor/types"
)

// RunStatus is the overall outcome of a completed run.
type RunStatus string

const (
	RunStatusPass RunStatus = "pass"
	RunStatusFail RunStatus = "fail"
)

// TestResult is the terminal outcome of one named test within a run.
type TestResult struct {
	Name   string
	State  types.TestState
	Stdout string // captured output for failed tests
}

// ResultStats tracks test counts for a run.
type ResultStats struct {
	Total   int
	Passed  int
	Failed  int
	Ignored int
}

// RunnerResult captures the complete aggregated outcome of one run.
type RunnerResult struct {
	RunID    string
	Backend  types.TestBackend
	Scope    types.TestScope
	Tests    map[string]*TestResult
	Output   []string // non-structured lines interleaved in the stream
	Status   RunStatus
	Stats    ResultStats
	Duration time.Duration
}

// TestRunner drives test runs against a cargo project.
type TestRunner interface {
	// StartTest launches a run and returns immediately; events are consumed
	// from the returned handle's channel.
	StartTest(ctx context.Context) (*RunHandle, error)
	// RunTests launches a run and consumes it to completion, aggregating
	// the event stream into a RunnerResult.
	RunTests(ctx context.Context) (*RunnerResult, error)
}

// Config holds configuration for creating a new runner.
type Config struct {
	Backend     types.TestBackend
	Filter      string // test path or nextest filter expression, optional
	Scope       types.TestScope
	Options     types.CargoOptions
	WorkDir     string // project root containing the cargo manifest
	CargoBinary string // path to the cargo binary
	Log         log.Logger
	LogDir      string // optional directory for per-run artifact files
}

type runner struct {
	backend     types.TestBackend
	filter      string
	scope       types.TestScope
	options     types.CargoOptions
	workDir     string
	cargoBinary string
	log         log.Logger
	logDir      string
	tracer      trace.Tracer
}

// NewTestRunner creates a new test runner instance.
func NewTestRunner(cfg Config) (TestRunner, error) {
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}
	if cfg.Backend == "" {
		cfg.Backend = types.BackendCargoTest
	}
	if cfg.CargoBinary == "" {
		cfg.CargoBinary = "cargo"
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	cfg.Log.Debug("NewTestRunner()", "backend", cfg.Backend, "scope", cfg.Scope.String(),
		"filter", cfg.Filter, "workDir", cfg.WorkDir, "cargoBinary", cfg.CargoBinary)

	return &runner{
		backend:     cfg.Backend,
		filter:      cfg.Filter,
		scope:       cfg.Scope,
		options:     cfg.Options,
		workDir:     cfg.WorkDir,
		cargoBinary: cfg.CargoBinary,
		log:         cfg.Log,
		logDir:      cfg.LogDir,
		tracer:      otel.Tracer("test runner"),
	}, nil
}

// StartTest implements the TestRunner interface.
func (r *runner) StartTest(ctx context.Context) (*RunHandle, error) {
	cmd := BuildTestCommand(r.backend, r.filter, r.scope, r.options, r.workDir)
	cmd.Binary = r.cargoBinary

	handle, err := StartRun(cmd, r.log)
	if err != nil {
		metrics.RecordError("spawn_failed")
		return nil, fmt.Errorf("failed to start %s: %w", r.backend, err)
	}
	return handle, nil
}

// RunTests implements the TestRunner interface.
func (r *runner) RunTests(ctx context.Context) (*RunnerResult, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("%s run", r.backend))
	defer span.End()

	start := time.Now()
	handle, err := r.StartTest(ctx)
	if err != nil {
		return nil, err
	}

	r.log.Info("Running tests", "run_id", handle.RunID(), "scope", r.scope.String())

	result := &RunnerResult{
		RunID:   handle.RunID(),
		Backend: r.backend,
		Scope:   r.scope,
		Tests:   make(map[string]*TestResult),
	}

	var fileLogger *logging.FileLogger
	if r.logDir != "" {
		fileLogger, err = logging.NewFileLogger(r.logDir, handle.RunID())
		if err != nil {
			r.log.Warn("Failed to create run file logger", "run_id", handle.RunID(), "error", err)
		} else {
			defer func() {
				if err := fileLogger.Complete(); err != nil {
					r.log.Warn("Failed to finalize run artifacts", "run_id", handle.RunID(), "error", err)
				}
			}()
			r.log.Debug("Writing run artifacts", "run_id", handle.RunID(), "dir", fileLogger.RunDir())
		}
	}

	if err := r.consume(ctx, handle, fileLogger, result); err != nil {
		return nil, err
	}

	// Reap the process. A non-zero exit is expected when tests failed; the
	// outcome is carried by the events.
	if err := handle.Wait(); err != nil {
		r.log.Debug("Test process exit", "run_id", handle.RunID(), "error", err)
	}

	result.Duration = time.Since(start)
	result.Stats = tallyStats(result.Tests)
	result.Status = RunStatusPass
	if result.Stats.Failed > 0 {
		result.Status = RunStatusFail
	}

	r.log.Info("Test run complete", "run_id", result.RunID, "status", result.Status,
		"total", result.Stats.Total, "failed", result.Stats.Failed,
		"duration", result.Duration)
	return result, nil
}

// consume drains the handle's event channel into result, in delivery order.
func (r *runner) consume(ctx context.Context, handle *RunHandle, fileLogger *logging.FileLogger, result *RunnerResult) error {
	for {
		select {
		case ev, ok := <-handle.Events():
			if !ok {
				return nil
			}
			r.record(handle.RunID(), ev, fileLogger, result)
		case <-ctx.Done():
			handle.Close()
			if err := handle.Kill(); err != nil {
				r.log.Warn("Failed to kill test process", "run_id", handle.RunID(), "error", err)
			}
			return ctx.Err()
		}
	}
}

func (r *runner) record(runID string, ev types.Event, fileLogger *logging.FileLogger, result *RunnerResult) {
	metrics.RecordEvent(runID, ev.Kind)
	if fileLogger != nil {
		if err := fileLogger.LogEvent(ev); err != nil {
			r.log.Warn("Failed to log event", "run_id", runID, "error", err)
		}
	}

	switch ev.Kind {
	case types.EventTest:
		test, exists := result.Tests[ev.Name]
		if !exists {
			test = &TestResult{Name: ev.Name, State: ev.State}
			result.Tests[ev.Name] = test
		}
		test.State = ev.State
		if ev.State == types.TestStateFailed {
			test.Stdout = ev.Stdout
		}
		if ev.State != types.TestStateStarted {
			metrics.RecordTest(runID, ev.State)
		}
	case types.EventCustom:
		result.Output = append(result.Output, ev.Text)
	case types.EventFinished:
		// Terminal marker; may arrive twice (once from the tool, once
		// synthesized at stream end) and is idempotent.
	case types.EventSuite:
		// Suite chatter carries no payload.
	}
}

func tallyStats(tests map[string]*TestResult) ResultStats {
	stats := ResultStats{}
	for _, test := range tests {
		switch test.State {
		case types.TestStateOk:
			stats.Passed++
		case types.TestStateFailed:
			stats.Failed++
		case types.TestStateIgnored:
			stats.Ignored++
		default:
			// Started but never finished: the process died mid-run.
			// Count it, but in no terminal bucket.
		}
		stats.Total++
	}
	return stats
}
