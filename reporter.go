package acceptor

import (
	"github.com/cratekit/cargo-acceptor/metrics"
	"github.com/cratekit/cargo-acceptor/runner"
)

// MetricsReporter is responsible for reporting metrics from run results.
type MetricsReporter interface {
	ReportResults(result *runner.RunnerResult)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults reports the run results to metrics systems.
func (r *DefaultMetricsReporter) ReportResults(result *runner.RunnerResult) {
	metrics.RecordRun(
		result.RunID,
		result.Backend,
		string(result.Status),
		result.Duration,
	)
}
