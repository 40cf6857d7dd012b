package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cratekit/cargo-acceptor/types"
)

const (
	MetricsNamespace = "cargo_acceptor"
)

var (
	Debug bool = false

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "events_total",
		Help:      "Count of decoded run events by kind",
	}, []string{
		"run_id",
		"kind",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of finished tests by state",
	}, []string{
		"run_id",
		"state",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of completed test runs",
	}, []string{
		"run_id",
		"backend",
		"result",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of completed test runs",
	}, []string{
		"run_id",
		"backend",
	})
)

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordEvent counts one decoded event for a run.
func RecordEvent(runID string, kind types.EventKind) {
	eventsTotal.WithLabelValues(runID, string(kind)).Inc()
}

// RecordTest counts one test reaching a terminal state.
func RecordTest(runID string, state types.TestState) {
	if Debug {
		log.Debug("metric inc",
			"m", "tests_total",
			"run_id", runID,
			"state", state)
	}
	testsTotal.WithLabelValues(runID, string(state)).Inc()
}

// RecordRun records the outcome of one completed run.
func RecordRun(runID string, backend types.TestBackend, result string, duration time.Duration) {
	runResults.WithLabelValues(runID, string(backend), result).Set(1)
	runDuration.WithLabelValues(runID, string(backend)).Set(duration.Seconds())
}
