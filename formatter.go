package acceptor

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cratekit/cargo-acceptor/runner"
	"github.com/cratekit/cargo-acceptor/types"
)

// ResultFormatter is responsible for formatting and displaying run results.
type ResultFormatter interface {
	FormatResults(result *runner.RunnerResult) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger log.Logger
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter.
func NewConsoleResultFormatter(logger log.Logger) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger: logger,
	}
}

// FormatResults formats and displays the run results.
func (f *ConsoleResultFormatter) FormatResults(result *runner.RunnerResult) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Test Results: %s (%s, %s)",
		result.Scope.String(), result.Backend, formatDuration(result.Duration)))

	t.AppendHeader(table.Row{"Test", "State", "Output"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 70, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Output", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, test := range sortedTests(result) {
		output := ""
		if test.State == types.TestStateFailed {
			output = firstLine(test.Stdout)
		}
		t.AppendRow(table.Row{
			test.Name,
			stateString(test.State),
			output,
		})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d total", result.Stats.Total),
		fmt.Sprintf("%d passed / %d failed / %d ignored",
			result.Stats.Passed, result.Stats.Failed, result.Stats.Ignored),
		strings.ToUpper(string(result.Status)),
	})
	t.Render()

	return nil
}

// sortedTests returns the run's tests in name order so output is stable.
func sortedTests(result *runner.RunnerResult) []*runner.TestResult {
	tests := make([]*runner.TestResult, 0, len(result.Tests))
	for _, test := range result.Tests {
		tests = append(tests, test)
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })
	return tests
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// formatDuration formats the duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
