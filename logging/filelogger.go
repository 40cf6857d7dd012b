// Package logging persists per-run artifacts of a test run: the decoded
// event stream as NDJSON, and a plain-text failure log with ANSI escapes
// stripped.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/cratekit/cargo-acceptor/types"
)

const (
	eventsLogName   = "events.ndjson"
	failuresLogName = "failures.log"
)

// EventSink consumes decoded events for one run.
type EventSink interface {
	Consume(ev types.Event) error
	Complete() error
}

// FileLogger writes run artifacts under <baseDir>/<runID>/.
type FileLogger struct {
	baseDir string
	runID   string

	mu    sync.Mutex
	sinks []EventSink
}

// NewFileLogger creates the run directory and its sinks.
func NewFileLogger(baseDir, runID string) (*FileLogger, error) {
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run log directory: %w", err)
	}

	l := &FileLogger{baseDir: baseDir, runID: runID}

	events, err := newRawEventSink(filepath.Join(runDir, eventsLogName))
	if err != nil {
		return nil, err
	}
	failures, err := newFailureSink(filepath.Join(runDir, failuresLogName))
	if err != nil {
		return nil, err
	}
	l.sinks = []EventSink{events, failures}
	return l, nil
}

// RunID returns the run this logger writes for.
func (l *FileLogger) RunID() string {
	return l.runID
}

// RunDir returns the directory holding this run's artifacts.
func (l *FileLogger) RunDir() string {
	return filepath.Join(l.baseDir, l.runID)
}

// LogEvent feeds one decoded event to every sink.
func (l *FileLogger) LogEvent(ev types.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, sink := range l.sinks {
		if err := sink.Consume(ev); err != nil {
			return err
		}
	}
	return nil
}

// Complete flushes and closes all sinks. The logger must not be used after.
func (l *FileLogger) Complete() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var firstErr error
	for _, sink := range l.sinks {
		if err := sink.Complete(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.sinks = nil
	return firstErr
}

// rawEventSink writes every event as one NDJSON line, mirroring the shape of
// the tool's own structured output so the file can be replayed by other
// tooling.
type rawEventSink struct {
	f *os.File
}

func newRawEventSink(path string) (*rawEventSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create events log: %w", err)
	}
	return &rawEventSink{f: f}, nil
}

// wireEvent is the serialized form of one event line.
type wireEvent struct {
	Type   string `json:"type"`
	Event  string `json:"event,omitempty"`
	Name   string `json:"name,omitempty"`
	Stdout string `json:"stdout,omitempty"`
	Text   string `json:"text,omitempty"`
}

func (s *rawEventSink) Consume(ev types.Event) error {
	line := wireEvent{Type: string(ev.Kind)}
	switch ev.Kind {
	case types.EventTest:
		line.Event = string(ev.State)
		line.Name = ev.Name
		line.Stdout = ev.Stdout
	case types.EventCustom:
		line.Text = ev.Text
	}
	data, err := json.Marshal(line)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = s.f.Write(data)
	return err
}

func (s *rawEventSink) Complete() error {
	return s.f.Close()
}

// failureSink collects human-relevant failure context: the stdout of every
// failed test plus any non-structured output lines, with ANSI color codes
// stripped so the file reads cleanly outside a terminal.
type failureSink struct {
	f *os.File
}

func newFailureSink(path string) (*failureSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create failures log: %w", err)
	}
	return &failureSink{f: f}, nil
}

func (s *failureSink) Consume(ev types.Event) error {
	switch ev.Kind {
	case types.EventTest:
		if ev.State != types.TestStateFailed {
			return nil
		}
		header := fmt.Sprintf("--- FAILED: %s\n", ev.Name)
		body := ""
		if ev.Stdout != "" {
			body = strings.TrimRight(stripansi.Strip(ev.Stdout), "\n") + "\n"
		}
		_, err := s.f.WriteString(header + body)
		return err
	case types.EventCustom:
		if strings.TrimSpace(ev.Text) == "" {
			return nil
		}
		_, err := s.f.WriteString(stripansi.Strip(ev.Text) + "\n")
		return err
	}
	return nil
}

func (s *failureSink) Complete() error {
	return s.f.Close()
}
