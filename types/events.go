package types

// EventKind discriminates the messages a test run emits.
type EventKind string

const (
	// EventTest reports a state change for a single named test.
	EventTest EventKind = "test"
	// EventSuite marks suite-level chatter from the tool. Carries no payload.
	EventSuite EventKind = "suite"
	// EventFinished is the logical end marker of a run. It may appear twice:
	// once from the tool's own output and once synthesized at stream end.
	// Consumers must treat it as idempotent.
	EventFinished EventKind = "finished"
	// EventCustom wraps any output line that is not one of the known
	// structured shapes, verbatim.
	EventCustom EventKind = "custom"
)

// TestState represents the reported state of a single test.
type TestState string

const (
	TestStateStarted TestState = "started"
	TestStateOk      TestState = "ok"
	TestStateIgnored TestState = "ignored"
	TestStateFailed  TestState = "failed"
)

// Event is one decoded unit of test-run output. Exactly one Event is produced
// per output line, plus one synthetic EventFinished at end of stream. Events
// are immutable once constructed and are not retained by the parser.
type Event struct {
	Kind EventKind

	// Name and State are set for EventTest only.
	Name  string
	State TestState

	// Stdout carries captured output for failed tests. The tool omits the
	// field when the capture is empty, so empty means "nothing captured".
	Stdout string

	// Text is the raw line for EventCustom.
	Text string
}

// TestEvent constructs an EventTest event.
func TestEvent(name string, state TestState) Event {
	return Event{Kind: EventTest, Name: name, State: state}
}

// FailedTestEvent constructs an EventTest event in the failed state with
// captured stdout.
func FailedTestEvent(name, stdout string) Event {
	return Event{Kind: EventTest, Name: name, State: TestStateFailed, Stdout: stdout}
}

// SuiteEvent constructs an EventSuite event.
func SuiteEvent() Event {
	return Event{Kind: EventSuite}
}

// FinishedEvent constructs an EventFinished event.
func FinishedEvent() Event {
	return Event{Kind: EventFinished}
}

// CustomEvent wraps an opaque output line.
func CustomEvent(text string) Event {
	return Event{Kind: EventCustom, Text: text}
}
