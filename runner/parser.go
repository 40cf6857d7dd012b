package runner

import (
	"encoding/json"

	"github.com/cratekit/cargo-acceptor/types"
)

// LineParser incrementally decodes the test tool's output, one line per call.
// The accumulator is caller-owned state threaded across successive calls,
// reserved for multi-line messages; none of the currently known shapes use
// it, but keeping it explicit keeps parsing resumable from any transport.
type LineParser interface {
	// ParseLine maps one raw output line to exactly one Event. It never
	// fails: a line that does not decode as a known structured shape comes
	// back verbatim as an EventCustom.
	ParseLine(line string, acc *string) types.Event

	// ParseEOF yields the synthetic terminal event for the end of the
	// stream. It always returns EventFinished, even when the stream already
	// contained an explicit finished line.
	ParseEOF() types.Event
}

// lineParser implements LineParser for libtest JSON output.
type lineParser struct{}

// NewLineParser creates a parser for the libtest JSON message shapes emitted
// by cargo test and cargo nextest.
func NewLineParser() LineParser {
	return &lineParser{}
}

// wireMessage is the on-the-wire shape of one structured output line. The
// type field discriminates test/suite/finished; for test messages the event
// field discriminates the test state. Name is a pointer so an absent field
// is distinguishable from an empty one; a test message without it is not a
// known shape. The stdout field is omitted by the tool when the capture is
// empty.
type wireMessage struct {
	Type   string  `json:"type"`
	Event  string  `json:"event"`
	Name   *string `json:"name"`
	Stdout string  `json:"stdout"`
}

func (p *lineParser) ParseLine(line string, _ *string) types.Event {
	if event, ok := decodeStructured(line); ok {
		return event
	}
	// Anything else, including malformed JSON, blank lines and human-readable
	// text interleaved in the stream, is passed through untouched. Decode
	// failure must never halt result delivery.
	return types.CustomEvent(line)
}

func (p *lineParser) ParseEOF() types.Event {
	return types.FinishedEvent()
}

// decodeStructured attempts to decode one line against the known message
// shapes. The second return is false when the line is not one of them.
func decodeStructured(line string) (types.Event, bool) {
	var msg wireMessage
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return types.Event{}, false
	}

	switch msg.Type {
	case "test":
		if msg.Name == nil {
			return types.Event{}, false
		}
		switch msg.Event {
		case "started":
			return types.TestEvent(*msg.Name, types.TestStateStarted), true
		case "ok":
			return types.TestEvent(*msg.Name, types.TestStateOk), true
		case "ignored":
			return types.TestEvent(*msg.Name, types.TestStateIgnored), true
		case "failed":
			return types.FailedTestEvent(*msg.Name, msg.Stdout), true
		}
	case "suite":
		return types.SuiteEvent(), true
	case "finished":
		return types.FinishedEvent(), true
	}
	return types.Event{}, false
}
