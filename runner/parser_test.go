package runner

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cratekit/cargo-acceptor/types"
)

func TestNewLineParser(t *testing.T) {
	parser := NewLineParser()
	assert.NotNil(t, parser, "NewLineParser should return non-nil parser")
}

func TestLineParser_ParseLine(t *testing.T) {
	parser := NewLineParser()

	tests := []struct {
		name string
		line string
		want types.Event
	}{
		{
			name: "test started",
			line: `{"type":"test","event":"started","name":"mod::works"}`,
			want: types.TestEvent("mod::works", types.TestStateStarted),
		},
		{
			name: "test ok",
			line: `{"type":"test","event":"ok","name":"mod::works"}`,
			want: types.TestEvent("mod::works", types.TestStateOk),
		},
		{
			name: "test ignored",
			line: `{"type":"test","event":"ignored","name":"mod::slow"}`,
			want: types.TestEvent("mod::slow", types.TestStateIgnored),
		},
		{
			name: "test failed with stdout",
			line: `{"type":"test","event":"failed","name":"mod::f","stdout":"panic!"}`,
			want: types.FailedTestEvent("mod::f", "panic!"),
		},
		{
			name: "test failed without stdout",
			line: `{"type":"test","event":"failed","name":"mod::f"}`,
			want: types.FailedTestEvent("mod::f", ""),
		},
		{
			name: "suite",
			line: `{"type":"suite","event":"started","test_count":3}`,
			want: types.SuiteEvent(),
		},
		{
			name: "finished",
			line: `{"type":"finished"}`,
			want: types.FinishedEvent(),
		},
		{
			name: "plain human-readable text",
			line: "running 3 tests",
			want: types.CustomEvent("running 3 tests"),
		},
		{
			name: "empty line",
			line: "",
			want: types.CustomEvent(""),
		},
		{
			name: "malformed JSON",
			line: `{"type":"test","event":`,
			want: types.CustomEvent(`{"type":"test","event":`),
		},
		{
			name: "valid JSON with unknown type",
			line: `{"type":"bench","name":"mod::b"}`,
			want: types.CustomEvent(`{"type":"bench","name":"mod::b"}`),
		},
		{
			name: "test message with unknown event",
			line: `{"type":"test","event":"leaked","name":"mod::l"}`,
			want: types.CustomEvent(`{"type":"test","event":"leaked","name":"mod::l"}`),
		},
		{
			name: "test message without name",
			line: `{"type":"test","event":"started"}`,
			want: types.CustomEvent(`{"type":"test","event":"started"}`),
		},
		{
			name: "test message with empty name",
			line: `{"type":"test","event":"ok","name":""}`,
			want: types.TestEvent("", types.TestStateOk),
		},
		{
			name: "JSON null",
			line: "null",
			want: types.CustomEvent("null"),
		},
		{
			name: "JSON array",
			line: "[1,2,3]",
			want: types.CustomEvent("[1,2,3]"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var acc string
			got := parser.ParseLine(tt.line, &acc)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, acc, "known message shapes must not touch the accumulator")
		})
	}
}

func TestLineParser_ParseLine_LongTestName(t *testing.T) {
	parser := NewLineParser()

	// Deeply namespaced test paths must decode like any other name.
	name := strings.Repeat("outer::", 500) + "inner"
	line, err := json.Marshal(map[string]string{
		"type": "test", "event": "ok", "name": name,
	})
	require.NoError(t, err)

	var acc string
	got := parser.ParseLine(string(line), &acc)
	assert.Equal(t, types.TestEvent(name, types.TestStateOk), got)
}

func TestLineParser_AccumulatorSurvivesAcrossCalls(t *testing.T) {
	parser := NewLineParser()

	// The accumulator is caller-owned; parsing must not reset state a
	// caller stashed there between lines.
	acc := "partial"
	_ = parser.ParseLine(`{"type":"finished"}`, &acc)
	_ = parser.ParseLine("plain text", &acc)
	assert.Equal(t, "partial", acc)
}

func TestLineParser_ParseEOF(t *testing.T) {
	parser := NewLineParser()

	// The synthetic terminal marker fires unconditionally, even right after
	// an explicit finished line was seen.
	var acc string
	got := parser.ParseLine(`{"type":"finished"}`, &acc)
	assert.Equal(t, types.FinishedEvent(), got)
	assert.Equal(t, types.FinishedEvent(), parser.ParseEOF())
	assert.Equal(t, types.FinishedEvent(), parser.ParseEOF())
}
