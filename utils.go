package acceptor

import (
	"github.com/cratekit/cargo-acceptor/types"
)

// stateString returns a marked string representing a test's terminal state
func stateString(state types.TestState) string {
	switch state {
	case types.TestStateOk:
		return "✓ ok"
	case types.TestStateIgnored:
		return "- ignored"
	case types.TestStateStarted:
		return "? started"
	default:
		return "✗ failed"
	}
}
