package runner

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/cratekit/cargo-acceptor/types"
)

// RunHandle owns one test run: the spawned process, its background read
// loop, and the sending side of the event channel. Handles are independent;
// concurrently started runs share no mutable state.
type RunHandle struct {
	runID  string
	cmd    Command
	handle *commandHandle
}

// StartRun spawns the built command and returns a handle immediately; it
// never blocks on run completion. A spawn failure is returned synchronously
// and produces no events. On success the returned handle's channel delivers
// one event per output line, in arrival order, terminated by an
// EventFinished and channel close.
func StartRun(cmd Command, logger log.Logger) (*RunHandle, error) {
	runID := uuid.New().String()
	logger = logger.New("run_id", runID)
	logger.Debug("Starting test run", "command", cmd.String(), "dir", cmd.Dir)

	handle, err := startCommand(cmd, NewLineParser(), logger)
	if err != nil {
		return nil, err
	}
	return &RunHandle{runID: runID, cmd: cmd, handle: handle}, nil
}

// RunID identifies this run in logs, metrics and file sinks.
func (h *RunHandle) RunID() string {
	return h.runID
}

// Command returns the invocation this run was started with.
func (h *RunHandle) Command() Command {
	return h.cmd
}

// Events returns the receiving side of the run's event channel. The channel
// is closed once the synthetic EventFinished has been delivered.
func (h *RunHandle) Events() <-chan types.Event {
	return h.handle.events
}

// Close signals that no further events are wanted and stops forwarding. It
// does not terminate the underlying process; use Kill for that.
func (h *RunHandle) Close() {
	h.handle.close()
}

// Kill forcefully terminates the underlying process.
func (h *RunHandle) Kill() error {
	return h.handle.kill()
}

// Wait blocks until the event stream has been fully forwarded and the
// process has exited, returning the process's exit error. Note that a
// non-zero exit is normal for runs with failing tests; test outcomes are
// carried by the events, not the exit code.
func (h *RunHandle) Wait() error {
	return h.handle.wait()
}
