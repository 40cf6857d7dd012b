package runner

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/cratekit/cargo-acceptor/types"
)

const (
	// eventBuffer sizes the delivery channel so short bursts of output do
	// not stall the read loop on a slow consumer.
	eventBuffer = 128

	// maxLineSize caps a single output line. Failed-test stdout captures
	// arrive as one line and can be large.
	maxLineSize = 16 * 1024 * 1024
)

// commandHandle supervises one spawned test process. It owns the background
// goroutine that reads the process's stdout line by line, feeds every line
// through the parser, and forwards the resulting events in strict arrival
// order on the events channel. The channel is closed after the synthetic
// end-of-stream event has been forwarded.
type commandHandle struct {
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	events chan types.Event
	done   chan struct{}
	log    log.Logger

	closeOnce sync.Once
	wg        sync.WaitGroup
	waitErr   error
}

// startCommand spawns the described process and begins forwarding parsed
// events. Spawn failures (missing binary, permission denied, pipe setup) are
// reported synchronously here and produce no events; once startCommand
// returns successfully, every later anomaly is absorbed into the event
// stream.
func startCommand(cmd Command, parser LineParser, logger log.Logger) (*commandHandle, error) {
	proc := exec.Command(cmd.Binary, cmd.Args...)
	proc.Dir = cmd.Dir
	proc.Env = os.Environ()
	for k, v := range cmd.Env {
		proc.Env = append(proc.Env, k+"="+v)
	}

	var stderr bytes.Buffer
	proc.Stderr = &stderr

	stdout, err := proc.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := proc.Start(); err != nil {
		return nil, err
	}

	h := &commandHandle{
		cmd:    proc,
		stderr: &stderr,
		events: make(chan types.Event, eventBuffer),
		done:   make(chan struct{}),
		log:    logger,
	}
	h.wg.Add(1)
	go h.readLoop(stdout, parser)
	return h, nil
}

// readLoop is the background execution context of one run. It is the sole
// sender on h.events and closes the channel when it returns.
func (h *commandHandle) readLoop(stdout io.ReadCloser, parser LineParser) {
	defer h.wg.Done()

	var acc string
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	// Scan flushes an unterminated trailing partial line as a final token,
	// so the parser sees every byte the process wrote before EOF.
	for scanner.Scan() {
		if !h.forward(parser.ParseLine(scanner.Text(), &acc)) {
			// Consumer lost interest.
			break
		}
	}
	if err := scanner.Err(); err != nil {
		h.log.Debug("Reading test output failed", "error", err)
	}

	// The scan can stop before pipe EOF, either because the consumer went
	// away or because a line exceeded maxLineSize. Keep draining so a
	// process still writing is not blocked on a full pipe, which would
	// leave Wait stuck forever.
	_, _ = io.Copy(io.Discard, stdout)

	// Deterministic end marker, regardless of how the stream terminated.
	h.forward(parser.ParseEOF())
	close(h.events)

	h.waitErr = h.cmd.Wait()
	if h.waitErr != nil && h.stderr.Len() > 0 {
		h.log.Debug("Test process exited with error", "error", h.waitErr,
			"stderr", h.stderr.String())
	}
}

// forward delivers one event in order. It returns false once the handle has
// been closed, so the read loop can stop without panicking or deadlocking.
func (h *commandHandle) forward(ev types.Event) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// close signals that no further events are wanted. It does not terminate the
// underlying process.
func (h *commandHandle) close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// kill forcefully terminates the underlying process.
func (h *commandHandle) kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}

// wait blocks until the read loop has finished and the process has been
// reaped, returning the process's exit error, if any.
func (h *commandHandle) wait() error {
	h.wg.Wait()
	return h.waitErr
}
