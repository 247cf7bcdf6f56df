// Package ptydriver spawns a debugger process on a pseudo-terminal,
// negotiates the connect handshake, and drives it with line-structured
// prompt-boundary reads.
package ptydriver

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/dbgerr"
)

// PromptMarker is the syntactic token the debugger prints to signal "ready
// for next command"; ErrorMarker is the text it prints when a command or
// connect attempt fails. lldb is the only driven debugger in v1; a future platform
// hook would parameterize these per platform.
const (
	PromptMarker = "(lldb)"
	ErrorMarker  = "error:"
)

const (
	idlePollInterval = 100 * time.Millisecond
	idleQuietPeriod  = 300 * time.Millisecond
	requiredIdle     = 3 // idleQuietPeriod / idlePollInterval

	// DefaultReadTimeout bounds a single read-to-prompt call.
	DefaultReadTimeout = 30 * time.Second
	// DefaultConnectTimeout bounds the specialised read-to-connect-complete call.
	DefaultConnectTimeout = 30 * time.Second
)

// pseudoTerminal abstracts the pseudo-terminal master end so tests can drive the read
// loop with a fake (e.g. net.Pipe) instead of a real forked process.
type pseudoTerminal interface {
	io.Reader
	io.Writer
	SetReadDeadline(time.Time) error
	Close() error
}

// Driver controls a single debugger process over a pseudo-terminal.
type Driver struct {
	pty         pseudoTerminal
	cmd         *exec.Cmd
	ReadTimeout time.Duration

	mu     sync.Mutex
	exited chan struct{}
}

// Spawn forks debuggerPath onto a fresh pseudo-terminal with --no-lldbinit,
// which disables loading a user's ~/.lldbinit — user plugins loaded from it
// have been observed crashing the host process. The slave becomes the
// child's controlling terminal and its stdio; the parent keeps the master.
func Spawn(debuggerPath string) (*Driver, error) {
	cmd := exec.Command(debuggerPath, "--no-lldbinit")

	master, err := pty.Start(cmd)
	if err != nil {
		return nil, dbgerr.New(dbgerr.Driver, "ptydriver.spawn", fmt.Errorf("start %s: %w", debuggerPath, err))
	}

	d := &Driver{
		pty:         master,
		cmd:         cmd,
		ReadTimeout: DefaultReadTimeout,
		exited:      make(chan struct{}),
	}

	go func() {
		cmd.Wait()
		close(d.exited)
	}()

	obs.WithField("pid", cmd.Process.Pid).Debug("ptydriver: spawned debugger")
	return d, nil
}

// PID returns the debugger process id, or 0 if constructed without a real
// child process (test doubles).
func (d *Driver) PID() int {
	if d.cmd == nil || d.cmd.Process == nil {
		return 0
	}
	return d.cmd.Process.Pid
}

// hasExited reports whether the child process has already been reaped.
func (d *Driver) hasExited() bool {
	select {
	case <-d.exited:
		return true
	default:
		return false
	}
}

// Write appends a newline to command and writes it to the master, looping
// on short writes until the full buffer has landed.
func (d *Driver) Write(command string) error {
	payload := []byte(command + "\n")
	for len(payload) > 0 {
		n, err := d.pty.Write(payload)
		if err != nil {
			return dbgerr.New(dbgerr.Driver, "ptydriver.write", err)
		}
		payload = payload[n:]
	}
	return nil
}

// readLoop drains available bytes using a 100ms-tick readiness primitive
// until successCheck(accumulated) has been true for requiredIdle consecutive
// idle ticks, or timeout elapses. It returns whatever was accumulated even
// on timeout.
func (d *Driver) readLoop(successCheck func(string) bool, timeout time.Duration) string {
	var output []byte
	buf := make([]byte, 4096)
	deadline := time.Now().Add(timeout)
	idleTicks := 0

	for {
		if time.Now().After(deadline) {
			obs.Debug("ptydriver: read loop timed out")
			break
		}

		d.pty.SetReadDeadline(time.Now().Add(idlePollInterval))
		n, err := d.pty.Read(buf)
		if n > 0 {
			output = append(output, buf[:n]...)
			idleTicks = 0
		}
		if err != nil {
			if isTimeoutErr(err) {
				if successCheck(string(output)) {
					idleTicks++
					if idleTicks >= requiredIdle {
						break
					}
				}
				continue
			}
			// Real I/O error (e.g. the debugger exited and closed the slave).
			break
		}
	}

	return stripANSI(string(output))
}

func isTimeoutErr(err error) bool {
	type timeoutErr interface{ Timeout() bool }
	te, ok := err.(timeoutErr)
	return ok && te.Timeout()
}

// ReadToPrompt reads until the accumulated buffer contains PromptMarker and
// three consecutive idle ticks (~300ms of silence) have passed since.
func (d *Driver) ReadToPrompt(timeout time.Duration) string {
	if timeout <= 0 {
		timeout = d.ReadTimeout
	}
	return d.readLoop(func(s string) bool {
		return strings.Contains(s, PromptMarker)
	}, timeout)
}
