package ptydriver

import (
	"syscall"
	"time"

	"github.com/tracewell/remotedbg/internal/obs"
)

const (
	voluntaryExitWait = 2 * time.Second
	sigtermWait       = 3 * time.Second
)

// Terminate runs the four-stage shutdown: (1) write "quit", (2) wait up to
// 2s for voluntary exit, (3) if still alive send SIGTERM and wait up to 3s,
// (4) if still alive send SIGKILL and wait unbounded. The master fd is
// closed on every path, including if cmd is a test double with no real
// process.
func (d *Driver) Terminate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer d.pty.Close()

	if d.hasExited() {
		return
	}

	d.Write("quit")
	if d.waitExit(voluntaryExitWait) {
		return
	}

	if d.cmd != nil && d.cmd.Process != nil {
		obs.WithField("pid", d.PID()).Debug("ptydriver: sending SIGTERM")
		d.cmd.Process.Signal(syscall.SIGTERM)
	}
	if d.waitExit(sigtermWait) {
		return
	}

	if d.cmd != nil && d.cmd.Process != nil {
		obs.WithField("pid", d.PID()).Warn("ptydriver: sending SIGKILL")
		d.cmd.Process.Signal(syscall.SIGKILL)
	}
	d.waitExit(0) // unbounded: block until the child is reaped
}

// waitExit blocks until the child exits or timeout elapses (0 = unbounded),
// returning true if it exited within the window.
func (d *Driver) waitExit(timeout time.Duration) bool {
	if timeout == 0 {
		<-d.exited
		return true
	}
	select {
	case <-d.exited:
		return true
	case <-time.After(timeout):
		return false
	}
}
