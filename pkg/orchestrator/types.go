// Package orchestrator is the coordination hub: a fair FIFO waiting queue,
// atomic device reservation, session lifecycle state, crash cleanup, and
// address translation, composed on top of pkg/registry, pkg/sshexec,
// pkg/remoteprep, and pkg/ptydriver.
package orchestrator

import (
	"time"

	"github.com/tracewell/remotedbg/pkg/remoteprep"
)

// State is a position in a session's lifecycle.
type State string

const (
	StateAllocating State = "allocating"
	StatePreparing  State = "preparing"
	StateConnecting State = "connecting"
	StateReady      State = "ready"
	StateExecuting  State = "executing"
	StateStopping   State = "stopping"
	StateClosed     State = "closed"
)

// Session is an active debugger attachment: one agent bound to one device
// through a local driver and a remote debug-server. Remote is always true
// in v1; the field exists because the original design admits non-remote
// sessions a future platform could add.
type Session struct {
	ID        string
	AgentID   string
	DeviceID  string
	State     State
	Remote    bool
	CreatedAt time.Time

	driver Driver
	launch remoteprep.LaunchResult
}
