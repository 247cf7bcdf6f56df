package orchestrator

import (
	"time"

	"github.com/tracewell/remotedbg/pkg/ptydriver"
)

// Driver is the subset of *ptydriver.Driver the orchestrator depends on,
// narrowed to an interface so tests can inject a fake debugger without a
// real pseudo-terminal or lldb binary.
type Driver interface {
	Connect(host string, port int) error
	Write(command string) error
	ReadToPrompt(timeout time.Duration) string
	ConvertAddress(staticBase, idaAddress uint64) (ptydriver.AddressTranslation, error)
	Terminate()
	PID() int
}

var _ Driver = (*ptydriver.Driver)(nil)

// DriverSpawner spawns a Driver bound to a fresh local debugger process.
type DriverSpawner interface {
	Spawn(debuggerPath string) (Driver, error)
}

// realDriverSpawner forks the actual debugger binary onto a pseudo-terminal.
type realDriverSpawner struct{}

func (realDriverSpawner) Spawn(debuggerPath string) (Driver, error) {
	return ptydriver.Spawn(debuggerPath)
}
