package orchestrator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tracewell/remotedbg/pkg/sshexec"
)

// fakeTransport is a scriptable sessionTransport used to drive remote
// preparation and teardown without a real SSH server. handlers are matched
// by substring against the command; the first match wins. "kill -0 PID" and
// "kill PID" are handled specially so a remote-kill compensation call makes
// the following liveness check report dead immediately, rather than forcing
// every teardown-exercising test to sit out killRemote's 3-second grace
// window.
type fakeTransport struct {
	handlers []fakeHandler
	calls    []string
	uploads  []string
	closed   bool

	mu     sync.Mutex
	killed map[string]bool
}

type fakeHandler struct {
	match  string
	result sshexec.Result
	err    error
}

func (f *fakeTransport) on(match string, output string, exitStatus int) {
	f.handlers = append(f.handlers, fakeHandler{match: match, result: sshexec.Result{Output: output, ExitStatus: exitStatus}})
}

func (f *fakeTransport) Exec(command string) (sshexec.Result, error) {
	f.calls = append(f.calls, command)

	f.mu.Lock()
	if f.killed == nil {
		f.killed = make(map[string]bool)
	}
	for pid := range f.killed {
		if strings.HasPrefix(command, "kill -0 "+pid) {
			f.mu.Unlock()
			return sshexec.Result{Output: "NO"}, nil
		}
	}
	if strings.HasPrefix(command, "kill ") {
		fields := strings.Fields(command)
		if len(fields) > 1 {
			f.killed[fields[1]] = true
		}
	}
	f.mu.Unlock()

	for _, h := range f.handlers {
		if strings.Contains(command, h.match) {
			return h.result, h.err
		}
	}
	return sshexec.Result{}, fmt.Errorf("fakeTransport: no handler for command %q", command)
}

func (f *fakeTransport) Upload(localPath, remotePath string) error {
	f.uploads = append(f.uploads, fmt.Sprintf("%s->%s", localPath, remotePath))
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

// healthyIOSFakeTransport simulates a jailbroken iOS device with ldid
// present, a debugserver that starts cleanly, and an immediate listen on
// the requested port.
func healthyIOSFakeTransport(port int) *fakeTransport {
	f := &fakeTransport{}
	f.on("[ -d /var/jb ]", "YES", 0)
	f.on("command -v debugserver", "YES", 0)
	f.on("command -v ldid", "YES", 0)
	f.on("command -v jtool", "NO", 0)
	f.on("ioreg", `"IOPlatformUUID" = "00008020-001234567890001E"`, 0)
	f.on("sw_vers", "17.4.1", 0)
	f.on("uname -m", "arm64", 0)
	f.on("ldid -S", "", 0)
	f.on("nohup debugserver", "4242", 0)
	f.on("kill -0 4242", "YES", 0)
	f.on(fmt.Sprintf("[.:]%d ", port), "tcp4  0  0  *.9000  *.*  LISTEN", 0)
	f.on("ps -o pid=,ppid=", "4300", 0)
	f.on("kill 4242", "", 0)
	f.on("kill 4300", "", 0)
	return f
}

// nonJailbrokenFakeTransport fails capability validation immediately, so
// Preparer.Prepare returns before ever launching a remote server — used to
// exercise the rollback path without waiting out the port-listen budget.
func nonJailbrokenFakeTransport() *fakeTransport {
	f := &fakeTransport{}
	f.on("[ -d /var/jb ]", "NO", 0)
	return f
}
