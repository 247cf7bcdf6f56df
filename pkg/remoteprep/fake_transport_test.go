package remoteprep

import (
	"fmt"
	"strings"

	"github.com/tracewell/remotedbg/pkg/sshexec"
)

// fakeTransport is a scriptable Transport used to test step ordering and
// compensation without a real SSH server. handlers are matched by substring
// against the command; the first match wins.
type fakeTransport struct {
	handlers []fakeHandler
	calls    []string
	uploads  []string
}

type fakeHandler struct {
	match  string
	result sshexec.Result
	err    error
}

func (f *fakeTransport) on(match string, output string, exitStatus int) {
	f.handlers = append(f.handlers, fakeHandler{match: match, result: sshexec.Result{Output: output, ExitStatus: exitStatus}})
}

func (f *fakeTransport) onError(match string, err error) {
	f.handlers = append(f.handlers, fakeHandler{match: match, err: err})
}

func (f *fakeTransport) Exec(command string) (sshexec.Result, error) {
	f.calls = append(f.calls, command)
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

// healthyIOSFakeTransport returns a fakeTransport wired to simulate a
// jailbroken iOS device with ldid present, a debugserver that starts
// cleanly, and an immediate listen on the requested port.
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
	return f
}
