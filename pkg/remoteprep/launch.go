package remoteprep

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/dbgerr"
)

// portPollBudget and portPollInterval are vars, not consts, so tests can
// shrink them to keep the readiness-gate timeout path fast.
var (
	portPollBudget   = 5 * time.Second
	portPollInterval = 200 * time.Millisecond
)

const logTailLines = 20

// LaunchResult carries the pids needed for later compensation/termination.
type LaunchResult struct {
	ServerPID  int
	ChildPID   int // best-effort debugged-process pid; 0 if unknown
	RemotePath string
	LogPath    string
}

// Launch issues a single backgrounded debugserver command, verifies the
// reported pid is actually running (a common failure mode is the server
// exiting immediately on a signing or path error), and then polls — via a
// remote netstat check, never a local TCP probe — for the port entering
// LISTEN state within portPollBudget.
//
// Connecting locally to the port would consume the debug-server's single
// accept slot and break the subsequent debugger attach; the remote check is
// a correctness requirement, not a performance choice.
func Launch(t Transport, remotePath string, port int) (LaunchResult, error) {
	logPath := fmt.Sprintf("/tmp/debugserver-%d.log", port)
	startCmd := fmt.Sprintf(`nohup debugserver 0.0.0.0:%d %q > %s 2>&1 & echo $!`, port, remotePath, logPath)

	res, err := t.Exec(startCmd)
	if err != nil {
		return LaunchResult{}, dbgerr.New(dbgerr.ServerLaunch, "remoteprep.launch", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(res.Output))
	if err != nil {
		return LaunchResult{}, dbgerr.Newf(dbgerr.ServerLaunch, "remoteprep.launch",
			"could not parse debugserver pid from %q", res.Output)
	}

	if !isRunning(t, pid) {
		tail := fetchLogTail(t, logPath)
		return LaunchResult{}, dbgerr.New(dbgerr.ServerLaunch, "remoteprep.launch",
			fmt.Errorf("debugserver pid %d exited immediately after launch", pid)).WithDiagnostic(tail)
	}

	if err := waitForListen(t, port); err != nil {
		tail := fetchLogTail(t, logPath)
		killRemote(t, pid)
		return LaunchResult{}, dbgerr.New(dbgerr.ServerLaunch, "remoteprep.launch", err).WithDiagnostic(tail)
	}

	childPID := discoverChildPID(t, pid)

	obs.WithField("port", port).WithField("pid", pid).Info("remoteprep: debug-server listening")
	return LaunchResult{ServerPID: pid, ChildPID: childPID, RemotePath: remotePath, LogPath: logPath}, nil
}

func isRunning(t Transport, pid int) bool {
	res, err := t.Exec(fmt.Sprintf("kill -0 %d 2>/dev/null && echo YES || echo NO", pid))
	return err == nil && strings.Contains(res.Output, "YES")
}

func waitForListen(t Transport, port int) error {
	deadline := time.Now().Add(portPollBudget)
	cmd := fmt.Sprintf("netstat -an 2>/dev/null | grep LISTEN | grep '[.:]%d '", port)

	for {
		res, err := t.Exec(cmd)
		if err == nil && strings.TrimSpace(res.Output) != "" {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("port %d did not enter LISTEN state within %s", port, portPollBudget)
		}
		time.Sleep(portPollInterval)
	}
}

// discoverChildPID best-effort parses the debugged process as a child of
// serverPID from `ps -o pid=,ppid= -A` filtered on the parent pid. Failure to parse is never fatal — the pid is
// used only for cleanup book-keeping.
func discoverChildPID(t Transport, serverPID int) int {
	res, err := t.Exec(fmt.Sprintf("ps -o pid=,ppid= -A | awk '$2 == %d {print $1}'", serverPID))
	if err != nil {
		return 0
	}
	line := strings.TrimSpace(strings.SplitN(res.Output, "\n", 2)[0])
	pid, err := strconv.Atoi(line)
	if err != nil {
		return 0
	}
	return pid
}

func fetchLogTail(t Transport, logPath string) string {
	res, err := t.Exec(fmt.Sprintf("tail -n %d %s 2>/dev/null", logTailLines, logPath))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(res.Output)
}

// killRemote sends SIGTERM then, after a short grace period, SIGKILL to pid
// on the remote device. Every step is best-effort: a failure to kill
// remotely is logged but never blocks local cleanup.
func killRemote(t Transport, pid int) {
	if pid == 0 {
		return
	}
	if _, err := t.Exec(fmt.Sprintf("kill %d 2>/dev/null; exit 0", pid)); err != nil {
		obs.WithField("pid", pid).Warnf("remoteprep: SIGTERM failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !isRunning(t, pid) {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}

	if _, err := t.Exec(fmt.Sprintf("kill -9 %d 2>/dev/null; exit 0", pid)); err != nil {
		obs.WithField("pid", pid).Warnf("remoteprep: SIGKILL failed: %v", err)
	}
}

// Teardown kills both the server and (if known) the debugged child process.
// Used both as step-5 compensation and by the orchestrator's stop path.
func Teardown(t Transport, r LaunchResult) {
	killRemote(t, r.ServerPID)
	if r.ChildPID != 0 {
		killRemote(t, r.ChildPID)
	}
}
