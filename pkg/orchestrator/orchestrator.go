package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/collab"
	"github.com/tracewell/remotedbg/pkg/dbgerr"
	"github.com/tracewell/remotedbg/pkg/health"
	"github.com/tracewell/remotedbg/pkg/registry"
	"github.com/tracewell/remotedbg/pkg/remoteprep"
	"github.com/tracewell/remotedbg/pkg/sessionaudit"
)

// DefaultDebuggerPath is the local debugger binary spawned for every
// session, overridable via Orchestrator.DebuggerPath.
const DefaultDebuggerPath = "lldb"

// Orchestrator is the single process-wide value encapsulating the device
// registry and the session table, with explicit init/shutdown. Construct
// with New, and call Shutdown to tear down every live session before
// discarding it.
type Orchestrator struct {
	DebuggerPath string
	Artifacts    collab.ArtifactProvider
	StaticImage  collab.StaticImageProvider
	Audit        sessionaudit.Logger

	registry *registry.Registry
	preparer *remoteprep.Preparer
	dialer   TransportDialer
	spawner  DriverSpawner
	creds    collab.CredentialProvider
	cache    registry.CapCache

	// poolMu guards the device list (via registry), the wait queue, and the
	// allocating map. It is never held across blocking I/O.
	poolMu     sync.Mutex
	queue      []*queueEntry
	allocating map[string]string // agentID -> deviceID, cleared once a Session exists or rolls back

	// sessionMu guards the session table. It is never held across blocking
	// I/O and never acquired while poolMu is held.
	sessionMu sync.Mutex
	sessions  map[string]*Session

	idCounter uint64
}

// New builds an Orchestrator over reg. dialer and spawner are the
// production SSH/PTY implementations unless overridden for tests.
func New(reg *registry.Registry, creds collab.CredentialProvider, cache registry.CapCache) *Orchestrator {
	return &Orchestrator{
		DebuggerPath: DefaultDebuggerPath,
		Audit:        sessionaudit.NopLogger{},

		registry:   reg,
		preparer:   remoteprep.NewPreparer(cache),
		dialer:     sshDialer{creds: creds},
		spawner:    realDriverSpawner{},
		creds:      creds,
		cache:      cache,
		allocating: make(map[string]string),
		sessions:   make(map[string]*Session),
	}
}

// StartHealthChecks launches a background device liveness poller sharing
// the pool mutex's locking discipline, returning the Checker so callers can
// consume Results() for logging or an audit trail. It stops when ctx is
// cancelled.
func (o *Orchestrator) StartHealthChecks(ctx context.Context, interval time.Duration) *health.Checker {
	checker := health.NewChecker(o.registry, health.SSHProber{Creds: o.creds}, &o.poolMu, interval)
	go checker.Run(ctx)
	return checker
}

func (o *Orchestrator) nextSessionID() string {
	n := atomic.AddUint64(&o.idCounter, 1)
	return fmt.Sprintf("sess-%d", n)
}

func (o *Orchestrator) audit(event *sessionaudit.Event) {
	if o.Audit == nil {
		return
	}
	if err := o.Audit.Log(event); err != nil {
		obs.Warnf("orchestrator: audit log failed: %v", err)
	}
}

// wakeNext hands the just-freed device to the front of the queue, reserving
// it for that waiter, or releases it back to the registry when the queue is
// empty. Caller must hold poolMu.
func (o *Orchestrator) wakeNext(d *registry.Device) {
	if len(o.queue) == 0 {
		o.registry.Release(d)
		return
	}
	front := o.queue[0]
	o.queue = o.queue[1:]
	o.registry.Reserve(d, front.agentID)
	front.assigned <- d
}

// releaseDevice returns d to the pool, handing it directly to the next
// queued waiter if one exists. Caller must NOT hold poolMu.
func (o *Orchestrator) releaseDevice(d *registry.Device) {
	o.poolMu.Lock()
	defer o.poolMu.Unlock()
	o.wakeNext(d)
}

// Devices returns a point-in-time snapshot of every registered device, for
// inspection tooling.
func (o *Orchestrator) Devices() []registry.Snapshot {
	return o.registry.Enumerate()
}

// Sessions returns a point-in-time copy of every live session, for
// inspection tooling. The returned Sessions share no mutable state with the
// orchestrator's table.
func (o *Orchestrator) Sessions() []Session {
	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()
	out := make([]Session, 0, len(o.sessions))
	for _, sess := range o.sessions {
		out = append(out, Session{
			ID:        sess.ID,
			AgentID:   sess.AgentID,
			DeviceID:  sess.DeviceID,
			State:     sess.State,
			Remote:    sess.Remote,
			CreatedAt: sess.CreatedAt,
		})
	}
	return out
}

// Shutdown actively tears down every live session; it does not rely on
// process-exit semantics for cleanup.
func (o *Orchestrator) Shutdown() {
	o.sessionMu.Lock()
	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	o.sessionMu.Unlock()

	for _, id := range ids {
		o.sessionMu.Lock()
		sess := o.sessions[id]
		o.sessionMu.Unlock()
		if sess == nil {
			continue
		}
		if err := o.teardownSession(sess); err != nil {
			obs.Warnf("orchestrator: shutdown teardown of %s failed: %v", id, err)
		}
	}

	if closer, ok := o.cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			obs.Warnf("orchestrator: cap cache close failed: %v", err)
		}
	}
}

// lookupSession returns the session and nil on success; dbgerr.NotFound if
// absent; dbgerr.Forbidden if agentID does not own it.
func (o *Orchestrator) lookupSession(sessionID, agentID string) (*Session, error) {
	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()

	sess, ok := o.sessions[sessionID]
	if !ok {
		return nil, dbgerr.Newf(dbgerr.NotFound, "orchestrator.lookup", "session %q not found", sessionID)
	}
	if sess.AgentID != agentID {
		return nil, dbgerr.Newf(dbgerr.Forbidden, "orchestrator.lookup", "session %q is not owned by %q", sessionID, agentID)
	}
	return sess, nil
}
