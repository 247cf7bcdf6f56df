package orchestrator

import (
	"time"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/remoteprep"
	"github.com/tracewell/remotedbg/pkg/sessionaudit"
)

// teardownSession tears down the local driver, best-effort kills the remote
// debug-server and debugged processes, and releases the device back to the
// pool, waking the next queued waiter if any. Every remote step is
// best-effort: a failure here never prevents the device from being released,
// since a stuck remote process must not permanently strand a device.
func (o *Orchestrator) teardownSession(sess *Session) error {
	sess.driver.Terminate()

	o.poolMu.Lock()
	d := o.registry.Lookup(sess.DeviceID)
	o.poolMu.Unlock()

	if d != nil {
		transport, err := o.dialer.Dial(d)
		if err == nil {
			remoteprep.Teardown(transport, sess.launch)
			transport.Close()
		} else {
			obs.Warnf("orchestrator: could not dial device %s to tear down session %s: %v", sess.DeviceID, sess.ID, err)
		}
		o.releaseDevice(d)
	}

	return nil
}

// StopSession ends a session the agent owns. A second call on an
// already-removed session returns dbgerr.NotFound, making Stop idempotent.
func (o *Orchestrator) StopSession(sessionID, agentID string) error {
	sess, err := o.lookupSession(sessionID, agentID)
	if err != nil {
		return err
	}

	o.sessionMu.Lock()
	delete(o.sessions, sessionID)
	o.sessionMu.Unlock()

	start := time.Now()
	teardownErr := o.teardownSession(sess)
	evt := sessionaudit.NewEvent(agentID, sessionaudit.OpSessionStop).
		WithSession(sessionID).WithDevice(sess.DeviceID).WithDuration(time.Since(start))
	if teardownErr != nil {
		evt = evt.WithError(teardownErr)
	} else {
		evt = evt.WithSuccess()
	}
	o.audit(evt)
	return teardownErr
}

// CleanupAgent tears down every session owned by agentID, as Stop would, and
// additionally releases any device reserved mid-allocation with no session
// yet, and removes the agent from the wait queue.
func (o *Orchestrator) CleanupAgent(agentID string) error {
	o.sessionMu.Lock()
	var owned []*Session
	for id, sess := range o.sessions {
		if sess.AgentID == agentID {
			owned = append(owned, sess)
			delete(o.sessions, id)
		}
	}
	o.sessionMu.Unlock()

	for _, sess := range owned {
		start := time.Now()
		err := o.teardownSession(sess)
		evt := sessionaudit.NewEvent(agentID, sessionaudit.OpSessionCrashCleanup).
			WithSession(sess.ID).WithDevice(sess.DeviceID).WithDuration(time.Since(start))
		if err != nil {
			evt = evt.WithError(err)
		} else {
			evt = evt.WithSuccess()
		}
		o.audit(evt)
	}

	o.poolMu.Lock()
	deviceID, wasAllocating := o.allocating[agentID]
	delete(o.allocating, agentID)
	o.queue = removeByAgent(o.queue, agentID)
	o.poolMu.Unlock()

	if wasAllocating {
		o.poolMu.Lock()
		d := o.registry.Lookup(deviceID)
		o.poolMu.Unlock()
		if d != nil {
			o.releaseDevice(d)
		}
		o.audit(sessionaudit.NewEvent(agentID, sessionaudit.OpSessionCrashCleanup).WithDevice(deviceID).WithSuccess())
	}

	return nil
}
