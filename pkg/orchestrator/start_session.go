package orchestrator

import (
	"context"
	"time"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/dbgerr"
	"github.com/tracewell/remotedbg/pkg/registry"
	"github.com/tracewell/remotedbg/pkg/remoteprep"
	"github.com/tracewell/remotedbg/pkg/sessionaudit"
)

// Infinite, passed as timeout, makes StartSession wait on the queue forever.
// Callers should prefer a finite timeout in practice; waiting forever is
// expected behavior, not a bug, when every device is permanently disabled.
const Infinite time.Duration = -1

// StartSession reserves a device — immediately if one is free, or after
// waiting in strict FIFO order otherwise — then pipelines Remote Preparation
// and the Local Debugger Driver. On any failure at any stage, every resource
// created so far is released and the device returns to the pool.
func (o *Orchestrator) StartSession(ctx context.Context, agentID, requestID string, timeout time.Duration) (string, error) {
	d, err := o.acquireDevice(agentID, requestID, timeout)
	if err != nil {
		o.audit(sessionaudit.NewEvent(agentID, sessionaudit.OpSessionStart).WithError(err))
		return "", err
	}

	sessionID, err := o.prepareAndConnect(ctx, agentID, d)
	if err != nil {
		o.audit(sessionaudit.NewEvent(agentID, sessionaudit.OpSessionStart).WithDevice(d.ID).WithError(err))
		return "", err
	}

	o.audit(sessionaudit.NewEvent(agentID, sessionaudit.OpSessionStart).WithDevice(d.ID).WithSession(sessionID).WithSuccess())
	return sessionID, nil
}

// acquireDevice implements the fair allocation algorithm: reserve
// immediately if free, else park on the FIFO queue until woken with a
// device already reserved to this agent, or time out.
func (o *Orchestrator) acquireDevice(agentID, requestID string, timeout time.Duration) (*registry.Device, error) {
	o.poolMu.Lock()
	if d := o.registry.Find(); d != nil {
		o.registry.Reserve(d, agentID)
		o.allocating[agentID] = d.ID
		o.poolMu.Unlock()
		return d, nil
	}

	if timeout == 0 {
		o.poolMu.Unlock()
		return nil, dbgerr.New(dbgerr.Timeout, "orchestrator.start_session", errNoDeviceFree)
	}

	entry := newQueueEntry(agentID, requestID)
	o.queue = append(o.queue, entry)
	o.poolMu.Unlock()

	d, err := o.waitForDevice(entry, timeout)
	if err != nil {
		return nil, err
	}

	o.poolMu.Lock()
	o.allocating[agentID] = d.ID
	o.poolMu.Unlock()
	return d, nil
}

func (o *Orchestrator) waitForDevice(entry *queueEntry, timeout time.Duration) (*registry.Device, error) {
	if timeout == Infinite {
		return <-entry.assigned, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case d := <-entry.assigned:
		return d, nil
	case <-timer.C:
		o.poolMu.Lock()
		remaining, found := removeEntry(o.queue, entry)
		if found {
			o.queue = remaining
			o.poolMu.Unlock()
			return nil, dbgerr.New(dbgerr.Timeout, "orchestrator.start_session", errQueueTimeout)
		}
		// Not in the queue: either wakeNext popped this entry and its send
		// into the buffered channel completed before we acquired the lock, or
		// CleanupAgent spliced it out without assigning a device.
		o.poolMu.Unlock()
		select {
		case d := <-entry.assigned:
			return d, nil
		default:
			return nil, dbgerr.New(dbgerr.Timeout, "orchestrator.start_session", errQueueTimeout)
		}
	}
}

// prepareAndConnect runs Remote Preparation then spawns and connects the
// Local Debugger Driver, rolling back everything on any failure.
func (o *Orchestrator) prepareAndConnect(ctx context.Context, agentID string, d *registry.Device) (string, error) {
	rollback := func(err error) (string, error) {
		o.poolMu.Lock()
		delete(o.allocating, agentID)
		o.poolMu.Unlock()
		o.releaseDevice(d)
		return "", err
	}

	transport, err := o.dialer.Dial(d)
	if err != nil {
		return rollback(err)
	}
	defer transport.Close()

	artifactPath, err := o.Artifacts.PathForAgent(agentID)
	if err != nil {
		return rollback(dbgerr.New(dbgerr.Config, "orchestrator.start_session", err))
	}

	outcome, err := o.preparer.Prepare(ctx, o.registry, d, transport, artifactPath)
	if err != nil {
		return rollback(err)
	}

	driver, err := o.spawner.Spawn(o.DebuggerPath)
	if err != nil {
		remoteprep.Teardown(transport, outcome.Launch)
		return rollback(err)
	}

	if err := driver.Connect(d.Host, d.DebugServerPort); err != nil {
		driver.Terminate()
		remoteprep.Teardown(transport, outcome.Launch)
		return rollback(err)
	}

	sess := &Session{
		ID:        o.nextSessionID(),
		AgentID:   agentID,
		DeviceID:  d.ID,
		State:     StateReady,
		Remote:    true,
		CreatedAt: time.Now(),
		driver:    driver,
		launch:    outcome.Launch,
	}

	o.sessionMu.Lock()
	o.sessions[sess.ID] = sess
	o.sessionMu.Unlock()

	o.poolMu.Lock()
	delete(o.allocating, agentID)
	o.poolMu.Unlock()

	obs.WithSession(sess.ID).WithDevice(d.ID).WithAgent(agentID).Info("orchestrator: session ready")
	return sess.ID, nil
}
