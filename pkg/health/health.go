// Package health runs a periodic SSH liveness check against every enabled
// device and feeds the result back into the registry's health field, so a device
// that drops off the network stops being offered to new sessions without
// waiting for a session attempt to fail against it first.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/registry"
)

// Status is the outcome of a single device check.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusUnknown  Status = "unknown"
)

// Result is one device's check outcome.
type Result struct {
	Device    string
	Status    Status
	Message   string
	Duration  time.Duration
	Timestamp time.Time
}

// Prober opens a short-lived connection to a device and runs a trivial
// command, purely to establish liveness. It is satisfied by SSHProber in
// this package; kept as its own narrow interface so pkg/health has no
// dependency on pkg/orchestrator.
type Prober interface {
	Probe(d *registry.Device) error
}

// Checker periodically probes every enabled device in reg and reflects the
// outcome into reg via SetHealth. A device currently held by an agent is
// still probed (reads are cheap and non-exclusive), but a Critical result
// only ever gates future allocation — it never evicts a live session.
type Checker struct {
	Registry *registry.Registry
	Prober   Prober
	Interval time.Duration

	// PoolMu, when set, is locked around each registry read/write so the
	// checker can run concurrently with the orchestrator's pool mutex
	// discipline rather than assuming exclusive access to reg.
	PoolMu Locker

	results chan Result
}

// Locker is the subset of sync.Mutex the checker needs; accepting it as an
// interface avoids importing sync.Mutex by value (which cannot be shared).
type Locker interface {
	Lock()
	Unlock()
}

// NewChecker builds a Checker with a buffered result-event channel that
// callers may drain for logging or an audit trail; unread results are
// dropped rather than blocking the poll loop.
func NewChecker(reg *registry.Registry, prober Prober, poolMu Locker, interval time.Duration) *Checker {
	return &Checker{
		Registry: reg,
		Prober:   prober,
		Interval: interval,
		PoolMu:   poolMu,
		results:  make(chan Result, 64),
	}
}

// Results returns the channel of check outcomes, for a logging or audit
// consumer to drain.
func (c *Checker) Results() <-chan Result {
	return c.results
}

// Run polls every enabled device every Interval until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	c.pollOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.pollOnce()
		}
	}
}

func (c *Checker) pollOnce() {
	c.PoolMu.Lock()
	snapshots := c.Registry.Enumerate()
	c.PoolMu.Unlock()

	for _, snap := range snapshots {
		if !snap.Enabled {
			continue
		}
		result := c.checkOne(snap)
		obs.WithDevice(snap.ID).WithField("status", string(result.Status)).Debug("health: checked device")

		c.PoolMu.Lock()
		if d := c.Registry.Lookup(snap.ID); d != nil {
			c.Registry.SetHealth(d, statusToHealth(result.Status))
		}
		c.PoolMu.Unlock()

		select {
		case c.results <- result:
		default:
		}
	}
}

func (c *Checker) checkOne(snap registry.Snapshot) Result {
	start := time.Now()
	d := &registry.Device{ID: snap.ID, Host: snap.Host, SSHPort: snap.SSHPort, SSHUser: snap.SSHUser}

	err := c.Prober.Probe(d)
	result := Result{Device: snap.ID, Duration: time.Since(start), Timestamp: time.Now()}
	if err != nil {
		result.Status = StatusCritical
		result.Message = fmt.Sprintf("probe failed: %v", err)
		return result
	}
	result.Status = StatusOK
	result.Message = "reachable"
	return result
}

func statusToHealth(s Status) registry.Health {
	switch s {
	case StatusOK, StatusWarning:
		return registry.HealthHealthy
	default:
		return registry.HealthError
	}
}
