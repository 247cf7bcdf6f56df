package registry

import (
	"fmt"
	"time"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/dbgerr"
)

// Registry is the full device catalog. It is a passive data structure: all
// methods assume the caller holds whatever external lock serializes access
// (the orchestrator's pool mutex). Registry performs no locking itself.
type Registry struct {
	devices []*Device
	byID    map[string]*Device
}

// New builds a Registry from devices, in the given order. Order determines
// first-fit tie-breaking in Find. It validates that no two enabled devices
// share a DebugServerPort, grounded on the lesson that deriving debug-server
// ports from an unrelated subsystem invites silent collisions.
func New(devices []*Device) (*Registry, error) {
	r := &Registry{
		byID: make(map[string]*Device, len(devices)),
	}
	seenPorts := make(map[int]string)
	for _, d := range devices {
		if _, exists := r.byID[d.ID]; exists {
			return nil, dbgerr.Newf(dbgerr.Config, "registry.New", "duplicate device id %q", d.ID)
		}
		if d.Enabled {
			if owner, ok := seenPorts[d.DebugServerPort]; ok {
				return nil, dbgerr.Newf(dbgerr.Config, "registry.New",
					"device %q and %q both claim debug-server port %d", owner, d.ID, d.DebugServerPort)
			}
			seenPorts[d.DebugServerPort] = d.ID
		}
		if d.Runtime.Health == "" {
			d.Runtime.Health = HealthHealthy
		}
		if !d.Runtime.Available && d.Runtime.Holder == "" {
			d.Runtime.Available = true
		}
		r.devices = append(r.devices, d)
		r.byID[d.ID] = d
	}
	return r, nil
}

// Enumerate returns owned snapshots of every device, in registry order.
func (r *Registry) Enumerate() []Snapshot {
	out := make([]Snapshot, len(r.devices))
	for i, d := range r.devices {
		out[i] = d.Snapshot()
	}
	return out
}

// Lookup returns the live device by id, or nil. The returned pointer is a
// borrowed view valid only while the caller's external lock is held.
func (r *Registry) Lookup(id string) *Device {
	return r.byID[id]
}

// Find returns the first enabled, available, healthy device in insertion
// order, or nil if none qualifies.
func (r *Registry) Find() *Device {
	for _, d := range r.devices {
		if d.allocatable() {
			return d
		}
	}
	return nil
}

// Reserve marks d held by agentID. Caller must have verified d.allocatable()
// under the same critical section; Reserve does not re-check availability,
// so the compare-and-set contract is owned by the caller.
func (r *Registry) Reserve(d *Device, agentID string) {
	d.Runtime.Available = false
	d.Runtime.Holder = agentID
	d.Runtime.Since = time.Now()
	obs.WithDevice(d.ID).WithField("agent", agentID).Debug("device reserved")
}

// Release returns d to the pool.
func (r *Registry) Release(d *Device) {
	prevHolder := d.Runtime.Holder
	d.Runtime.Available = true
	d.Runtime.Holder = ""
	d.Runtime.Since = time.Now()
	obs.WithDevice(d.ID).WithField("agent", prevHolder).Debug("device released")
}

// SetHealth updates the runtime health of a device.
func (r *Registry) SetHealth(d *Device, h Health) {
	d.Runtime.Health = h
}

// MarkInitialized records the one-time platform probe result. Calling it a
// second time is a programmer error since the platform record must be
// immutable after first initialization, so it is a no-op once set.
func (r *Registry) MarkInitialized(d *Device, tool SigningTool) {
	if d.Platform.Initialized {
		return
	}
	d.Platform.Initialized = true
	d.Platform.SigningTool = tool
}

// SetCapability stores the best-effort identity/capability record.
func (r *Registry) SetCapability(d *Device, cap Capability) {
	cap.LastSeen = time.Now()
	d.Capability = &cap
}

// String renders a short diagnostic identifier for a device, useful in log
// fields and error diagnostics.
func (d *Device) String() string {
	return fmt.Sprintf("%s(%s@%s:%d)", d.ID, d.SSHUser, d.Host, d.SSHPort)
}
