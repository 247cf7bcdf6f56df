// Package registry holds the in-memory catalog of remote debug devices.
//
// Registry is a passive data structure: it exposes no internal locking.
// Reserve and Release must be externally serialized by the caller (the
// orchestrator's pool mutex). Reads return borrowed slices/pointers only
// while that mutex is held; callers that need to hold data across a
// blocking operation must take an owned copy first (see Snapshot).
package registry

import "time"

// SigningTool names the code-signing utility available on a device, if any.
type SigningTool string

const (
	SigningNone  SigningTool = "none"
	SigningLdid  SigningTool = "ldid"
	SigningJtool SigningTool = "jtool"
)

// Health reflects whether a device is currently considered safe to allocate.
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthError    Health = "error"
	HealthDisabled Health = "disabled"
)

// Capability is the best-effort, cached identity/capability record for a
// device, discovered during remote preparation step 2. Absence of a field
// means it could not be determined; it never blocks allocation.
type Capability struct {
	UDID        string
	Model       string
	OSVersion   string
	DisplayName string
	LastSeen    time.Time
}

// Runtime is the mutable allocation state of a device.
type Runtime struct {
	Available bool
	Holder    string // agent id; meaningful only when Available == false
	Since     time.Time
	Health    Health
}

// Platform is the one-time-initialized capability record for a device.
// Once Initialized is true it is immutable for the process lifetime.
type Platform struct {
	Initialized bool
	SigningTool SigningTool
}

// Device is a remote debug target.
type Device struct {
	ID               string
	Name             string
	Host             string
	SSHPort          int
	SSHUser          string
	DebugServerPort  int
	RemoteBinaryPath string
	Enabled          bool

	Capability *Capability // optional, may be nil
	Runtime    Runtime
	Platform   Platform
}

// Snapshot is an owned, point-in-time copy of a Device safe to read after
// the pool mutex has been released.
type Snapshot struct {
	ID               string
	Name             string
	Host             string
	SSHPort          int
	SSHUser          string
	DebugServerPort  int
	RemoteBinaryPath string
	Enabled          bool
	Capability       *Capability
	Runtime          Runtime
	Platform         Platform
}

// Snapshot copies d into an owned value.
func (d *Device) Snapshot() Snapshot {
	var cap *Capability
	if d.Capability != nil {
		c := *d.Capability
		cap = &c
	}
	return Snapshot{
		ID:               d.ID,
		Name:             d.Name,
		Host:             d.Host,
		SSHPort:          d.SSHPort,
		SSHUser:          d.SSHUser,
		DebugServerPort:  d.DebugServerPort,
		RemoteBinaryPath: d.RemoteBinaryPath,
		Enabled:          d.Enabled,
		Capability:       cap,
		Runtime:          d.Runtime,
		Platform:         d.Platform,
	}
}

// allocatable reports whether d can be handed to a new agent right now.
func (d *Device) allocatable() bool {
	return d.Enabled && d.Runtime.Available && d.Runtime.Health == HealthHealthy
}
