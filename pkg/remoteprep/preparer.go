package remoteprep

import (
	"context"
	"fmt"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/registry"
)

// PlatformIOS is the platform identifier passed to SigningPolicy. v1 only
// targets jailbroken iOS, but the hook keeps the door open for others.
const PlatformIOS = "ios"

// Preparer runs the five-step remote preparation sequence.
type Preparer struct {
	SigningPolicy SigningPolicy
	CapCache      registry.CapCache
}

// NewPreparer returns a Preparer with the default signing policy. cache may
// be nil, in which case identity discovery is never skipped.
func NewPreparer(cache registry.CapCache) *Preparer {
	return &Preparer{SigningPolicy: DefaultSigningPolicy, CapCache: cache}
}

// Outcome carries everything the orchestrator needs to drive the debugger
// and, later, tear the session down.
type Outcome struct {
	Launch LaunchResult
}

// Prepare runs steps 1-5 against reg/d using t, uploading localArtifactPath
// to d.RemoteBinaryPath. On any step's failure it compensates: if step 5 had
// already started a server process, it is killed; earlier steps need no
// compensation beyond the caller releasing the device, since no local state
// exists before step 5 succeeds.
func (p *Preparer) Prepare(ctx context.Context, reg *registry.Registry, d *registry.Device, t Transport, localArtifactPath string) (Outcome, error) {
	log := obs.WithDevice(d.ID)

	if err := ValidateCapability(t, reg, d); err != nil {
		log.Warnf("remoteprep: capability validation failed: %v", err)
		return Outcome{}, err
	}

	DiscoverIdentity(ctx, t, reg, p.CapCache, d)

	if err := SyncArtifact(t, localArtifactPath, d.RemoteBinaryPath); err != nil {
		log.Warnf("remoteprep: artifact sync failed: %v", err)
		return Outcome{}, err
	}

	if err := Sign(t, d, d.RemoteBinaryPath, PlatformIOS, p.SigningPolicy); err != nil {
		log.Warnf("remoteprep: signing failed: %v", err)
		return Outcome{}, err
	}

	launched, err := Launch(t, d.RemoteBinaryPath, d.DebugServerPort)
	if err != nil {
		log.Warnf("remoteprep: launch failed: %v", err)
		return Outcome{}, err
	}

	log.WithField("server_pid", launched.ServerPID).Info("remoteprep: preparation complete")
	return Outcome{Launch: launched}, nil
}

// String is used in diagnostics and log fields.
func (o Outcome) String() string {
	return fmt.Sprintf("server_pid=%d child_pid=%d", o.Launch.ServerPID, o.Launch.ChildPID)
}
