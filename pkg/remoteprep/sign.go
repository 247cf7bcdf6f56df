package remoteprep

import (
	"fmt"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/dbgerr"
	"github.com/tracewell/remotedbg/pkg/registry"
)

// SigningPolicy decides whether a platform requires the uploaded artifact to
// be code-signed before launch. It is a strategy hook rather than a
// hard-coded branch so deployments can extend beyond the default
// iOS-requires-signing rule without touching remoteprep.
type SigningPolicy func(platform string) bool

// DefaultSigningPolicy requires signing only for iOS, matching the source
// system's current hard-coded behavior while leaving room for other
// platforms to opt out.
func DefaultSigningPolicy(platform string) bool {
	return platform == "ios"
}

// Sign runs the device's cached signing tool in ad-hoc mode on the
// just-uploaded file. If no signing tool is available and the platform
// requires one, it fails with Sign; the uploaded file is left in place
// (it will be overwritten on the next sync) and the caller releases the
// device.
func Sign(t Transport, d *registry.Device, remotePath, platform string, policy SigningPolicy) error {
	if policy == nil {
		policy = DefaultSigningPolicy
	}
	if !policy(platform) {
		return nil
	}

	if d.Platform.SigningTool == registry.SigningNone {
		return dbgerr.Newf(dbgerr.Sign, "remoteprep.sign",
			"platform %q requires code signing but device %s has no signing tool", platform, d.ID)
	}

	cmd := fmt.Sprintf("%s -S %q", d.Platform.SigningTool, remotePath)
	res, err := t.Exec(cmd)
	if err != nil {
		return dbgerr.New(dbgerr.Sign, "remoteprep.sign", err)
	}
	if res.ExitStatus != 0 {
		return dbgerr.Newf(dbgerr.Sign, "remoteprep.sign", "%s exited %d: %s", d.Platform.SigningTool, res.ExitStatus, res.Output)
	}

	obs.WithDevice(d.ID).WithField("tool", string(d.Platform.SigningTool)).Debug("remoteprep: artifact signed")
	return nil
}
