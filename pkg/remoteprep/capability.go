package remoteprep

import (
	"fmt"
	"strings"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/dbgerr"
	"github.com/tracewell/remotedbg/pkg/registry"
)

const (
	jailbreakCheckCmd   = `[ -d /var/jb ] || [ -d /var/lib/dpkg ] && echo YES || echo NO`
	debugserverCheckFmt = `command -v %s >/dev/null 2>&1 && echo YES || echo NO`
)

func checkYes(t Transport, cmd string) (bool, error) {
	res, err := t.Exec(cmd)
	if err != nil {
		return false, err
	}
	return strings.Contains(res.Output, "YES"), nil
}

// ValidateCapability runs once per device (guarded by d.Platform.Initialized).
// It checks for the jailbreak marker, debugserver on PATH, and a code-signing
// tool, failing with Unsupported naming the first missing capability.
func ValidateCapability(t Transport, reg *registry.Registry, d *registry.Device) error {
	if d.Platform.Initialized {
		return nil
	}

	jailbroken, err := checkYes(t, jailbreakCheckCmd)
	if err != nil {
		return dbgerr.New(dbgerr.Network, "remoteprep.validate_capability", err)
	}
	if !jailbroken {
		return dbgerr.Newf(dbgerr.Unsupported, "remoteprep.validate_capability",
			"device %s does not appear jailbroken (no /var/jb or /var/lib/dpkg)", d.ID)
	}

	hasDebugserver, err := checkYes(t, fmt.Sprintf(debugserverCheckFmt, "debugserver"))
	if err != nil {
		return dbgerr.New(dbgerr.Network, "remoteprep.validate_capability", err)
	}
	if !hasDebugserver {
		return dbgerr.Newf(dbgerr.Unsupported, "remoteprep.validate_capability",
			"debugserver not found on PATH for device %s", d.ID)
	}

	tool, err := detectSigningTool(t)
	if err != nil {
		return dbgerr.New(dbgerr.Network, "remoteprep.validate_capability", err)
	}
	if tool == registry.SigningNone {
		return dbgerr.Newf(dbgerr.Unsupported, "remoteprep.validate_capability",
			"device %s requires either 'ldid' or 'jtool' for code signing, neither found", d.ID)
	}

	reg.MarkInitialized(d, tool)
	obs.WithDevice(d.ID).WithField("signing_tool", string(tool)).Info("remoteprep: device capability validated")
	return nil
}

func detectSigningTool(t Transport) (registry.SigningTool, error) {
	hasLdid, err := checkYes(t, fmt.Sprintf(debugserverCheckFmt, "ldid"))
	if err != nil {
		return registry.SigningNone, err
	}
	if hasLdid {
		return registry.SigningLdid, nil
	}

	hasJtool, err := checkYes(t, fmt.Sprintf(debugserverCheckFmt, "jtool"))
	if err != nil {
		return registry.SigningNone, err
	}
	if hasJtool {
		return registry.SigningJtool, nil
	}

	return registry.SigningNone, nil
}
