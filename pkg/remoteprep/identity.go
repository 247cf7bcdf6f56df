package remoteprep

import (
	"context"
	"regexp"
	"strings"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/registry"
)

var (
	uuidRegex     = regexp.MustCompile(`"([0-9A-Fa-f]{8}-[0-9A-Fa-f]{4,12}-[0-9A-Fa-f]{4,16}-[0-9A-Fa-f]{4,16}-[0-9A-Fa-f]{4,12})"`)
	genericQuoted = regexp.MustCompile(`"([A-Za-z0-9-]+)"`)
)

const ioregCmd = `/usr/sbin/ioreg -rd1 -c IOPlatformExpertDevice | grep IOPlatformUUID | head -1`

// DiscoverIdentity is best-effort and never blocks the remaining steps: a
// failed probe falls back to a synthesized id (from the remote hostname, or
// else the configured host) or leaves that field empty. Results, including
// fallbacks, are cached through cache so repeat sessions against the same
// device skip the round trip.
func DiscoverIdentity(ctx context.Context, t Transport, reg *registry.Registry, cache registry.CapCache, d *registry.Device) {
	if cache != nil {
		if _, ok, err := cache.Get(ctx, d.ID); err == nil && ok {
			return
		}
	}

	cap := registry.Capability{}

	if ioregOut, err := t.Exec(ioregCmd); err == nil {
		cap.UDID = parseUDIDFromIoreg(ioregOut.Output)
	}
	if cap.UDID == "" {
		if hostOut, err := t.Exec("hostname"); err == nil && strings.TrimSpace(hostOut.Output) != "" {
			cap.UDID = "device_" + strings.TrimSpace(hostOut.Output)
		} else {
			cap.UDID = "device_" + d.Host
		}
	}

	if verOut, err := t.Exec("sw_vers -productVersion"); err == nil && notNotFound(verOut.Output) {
		cap.OSVersion = strings.TrimSpace(verOut.Output)
	} else if unameOut, err := t.Exec("uname -sr"); err == nil {
		cap.OSVersion = strings.TrimSpace(unameOut.Output)
	}

	if modelOut, err := t.Exec("uname -m"); err == nil {
		cap.Model = strings.TrimSpace(modelOut.Output)
	}

	if cap.Model != "" && cap.OSVersion != "" {
		cap.DisplayName = cap.Model + " - iOS " + cap.OSVersion
	} else {
		cap.DisplayName = d.Name
	}

	reg.SetCapability(d, cap)
	if cache != nil {
		if err := cache.Set(ctx, d.ID, cap); err != nil {
			obs.WithDevice(d.ID).Warnf("remoteprep: identity cache write failed: %v", err)
		}
	}
	obs.WithDevice(d.ID).WithField("udid", cap.UDID).Debug("remoteprep: identity discovered")
}

func notNotFound(s string) bool {
	return strings.TrimSpace(s) != "" && !strings.Contains(s, "not found")
}

// parseUDIDFromIoreg extracts the UDID from ioreg output, preferring a
// strict UUID-shaped match and falling back to any quoted token of
// plausible length.
func parseUDIDFromIoreg(output string) string {
	if m := uuidRegex.FindStringSubmatch(output); m != nil {
		return m[1]
	}
	if m := genericQuoted.FindStringSubmatch(output); m != nil && len(m[1]) >= 8 {
		return m[1]
	}
	return ""
}
