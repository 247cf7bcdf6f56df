package config

import "github.com/tracewell/remotedbg/pkg/registry"

// BuildDevices merges the global registry document with workspace overrides
// into the []*registry.Device shape registry.New expects. An override absent
// for a device id yields its documented zero value (disabled, empty path).
func BuildDevices(reg *Registry, overrides Overrides) []*registry.Device {
	devices := make([]*registry.Device, 0, len(reg.Devices))
	for _, d := range reg.Devices {
		override := overrides.Get(d.ID)
		devices = append(devices, &registry.Device{
			ID:               d.ID,
			Name:             d.Name,
			Host:             d.Host,
			SSHPort:          d.SSHPort,
			SSHUser:          d.SSHUser,
			DebugServerPort:  d.DebugServerPort,
			RemoteBinaryPath: override.RemoteBinaryPath,
			Enabled:          override.Enabled,
		})
	}
	return devices
}
