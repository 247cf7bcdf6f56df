package config

import (
	"path/filepath"
	"testing"
)

func TestLoadRegistryMissingFileReturnsEmpty(t *testing.T) {
	r, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	if len(r.Devices) != 0 {
		t.Errorf("LoadRegistry() on missing file = %+v, want empty", r)
	}
}

func TestRegistrySaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	want := &Registry{Devices: []DeviceInfo{
		{ID: "dev-a", Name: "iPhone A", Host: "10.0.0.5", SSHPort: 22, SSHUser: "mobile", DebugServerPort: 9000},
	}}

	if err := SaveRegistry(path, want); err != nil {
		t.Fatalf("SaveRegistry() error = %v", err)
	}

	got, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	if len(got.Devices) != 1 || got.Devices[0].ID != "dev-a" {
		t.Fatalf("LoadRegistry() = %+v, want one device dev-a", got)
	}
}

func TestOverridesGetAbsentIsZeroValue(t *testing.T) {
	o := Overrides{}
	got := o.Get("dev-a")
	if got.Enabled || got.RemoteBinaryPath != "" {
		t.Errorf("Get() on absent override = %+v, want zero value", got)
	}
}

func TestOverridesSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.json")
	want := Overrides{
		"dev-a": {Enabled: true, RemoteBinaryPath: "/var/mobile/agent"},
	}

	if err := SaveOverrides(path, want); err != nil {
		t.Fatalf("SaveOverrides() error = %v", err)
	}

	got, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides() error = %v", err)
	}
	if !got.Get("dev-a").Enabled || got.Get("dev-a").RemoteBinaryPath != "/var/mobile/agent" {
		t.Fatalf("LoadOverrides() = %+v, want round-tripped override", got)
	}
}

func TestBuildDevicesMergesOverrides(t *testing.T) {
	reg := &Registry{Devices: []DeviceInfo{
		{ID: "dev-a", Name: "iPhone A", Host: "10.0.0.5", SSHPort: 22, SSHUser: "mobile", DebugServerPort: 9000},
		{ID: "dev-b", Name: "iPhone B", Host: "10.0.0.6", SSHPort: 22, SSHUser: "mobile", DebugServerPort: 9001},
	}}
	overrides := Overrides{
		"dev-a": {Enabled: true, RemoteBinaryPath: "/var/mobile/agent"},
	}

	devices := BuildDevices(reg, overrides)
	if len(devices) != 2 {
		t.Fatalf("BuildDevices() returned %d devices, want 2", len(devices))
	}
	if !devices[0].Enabled || devices[0].RemoteBinaryPath != "/var/mobile/agent" {
		t.Errorf("dev-a = %+v, want override applied", devices[0])
	}
	if devices[1].Enabled || devices[1].RemoteBinaryPath != "" {
		t.Errorf("dev-b = %+v, want disabled with empty path (no override present)", devices[1])
	}
}
