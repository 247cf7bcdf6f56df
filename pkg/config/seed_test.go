package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testSeedYAML = `
devices:
  - id: dev-a
    name: iPhone A
    host: 10.0.0.5
    ssh_port: 22
    ssh_user: mobile
    debugserver_port: 9000
    enabled: true
    remote_binary_path: /var/mobile/agent
  - id: dev-b
    name: iPhone B
    host: 10.0.0.6
    ssh_port: 22
    ssh_user: mobile
    debugserver_port: 9001
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.yaml")
	if err := os.WriteFile(path, []byte(testSeedYAML), 0644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t))
	if err != nil {
		t.Fatalf("LoadSeedFile() error = %v", err)
	}
	if len(seed.Devices) != 2 {
		t.Fatalf("LoadSeedFile() returned %d devices, want 2", len(seed.Devices))
	}
	if seed.Devices[0].ID != "dev-a" || !seed.Devices[0].Enabled {
		t.Errorf("Devices[0] = %+v, want dev-a enabled", seed.Devices[0])
	}
}

func TestSeedFileSplit(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t))
	if err != nil {
		t.Fatalf("LoadSeedFile() error = %v", err)
	}

	reg, overrides := seed.Split()
	if len(reg.Devices) != 2 {
		t.Fatalf("Split() registry has %d devices, want 2", len(reg.Devices))
	}
	if !overrides.Get("dev-a").Enabled {
		t.Error("Split() overrides[dev-a] should be enabled")
	}
	if overrides.Get("dev-b").Enabled {
		t.Error("Split() overrides[dev-b] should default to disabled")
	}
}

func TestSeedIfAbsentSkipsWhenRegistryExists(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "registry.json")
	overridesPath := filepath.Join(dir, "overrides.json")

	existing := &Registry{Devices: []DeviceInfo{{ID: "preexisting"}}}
	if err := SaveRegistry(registryPath, existing); err != nil {
		t.Fatalf("SaveRegistry() error = %v", err)
	}

	if err := SeedIfAbsent(writeSeed(t), registryPath, overridesPath); err != nil {
		t.Fatalf("SeedIfAbsent() error = %v", err)
	}

	got, err := LoadRegistry(registryPath)
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	if len(got.Devices) != 1 || got.Devices[0].ID != "preexisting" {
		t.Fatalf("SeedIfAbsent() overwrote an existing registry: %+v", got)
	}
}

func TestSeedIfAbsentPopulatesWhenMissing(t *testing.T) {
	dir := t.TempDir()
	registryPath := filepath.Join(dir, "registry.json")
	overridesPath := filepath.Join(dir, "overrides.json")

	if err := SeedIfAbsent(writeSeed(t), registryPath, overridesPath); err != nil {
		t.Fatalf("SeedIfAbsent() error = %v", err)
	}

	reg, err := LoadRegistry(registryPath)
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	if len(reg.Devices) != 2 {
		t.Fatalf("SeedIfAbsent() registry has %d devices, want 2", len(reg.Devices))
	}

	overrides, err := LoadOverrides(overridesPath)
	if err != nil {
		t.Fatalf("LoadOverrides() error = %v", err)
	}
	if !overrides.Get("dev-a").Enabled {
		t.Error("SeedIfAbsent() overrides[dev-a] should be enabled")
	}
}
