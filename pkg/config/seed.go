package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is an optional hand-written YAML bootstrap document
// (conventionally devices.yaml) a deployer can use to seed the registry and
// overrides documents on first run. It is never the source of truth after
// that — the persisted JSON documents are.
type SeedFile struct {
	Devices []SeedDevice `yaml:"devices"`
}

// SeedDevice mirrors DeviceInfo plus the two workspace override fields,
// collapsed into one entry for hand-authoring convenience.
type SeedDevice struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Host             string `yaml:"host"`
	SSHPort          int    `yaml:"ssh_port"`
	SSHUser          string `yaml:"ssh_user"`
	DebugServerPort  int    `yaml:"debugserver_port"`
	Enabled          bool   `yaml:"enabled"`
	RemoteBinaryPath string `yaml:"remote_binary_path"`
}

// LoadSeedFile parses a devices.yaml document from path.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s SeedFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Split converts a SeedFile into the Registry and Overrides shapes the
// persisted JSON documents use.
func (s *SeedFile) Split() (*Registry, Overrides) {
	reg := &Registry{}
	overrides := Overrides{}
	for _, d := range s.Devices {
		reg.Devices = append(reg.Devices, DeviceInfo{
			ID:              d.ID,
			Name:            d.Name,
			Host:            d.Host,
			SSHPort:         d.SSHPort,
			SSHUser:         d.SSHUser,
			DebugServerPort: d.DebugServerPort,
		})
		overrides[d.ID] = Override{
			Enabled:          d.Enabled,
			RemoteBinaryPath: d.RemoteBinaryPath,
		}
	}
	return reg, overrides
}

// SeedIfAbsent loads seedPath and persists its split registry/overrides to
// registryPath/overridesPath only if those files do not already exist,
// preserving the rule that the JSON documents remain the source of truth
// after first load.
func SeedIfAbsent(seedPath, registryPath, overridesPath string) error {
	if _, err := os.Stat(registryPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	seed, err := LoadSeedFile(seedPath)
	if err != nil {
		return err
	}
	reg, overrides := seed.Split()

	if err := SaveRegistry(registryPath, reg); err != nil {
		return err
	}
	return SaveOverrides(overridesPath, overrides)
}
