package main

import (
	"path/filepath"

	"github.com/tracewell/remotedbg/pkg/collab"
	"github.com/tracewell/remotedbg/pkg/config"
	"github.com/tracewell/remotedbg/pkg/orchestrator"
	"github.com/tracewell/remotedbg/pkg/registry"
	"github.com/tracewell/remotedbg/pkg/sessionaudit"
)

const configDir = "/etc/remotedbg"

func defaultRegistryPath() string  { return filepath.Join(configDir, "registry.json") }
func defaultOverridesPath() string { return filepath.Join(configDir, "overrides.json") }
func defaultWorkspacePath() string { return config.DefaultWorkspacePath }
func defaultAuditPath() string     { return "/var/log/remotedbg/audit.jsonl" }

// buildOrchestrator loads the persisted registry/overrides/workspace
// documents and wires a ready-to-use Orchestrator, seeding the registry
// from --seed on first run if one was given.
func buildOrchestrator() (*orchestrator.Orchestrator, error) {
	if seedPath != "" {
		if err := config.SeedIfAbsent(seedPath, registryPath, overridesPath); err != nil {
			return nil, err
		}
	}

	reg, err := config.LoadRegistry(registryPath)
	if err != nil {
		return nil, err
	}
	overrides, err := config.LoadOverrides(overridesPath)
	if err != nil {
		return nil, err
	}
	devices := config.BuildDevices(reg, overrides)

	r, err := registry.New(devices)
	if err != nil {
		return nil, err
	}

	ws, err := config.LoadWorkspace(workspacePath)
	if err != nil {
		return nil, err
	}

	var cache registry.CapCache = registry.NewMemCapCache(r)
	if capCacheRedisAddr != "" {
		cache = registry.NewRedisCapCache(capCacheRedisAddr, capCacheRedisDB, capCacheRedisTTL)
	}

	o := orchestrator.New(r, collab.CredentialProvider(ws), cache)
	o.Artifacts = collab.ArtifactProvider(ws)
	o.StaticImage = collab.StaticImageProvider(ws)

	if auditPath != "" {
		logger, err := sessionaudit.NewFileLogger(auditPath, sessionaudit.RotationConfig{})
		if err != nil {
			return nil, err
		}
		o.Audit = logger
	}

	return o, nil
}
