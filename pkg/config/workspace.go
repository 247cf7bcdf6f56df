package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultWorkspacePath is the default location of the workspace's
// collaborator configuration: artifact paths, the static image base, and
// the SSH keypair used to reach every device.
const DefaultWorkspacePath = "/etc/remotedbg/workspace.json"

// Workspace is the persisted configuration backing the three collaborator
// interfaces pkg/orchestrator depends on. These collaborators are owned by
// surrounding tooling (a static analysis database, a credential vault); this
// file is the thin, file-based stand-in used when no richer integration is
// configured.
type Workspace struct {
	// ArtifactPaths maps agent id to the local filesystem path of the
	// binary that agent uploads for debugging.
	ArtifactPaths map[string]string `json:"artifact_paths"`

	// ImageBase is the load address IDA (or equivalent) assigned the
	// binary in its static analysis database.
	ImageBase uint64 `json:"static_image_base"`

	PrivateKey string `json:"private_key_path"`
	PublicKey  string `json:"public_key_path"`
}

// LoadWorkspace reads the workspace document from path, returning an empty
// Workspace if the file does not exist.
func LoadWorkspace(path string) (*Workspace, error) {
	w := &Workspace{ArtifactPaths: map[string]string{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return w, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, w); err != nil {
		return nil, err
	}
	if w.ArtifactPaths == nil {
		w.ArtifactPaths = map[string]string{}
	}
	return w, nil
}

// SaveWorkspace writes w to path, creating parent directories as needed.
func SaveWorkspace(path string, w *Workspace) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// PathForAgent implements collab.ArtifactProvider.
func (w *Workspace) PathForAgent(agentID string) (string, error) {
	path, ok := w.ArtifactPaths[agentID]
	if !ok || path == "" {
		return "", fmt.Errorf("no artifact path configured for agent %q", agentID)
	}
	return path, nil
}

// StaticImageBase implements collab.StaticImageProvider.
func (w *Workspace) StaticImageBase() (uint64, error) {
	if w.ImageBase == 0 {
		return 0, fmt.Errorf("workspace has no static_image_base configured")
	}
	return w.ImageBase, nil
}

// PrivateKeyPath implements collab.CredentialProvider.
func (w *Workspace) PrivateKeyPath() string { return w.PrivateKey }

// PublicKeyPath implements collab.CredentialProvider.
func (w *Workspace) PublicKeyPath() string { return w.PublicKey }
