package remoteprep

import (
	"fmt"

	"github.com/tracewell/remotedbg/internal/obs"
)

// SyncArtifact uploads localPath to remotePath, overwriting any existing
// content. The looping-write requirement lives in sshexec.Upload; this is a
// thin, named step so the five-step sequence stays legible at the call site.
func SyncArtifact(t Transport, localPath, remotePath string) error {
	if err := t.Upload(localPath, remotePath); err != nil {
		return fmt.Errorf("remoteprep.sync_artifact: %w", err)
	}
	obs.WithField("remote_path", remotePath).Debug("remoteprep: artifact synced")
	return nil
}
