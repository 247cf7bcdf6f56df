// Package remoteprep brings a device from "SSH-reachable host" to "debug
// server listening with the agent's artifact staged and signed" through
// five strictly ordered steps, each with compensation for every successful
// step if a later one fails.
package remoteprep

import "github.com/tracewell/remotedbg/pkg/sshexec"

// Transport is the subset of sshexec.Client that remoteprep depends on.
// Defining it as an interface (rather than depending on *sshexec.Client
// directly) lets tests exercise step ordering and compensation against a
// fake, without a real SSH server.
type Transport interface {
	Exec(command string) (sshexec.Result, error)
	Upload(localPath, remotePath string) error
}

var _ Transport = (*sshexec.Client)(nil)
