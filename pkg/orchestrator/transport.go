package orchestrator

import (
	"github.com/tracewell/remotedbg/pkg/collab"
	"github.com/tracewell/remotedbg/pkg/registry"
	"github.com/tracewell/remotedbg/pkg/remoteprep"
	"github.com/tracewell/remotedbg/pkg/sshexec"
)

// sessionTransport is a remoteprep.Transport that also knows how to release
// the SSH connection backing it. Each call to Dial opens a fresh connection,
// used for exactly one preparation or teardown, then closed.
type sessionTransport interface {
	remoteprep.Transport
	Close() error
}

var _ sessionTransport = (*sshexec.Client)(nil)

// TransportDialer opens a scoped SSH transport to a device.
type TransportDialer interface {
	Dial(d *registry.Device) (sessionTransport, error)
}

// sshDialer is the production TransportDialer, authenticating with the
// credential provider's well-known keypair.
type sshDialer struct {
	creds collab.CredentialProvider
}

func (s sshDialer) Dial(d *registry.Device) (sessionTransport, error) {
	return sshexec.Connect(d.Host, d.SSHPort, d.SSHUser, sshexec.Credentials{
		PrivateKeyPath: s.creds.PrivateKeyPath(),
		PublicKeyPath:  s.creds.PublicKeyPath(),
	})
}
