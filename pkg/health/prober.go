package health

import (
	"github.com/tracewell/remotedbg/pkg/registry"
	"github.com/tracewell/remotedbg/pkg/sshexec"
)

// CredentialSource supplies the keypair used to probe every device; it is
// the same shape as collab.CredentialProvider, restated here so pkg/health
// does not import pkg/collab or pkg/orchestrator.
type CredentialSource interface {
	PrivateKeyPath() string
	PublicKeyPath() string
}

// SSHProber opens a scoped SSH connection and runs a no-op command purely
// to establish liveness, then closes it immediately — it holds no
// connection open between polls.
type SSHProber struct {
	Creds CredentialSource
}

func (p SSHProber) Probe(d *registry.Device) error {
	client, err := sshexec.Connect(d.Host, d.SSHPort, d.SSHUser, sshexec.Credentials{
		PrivateKeyPath: p.Creds.PrivateKeyPath(),
		PublicKeyPath:  p.Creds.PublicKeyPath(),
	})
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.Exec("true")
	return err
}
