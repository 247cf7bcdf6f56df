// Package collab defines the small interfaces the orchestrator consumes from
// collaborators it does not own: the agent's analysis artifact, the static
// analysis database's notion of a loaded image base, and SSH credential
// material. Nothing in this package talks to a real filesystem or database —
// implementations live with their owners; only test fixtures live here.
package collab

// ArtifactProvider resolves the filesystem path of the binary an agent wants
// uploaded and attached to. The path may point to a signed or unsigned
// artifact; signing, if required, happens after upload.
type ArtifactProvider interface {
	PathForAgent(agentID string) (string, error)
}

// StaticImageProvider reports the load address a binary was assigned in the
// static analysis database, used as the static_base input to address
// translation.
type StaticImageProvider interface {
	StaticImageBase() (uint64, error)
}

// CredentialProvider resolves the well-known SSH keypair used for public-key
// authentication against every managed device.
type CredentialProvider interface {
	PrivateKeyPath() string
	PublicKeyPath() string
}
