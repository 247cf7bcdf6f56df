// Package sshexec provides a scoped SSH session wrapper: connect, exec, and
// SFTP upload, with guaranteed release on every exit path. Sessions do not
// outlive the call that opened them — a new operation opens a new
// connection. This is simpler than pooling and adequate because sessions
// are short relative to debugger session lifetime.
package sshexec

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/tracewell/remotedbg/internal/obs"
	"github.com/tracewell/remotedbg/pkg/dbgerr"
)

// DialTimeout bounds the TCP connect + SSH handshake.
const DialTimeout = 10 * time.Second

// Credentials names the well-known keypair used for SSH public-key auth.
type Credentials struct {
	PrivateKeyPath string
	PublicKeyPath  string // informational; not required to dial
}

// Result is the outcome of Exec: the full combined stdout/stderr and the
// remote command's exit status. A nonzero ExitStatus is not itself a Go
// error — Output is returned regardless so callers can inspect diagnostics.
type Result struct {
	Output     string
	ExitStatus int
}

// Client is a scoped SSH connection, opened by Connect and released by
// Close. Each Exec/Upload opens its own ssh.Session or sftp.Client against
// the shared *ssh.Client and closes it before returning.
type Client struct {
	conn *ssh.Client
	host string
}

// Connect resolves host, opens a TCP connection, performs the SSH handshake,
// and authenticates with the keypair at creds.PrivateKeyPath. The returned
// Client must be closed by the caller.
func Connect(host string, port int, user string, creds Credentials) (*Client, error) {
	keyBytes, err := os.ReadFile(creds.PrivateKeyPath)
	if err != nil {
		return nil, dbgerr.New(dbgerr.Auth, "sshexec.connect", fmt.Errorf("read private key: %w", err))
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, dbgerr.New(dbgerr.Auth, "sshexec.connect", fmt.Errorf("parse private key: %w", err))
	}

	config := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         DialTimeout,
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		kind := dbgerr.Network
		if isAuthFailure(err) {
			kind = dbgerr.Auth
		}
		return nil, dbgerr.New(kind, "sshexec.connect", fmt.Errorf("dial %s@%s: %w", user, addr, err))
	}

	obs.WithField("host", addr).WithField("user", user).Debug("sshexec: connected")
	return &Client{conn: conn, host: addr}, nil
}

func isAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, hint := range []string{"unable to authenticate", "no supported methods remain", "handshake failed"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// Close releases the underlying SSH connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Exec wraps command in a login-shell invocation so remote PATH is populated
// as an interactive session would see it — critical on jailbroken devices
// where tools live under /var/jb/usr/bin rather than a bare exec's minimal
// PATH. Single quotes in command are escaped as '\''.
func (c *Client) Exec(command string) (Result, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return Result{}, dbgerr.New(dbgerr.Network, "sshexec.exec", fmt.Errorf("new session: %w", err))
	}
	defer session.Close()

	wrapped := fmt.Sprintf("exec $SHELL -l -c %s", singleQuote(command))

	var out bytes.Buffer
	session.Stdout = &out
	session.Stderr = &out

	runErr := session.Run(wrapped)
	status := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*ssh.ExitError); ok {
			status = exitErr.ExitStatus()
		} else {
			return Result{Output: out.String()}, dbgerr.New(dbgerr.Network, "sshexec.exec", fmt.Errorf("run %q: %w", command, runErr))
		}
	}

	return Result{Output: out.String(), ExitStatus: status}, nil
}

// SSHClient returns the underlying *ssh.Client for callers that need lower
// level access.
func (c *Client) SSHClient() *ssh.Client {
	return c.conn
}
