package sshexec

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/tracewell/remotedbg/internal/obs"
)

// Tunnel forwards a local TCP port to a fixed remote address through an
// existing SSH connection. It exists for operator convenience — e.g.
// reaching a device's debug-server log directory or a stray netstat
// session by hand during incident response — and is never used on the
// start_session critical path.
type Tunnel struct {
	client    *Client
	localAddr string
	remote    string
	listener  net.Listener
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewTunnel opens a local listener on a random port and forwards every
// accepted connection to remoteAddr through client's SSH connection.
func NewTunnel(client *Client, remoteAddr string) (*Tunnel, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("sshexec.tunnel: local listen: %w", err)
	}

	t := &Tunnel{
		client:    client,
		localAddr: listener.Addr().String(),
		remote:    remoteAddr,
		listener:  listener,
		done:      make(chan struct{}),
	}

	t.wg.Add(1)
	go t.acceptLoop()

	return t, nil
}

// LocalAddr returns the local "127.0.0.1:port" address forwarding to remote.
func (t *Tunnel) LocalAddr() string {
	return t.localAddr
}

// Close stops accepting new connections, closes the listener, and waits for
// in-flight forwards to finish.
func (t *Tunnel) Close() error {
	close(t.done)
	t.listener.Close()
	t.wg.Wait()
	return nil
}

func (t *Tunnel) acceptLoop() {
	defer t.wg.Done()
	for {
		local, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		t.wg.Add(1)
		go t.forward(local)
	}
}

func (t *Tunnel) forward(local net.Conn) {
	defer t.wg.Done()
	defer local.Close()

	remote, err := t.client.conn.Dial("tcp", t.remote)
	if err != nil {
		obs.WithField("remote", t.remote).Warnf("sshexec: tunnel dial failed: %v", err)
		return
	}
	defer remote.Close()

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote)
		done <- struct{}{}
	}()
	<-done
}
