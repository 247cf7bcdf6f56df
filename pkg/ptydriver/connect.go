package ptydriver

import (
	"fmt"
	"strings"
	"time"

	"github.com/tracewell/remotedbg/internal/obs"
)

// initialReadTimeout and settingsReadTimeout bound the two startup reads
// before the connect attempt; they are shorter than the general-purpose
// ReadTimeout because both are expected to resolve quickly against a
// freshly spawned debugger.
const (
	initialReadTimeout  = 10 * time.Second
	settingsReadTimeout = 5 * time.Second
)

// ReadToConnectComplete is used exactly once, immediately after issuing a
// "process connect" command. The prompt marker is insufficient because the
// debugger may asynchronously return to prompt before the connection
// completes; success is instead signaled by either the arrow-cursor marker
// (target halted at an instruction) or any "error:" substring.
func (d *Driver) ReadToConnectComplete(timeout time.Duration) string {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return d.readLoop(isConnectComplete, timeout)
}

func isConnectComplete(s string) bool {
	hasCurrentInstruction := strings.Contains(s, "->") && strings.Contains(s, "0x")
	hasError := strings.Contains(s, ErrorMarker)
	return hasCurrentInstruction || hasError
}

// Connect runs the full handshake: discard startup output to the first
// prompt, switch to synchronous mode so subsequent commands block until
// complete, issue "process connect", and wait for the connect-complete
// marker. If the halted marker never appears it logs a warning but returns
// nil — the session may still be usable.
func (d *Driver) Connect(host string, port int) error {
	startup := d.ReadToPrompt(initialReadTimeout)
	obs.Debugf("ptydriver: discarded startup output (%d bytes)", len(startup))

	if err := d.Write("settings set target.async false"); err != nil {
		return err
	}
	d.ReadToPrompt(settingsReadTimeout)

	connectCmd := fmt.Sprintf("process connect connect://%s:%d", host, port)
	if err := d.Write(connectCmd); err != nil {
		return err
	}

	output := d.ReadToConnectComplete(DefaultConnectTimeout)
	if !strings.Contains(output, "->") {
		obs.Warnf("ptydriver: connect to %s:%d did not show the halted marker; session may still be usable", host, port)
	}
	if strings.Contains(output, ErrorMarker) {
		obs.Warnf("ptydriver: connect output contained an error marker: %s", output)
	}

	return nil
}
