package orchestrator

import (
	"fmt"
	"time"

	"github.com/tracewell/remotedbg/pkg/ptydriver"
	"github.com/tracewell/remotedbg/pkg/registry"
)

// fakeDriver is a scriptable Driver used in place of a real forked debugger.
type fakeDriver struct {
	connectErr  error
	promptAfter string
	terminated  bool
	writes      []string
}

func (f *fakeDriver) Connect(host string, port int) error { return f.connectErr }
func (f *fakeDriver) Write(command string) error {
	f.writes = append(f.writes, command)
	return nil
}
func (f *fakeDriver) ReadToPrompt(timeout time.Duration) string { return f.promptAfter }
func (f *fakeDriver) ConvertAddress(staticBase, idaAddress uint64) (ptydriver.AddressTranslation, error) {
	return ptydriver.AddressTranslation{
		StaticBase:  staticBase,
		IDAAddress:  idaAddress,
		RuntimeBase: staticBase + 0x100000000,
		RuntimeAddr: staticBase + 0x100000000 + (idaAddress - staticBase),
	}, nil
}
func (f *fakeDriver) Terminate() { f.terminated = true }
func (f *fakeDriver) PID() int   { return 9999 }

// fakeSpawner hands out fakeDrivers, or fails if spawnErr is set.
type fakeSpawner struct {
	spawnErr error
	spawned  []*fakeDriver
}

func (s *fakeSpawner) Spawn(debuggerPath string) (Driver, error) {
	if s.spawnErr != nil {
		return nil, s.spawnErr
	}
	d := &fakeDriver{promptAfter: "(lldb) "}
	s.spawned = append(s.spawned, d)
	return d, nil
}

// fakeDialer hands out a pre-scripted transport per device id, recording
// every dial so tests can assert on connection counts.
type fakeDialer struct {
	byDevice map[string]func() *fakeTransport
	dialed   []string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{byDevice: make(map[string]func() *fakeTransport)}
}

func (f *fakeDialer) set(deviceID string, mk func() *fakeTransport) {
	f.byDevice[deviceID] = mk
}

func (f *fakeDialer) Dial(d *registry.Device) (sessionTransport, error) {
	f.dialed = append(f.dialed, d.ID)
	mk, ok := f.byDevice[d.ID]
	if !ok {
		return nil, fmt.Errorf("fakeDialer: no transport scripted for device %q", d.ID)
	}
	return mk(), nil
}
