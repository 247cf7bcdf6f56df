package ptydriver

import (
	"net"
	"sync"
	"testing"
	"time"
)

// fakePTY wraps one end of a net.Pipe to satisfy pseudoTerminal. net.Pipe
// connections are synchronous and have no internal buffering, so writes from
// the test goroutine block until the driver reads them — this mirrors a real
// pty's behaviour closely enough to exercise the idle-tick detection logic.
type fakePTY struct {
	net.Conn
}

func (f *fakePTY) SetReadDeadline(t time.Time) error { return f.Conn.SetReadDeadline(t) }

func newFakeDriver() (*Driver, *fakePTY) {
	client, server := net.Pipe()
	d := &Driver{
		pty:         &fakePTY{client},
		ReadTimeout: 2 * time.Second,
		exited:      make(chan struct{}),
	}
	return d, &fakePTY{server}
}

// feed writes chunks to the server side with small pauses, long enough apart
// that the driver's idle-tick counter has a chance to observe silence
// between them, then stays silent so the final idle period can elapse.
func feed(t *testing.T, server *fakePTY, chunks ...string) {
	t.Helper()
	go func() {
		for _, c := range chunks {
			server.Write([]byte(c))
			time.Sleep(20 * time.Millisecond)
		}
	}()
}

func TestReadToPromptWaitsForIdleAfterMarker(t *testing.T) {
	d, server := newFakeDriver()
	feed(t, server, "(lldb) ")

	start := time.Now()
	got := d.ReadToPrompt(2 * time.Second)
	elapsed := time.Since(start)

	if got != "(lldb) " {
		t.Fatalf("ReadToPrompt() = %q, want %q", got, "(lldb) ")
	}
	if elapsed < idleQuietPeriod {
		t.Errorf("ReadToPrompt returned after %v, want at least the idle quiet period %v", elapsed, idleQuietPeriod)
	}
}

func TestReadToPromptStripsANSI(t *testing.T) {
	d, server := newFakeDriver()
	feed(t, server, "\x1b[32m(lldb) \x1b[0m")

	got := d.ReadToPrompt(2 * time.Second)
	if got != "(lldb) " {
		t.Fatalf("ReadToPrompt() = %q, want ANSI stripped", got)
	}
}

func TestReadToPromptTimesOutWithoutMarker(t *testing.T) {
	d, server := newFakeDriver()
	feed(t, server, "still booting...")

	start := time.Now()
	got := d.ReadToPrompt(150 * time.Millisecond)
	elapsed := time.Since(start)

	if elapsed > time.Second {
		t.Errorf("ReadToPrompt took %v, want it to honor the short timeout", elapsed)
	}
	if got == "" {
		t.Error("ReadToPrompt() returned empty string, want partial output even on timeout")
	}
}

func TestReadToConnectCompleteRequiresArrowAndHex(t *testing.T) {
	d, server := newFakeDriver()
	feed(t, server, "Process 1234 stopped\n", "-> 0x0000000100004000 <+0>: nop\n(lldb) ")

	got := d.ReadToConnectComplete(2 * time.Second)
	if !isConnectComplete(got) {
		t.Fatalf("ReadToConnectComplete() = %q, want it to satisfy isConnectComplete", got)
	}
}

func TestReadToConnectCompleteOnError(t *testing.T) {
	d, server := newFakeDriver()
	feed(t, server, "error: unable to connect to port\n(lldb) ")

	got := d.ReadToConnectComplete(2 * time.Second)
	if !isConnectComplete(got) {
		t.Fatalf("ReadToConnectComplete() = %q, want error marker to count as complete", got)
	}
}

func TestWriteLoopsUntilDrained(t *testing.T) {
	d, server := newFakeDriver()

	var received []byte
	done := make(chan struct{})
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := server.Read(buf)
			if n > 0 {
				received = append(received, buf[:n]...)
			}
			if err != nil || len(received) >= len("process connect connect://127.0.0.1:5000\n") {
				close(done)
				return
			}
		}
	}()

	if err := d.Write("process connect connect://127.0.0.1:5000"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	<-done

	want := "process connect connect://127.0.0.1:5000\n"
	if string(received) != want {
		t.Errorf("server received %q, want %q", received, want)
	}
}

func TestConvertAddress(t *testing.T) {
	d, server := newFakeDriver()

	go func() {
		buf := make([]byte, 256)
		server.Read(buf) // discard "image list\n"
		server.Write([]byte("[  0] 4AA1B2C3-D4E5-F607-1829-3A4B5C6D7E8F 0x0000000100004000 /var/containers/app\n(lldb) "))
	}()

	got, err := d.ConvertAddress(0x100000000, 0x100001234)
	if err != nil {
		t.Fatalf("ConvertAddress() error = %v", err)
	}

	wantBase := uint64(0x100004000)
	wantAddr := wantBase + (0x100001234 - 0x100000000)
	if got.RuntimeBase != wantBase {
		t.Errorf("RuntimeBase = %#x, want %#x", got.RuntimeBase, wantBase)
	}
	if got.RuntimeAddr != wantAddr {
		t.Errorf("RuntimeAddr = %#x, want %#x", got.RuntimeAddr, wantAddr)
	}
}

func TestConvertAddressFailsWithoutImageZero(t *testing.T) {
	d, server := newFakeDriver()

	go func() {
		buf := make([]byte, 256)
		server.Read(buf)
		server.Write([]byte("no images loaded\n(lldb) "))
	}()

	if _, err := d.ConvertAddress(0x100000000, 0x100001234); err == nil {
		t.Error("ConvertAddress() error = nil, want error for missing image list entry")
	}
}

func TestParseImageBase(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    uint64
		wantErr bool
	}{
		{
			name:   "well formed",
			output: "[  0] 4AA1B2C3-D4E5-F607-1829-3A4B5C6D7E8F 0x0000000100004000 /bin/app",
			want:   0x100004000,
		},
		{
			name:    "missing entry",
			output:  "no images",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseImageBase(tt.output)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseImageBase() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("parseImageBase() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestTerminateWritesQuitAndClosesMaster(t *testing.T) {
	d, server := newFakeDriver()

	var gotQuit bool
	var mu sync.Mutex
	go func() {
		buf := make([]byte, 256)
		n, err := server.Read(buf)
		if err == nil {
			mu.Lock()
			gotQuit = string(buf[:n]) == "quit\n"
			mu.Unlock()
		}
		// Simulate the debugger exiting voluntarily after "quit".
		close(d.exited)
	}()

	d.Terminate()

	if _, err := d.pty.Write([]byte("x")); err == nil {
		t.Error("Terminate() did not close the pty master")
	}

	mu.Lock()
	defer mu.Unlock()
	if !gotQuit {
		t.Error("Terminate() did not write \"quit\" as its first step")
	}
}

func TestTerminateIsNoOpWhenAlreadyExited(t *testing.T) {
	d, _ := newFakeDriver()
	close(d.exited)

	done := make(chan struct{})
	go func() {
		d.Terminate()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Terminate() blocked on an already-exited driver")
	}
}
