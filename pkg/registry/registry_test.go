package registry

import (
	"context"
	"testing"

	"github.com/tracewell/remotedbg/pkg/dbgerr"
)

func newTestDevices() []*Device {
	return []*Device{
		{ID: "dev-a", Name: "A", Host: "10.0.0.1", SSHPort: 22, SSHUser: "mobile", DebugServerPort: 9000, Enabled: true, Runtime: Runtime{Available: true, Health: HealthHealthy}},
		{ID: "dev-b", Name: "B", Host: "10.0.0.2", SSHPort: 22, SSHUser: "mobile", DebugServerPort: 9001, Enabled: true, Runtime: Runtime{Available: true, Health: HealthHealthy}},
		{ID: "dev-c", Name: "C (disabled)", Host: "10.0.0.3", SSHPort: 22, SSHUser: "mobile", DebugServerPort: 9002, Enabled: false, Runtime: Runtime{Available: true, Health: HealthHealthy}},
	}
}

func TestNewDetectsDuplicatePort(t *testing.T) {
	devices := []*Device{
		{ID: "dev-a", Enabled: true, DebugServerPort: 9000},
		{ID: "dev-b", Enabled: true, DebugServerPort: 9000},
	}
	_, err := New(devices)
	if err == nil {
		t.Fatal("expected duplicate port error, got nil")
	}
	if !dbgerr.Is(err, dbgerr.Config) {
		t.Errorf("expected Config error kind, got %v", dbgerr.KindOf(err))
	}
}

func TestNewAllowsSamePortWhenOneDisabled(t *testing.T) {
	devices := []*Device{
		{ID: "dev-a", Enabled: true, DebugServerPort: 9000},
		{ID: "dev-b", Enabled: false, DebugServerPort: 9000},
	}
	if _, err := New(devices); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewDetectsDuplicateID(t *testing.T) {
	devices := []*Device{
		{ID: "dup", Enabled: true, DebugServerPort: 9000},
		{ID: "dup", Enabled: true, DebugServerPort: 9001},
	}
	if _, err := New(devices); err == nil {
		t.Fatal("expected duplicate id error, got nil")
	}
}

func TestEnumerateReturnsOwnedCopies(t *testing.T) {
	reg, err := New(newTestDevices())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	snaps := reg.Enumerate()
	if len(snaps) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(snaps))
	}
	snaps[0].Name = "mutated"
	if reg.Lookup("dev-a").Name == "mutated" {
		t.Error("mutating a snapshot must not affect the live device")
	}
}

func TestLookupUnknown(t *testing.T) {
	reg, _ := New(newTestDevices())
	if reg.Lookup("nope") != nil {
		t.Error("expected nil for unknown device id")
	}
}

func TestFindFirstFitInInsertionOrder(t *testing.T) {
	reg, err := New(newTestDevices())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := reg.Find()
	if d == nil || d.ID != "dev-a" {
		t.Fatalf("expected dev-a first, got %v", d)
	}

	reg.Reserve(d, "agent-1")
	d2 := reg.Find()
	if d2 == nil || d2.ID != "dev-b" {
		t.Fatalf("expected dev-b next, got %v", d2)
	}
}

func TestFindSkipsDisabledAndUnhealthy(t *testing.T) {
	devices := newTestDevices()
	devices[0].Runtime.Health = HealthError
	reg, err := New(devices)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := reg.Find()
	if d == nil || d.ID != "dev-b" {
		t.Fatalf("expected dev-b (dev-a unhealthy, dev-c disabled), got %v", d)
	}
}

func TestFindReturnsNilWhenNoneAvailable(t *testing.T) {
	reg, _ := New(newTestDevices())
	reg.Reserve(reg.Lookup("dev-a"), "agent-1")
	reg.Reserve(reg.Lookup("dev-b"), "agent-2")
	if d := reg.Find(); d != nil {
		t.Errorf("expected nil, got %v", d)
	}
}

func TestReserveAndReleaseRoundTrip(t *testing.T) {
	reg, _ := New(newTestDevices())
	d := reg.Lookup("dev-a")

	reg.Reserve(d, "agent-1")
	if d.Runtime.Available {
		t.Error("device should be unavailable after reserve")
	}
	if d.Runtime.Holder != "agent-1" {
		t.Errorf("expected holder agent-1, got %q", d.Runtime.Holder)
	}

	reg.Release(d)
	if !d.Runtime.Available {
		t.Error("device should be available after release")
	}
	if d.Runtime.Holder != "" {
		t.Errorf("expected empty holder after release, got %q", d.Runtime.Holder)
	}
}

func TestMarkInitializedIsOneTime(t *testing.T) {
	reg, _ := New(newTestDevices())
	d := reg.Lookup("dev-a")

	reg.MarkInitialized(d, SigningLdid)
	if d.Platform.SigningTool != SigningLdid {
		t.Fatalf("expected ldid, got %v", d.Platform.SigningTool)
	}

	reg.MarkInitialized(d, SigningJtool)
	if d.Platform.SigningTool != SigningLdid {
		t.Errorf("platform record must be immutable after first init, got %v", d.Platform.SigningTool)
	}
}

func TestMemCapCacheRoundTrip(t *testing.T) {
	reg, _ := New(newTestDevices())
	cache := NewMemCapCache(reg)
	ctx := context.Background()

	if _, ok, err := cache.Get(ctx, "dev-a"); err != nil || ok {
		t.Fatalf("expected miss before Set, got ok=%v err=%v", ok, err)
	}

	err := cache.Set(ctx, "dev-a", Capability{UDID: "abc123", Model: "iPhone14,2"})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := cache.Get(ctx, "dev-a")
	if err != nil || !ok {
		t.Fatalf("expected hit after Set, got ok=%v err=%v", ok, err)
	}
	if got.UDID != "abc123" {
		t.Errorf("expected UDID abc123, got %q", got.UDID)
	}
}

func TestMemCapCacheSetUnknownDevice(t *testing.T) {
	reg, _ := New(newTestDevices())
	cache := NewMemCapCache(reg)
	if err := cache.Set(context.Background(), "ghost", Capability{}); err == nil {
		t.Error("expected error setting capability for unknown device")
	}
}
