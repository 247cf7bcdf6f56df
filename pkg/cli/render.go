package cli

import (
	"fmt"
	"time"

	"github.com/tracewell/remotedbg/pkg/registry"
	"github.com/tracewell/remotedbg/pkg/sessionaudit"
)

// RenderDevices prints a device-registry snapshot as a table, coloring the
// AVAILABLE and HEALTH columns so a disabled or unhealthy device stands out
// at a glance.
func RenderDevices(devices []registry.Snapshot) {
	t := NewTable("ID", "NAME", "HOST", "ENABLED", "AVAILABLE", "HOLDER", "HEALTH")
	for _, d := range devices {
		t.Row(d.ID, d.Name, fmt.Sprintf("%s:%d", d.Host, d.SSHPort),
			boolCell(d.Enabled), availabilityCell(d), holderCell(d.Runtime.Holder), healthCell(d.Runtime.Health))
	}
	t.Flush()
}

func boolCell(b bool) string {
	if b {
		return Green("yes")
	}
	return Dim("no")
}

func availabilityCell(d registry.Snapshot) string {
	if !d.Enabled {
		return Dim("-")
	}
	if d.Runtime.Available {
		return Green("free")
	}
	return Yellow("busy")
}

func holderCell(holder string) string {
	if holder == "" {
		return Dim("-")
	}
	return holder
}

func healthCell(h registry.Health) string {
	switch h {
	case registry.HealthHealthy:
		return Green(string(h))
	case registry.HealthDisabled:
		return Dim(string(h))
	default:
		return Red(string(h))
	}
}

// SessionRow is the display shape for one live session; callers build this
// from pkg/orchestrator.Session without pkg/cli importing pkg/orchestrator
// (which itself imports pkg/collab fixtures only under _test.go, but keeping
// the dependency one-directional avoids any future cycle).
type SessionRow struct {
	ID        string
	AgentID   string
	DeviceID  string
	State     string
	CreatedAt time.Time
}

// RenderSessions prints the live session table.
func RenderSessions(sessions []SessionRow) {
	t := NewTable("SESSION", "AGENT", "DEVICE", "STATE", "AGE")
	for _, s := range sessions {
		t.Row(s.ID, s.AgentID, s.DeviceID, s.State, time.Since(s.CreatedAt).Round(time.Second).String())
	}
	t.Flush()
}

// RenderAuditEvents prints an audit query result.
func RenderAuditEvents(events []*sessionaudit.Event) {
	t := NewTable("TIME", "AGENT", "DEVICE", "SESSION", "OP", "COMMAND", "OK", "ERROR")
	for _, e := range events {
		ok := Green("yes")
		if !e.Success {
			ok = Red("no")
		}
		t.Row(e.Timestamp.Format(time.RFC3339), e.Agent, e.Device, e.Session, string(e.Operation), e.Command, ok, e.Error)
	}
	t.Flush()
}
