package cli

import (
	"strings"
	"testing"

	"github.com/tracewell/remotedbg/pkg/registry"
)

func TestAvailabilityCellReflectsEnabledAndAvailable(t *testing.T) {
	tests := []struct {
		name string
		dev  registry.Snapshot
		want string
	}{
		{"disabled", registry.Snapshot{Enabled: false}, "-"},
		{"enabled and free", registry.Snapshot{Enabled: true, Runtime: registry.Runtime{Available: true}}, "free"},
		{"enabled and busy", registry.Snapshot{Enabled: true, Runtime: registry.Runtime{Available: false}}, "busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := availabilityCell(tt.dev)
			if !strings.Contains(got, tt.want) {
				t.Errorf("availabilityCell(%+v) = %q, want to contain %q", tt.dev, got, tt.want)
			}
		})
	}
}

func TestHolderCellBlankWhenUnheld(t *testing.T) {
	if !strings.Contains(holderCell(""), "-") {
		t.Errorf("expected placeholder for empty holder")
	}
	if holderCell("agent-7") != "agent-7" {
		t.Errorf("expected holder id passed through unchanged")
	}
}

func TestHealthCellColoring(t *testing.T) {
	tests := []struct {
		health registry.Health
		want   string
	}{
		{registry.HealthHealthy, "healthy"},
		{registry.HealthError, "error"},
		{registry.HealthDisabled, "disabled"},
	}
	for _, tt := range tests {
		got := healthCell(tt.health)
		if !strings.Contains(got, tt.want) {
			t.Errorf("healthCell(%v) = %q, want to contain %q", tt.health, got, tt.want)
		}
	}
}
