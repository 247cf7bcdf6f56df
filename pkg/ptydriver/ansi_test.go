package ptydriver

import "testing"

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no escapes", "(lldb) ", "(lldb) "},
		{"color wrapped prompt", "\x1b[32m(lldb) \x1b[0m", "(lldb) "},
		{"multiple sequences", "\x1b[1;31merror:\x1b[0m something failed", "error: something failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripANSI(tt.in); got != tt.want {
				t.Errorf("stripANSI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
