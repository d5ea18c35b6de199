package main

import "testing"

func TestHostPort(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"127.0.0.1:24024", "127.0.0.1:24024"},
		{"ws://127.0.0.1:24025/", "127.0.0.1:24025"},
		{"wss://engine.local:443/geometry", "engine.local:443"},
		{":9000", ":9000"},
	}

	for _, tt := range tests {
		if got := hostPort(tt.in); got != tt.want {
			t.Errorf("hostPort(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
