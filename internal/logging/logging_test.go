package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pion/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logging.LogLevel
	}{
		{"", logging.LogLevelInfo},
		{"debug", logging.LogLevelDebug},
		{"WARN", logging.LogLevelWarn},
		{"warning", logging.LogLevelWarn},
		{"error", logging.LogLevelError},
		{"trace", logging.LogLevelTrace},
		{"off", logging.LogLevelDisabled},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) succeeded, want error")
	}
}

func TestFactoryLevel(t *testing.T) {
	var buf bytes.Buffer
	f := NewFactory(logging.LogLevelWarn, &buf)
	l := f.NewLogger(ScopeRemoteControl)
	l.Info("hidden")
	l.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil, ScopeInput) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
}
