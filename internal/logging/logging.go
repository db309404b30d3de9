// Package logging builds the scoped pion loggers shared by every component
// and by the WebRTC stack.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pion/logging"
)

// Scopes used across the module.
const (
	ScopeRemoteControl = "remotecontrol"
	ScopeInput         = "input"
	ScopeSession       = "session"
	ScopeServer        = "server"
	ScopeAudio         = "audio"
	ScopeScript        = "script"
)

// ParseLevel maps a level name to a pion log level.
func ParseLevel(name string) (logging.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "disabled", "off", "none":
		return logging.LogLevelDisabled, nil
	case "error":
		return logging.LogLevelError, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "", "info":
		return logging.LogLevelInfo, nil
	case "debug":
		return logging.LogLevelDebug, nil
	case "trace":
		return logging.LogLevelTrace, nil
	}
	return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", name)
}

// NewFactory returns a factory whose default level is level. PION_LOG_*
// environment variables still override individual scopes.
func NewFactory(level logging.LogLevel, w io.Writer) *logging.DefaultLoggerFactory {
	if w == nil {
		w = os.Stderr
	}
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = level
	f.Writer = w
	return f
}

// Discard returns a logger that drops everything.
func Discard(scope string) logging.LeveledLogger {
	return logging.NewDefaultLeveledLoggerForScope(scope, logging.LogLevelDisabled, io.Discard)
}

// OrDiscard returns l, or a discarding logger for scope when l is nil.
func OrDiscard(l logging.LeveledLogger, scope string) logging.LeveledLogger {
	if l == nil {
		return Discard(scope)
	}
	return l
}
