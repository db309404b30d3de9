package remotecontrol

import (
	"sync"

	"github.com/pion/logging"

	"remotecontrol/internal/input"
	rclog "remotecontrol/internal/logging"
	"remotecontrol/internal/navigation"
	"remotecontrol/internal/pipeline"
)

// Handler replays control events without any pipeline around it. It never
// returns an error: every failure ends up in the log.
type Handler struct {
	exec Executor
	log  logging.LeveledLogger
}

func NewHandler(exec Executor, logger logging.LeveledLogger) *Handler {
	return &Handler{exec: exec, log: rclog.OrDiscard(logger, rclog.ScopeRemoteControl)}
}

func (h *Handler) Handle(ev *pipeline.Event) {
	if ev.Type != pipeline.EventNavigation || ev.Structure == nil {
		h.log.Debugf("Not a navigation event: %s", ev)
		return
	}
	h.HandleStructure(ev.Structure)
}

func (h *Handler) HandleStructure(s *navigation.Structure) {
	replay(h.exec, h.log, s)
}

// HandleJSON parses a JSON control event and replays it.
func (h *Handler) HandleJSON(data []byte) {
	s, err := navigation.Parse(data)
	if err != nil {
		h.log.Warnf("Dropping control message: %v", err)
		return
	}
	h.HandleStructure(s)
}

var (
	defaultMu      sync.Mutex
	defaultLogger  logging.LeveledLogger
	defaultHandler *Handler
)

// SetDefaultLogger sets the logger of the process-wide Handler. It has no
// effect once DefaultHandler has run.
func SetDefaultLogger(logger logging.LeveledLogger) {
	defaultMu.Lock()
	if defaultHandler == nil {
		defaultLogger = logger
	}
	defaultMu.Unlock()
}

// DefaultHandler returns the Handler bound to the process-wide input
// handle, input.Default.
func DefaultHandler() *Handler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHandler == nil {
		defaultHandler = NewHandler(input.Default(), defaultLogger)
	}
	return defaultHandler
}

// HandleEvent replays ev through the process-wide input handle.
func HandleEvent(ev *pipeline.Event) {
	DefaultHandler().Handle(ev)
}
