package input

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pion/logging"

	rclog "remotecontrol/internal/logging"
)

// ErrBackendUnavailable is returned by Execute once driver construction has
// failed. The failure is permanent for the lifetime of the Handle.
var ErrBackendUnavailable = errors.New("input backend unavailable")

// ErrDefaultInUse is returned by SetDefaultFactory once Default has built
// the process-wide Handle.
var ErrDefaultInUse = errors.New("default input handle already in use")

// MaxScrollSteps bounds the wheel clicks a single Scroll action performs.
// Drivers click once per unit of delta while the Handle is locked.
const MaxScrollSteps = 100

// Handle owns the process input session. The driver is constructed on first
// use, every modifier is released right after construction, and all calls
// into the driver are serialized. A Handle is never torn down.
type Handle struct {
	factory Factory
	log     logging.LeveledLogger

	once    sync.Once
	initErr error

	mu  sync.Mutex
	drv Driver
}

func NewHandle(factory Factory, logger logging.LeveledLogger) *Handle {
	return &Handle{factory: factory, log: rclog.OrDiscard(logger, rclog.ScopeInput)}
}

// Init constructs the driver if that has not happened yet and reports
// whether the backend is usable. Concurrent callers block until the single
// construction finishes.
func (h *Handle) Init() error {
	h.once.Do(h.construct)
	return h.initErr
}

func (h *Handle) construct() {
	drv, err := h.factory()
	if err != nil {
		h.initErr = fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		h.log.Errorf("failed to create input backend: %v", err)
		return
	}

	// Sometimes a modifier is left pressed by a previous session.
	for _, k := range Modifiers {
		if err := drv.Key(Named(k), Release); err != nil {
			h.log.Debugf("release %s: %v", k, err)
		}
	}

	h.mu.Lock()
	h.drv = drv
	h.mu.Unlock()
	h.log.Debug("input backend ready")
}

// Execute performs a single action. Failures are returned to the caller;
// nothing is retried.
func (h *Handle) Execute(a Action) error {
	if err := h.Init(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	switch a := a.(type) {
	case MouseMove:
		err = h.drv.MoveMouse(a.X, a.Y)
	case MouseButton:
		err = h.drv.Button(a.Button, a.Direction)
	case Scroll:
		err = h.drv.Scroll(a.Axis, h.clampScroll(a.Delta))
	case KeyStroke:
		err = h.drv.Key(a.Key, a.Direction)
	default:
		return fmt.Errorf("unknown input action %T", a)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a, err)
	}
	return nil
}

func (h *Handle) clampScroll(delta int32) int32 {
	switch {
	case delta > MaxScrollSteps:
		h.log.Warnf("scroll delta %d clamped to %d", delta, MaxScrollSteps)
		return MaxScrollSteps
	case delta < -MaxScrollSteps:
		h.log.Warnf("scroll delta %d clamped to %d", delta, -MaxScrollSteps)
		return -MaxScrollSteps
	}
	return delta
}

var (
	defaultMu      sync.Mutex
	defaultFactory Factory = robotgoFactory
	defaultLogger  logging.LeveledLogger
	defaultHandle  *Handle
)

// SetDefaultFactory chooses the driver behind Default. It must be called
// before the first call to Default; afterwards it returns ErrDefaultInUse.
func SetDefaultFactory(factory Factory, logger logging.LeveledLogger) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHandle != nil {
		return ErrDefaultInUse
	}
	defaultFactory = factory
	defaultLogger = logger
	return nil
}

// Default returns the process-wide Handle. It uses the robotgo driver
// unless SetDefaultFactory chose another one.
func Default() *Handle {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHandle == nil {
		defaultHandle = NewHandle(defaultFactory, defaultLogger)
	}
	return defaultHandle
}
