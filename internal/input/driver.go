package input

import (
	"errors"
	"fmt"

	"github.com/pion/logging"

	rclog "remotecontrol/internal/logging"
)

// ErrUnsupported is returned by drivers not available in this build.
var ErrUnsupported = errors.New("input driver not supported on this platform")

// Driver is the OS input-simulation session. Implementations need not be
// safe for concurrent use; Handle serializes every call.
type Driver interface {
	MoveMouse(x, y int32) error
	Button(b Button, d Direction) error
	Scroll(axis Axis, delta int32) error
	Key(k KeySymbol, d Direction) error
}

// Factory constructs a Driver. It is called at most once per Handle.
type Factory func() (Driver, error)

// Driver names accepted by NewFactory.
const (
	DriverRobotgo = "robotgo"
	DriverXTest   = "xtest"
	DriverLog     = "log"
)

// NewFactory returns the factory for the named driver. display is only used
// by the XTest driver.
func NewFactory(name, display string, logger logging.LeveledLogger) (Factory, error) {
	switch name {
	case "", DriverRobotgo:
		return robotgoFactory, nil
	case DriverXTest:
		return func() (Driver, error) {
			d, err := NewXTestDriver(display)
			if err != nil {
				return nil, err
			}
			return d, nil
		}, nil
	case DriverLog:
		return func() (Driver, error) { return NewLogDriver(logger), nil }, nil
	}
	return nil, fmt.Errorf("unknown input driver %q", name)
}

func robotgoFactory() (Driver, error) {
	d, err := NewRobotgoDriver()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// LogDriver performs no OS side effect and logs every call.
type LogDriver struct {
	log logging.LeveledLogger
}

func NewLogDriver(logger logging.LeveledLogger) *LogDriver {
	return &LogDriver{log: rclog.OrDiscard(logger, rclog.ScopeInput)}
}

func (d *LogDriver) MoveMouse(x, y int32) error {
	d.log.Infof("move mouse to (%d, %d)", x, y)
	return nil
}

func (d *LogDriver) Button(b Button, dir Direction) error {
	d.log.Infof("button %s %s", b, dir)
	return nil
}

func (d *LogDriver) Scroll(axis Axis, delta int32) error {
	d.log.Infof("scroll %s by %d", axis, delta)
	return nil
}

func (d *LogDriver) Key(k KeySymbol, dir Direction) error {
	d.log.Infof("key %s %s", k, dir)
	return nil
}
