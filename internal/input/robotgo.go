//go:build cgo

package input

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-vgo/robotgo"
)

// robotgo cannot tell left from right Alt or Meta either.
var robotgoKeyNames = map[NamedKey]string{
	Backspace:  "backspace",
	Delete:     "delete",
	Tab:        "tab",
	Return:     "enter",
	Shift:      "shift",
	LShift:     "lshift",
	RShift:     "rshift",
	Control:    "ctrl",
	LControl:   "lctrl",
	RControl:   "rctrl",
	Alt:        "alt",
	Meta:       "cmd",
	CapsLock:   "capslock",
	Escape:     "esc",
	Space:      "space",
	PageUp:     "pageup",
	PageDown:   "pagedown",
	End:        "end",
	Home:       "home",
	LeftArrow:  "left",
	UpArrow:    "up",
	RightArrow: "right",
	DownArrow:  "down",
}

type RobotgoDriver struct{}

// NewRobotgoDriver never fails: robotgo opens the display lazily and its
// Move and ScrollDir report nothing, so a missing display only shows up as
// events with no effect. Use the xtest driver where construction must
// verify the display.
func NewRobotgoDriver() (*RobotgoDriver, error) {
	return &RobotgoDriver{}, nil
}

func (d *RobotgoDriver) MoveMouse(x, y int32) error {
	robotgo.Move(int(x), int(y))
	return nil
}

func (d *RobotgoDriver) Button(b Button, dir Direction) error {
	var name string
	switch b {
	case ButtonLeft:
		name = "left"
	case ButtonMiddle:
		name = "center"
	case ButtonRight:
		name = "right"
	default:
		return fmt.Errorf("unsupported button %s", b)
	}
	return robotgo.Toggle(name, toggleArg(dir))
}

func (d *RobotgoDriver) Scroll(axis Axis, delta int32) error {
	n := int(delta)
	var dir string
	switch {
	case axis == Vertical && n > 0:
		dir = "down"
	case axis == Vertical:
		dir, n = "up", -n
	case n > 0:
		dir = "right"
	default:
		dir, n = "left", -n
	}
	if n == 0 {
		return nil
	}
	robotgo.ScrollDir(n, dir)
	return nil
}

func (d *RobotgoDriver) Key(k KeySymbol, dir Direction) error {
	if !k.IsPrintable() {
		return robotgo.KeyToggle(robotgoKeyName(k.Named), toggleArg(dir))
	}
	if k.Char < utf8.RuneSelf {
		return robotgo.KeyToggle(string(k.Char), toggleArg(dir))
	}
	// Characters outside ASCII have no key code; type them on press.
	if dir == Press {
		robotgo.UnicodeType(uint32(k.Char))
	}
	return nil
}

func robotgoKeyName(k NamedKey) string {
	if k >= F1 && k <= F20 {
		return fmt.Sprintf("f%d", int(k-F1)+1)
	}
	return robotgoKeyNames[k]
}

func toggleArg(dir Direction) string {
	if dir == Press {
		return "down"
	}
	return "up"
}
