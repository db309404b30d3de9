// Package input executes validated input actions against the local desktop
// through a Driver, behind a single serialized Handle.
package input

import "fmt"

type Button int

const (
	ButtonLeft Button = iota + 1
	ButtonMiddle
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "Left"
	case ButtonMiddle:
		return "Middle"
	case ButtonRight:
		return "Right"
	}
	return fmt.Sprintf("Button(%d)", int(b))
}

type Direction int

const (
	Press Direction = iota
	Release
)

func (d Direction) String() string {
	if d == Press {
		return "Press"
	}
	return "Release"
}

type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) String() string {
	if a == Horizontal {
		return "Horizontal"
	}
	return "Vertical"
}

// Action is one of MouseMove, MouseButton, Scroll or KeyStroke.
type Action interface {
	fmt.Stringer
	isAction()
}

// MouseMove moves the pointer to absolute screen coordinates.
type MouseMove struct {
	X, Y int32
}

type MouseButton struct {
	Button    Button
	Direction Direction
}

// Scroll scrolls by Delta units on one axis. Positive vertical deltas scroll
// down, positive horizontal deltas scroll right.
type Scroll struct {
	Axis  Axis
	Delta int32
}

type KeyStroke struct {
	Key       KeySymbol
	Direction Direction
}

func (MouseMove) isAction()   {}
func (MouseButton) isAction() {}
func (Scroll) isAction()      {}
func (KeyStroke) isAction()   {}

func (a MouseMove) String() string { return fmt.Sprintf("MouseMove(%d, %d)", a.X, a.Y) }
func (a MouseButton) String() string {
	return fmt.Sprintf("MouseButton(%s, %s)", a.Button, a.Direction)
}
func (a Scroll) String() string    { return fmt.Sprintf("Scroll(%s, %d)", a.Axis, a.Delta) }
func (a KeyStroke) String() string { return fmt.Sprintf("Key(%s, %s)", a.Key, a.Direction) }
