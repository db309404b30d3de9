//go:build !cgo

package input

type RobotgoDriver struct{}

func NewRobotgoDriver() (*RobotgoDriver, error) {
	return nil, ErrUnsupported
}

func (d *RobotgoDriver) MoveMouse(x, y int32) error           { return ErrUnsupported }
func (d *RobotgoDriver) Button(b Button, dir Direction) error { return ErrUnsupported }
func (d *RobotgoDriver) Scroll(axis Axis, delta int32) error  { return ErrUnsupported }
func (d *RobotgoDriver) Key(k KeySymbol, dir Direction) error { return ErrUnsupported }
