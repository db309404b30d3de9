//go:build !linux || !cgo

package input

type XTestDriver struct{}

func NewXTestDriver(displayName string) (*XTestDriver, error) {
	return nil, ErrUnsupported
}

func (d *XTestDriver) MoveMouse(x, y int32) error           { return ErrUnsupported }
func (d *XTestDriver) Button(b Button, dir Direction) error { return ErrUnsupported }
func (d *XTestDriver) Scroll(axis Axis, delta int32) error  { return ErrUnsupported }
func (d *XTestDriver) Key(k KeySymbol, dir Direction) error { return ErrUnsupported }
