//go:build linux && cgo

package input

/*
#cgo pkg-config: x11 xtst
#include <X11/Xlib.h>
#include <X11/keysym.h>
#include <X11/extensions/XTest.h>
#include <stdlib.h>

static Display* xtest_open(const char *display_name) {
	return XOpenDisplay(display_name);
}

static int xtest_has_extension(Display *dpy) {
	int ev, err, major, minor;
	return XTestQueryExtension(dpy, &ev, &err, &major, &minor);
}

static void xtest_move(Display *dpy, int x, int y) {
	XTestFakeMotionEvent(dpy, DefaultScreen(dpy), x, y, 0);
	XFlush(dpy);
}

static void xtest_button(Display *dpy, unsigned int button, int press) {
	XTestFakeButtonEvent(dpy, button, press, 0);
	XFlush(dpy);
}

static void xtest_click(Display *dpy, unsigned int button, int count) {
	for (int i = 0; i < count; i++) {
		XTestFakeButtonEvent(dpy, button, True, 0);
		XTestFakeButtonEvent(dpy, button, False, 0);
	}
	XFlush(dpy);
}

static int xtest_key(Display *dpy, unsigned long keysym, int press) {
	KeyCode kc = XKeysymToKeycode(dpy, keysym);
	if (kc == 0) return -1;
	XTestFakeKeyEvent(dpy, kc, press, 0);
	XFlush(dpy);
	return 0;
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

// X11 keysyms for the named keys.
var xKeysyms = map[NamedKey]C.ulong{
	Backspace:  C.XK_BackSpace,
	Delete:     C.XK_Delete,
	Tab:        C.XK_Tab,
	Return:     C.XK_Return,
	Shift:      C.XK_Shift_L,
	LShift:     C.XK_Shift_L,
	RShift:     C.XK_Shift_R,
	Control:    C.XK_Control_L,
	LControl:   C.XK_Control_L,
	RControl:   C.XK_Control_R,
	Alt:        C.XK_Alt_L,
	Meta:       C.XK_Super_L,
	CapsLock:   C.XK_Caps_Lock,
	Escape:     C.XK_Escape,
	Space:      C.XK_space,
	PageUp:     C.XK_Page_Up,
	PageDown:   C.XK_Page_Down,
	End:        C.XK_End,
	Home:       C.XK_Home,
	LeftArrow:  C.XK_Left,
	UpArrow:    C.XK_Up,
	RightArrow: C.XK_Right,
	DownArrow:  C.XK_Down,
}

// Core pointer buttons; 4-7 are the wheel.
const (
	xButtonLeft   = 1
	xButtonMiddle = 2
	xButtonRight  = 3
	xWheelUp      = 4
	xWheelDown    = 5
	xWheelLeft    = 6
	xWheelRight   = 7
)

// XTestDriver injects input into an X server through the XTEST extension.
type XTestDriver struct {
	dpy *C.Display
}

func NewXTestDriver(displayName string) (*XTestDriver, error) {
	var cDisplay *C.char
	if displayName != "" {
		cDisplay = C.CString(displayName)
		defer C.free(unsafe.Pointer(cDisplay))
	}

	dpy := C.xtest_open(cDisplay)
	if dpy == nil {
		return nil, fmt.Errorf("failed to open display for input: %q", displayName)
	}
	if C.xtest_has_extension(dpy) == 0 {
		C.XCloseDisplay(dpy)
		return nil, fmt.Errorf("display %q has no XTEST extension", displayName)
	}
	return &XTestDriver{dpy: dpy}, nil
}

func (d *XTestDriver) MoveMouse(x, y int32) error {
	C.xtest_move(d.dpy, C.int(x), C.int(y))
	return nil
}

func (d *XTestDriver) Button(b Button, dir Direction) error {
	var xb C.uint
	switch b {
	case ButtonLeft:
		xb = xButtonLeft
	case ButtonMiddle:
		xb = xButtonMiddle
	case ButtonRight:
		xb = xButtonRight
	default:
		return fmt.Errorf("unsupported button %s", b)
	}
	C.xtest_button(d.dpy, xb, pressArg(dir))
	return nil
}

// Scroll clicks the wheel button once per unit of delta.
func (d *XTestDriver) Scroll(axis Axis, delta int32) error {
	n := int(delta)
	var xb C.uint
	switch {
	case axis == Vertical && n > 0:
		xb = xWheelDown
	case axis == Vertical:
		xb, n = xWheelUp, -n
	case n > 0:
		xb = xWheelRight
	default:
		xb, n = xWheelLeft, -n
	}
	if n > 0 {
		C.xtest_click(d.dpy, xb, C.int(n))
	}
	return nil
}

func (d *XTestDriver) Key(k KeySymbol, dir Direction) error {
	keysym := xKeysym(k)
	if keysym == 0 {
		return fmt.Errorf("no keysym for %s", k)
	}
	if C.xtest_key(d.dpy, keysym, pressArg(dir)) != 0 {
		return fmt.Errorf("no keycode mapped for %s", k)
	}
	return nil
}

func xKeysym(k KeySymbol) C.ulong {
	if !k.IsPrintable() {
		if k.Named >= F1 && k.Named <= F20 {
			return C.XK_F1 + C.ulong(k.Named-F1)
		}
		return xKeysyms[k.Named]
	}
	r := k.Char
	// Latin-1 keysyms equal their code point; everything else lives in the
	// Unicode keysym range.
	if (r >= 0x20 && r <= 0x7e) || (r >= 0xa0 && r <= 0xff) {
		return C.ulong(r)
	}
	if r < 0x20 {
		return 0
	}
	return C.ulong(0x01000000 | uint32(r))
}

func pressArg(dir Direction) C.int {
	if dir == Press {
		return 1
	}
	return 0
}
