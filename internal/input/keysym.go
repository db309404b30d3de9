package input

import (
	"fmt"
	"strconv"
)

// NamedKey is a symbolic, non-printable key.
type NamedKey int

const (
	NoKey NamedKey = iota
	Backspace
	Delete
	Tab
	Return
	Shift
	LShift
	RShift
	Control
	LControl
	RControl
	Alt
	Meta
	CapsLock
	Escape
	Space
	PageUp
	PageDown
	End
	Home
	LeftArrow
	UpArrow
	RightArrow
	DownArrow
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	F13
	F14
	F15
	F16
	F17
	F18
	F19
	F20
)

var namedKeyStrings = [...]string{
	NoKey:      "NoKey",
	Backspace:  "Backspace",
	Delete:     "Delete",
	Tab:        "Tab",
	Return:     "Return",
	Shift:      "Shift",
	LShift:     "LShift",
	RShift:     "RShift",
	Control:    "Control",
	LControl:   "LControl",
	RControl:   "RControl",
	Alt:        "Alt",
	Meta:       "Meta",
	CapsLock:   "CapsLock",
	Escape:     "Escape",
	Space:      "Space",
	PageUp:     "PageUp",
	PageDown:   "PageDown",
	End:        "End",
	Home:       "Home",
	LeftArrow:  "LeftArrow",
	UpArrow:    "UpArrow",
	RightArrow: "RightArrow",
	DownArrow:  "DownArrow",
}

func (k NamedKey) String() string {
	if k >= F1 && k <= F20 {
		return "F" + strconv.Itoa(int(k-F1)+1)
	}
	if k >= 0 && int(k) < len(namedKeyStrings) {
		return namedKeyStrings[k]
	}
	return fmt.Sprintf("NamedKey(%d)", int(k))
}

// FunctionKey returns F1..F20 for n in 1..20 and NoKey otherwise.
func FunctionKey(n int) NamedKey {
	if n < 1 || n > 20 {
		return NoKey
	}
	return F1 + NamedKey(n-1)
}

// Modifiers are released when a Handle is initialized.
var Modifiers = []NamedKey{
	CapsLock,
	Shift,
	LShift,
	RShift,
	Control,
	LControl,
	RControl,
	Alt,
	Meta,
}

// KeySymbol is either a named key or a single printable Unicode scalar.
// Backends cannot tell left from right Alt or Meta, so there is no symbol
// for the sided variants.
type KeySymbol struct {
	Named NamedKey
	Char  rune
}

func Named(k NamedKey) KeySymbol { return KeySymbol{Named: k} }

func Printable(r rune) KeySymbol { return KeySymbol{Char: r} }

func (k KeySymbol) IsPrintable() bool { return k.Named == NoKey }

func (k KeySymbol) String() string {
	if k.IsPrintable() {
		return strconv.QuoteRune(k.Char)
	}
	return k.Named.String()
}
