package translate

import (
	"strconv"
	"unicode/utf8"

	"remotecontrol/internal/input"
)

// namedKeys maps platform-neutral key names to symbolic keys. Matching is
// exact and case-sensitive. Left and right Alt and Meta collapse to the
// unsided key because no backend can tell them apart.
var namedKeys = map[string]input.NamedKey{
	"Backspace":    input.Backspace,
	"Delete":       input.Delete,
	"Tab":          input.Tab,
	"Enter":        input.Return,
	"Shift":        input.Shift,
	"ShiftLeft":    input.LShift,
	"ShiftRight":   input.RShift,
	"Control":      input.Control,
	"ControlLeft":  input.LControl,
	"ControlRight": input.RControl,
	"Alt":          input.Alt,
	"AltLeft":      input.Alt,
	"AltRight":     input.Alt,
	"Meta":         input.Meta,
	"MetaLeft":     input.Meta,
	"MetaRight":    input.Meta,
	"CapsLock":     input.CapsLock,
	"Escape":       input.Escape,
	"Space":        input.Space,
	"PageUp":       input.PageUp,
	"PageDown":     input.PageDown,
	"End":          input.End,
	"Home":         input.Home,
	"ArrowLeft":    input.LeftArrow,
	"ArrowUp":      input.UpArrow,
	"ArrowRight":   input.RightArrow,
	"ArrowDown":    input.DownArrow,
}

func init() {
	for n := 1; n <= 20; n++ {
		namedKeys["F"+strconv.Itoa(n)] = input.FunctionKey(n)
	}
}

// keyNames is the canonical name of every symbolic key.
var keyNames = func() map[input.NamedKey]string {
	m := map[input.NamedKey]string{
		input.Backspace:  "Backspace",
		input.Delete:     "Delete",
		input.Tab:        "Tab",
		input.Return:     "Enter",
		input.Shift:      "Shift",
		input.LShift:     "ShiftLeft",
		input.RShift:     "ShiftRight",
		input.Control:    "Control",
		input.LControl:   "ControlLeft",
		input.RControl:   "ControlRight",
		input.Alt:        "Alt",
		input.Meta:       "Meta",
		input.CapsLock:   "CapsLock",
		input.Escape:     "Escape",
		input.Space:      "Space",
		input.PageUp:     "PageUp",
		input.PageDown:   "PageDown",
		input.End:        "End",
		input.Home:       "Home",
		input.LeftArrow:  "ArrowLeft",
		input.UpArrow:    "ArrowUp",
		input.RightArrow: "ArrowRight",
		input.DownArrow:  "ArrowDown",
	}
	for n := 1; n <= 20; n++ {
		m[input.FunctionKey(n)] = "F" + strconv.Itoa(n)
	}
	return m
}()

// LookupKey resolves a key name: a named key first, then a single Unicode
// scalar.
func LookupKey(name string) (input.KeySymbol, error) {
	if k, ok := namedKeys[name]; ok {
		return input.Named(k), nil
	}
	r, size := utf8.DecodeRuneInString(name)
	switch {
	case size == 0:
		return input.KeySymbol{}, ErrEmptyKey
	case r == utf8.RuneError && size == 1:
		return input.KeySymbol{}, ErrInvalidKey
	case size < len(name):
		return input.KeySymbol{}, ErrMultiCharacterKey
	}
	return input.Printable(r), nil
}

// KeyName returns the canonical name of k, which LookupKey maps back to k.
func KeyName(k input.KeySymbol) string {
	if k.IsPrintable() {
		return string(k.Char)
	}
	return keyNames[k.Named]
}

// KeyNames returns every name understood by LookupKey besides single
// characters.
func KeyNames() []string {
	names := make([]string, 0, len(namedKeys))
	for name := range namedKeys {
		names = append(names, name)
	}
	return names
}
