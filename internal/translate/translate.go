// Package translate turns navigation control events into input actions.
// Translation is pure: it never touches the input backend.
package translate

import (
	"errors"
	"fmt"
	"math"

	"remotecontrol/internal/input"
	"remotecontrol/internal/navigation"
)

var (
	ErrMissingField      = errors.New("missing field")
	ErrEmptyKey          = errors.New("empty key")
	ErrMultiCharacterKey = errors.New("multi-character key")
	ErrInvalidKey        = errors.New("key is not valid UTF-8")
	ErrUnrecognizedEvent = errors.New("unrecognized event")
)

// DecodeError describes why an event could not be translated. Unwrap yields
// one of the Err* sentinels above.
type DecodeError struct {
	Event string
	Field string
	Key   string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Field != "" && e.Event == "":
		return fmt.Sprintf("%v `%s`", e.Err, e.Field)
	case e.Field != "":
		return fmt.Sprintf("%s: %v `%s`", e.Event, e.Err, e.Field)
	case errors.Is(e.Err, ErrUnrecognizedEvent):
		return fmt.Sprintf("%v: %q", e.Err, e.Event)
	}
	return fmt.Sprintf("%s: %v %q", e.Event, e.Err, e.Key)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Result is the outcome of a successful translation. Handled is false when
// the event is well formed but outside what this translator acts on, such
// as a button number other than 1, 2 or 3; such events should travel on.
// A handled event may carry no actions, as a scroll with zero deltas does.
type Result struct {
	Actions []input.Action
	Handled bool
}

func handled(actions ...input.Action) Result {
	return Result{Actions: actions, Handled: true}
}

// Translate decodes one control event.
func Translate(s *navigation.Structure) (Result, error) {
	event, err := s.Event()
	if err != nil {
		return Result{}, &DecodeError{Field: navigation.FieldEvent, Err: ErrMissingField}
	}

	switch event {
	case navigation.MouseMoveEvent:
		x, err := float(s, event, navigation.FieldPointerX)
		if err != nil {
			return Result{}, err
		}
		y, err := float(s, event, navigation.FieldPointerY)
		if err != nil {
			return Result{}, err
		}
		return handled(input.MouseMove{X: truncate(x), Y: truncate(y)}), nil

	case navigation.ButtonPressEvent, navigation.ButtonReleaseEvent:
		n, err := s.Int32(navigation.FieldButton)
		if err != nil {
			return Result{}, missing(event, navigation.FieldButton)
		}
		button, ok := buttons[n]
		if !ok {
			return Result{}, nil
		}
		return handled(input.MouseButton{
			Button:    button,
			Direction: direction(event == navigation.ButtonPressEvent),
		}), nil

	case navigation.MouseScrollEvent:
		dx, err := float(s, event, navigation.FieldDeltaPointerX)
		if err != nil {
			return Result{}, err
		}
		dy, err := float(s, event, navigation.FieldDeltaPointerY)
		if err != nil {
			return Result{}, err
		}
		r := handled()
		if d := truncate(dx); d != 0 {
			r.Actions = append(r.Actions, input.Scroll{Axis: input.Horizontal, Delta: d})
		}
		if d := truncate(dy); d != 0 {
			r.Actions = append(r.Actions, input.Scroll{Axis: input.Vertical, Delta: d})
		}
		return r, nil

	case navigation.KeyPressEvent, navigation.KeyReleaseEvent:
		name, err := s.String(navigation.FieldKey)
		if err != nil {
			return Result{}, missing(event, navigation.FieldKey)
		}
		key, err := LookupKey(name)
		if err != nil {
			return Result{}, &DecodeError{Event: event, Key: name, Err: err}
		}
		return handled(input.KeyStroke{
			Key:       key,
			Direction: direction(event == navigation.KeyPressEvent),
		}), nil
	}

	return Result{}, &DecodeError{Event: event, Err: ErrUnrecognizedEvent}
}

var buttons = map[int32]input.Button{
	1: input.ButtonLeft,
	2: input.ButtonMiddle,
	3: input.ButtonRight,
}

func float(s *navigation.Structure, event, field string) (float64, error) {
	v, err := s.Float64(field)
	if err != nil {
		return 0, missing(event, field)
	}
	return v, nil
}

func missing(event, field string) error {
	return &DecodeError{Event: event, Field: field, Err: ErrMissingField}
}

func direction(press bool) input.Direction {
	if press {
		return input.Press
	}
	return input.Release
}

// truncate converts toward zero, saturating at the int32 bounds. NaN maps
// to zero.
func truncate(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}
