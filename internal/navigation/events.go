package navigation

// Event discriminators.
const (
	MouseMoveEvent     = "mouse-move"
	ButtonPressEvent   = "mouse-button-press"
	ButtonReleaseEvent = "mouse-button-release"
	MouseScrollEvent   = "mouse-scroll"
	KeyPressEvent      = "key-press"
	KeyReleaseEvent    = "key-release"
)

// Field names.
const (
	FieldPointerX      = "pointer_x"
	FieldPointerY      = "pointer_y"
	FieldButton        = "button"
	FieldDeltaPointerX = "delta_pointer_x"
	FieldDeltaPointerY = "delta_pointer_y"
	FieldKey           = "key"
)

func MouseMove(x, y float64) *Structure {
	return NewEvent(MouseMoveEvent).
		Set(FieldPointerX, x).
		Set(FieldPointerY, y)
}

// MouseButton builds a press or release for button 1 (left), 2 (middle) or
// 3 (right).
func MouseButton(button int32, press bool, x, y float64) *Structure {
	ev := ButtonReleaseEvent
	if press {
		ev = ButtonPressEvent
	}
	return NewEvent(ev).
		Set(FieldButton, button).
		Set(FieldPointerX, x).
		Set(FieldPointerY, y)
}

func MouseScroll(x, y, dx, dy float64) *Structure {
	return NewEvent(MouseScrollEvent).
		Set(FieldPointerX, x).
		Set(FieldPointerY, y).
		Set(FieldDeltaPointerX, dx).
		Set(FieldDeltaPointerY, dy)
}

func Key(key string, press bool) *Structure {
	ev := KeyReleaseEvent
	if press {
		ev = KeyPressEvent
	}
	return NewEvent(ev).Set(FieldKey, key)
}
