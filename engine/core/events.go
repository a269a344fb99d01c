package core

// EventType identifies the kind of host event delivered by the platform layer.
type EventType uint8

const (
	EVENT_NONE EventType = iota
	// The window was asked to close.
	EVENT_QUIT
	// Keyboard key pressed. Key and Mods are set; Repeat marks auto-repeat.
	EVENT_KEY_DOWN
	// Keyboard key released. Key and Mods are set.
	EVENT_KEY_UP
	// Composed text. Text holds one or more UTF-8 encoded runes.
	EVENT_TEXT_INPUT
	// Mouse button pressed. Button, Clicks, X and Y are set.
	EVENT_MOUSE_BUTTON_DOWN
	// Mouse button released. Button, X and Y are set.
	EVENT_MOUSE_BUTTON_UP
	// Mouse moved. X, Y are absolute, XRel, YRel relative to the previous motion.
	EVENT_MOUSE_MOTION
	// Mouse wheel scrolled by WheelX, WheelY.
	EVENT_MOUSE_WHEEL
	// Framebuffer resized. Width and Height are in pixels.
	EVENT_RESIZED
)

// Event is a raw host event in logical window coordinates.
type Event struct {
	Type EventType

	Key    KeyCode
	Mods   Mod
	Repeat bool
	Text   string

	Button Button
	Clicks uint8

	X, Y       float32
	XRel, YRel float32

	WheelX, WheelY float32

	Width, Height uint32
}

func (e EventType) String() string {
	switch e {
	case EVENT_QUIT:
		return "quit"
	case EVENT_KEY_DOWN:
		return "key_down"
	case EVENT_KEY_UP:
		return "key_up"
	case EVENT_TEXT_INPUT:
		return "text_input"
	case EVENT_MOUSE_BUTTON_DOWN:
		return "mouse_button_down"
	case EVENT_MOUSE_BUTTON_UP:
		return "mouse_button_up"
	case EVENT_MOUSE_MOTION:
		return "mouse_motion"
	case EVENT_MOUSE_WHEEL:
		return "mouse_wheel"
	case EVENT_RESIZED:
		return "resized"
	default:
		return "none"
	}
}
