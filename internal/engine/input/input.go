// Package input turns SDL2 events into camera and renderer controls.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int // relative motion, or wheel ticks
	DeltaY int
	Button uint8
}

// Input collects the events of one frame and tracks held keys and buttons.
type Input struct {
	events  []Event
	keys    map[sdl.Scancode]bool
	buttons map[uint8]bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events:  make([]Event, 0, 16),
		keys:    make(map[sdl.Scancode]bool),
		buttons: make(map[uint8]bool),
	}
}

// Update polls SDL events. It returns true when the window was asked to close.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.handle(event) {
			return true
		}
	}
	return false
}

func (i *Input) handle(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		return true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			i.events = append(i.events, Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			})
		}

	case *sdl.KeyboardEvent:
		if e.Repeat != 0 {
			return false
		}
		code := e.Keysym.Scancode
		if e.Type == sdl.KEYDOWN {
			i.keys[code] = true
			i.events = append(i.events, Event{Type: EventKeyDown, Key: code})
		} else if e.Type == sdl.KEYUP {
			delete(i.keys, code)
			i.events = append(i.events, Event{Type: EventKeyUp, Key: code})
		}

	case *sdl.MouseMotionEvent:
		i.events = append(i.events, Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		})

	case *sdl.MouseButtonEvent:
		ev := Event{MouseX: int(e.X), MouseY: int(e.Y), Button: e.Button}
		if e.Type == sdl.MOUSEBUTTONDOWN {
			i.buttons[e.Button] = true
			ev.Type = EventMouseDown
		} else {
			delete(i.buttons, e.Button)
			ev.Type = EventMouseUp
		}
		i.events = append(i.events, ev)

	case *sdl.MouseWheelEvent:
		i.events = append(i.events, Event{
			Type:   EventMouseWheel,
			DeltaX: int(e.X),
			DeltaY: int(e.Y),
		})
	}
	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// IsKeyDown reports whether a key is currently held.
func (i *Input) IsKeyDown(scancode sdl.Scancode) bool {
	return i.keys[scancode]
}

// IsButtonDown reports whether a mouse button is currently held.
func (i *Input) IsButtonDown(button uint8) bool {
	return i.buttons[button]
}

// Axis returns +1, -1 or 0 depending on which of two keys is held.
func (i *Input) Axis(positive, negative sdl.Scancode) float32 {
	var v float32
	if i.keys[positive] {
		v++
	}
	if i.keys[negative] {
		v--
	}
	return v
}
