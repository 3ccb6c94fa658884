// Package input translates SDL2 events into viewer pointer events and host
// lifecycle changes.
package input

import (
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/glbviewer/internal/viewer"
)

// EventType classifies a translated event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	// EventHidden and EventShown are window minimize and restore.
	EventHidden
	EventShown
	EventKeyDown
	EventTouch
)

// Event is a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	Touch  viewer.TouchEvent
}

// Input translates SDL events. Pointer coordinates are scaled from window
// coordinates to drawable pixels.
type Input struct {
	events []Event
	scale  float32
	width  float32
	height float32

	mouseDown bool
	finger    sdl.FingerID
	fingerOn  bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		scale:  1,
	}
}

// SetScale sets the window-to-pixel ratio for mouse coordinates.
func (i *Input) SetScale(s float32) {
	if s > 0 {
		i.scale = s
	}
}

// SetSize sets the drawable size touch coordinates are normalized against.
func (i *Input) SetSize(width, height int) {
	i.width, i.height = float32(width), float32(height)
}

// Update polls SDL events and translates them.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if ev, ok := i.Translate(event); ok {
			i.events = append(i.events, ev)
			if ev.Type == EventQuit {
				quit = true
			}
		}
	}
	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

func stamp(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func (i *Input) touch(action viewer.TouchAction, x, y float32, ts uint32) Event {
	return Event{Type: EventTouch, Touch: viewer.TouchEvent{
		Action: action,
		X:      x,
		Y:      y,
		Time:   stamp(ts),
	}}
}

// Translate converts one SDL event. Only the left mouse button and the
// first finger drive the camera. The window disables SDL's synthesized
// mouse events for touches, so a touch is never seen twice.
func (i *Input) Translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
			return Event{Type: EventWindowResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		case sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_HIDDEN:
			return Event{Type: EventHidden}, true
		case sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_SHOWN:
			return Event{Type: EventShown}, true
		case sdl.WINDOWEVENT_CLOSE:
			return Event{Type: EventQuit}, true
		}

	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
			return Event{Type: EventKeyDown, Key: e.Keysym.Scancode}, true
		}

	case *sdl.MouseButtonEvent:
		if e.Button != sdl.BUTTON_LEFT {
			return Event{}, false
		}
		x, y := float32(e.X)*i.scale, float32(e.Y)*i.scale
		if e.Type == sdl.MOUSEBUTTONDOWN {
			i.mouseDown = true
			return i.touch(viewer.TouchDown, x, y, e.Timestamp), true
		}
		if !i.mouseDown {
			return Event{}, false
		}
		i.mouseDown = false
		return i.touch(viewer.TouchUp, x, y, e.Timestamp), true

	case *sdl.MouseMotionEvent:
		if !i.mouseDown {
			return Event{}, false
		}
		return i.touch(viewer.TouchMove, float32(e.X)*i.scale, float32(e.Y)*i.scale, e.Timestamp), true

	case *sdl.MouseWheelEvent:
		if e.Y == 0 {
			return Event{}, false
		}
		ev := i.touch(viewer.TouchScroll, 0, 0, e.Timestamp)
		ev.Touch.Scroll = float32(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			ev.Touch.Scroll = -ev.Touch.Scroll
		}
		return ev, true

	case *sdl.TouchFingerEvent:
		x, y := e.X*i.width, e.Y*i.height
		switch e.Type {
		case sdl.FINGERDOWN:
			if i.fingerOn {
				return Event{}, false
			}
			i.finger, i.fingerOn = e.FingerID, true
			return i.touch(viewer.TouchDown, x, y, e.Timestamp), true
		case sdl.FINGERMOTION:
			if !i.fingerOn || e.FingerID != i.finger {
				return Event{}, false
			}
			return i.touch(viewer.TouchMove, x, y, e.Timestamp), true
		case sdl.FINGERUP:
			if !i.fingerOn || e.FingerID != i.finger {
				return Event{}, false
			}
			i.fingerOn = false
			return i.touch(viewer.TouchUp, x, y, e.Timestamp), true
		}

	case *sdl.MultiGestureEvent:
		if e.DDist == 0 {
			return Event{}, false
		}
		// Pinch: a positive distance change zooms in.
		ev := i.touch(viewer.TouchScroll, 0, 0, e.Timestamp)
		ev.Touch.Scroll = e.DDist * 10
		return ev, true
	}
	return Event{}, false
}
