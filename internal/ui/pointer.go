package ui

import (
	"time"

	"github.com/Faultbox/glbviewer/internal/viewer"
)

// pointer turns polled mouse state over the 3D view into touch events.
// A press must start over the view; once started the gesture follows the
// mouse until release even outside it.
type pointer struct {
	pressed bool
	held    bool // button state last frame
	lastX   float32
	lastY   float32
}

// update compares the current mouse state with the previous frame's.
// x and y are in surface pixels.
func (p *pointer) update(down, hovered bool, x, y, wheel float32, t time.Duration) []viewer.TouchEvent {
	var out []viewer.TouchEvent
	ev := func(a viewer.TouchAction) viewer.TouchEvent {
		return viewer.TouchEvent{Action: a, X: x, Y: y, Time: t}
	}

	switch {
	case down && !p.held && hovered:
		p.pressed = true
		out = append(out, ev(viewer.TouchDown))
	case down && p.pressed && (x != p.lastX || y != p.lastY):
		out = append(out, ev(viewer.TouchMove))
	case !down && p.pressed:
		p.pressed = false
		out = append(out, ev(viewer.TouchUp))
	}
	p.lastX, p.lastY = x, y
	p.held = down

	if hovered && wheel != 0 {
		e := ev(viewer.TouchScroll)
		e.Scroll = wheel
		out = append(out, e)
	}
	return out
}

// cancel ends an active gesture, for when the view goes away mid-drag.
func (p *pointer) cancel(t time.Duration) []viewer.TouchEvent {
	if !p.pressed {
		return nil
	}
	p.pressed = false
	return []viewer.TouchEvent{{Action: viewer.TouchCancel, X: p.lastX, Y: p.lastY, Time: t}}
}
