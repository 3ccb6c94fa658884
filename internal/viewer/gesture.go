package viewer

import "time"

// Double-tap thresholds.
const (
	DoubleTapTimeout = 300 * time.Millisecond
	DoubleTapSlop    = 24 // pixels
)

// GestureDetector recognizes double taps in a stream of touch events.
type GestureDetector struct {
	timeout time.Duration
	slop    float32
	onTap   func()

	down      bool
	downX     float32
	downY     float32
	moved     bool
	haveFirst bool
	firstUp   time.Duration
	firstX    float32
	firstY    float32
}

// NewGestureDetector calls onDoubleTap once per recognized double tap.
func NewGestureDetector(onDoubleTap func()) *GestureDetector {
	return &GestureDetector{
		timeout: DoubleTapTimeout,
		slop:    DoubleTapSlop,
		onTap:   onDoubleTap,
	}
}

// OnTouch feeds one event.
func (g *GestureDetector) OnTouch(ev TouchEvent) {
	switch ev.Action {
	case TouchDown:
		g.down = true
		g.moved = false
		g.downX, g.downY = ev.X, ev.Y
		if g.haveFirst && ev.Time-g.firstUp > g.timeout {
			g.haveFirst = false
		}
	case TouchMove:
		if g.down && !g.within(ev.X, ev.Y, g.downX, g.downY) {
			g.moved = true
		}
	case TouchUp:
		if !g.down {
			return
		}
		g.down = false
		if g.moved {
			g.haveFirst = false
			return
		}
		if g.haveFirst && ev.Time-g.firstUp <= g.timeout && g.within(ev.X, ev.Y, g.firstX, g.firstY) {
			g.haveFirst = false
			if g.onTap != nil {
				g.onTap()
			}
			return
		}
		g.haveFirst = true
		g.firstUp = ev.Time
		g.firstX, g.firstY = ev.X, ev.Y
	case TouchCancel:
		g.down = false
		g.haveFirst = false
	}
}

func (g *GestureDetector) within(x, y, ox, oy float32) bool {
	dx, dy := x-ox, y-oy
	return dx*dx+dy*dy <= g.slop*g.slop
}
