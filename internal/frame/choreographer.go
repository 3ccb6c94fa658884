// Package frame drives per-refresh callbacks on the render thread.
//
// A Choreographer stands in for the platform vsync scheduler: the host calls
// DoFrame once per display refresh (after SwapBuffers with vsync on, or once
// per ImGui frame) and every callback posted before that refresh runs exactly
// once. Callbacks posted while a frame is being dispatched run on the next
// refresh, so a callback that re-posts itself ticks once per frame.
package frame

import (
	"reflect"
	"sync"
)

// Callback receives the frame timestamp in nanoseconds.
type Callback interface {
	DoFrame(frameTimeNanos int64)
}

// Func adapts a function to Callback. Func values are not comparable, so
// posting one twice queues it twice and RemoveFrameCallback ignores it.
type Func func(frameTimeNanos int64)

// DoFrame calls f.
func (f Func) DoFrame(frameTimeNanos int64) { f(frameTimeNanos) }

// Choreographer holds the callbacks waiting for the next refresh.
type Choreographer struct {
	mu      sync.Mutex
	pending []Callback
	queue   *Queue
	frames  uint64
}

// NewChoreographer returns a scheduler that drains queue before running
// callbacks. queue may be nil.
func NewChoreographer(queue *Queue) *Choreographer {
	return &Choreographer{queue: queue}
}

// PostFrameCallback schedules cb for the next refresh. Posting a callback
// that is already pending is a no-op.
func (c *Choreographer) PostFrameCallback(cb Callback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(cb) >= 0 {
		return
	}
	c.pending = append(c.pending, cb)
}

// RemoveFrameCallback cancels a pending callback. Unknown callbacks are ignored.
func (c *Choreographer) RemoveFrameCallback(cb Callback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(cb); i >= 0 {
		c.pending = append(c.pending[:i], c.pending[i+1:]...)
	}
}

// Pending reports how many callbacks wait for the next refresh.
func (c *Choreographer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Frames returns the number of DoFrame calls so far.
func (c *Choreographer) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// DoFrame runs queued tasks, then every callback that was pending when the
// frame began.
func (c *Choreographer) DoFrame(frameTimeNanos int64) {
	if c.queue != nil {
		c.queue.Drain()
	}

	c.mu.Lock()
	c.frames++
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, cb := range batch {
		cb.DoFrame(frameTimeNanos)
	}
}

func (c *Choreographer) indexOf(cb Callback) int {
	if cb == nil || !reflect.TypeOf(cb).Comparable() {
		return -1
	}
	for i, p := range c.pending {
		if p == cb {
			return i
		}
	}
	return -1
}
