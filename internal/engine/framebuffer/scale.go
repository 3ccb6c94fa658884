package framebuffer

import "time"

// Dynamic resolution bounds.
const (
	MinScale = 0.5
	MaxScale = 1.0
)

// Scaler picks a render-target scale from recent frame times: it steps down
// when frames run over budget and back up when there is headroom.
type Scaler struct {
	target time.Duration
	scale  float32
	avg    time.Duration
	step   float32
}

// NewScaler aims for target per frame (for example 16.6ms at 60Hz).
func NewScaler(target time.Duration) *Scaler {
	return &Scaler{target: target, scale: MaxScale, step: 0.05}
}

// Scale returns the current scale.
func (s *Scaler) Scale() float32 {
	return s.scale
}

// Observe records a frame time and returns the updated scale.
func (s *Scaler) Observe(frame time.Duration) float32 {
	if s.avg == 0 {
		s.avg = frame
	} else {
		// Exponential moving average, alpha 1/8.
		s.avg += (frame - s.avg) / 8
	}
	switch {
	case s.avg > s.target*11/10:
		s.scale = max(s.scale-s.step, MinScale)
	case s.avg < s.target*8/10:
		s.scale = min(s.scale+s.step, MaxScale)
	}
	return s.scale
}

// Size applies the scale to full-resolution dimensions.
func (s *Scaler) Size(width, height int32) (int32, int32) {
	return max(int32(float32(width)*s.scale), 1), max(int32(float32(height)*s.scale), 1)
}
