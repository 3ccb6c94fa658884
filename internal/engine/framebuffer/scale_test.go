package framebuffer

import (
	"testing"
	"time"
)

func TestScalerDropsWhenSlow(t *testing.T) {
	s := NewScaler(16 * time.Millisecond)
	for i := 0; i < 100; i++ {
		s.Observe(40 * time.Millisecond)
	}
	if s.Scale() != MinScale {
		t.Errorf("scale = %v, want %v", s.Scale(), MinScale)
	}
	w, h := s.Size(1280, 800)
	if w != 640 || h != 400 {
		t.Errorf("size = %dx%d", w, h)
	}

	for i := 0; i < 200; i++ {
		s.Observe(5 * time.Millisecond)
	}
	if s.Scale() != MaxScale {
		t.Errorf("scale = %v after recovery, want %v", s.Scale(), MaxScale)
	}
}

func TestScalerHoldsOnBudget(t *testing.T) {
	s := NewScaler(16 * time.Millisecond)
	for i := 0; i < 50; i++ {
		s.Observe(15 * time.Millisecond)
	}
	if s.Scale() != MaxScale {
		t.Errorf("scale = %v on budget", s.Scale())
	}
	if w, h := s.Size(0, 0); w != 1 || h != 1 {
		t.Errorf("Size(0, 0) = %dx%d", w, h)
	}
}

func TestFlipRGBA(t *testing.T) {
	// Two rows: bottom red, top blue, in GL order.
	pixels := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 255, 255,
	}
	img := FlipRGBA(pixels, 2, 2)
	if r, _, b, _ := img.At(0, 0).RGBA(); b>>8 != 255 || r != 0 {
		t.Errorf("top row is not blue")
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r>>8 != 255 {
		t.Errorf("bottom row is not red")
	}
}
