package capture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "glbview")
	sc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	first, err := sc.Capture(img)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if want := filepath.Join(dir, "glbview_2026-03-01_12-30-00.png"); first != want {
		t.Errorf("path = %q, want %q", first, want)
	}

	second, err := sc.Capture(img)
	if err != nil {
		t.Fatalf("second Capture: %v", err)
	}
	if want := filepath.Join(dir, "glbview_2026-03-01_12-30-00_1.png"); second != want {
		t.Errorf("collision path = %q, want %q", second, want)
	}

	f, err := os.Open(first)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r, _, _, _ := decoded.At(1, 1).RGBA(); r != 0xffff {
		t.Errorf("pixel red = %x, want ffff", r)
	}
}

func TestCaptureNil(t *testing.T) {
	sc := NewScreenshotCapture(t.TempDir(), "x")
	if _, err := sc.Capture(nil); err == nil {
		t.Error("Capture(nil) succeeded")
	}
}
