package camera

import (
	gomath "math"
	"testing"

	vm "github.com/Faultbox/glbviewer/pkg/math"
)

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-4
}

func TestHomeFramesUnitCube(t *testing.T) {
	c := NewOrbitCamera()
	pos := c.Position()
	if !near(pos.X, 0) || !near(pos.Y, 0) || !near(pos.Z, HomeDistance) {
		t.Fatalf("home position = %+v", pos)
	}

	// Every cube corner projects inside the viewport.
	mvp := c.Projection(1).Mul(c.ViewMatrix())
	for i := 0; i < 8; i++ {
		p := vm.Vec3{X: -1, Y: -1, Z: -1}
		if i&1 != 0 {
			p.X = 1
		}
		if i&2 != 0 {
			p.Y = 1
		}
		if i&4 != 0 {
			p.Z = 1
		}
		clip := mvp.TransformPoint(p)
		if gomath.Abs(float64(clip.X)) > 1 || gomath.Abs(float64(clip.Y)) > 1 {
			t.Errorf("corner %+v projects outside: %+v", p, clip)
		}
	}
}

func TestDragAndReset(t *testing.T) {
	c := NewOrbitCamera()
	c.BeginDrag(100, 100)
	c.DragTo(150, 80)
	if !c.Dragging() {
		t.Fatal("not dragging")
	}
	if near(c.Yaw, 0) || near(c.Pitch, 0) {
		t.Errorf("drag did not rotate: yaw=%v pitch=%v", c.Yaw, c.Pitch)
	}
	if d := c.Position().Sub(c.Target).Length(); !near(d, HomeDistance) {
		t.Errorf("orbit changed distance to %v", d)
	}
	c.EndDrag()
	yaw := c.Yaw
	c.DragTo(400, 400)
	if c.Yaw != yaw {
		t.Error("moved without a drag in progress")
	}

	c.HandleZoom(3)
	c.FitUnitCube()
	if c.Yaw != 0 || c.Pitch != 0 || c.Distance != HomeDistance || c.Target != (vm.Vec3{}) {
		t.Errorf("FitUnitCube left %+v", c)
	}
}

func TestClamps(t *testing.T) {
	c := NewOrbitCamera()
	c.HandleDrag(0, 1e6)
	if c.Pitch != c.MaxPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.Pitch != c.MinPitch {
		t.Errorf("pitch = %v, want %v", c.Pitch, c.MinPitch)
	}
	for i := 0; i < 100; i++ {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("distance = %v, want %v", c.Distance, c.MinDistance)
	}
	for i := 0; i < 100; i++ {
		c.HandleZoom(-1)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("distance = %v, want %v", c.Distance, c.MaxDistance)
	}
	c.HandleDrag(1e5, 0)
	if gomath.Abs(float64(c.Yaw)) > gomath.Pi+1e-6 {
		t.Errorf("yaw not wrapped: %v", c.Yaw)
	}
}
