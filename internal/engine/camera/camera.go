// Package camera provides the orbit camera the viewer looks at models with.
package camera

import (
	gomath "math"

	vm "github.com/Faultbox/glbviewer/pkg/math"
)

// Home placement for a model fitted to the [-1, 1] cube: looking down -Z
// from far enough that the cube's bounding sphere fits the vertical FOV.
const (
	HomeFovY     = gomath.Pi / 4
	HomeDistance = 4.5
)

// OrbitCamera orbits around a target point.
type OrbitCamera struct {
	Target vm.Vec3

	// Spherical coordinates
	Distance float32
	Pitch    float32 // radians, positive looks down
	Yaw      float32 // radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Projection
	FovY float32
	Near float32
	Far  float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	dragging     bool
	lastX, lastY float32
}

// NewOrbitCamera creates a camera at the home placement.
func NewOrbitCamera() *OrbitCamera {
	c := &OrbitCamera{
		MinDistance:     1.8,
		MaxDistance:     50,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		FovY:            HomeFovY,
		Near:            0.05,
		Far:             100,
		DragSensitivity: 0.01,
		ZoomSensitivity: 0.1,
	}
	c.FitUnitCube()
	return c
}

// FitUnitCube returns to the home placement, framing [-1, 1]³.
func (c *OrbitCamera) FitUnitCube() {
	c.Target = vm.Vec3{}
	c.Distance = HomeDistance
	c.Pitch = 0
	c.Yaw = 0
	c.dragging = false
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() vm.Vec3 {
	sp, cp := gomath.Sincos(float64(c.Pitch))
	sy, cy := gomath.Sincos(float64(c.Yaw))
	return vm.Vec3{
		X: c.Target.X + c.Distance*float32(cp*sy),
		Y: c.Target.Y + c.Distance*float32(sp),
		Z: c.Target.Z + c.Distance*float32(cp*cy),
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() vm.Mat4 {
	return vm.LookAt(c.Position(), c.Target, vm.Vec3{Y: 1})
}

// Projection returns the perspective projection for the given aspect ratio.
func (c *OrbitCamera) Projection(aspect float32) vm.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return vm.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// HandleDrag rotates by a pointer delta in pixels.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity
	c.Pitch = min(max(c.Pitch, c.MinPitch), c.MaxPitch)
	c.Yaw = float32(gomath.Remainder(float64(c.Yaw), 2*gomath.Pi))
}

// HandleZoom moves toward the target for positive delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = min(max(c.Distance, c.MinDistance), c.MaxDistance)
}

// BeginDrag starts a rotation gesture at a pointer position.
func (c *OrbitCamera) BeginDrag(x, y float32) {
	c.dragging = true
	c.lastX, c.lastY = x, y
}

// DragTo continues a gesture started with BeginDrag.
func (c *OrbitCamera) DragTo(x, y float32) {
	if !c.dragging {
		return
	}
	c.HandleDrag(x-c.lastX, y-c.lastY)
	c.lastX, c.lastY = x, y
}

// EndDrag finishes the gesture.
func (c *OrbitCamera) EndDrag() {
	c.dragging = false
}

// Dragging reports whether a gesture is in progress.
func (c *OrbitCamera) Dragging() bool {
	return c.dragging
}
