package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/glbviewer/internal/engine/lighting"
	"github.com/Faultbox/glbviewer/internal/viewer"
)

type light struct {
	dl lighting.DirectionalLight
}

// CreateDirectionalLight adds a sun light. Only the most recently created
// light is shaded.
func (e *Engine) CreateDirectionalLight(rgb [3]float32, intensity float32, dir [3]float32) (viewer.LightHandle, error) {
	e.nextHandle++
	h := viewer.LightHandle(e.nextHandle)
	e.lights[h] = light{dl: lighting.NewDirectional(
		lighting.WithColor(rgb),
		lighting.WithIntensity(intensity),
		lighting.WithDirection(dir),
	)}
	e.sun = h
	return h, nil
}

// RemoveLight removes a light. Unknown handles are ignored.
func (e *Engine) RemoveLight(h viewer.LightHandle) {
	delete(e.lights, h)
	if e.sun != h {
		return
	}
	e.sun = 0
	for other := range e.lights {
		e.sun = max(e.sun, other)
	}
}

// sunRadiance returns the shaded light's direction and pre-exposed color.
// Without a light the color is black.
func (e *Engine) sunRadiance() (dir, radiance [3]float32) {
	l, ok := e.lights[e.sun]
	if !ok {
		return [3]float32{0, -1, 0}, [3]float32{}
	}
	return l.dl.Direction, l.dl.Radiance(e.exposure)
}

// CreateFence inserts a GPU fence after the commands issued so far.
func (e *Engine) CreateFence() viewer.FenceHandle {
	sync := gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	gl.Flush()
	e.nextHandle++
	h := viewer.FenceHandle(e.nextHandle)
	e.fences[h] = sync
	return h
}

// PollFence checks a fence without waiting.
func (e *Engine) PollFence(h viewer.FenceHandle) viewer.FenceStatus {
	sync, ok := e.fences[h]
	if !ok || sync == 0 {
		return viewer.FenceFailed
	}
	switch gl.ClientWaitSync(sync, 0, 0) {
	case gl.ALREADY_SIGNALED, gl.CONDITION_SATISFIED:
		return viewer.FenceSatisfied
	case gl.TIMEOUT_EXPIRED:
		return viewer.FencePending
	default:
		return viewer.FenceFailed
	}
}

// DestroyFence deletes a fence. Unknown handles are ignored.
func (e *Engine) DestroyFence(h viewer.FenceHandle) {
	sync, ok := e.fences[h]
	if !ok {
		return
	}
	if sync != 0 {
		gl.DeleteSync(sync)
	}
	delete(e.fences, h)
}

// Animator returns the current model's animator, or nil when it has no
// animations.
func (e *Engine) Animator() viewer.Animator {
	if e.model == nil || len(e.model.src.Animations) == 0 {
		return nil
	}
	return animator{m: e.model}
}

// animator poses the uploaded model and refreshes its joint palettes.
type animator struct {
	m *gpuModel
}

func (a animator) AnimationCount() int {
	return len(a.m.src.Animations)
}

func (a animator) ApplyAnimation(index int, seconds float32) {
	a.m.src.Sample(index, seconds)
}

func (a animator) UpdateBoneMatrices() {
	a.m.updateJoints()
}
