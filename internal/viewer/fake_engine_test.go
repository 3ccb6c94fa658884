package viewer

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/Faultbox/glbviewer/internal/ibl"
)

// glbPayload returns a minimal payload that passes the container check.
// The tag lets tests tell models apart.
func glbPayload(tag string) []byte {
	body := []byte(tag)
	for len(body)%4 != 0 {
		body = append(body, ' ')
	}
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint32{0x46546C67, 2, uint32(12 + len(body))})
	buf.Write(body)
	return buf.Bytes()
}

type fakeSurface struct{ w, h int }

func (s fakeSurface) Size() (int, int) { return s.w, s.h }

type lightRec struct {
	rgb       [3]float32
	intensity float32
	dir       [3]float32
}

type compileCall struct {
	m        MaterialHandle
	priority Priority
	mask     VariantMask
}

type fakeAnimator struct {
	count   int
	applied []float32
	bones   int
}

func (a *fakeAnimator) AnimationCount() int { return a.count }

func (a *fakeAnimator) ApplyAnimation(index int, seconds float32) {
	if index == 0 {
		a.applied = append(a.applied, seconds)
	}
}

func (a *fakeAnimator) UpdateBoneMatrices() { a.bones++ }

// fakeEngine records every call the session makes.
type fakeEngine struct {
	bindErr error
	bound   bool
	view    ViewOptions
	env     *ibl.Environment
	envLux  float32

	nextID    uint64
	live      map[ModelHandle]string
	current   ModelHandle
	loadErr   error
	destroyed int

	lights   map[LightHandle]lightRec
	lightErr error

	fences        map[FenceHandle]FenceStatus
	fenceDestroys []FenceHandle

	materials []MaterialHandle
	compiles  []compileCall

	animator *fakeAnimator

	fits        int
	touches     []TouchEvent
	renders     int
	renderErr   error
	renderPanic bool
	engineGone  bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		live:   map[ModelHandle]string{},
		lights: map[LightHandle]lightRec{},
		fences: map[FenceHandle]FenceStatus{},
	}
}

func (e *fakeEngine) id() uint64 {
	e.nextID++
	return e.nextID
}

func (e *fakeEngine) Bind(Surface) error {
	if e.bindErr != nil {
		return e.bindErr
	}
	e.bound = true
	return nil
}

func (e *fakeEngine) Configure(v ViewOptions) { e.view = v }

func (e *fakeEngine) SetIndirectLight(env *ibl.Environment, lux float32) {
	e.env, e.envLux = env, lux
}

func (e *fakeEngine) LoadGLB(data []byte) (ModelHandle, error) {
	if e.loadErr != nil {
		return 0, e.loadErr
	}
	if e.current != 0 {
		return 0, errors.New("fake: previous model not destroyed")
	}
	h := ModelHandle(e.id())
	e.live[h] = string(bytes.TrimSpace(data[12:]))
	e.current = h
	return h, nil
}

func (e *fakeEngine) DestroyModel() {
	if e.current != 0 {
		delete(e.live, e.current)
		e.current = 0
		e.destroyed++
	}
}

func (e *fakeEngine) HasModel() bool { return e.current != 0 }

func (e *fakeEngine) FitToUnitCube() { e.fits++ }

func (e *fakeEngine) CreateDirectionalLight(rgb [3]float32, lux float32, dir [3]float32) (LightHandle, error) {
	if e.lightErr != nil {
		return 0, e.lightErr
	}
	h := LightHandle(e.id())
	e.lights[h] = lightRec{rgb: rgb, intensity: lux, dir: dir}
	return h, nil
}

func (e *fakeEngine) RemoveLight(h LightHandle) { delete(e.lights, h) }

func (e *fakeEngine) CreateFence() FenceHandle {
	h := FenceHandle(e.id())
	e.fences[h] = FencePending
	return h
}

func (e *fakeEngine) PollFence(h FenceHandle) FenceStatus {
	st, ok := e.fences[h]
	if !ok {
		panic("fake: polled a destroyed fence")
	}
	return st
}

func (e *fakeEngine) DestroyFence(h FenceHandle) {
	delete(e.fences, h)
	e.fenceDestroys = append(e.fenceDestroys, h)
}

// signalAll marks every live fence satisfied.
func (e *fakeEngine) signalAll(st FenceStatus) {
	for h := range e.fences {
		e.fences[h] = st
	}
}

func (e *fakeEngine) Materials() []MaterialHandle { return e.materials }

func (e *fakeEngine) CompileMaterial(m MaterialHandle, p Priority, mask VariantMask) error {
	e.compiles = append(e.compiles, compileCall{m, p, mask})
	return nil
}

func (e *fakeEngine) Animator() Animator {
	if e.animator == nil || e.current == 0 {
		return nil
	}
	return e.animator
}

func (e *fakeEngine) Manipulate(ev TouchEvent) { e.touches = append(e.touches, ev) }

func (e *fakeEngine) Render(int64) error {
	if e.renderPanic {
		panic("fake: render exploded")
	}
	e.renders++
	return e.renderErr
}

func (e *fakeEngine) Destroy() { e.engineGone = true }

func (e *fakeEngine) currentName() string {
	return e.live[e.current]
}
