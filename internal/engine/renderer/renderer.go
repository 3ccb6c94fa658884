// Package renderer implements the viewer engine on OpenGL 4.1: it uploads
// glTF binaries, shades them with a small metallic-roughness model lit by
// one directional light and spherical-harmonics ambient, and orbits a
// camera around them.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/engine/camera"
	"github.com/Faultbox/glbviewer/internal/engine/framebuffer"
	"github.com/Faultbox/glbviewer/internal/glb"
	"github.com/Faultbox/glbviewer/internal/ibl"
	"github.com/Faultbox/glbviewer/internal/logger"
	"github.com/Faultbox/glbviewer/internal/viewer"
	vm "github.com/Faultbox/glbviewer/pkg/math"
)

var errNotBound = errors.New("renderer: not bound to a surface")

// Camera exposure: f/16, 1/125s, ISO 100.
const (
	aperture    = 16
	shutter     = 1.0 / 125
	sensitivity = 100
)

// defaultIndirect is the ambient intensity used before an environment is set.
const defaultIndirect = 30000

// Options configures an Engine.
type Options struct {
	// Present blits each frame to the default framebuffer. Hosts that draw
	// the frame as a UI texture turn it off.
	Present bool
	// FrameBudget is the frame time dynamic resolution aims for.
	FrameBudget time.Duration
}

// Engine renders one model into an offscreen framebuffer.
type Engine struct {
	opts Options
	log  *zap.Logger

	surface viewer.Surface
	view    viewer.ViewOptions
	fb      *framebuffer.Framebuffer
	scaler  *framebuffer.Scaler
	camera  *camera.OrbitCamera
	progs   *programs

	model      *gpuModel
	nextHandle uint64
	lights     map[viewer.LightHandle]light
	sun        viewer.LightHandle
	fences     map[viewer.FenceHandle]uintptr

	sh       [27]float32
	indirect float32
	exposure float32

	lastFrame int64
	identity  []float32
	bound     bool
}

var _ viewer.Engine = (*Engine)(nil)

// New returns an engine. GL is not touched until Bind.
func New(opts Options) *Engine {
	if opts.FrameBudget <= 0 {
		opts.FrameBudget = time.Second / 60
	}
	e := &Engine{
		opts:     opts,
		log:      logger.Named("renderer"),
		scaler:   framebuffer.NewScaler(opts.FrameBudget),
		camera:   camera.NewOrbitCamera(),
		lights:   make(map[viewer.LightHandle]light),
		fences:   make(map[viewer.FenceHandle]uintptr),
		exposure: exposure(aperture, shutter, sensitivity),
		view: viewer.ViewOptions{
			ClearColor: [4]float32{0.1, 0.1, 0.12, 1},
		},
	}
	e.progs = newPrograms(e.log)
	e.setSH(ibl.Flat([3]float32{ibl.NeutralAmbient, ibl.NeutralAmbient, ibl.NeutralAmbient}), defaultIndirect)

	e.identity = make([]float32, 0, maxJoints*16)
	id := vm.Identity()
	for range maxJoints {
		e.identity = append(e.identity, id[:]...)
	}
	return e
}

// exposure converts camera settings to the photometric scale applied to
// light intensities.
func exposure(aperture, shutter, iso float64) float32 {
	ev100 := math.Log2(aperture * aperture / shutter * 100 / iso)
	return float32(1 / (1.2 * math.Exp2(ev100)))
}

// Bind initializes OpenGL on the current context and creates the render
// target for surface.
func (e *Engine) Bind(surface viewer.Surface) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	e.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	e.surface = surface
	w, h := surface.Size()
	fb, err := framebuffer.New(int32(w), int32(h), int32(e.view.MSAASamples))
	if err != nil {
		return err
	}
	e.fb = fb
	e.bound = true
	return nil
}

// Configure applies view quality options.
func (e *Engine) Configure(opts viewer.ViewOptions) {
	samples := int32(0)
	if opts.Antialiasing {
		samples = int32(max(opts.MSAASamples, 4))
	}
	if opts.AmbientOcclusion {
		e.log.Info("ambient occlusion is not supported by this backend")
	}
	if opts.Bloom {
		e.log.Info("bloom is not supported by this backend")
	}
	opts.MSAASamples = int(samples)
	e.view = opts

	if !e.bound || e.fb.Samples() == samples {
		return
	}
	w, h := e.fb.Size()
	fb, err := framebuffer.New(w, h, samples)
	if err != nil {
		e.log.Error("recreating framebuffer", zap.Error(err))
		return
	}
	e.fb.Destroy()
	e.fb = fb
}

// SetIndirectLight sets the ambient spherical harmonics. A nil environment
// restores the neutral ambient.
func (e *Engine) SetIndirectLight(env *ibl.Environment, intensity float32) {
	if env == nil {
		env = ibl.Flat([3]float32{ibl.NeutralAmbient, ibl.NeutralAmbient, ibl.NeutralAmbient})
	}
	e.setSH(env, intensity)
}

func (e *Engine) setSH(env *ibl.Environment, intensity float32) {
	for i, c := range env.SH {
		copy(e.sh[i*3:], c[:])
	}
	e.indirect = intensity
}

// LoadGLB decodes and uploads a model.
func (e *Engine) LoadGLB(data []byte) (viewer.ModelHandle, error) {
	if !e.bound {
		return 0, errNotBound
	}
	if e.model != nil {
		e.DestroyModel()
	}
	m, err := glb.Decode(data)
	if err != nil {
		return 0, err
	}
	g, err := upload(m, &e.nextHandle)
	if err != nil {
		return 0, err
	}
	e.model = g
	e.nextHandle++
	stats := m.Stats()
	e.log.Info("model uploaded",
		zap.Int("primitives", stats.Primitives),
		zap.Int("vertices", stats.Vertices),
		zap.Int("materials", len(g.materials)),
	)
	return viewer.ModelHandle(e.nextHandle), nil
}

// DestroyModel releases the current model's GL resources.
func (e *Engine) DestroyModel() {
	if e.model == nil {
		return
	}
	e.model.destroy()
	e.model = nil
}

// HasModel reports whether a model is loaded.
func (e *Engine) HasModel() bool {
	return e.model != nil
}

// FitToUnitCube centers and scales the model to [-1, 1] and resets the
// camera to frame it.
func (e *Engine) FitToUnitCube() {
	if e.model != nil {
		e.model.fit = e.model.src.UnitCubeTransform()
	}
	e.camera.FitUnitCube()
}

// Materials lists the materials drawn by the default scene's mesh nodes.
func (e *Engine) Materials() []viewer.MaterialHandle {
	if e.model == nil {
		return nil
	}
	handles := e.model.sceneMaterials()
	out := make([]viewer.MaterialHandle, len(handles))
	for i, h := range handles {
		out[i] = viewer.MaterialHandle(h)
	}
	return out
}

// CompileMaterial builds the programs of handle that mask selects.
func (e *Engine) CompileMaterial(handle viewer.MaterialHandle, p viewer.Priority, mask viewer.VariantMask) error {
	if e.model == nil {
		return fmt.Errorf("renderer: no model for material %d", handle)
	}
	m, ok := e.model.material(uint64(handle))
	if !ok {
		return fmt.Errorf("renderer: unknown material %d", handle)
	}
	var errs []error
	for _, k := range m.keys {
		if selects(mask&supportedVariants, k) {
			if err := e.progs.request(k, p); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Manipulate routes pointer input to the orbit camera.
func (e *Engine) Manipulate(ev viewer.TouchEvent) {
	switch ev.Action {
	case viewer.TouchDown:
		e.camera.BeginDrag(ev.X, ev.Y)
	case viewer.TouchMove:
		e.camera.DragTo(ev.X, ev.Y)
	case viewer.TouchUp, viewer.TouchCancel:
		e.camera.EndDrag()
	case viewer.TouchScroll:
		e.camera.HandleZoom(ev.Scroll)
	}
}

// Render draws one frame.
func (e *Engine) Render(frameTimeNanos int64) error {
	if !e.bound {
		return errNotBound
	}
	e.progs.step()

	if e.view.DynamicResolution && e.lastFrame > 0 && frameTimeNanos > e.lastFrame {
		e.scaler.Observe(time.Duration(frameTimeNanos - e.lastFrame))
	}
	e.lastFrame = frameTimeNanos

	sw, sh := e.surface.Size()
	w, h := int32(sw), int32(sh)
	if e.view.DynamicResolution {
		w, h = e.scaler.Size(w, h)
	}
	if err := e.fb.Resize(w, h); err != nil {
		return err
	}

	e.fb.Bind()
	c := e.view.ClearColor
	e.fb.Clear(c[0], c[1], c[2], c[3])
	if e.model != nil {
		e.draw(float32(w) / float32(max(h, 1)))
	}
	e.fb.Resolve()
	if e.opts.Present {
		e.fb.Present(int32(sw), int32(sh))
	}
	e.fb.Unbind()

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("renderer: GL error 0x%x", code)
	}
	return nil
}

type drawCall struct {
	prim  *gpuPrimitive
	model vm.Mat4
	skin  int
}

func (e *Engine) draw(aspect float32) {
	view := e.camera.ViewMatrix()
	proj := e.camera.Projection(aspect)
	eye := e.camera.Position()

	var opaque, blended []drawCall
	for _, inst := range e.model.src.Instances() {
		skin := e.model.src.Nodes[inst.Node].Skin
		for i := range e.model.meshes[inst.Mesh] {
			p := &e.model.meshes[inst.Mesh][i]
			dc := drawCall{prim: p, model: e.model.fit.Mul(inst.World), skin: skin}
			// Skinned vertices are already in model space.
			if p.key.variants&viewer.VariantSkinning != 0 {
				dc.model = e.model.fit
			}
			if e.model.materials[p.material].mat.AlphaMode == glb.AlphaBlend {
				blended = append(blended, dc)
			} else {
				opaque = append(opaque, dc)
			}
		}
	}

	for _, dc := range opaque {
		e.drawPrimitive(dc, &view, &proj, eye)
	}
	if len(blended) > 0 {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
		for _, dc := range blended {
			e.drawPrimitive(dc, &view, &proj, eye)
		}
		gl.DepthMask(true)
		gl.Disable(gl.BLEND)
	}
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

func (e *Engine) drawPrimitive(dc drawCall, view, proj *vm.Mat4, eye vm.Vec3) {
	prog, err := e.progs.get(dc.prim.key)
	if err != nil {
		return
	}
	mat := &e.model.materials[dc.prim.material].mat

	if mat.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}

	gl.UseProgram(prog.id)
	gl.UniformMatrix4fv(prog.loc("uModel"), 1, false, dc.model.Ptr())
	gl.UniformMatrix4fv(prog.loc("uView"), 1, false, view.Ptr())
	gl.UniformMatrix4fv(prog.loc("uProjection"), 1, false, proj.Ptr())
	gl.Uniform3f(prog.loc("uCameraPos"), eye.X, eye.Y, eye.Z)

	gl.Uniform4fv(prog.loc("uBaseColor"), 1, &mat.BaseColor[0])
	gl.Uniform1f(prog.loc("uMetallic"), mat.Metallic)
	gl.Uniform1f(prog.loc("uRoughness"), mat.Roughness)
	gl.Uniform3fv(prog.loc("uEmissive"), 1, &mat.Emissive[0])
	if dc.prim.key.masked {
		gl.Uniform1f(prog.loc("uAlphaCutoff"), mat.AlphaCutoff)
	}

	dir, radiance := e.sunRadiance()
	gl.Uniform3fv(prog.loc("uLightDir"), 1, &dir[0])
	gl.Uniform3fv(prog.loc("uLightColor"), 1, &radiance[0])
	gl.Uniform3fv(prog.loc("uSH"), 9, &e.sh[0])
	gl.Uniform1f(prog.loc("uIndirectScale"), e.indirect*e.exposure)

	if dc.prim.key.variants&viewer.VariantSkinning != 0 {
		palette := e.identity
		if dc.skin >= 0 && dc.skin < len(e.model.joints) && len(e.model.joints[dc.skin]) > 0 {
			palette = e.model.joints[dc.skin]
		}
		gl.UniformMatrix4fv(prog.loc("uJoints"), int32(len(palette)/16), false, &palette[0])
	}

	gl.BindVertexArray(dc.prim.vao)
	gl.DrawElements(gl.TRIANGLES, dc.prim.indexCount, gl.UNSIGNED_INT, nil)
}

// Texture returns the resolved color texture and its size for UI hosts.
func (e *Engine) Texture() (id uint32, width, height int32) {
	if e.fb == nil {
		return 0, 0, 0
	}
	w, h := e.fb.Size()
	return e.fb.ColorTexture(), w, h
}

// ReadPixels returns the last rendered frame.
func (e *Engine) ReadPixels() *image.RGBA {
	if e.fb == nil {
		return nil
	}
	return e.fb.ReadPixels()
}

// PendingVariants reports queued low priority shader compiles.
func (e *Engine) PendingVariants() int {
	return e.progs.pending()
}

// Destroy releases every GL resource.
func (e *Engine) Destroy() {
	if !e.bound {
		return
	}
	e.DestroyModel()
	for h := range e.fences {
		e.DestroyFence(h)
	}
	clear(e.lights)
	e.progs.destroy()
	e.fb.Destroy()
	e.bound = false
	e.log.Info("renderer destroyed")
}
