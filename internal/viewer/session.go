// Package viewer binds a rendering engine to a drawable surface and drives
// it once per display refresh.
//
// A Session owns at most one loaded model and one directional light. Model
// loads record a GPU completion fence; the frame tick polls it without
// blocking and, the first time it signals, pre-compiles every material's
// shader variants so the first visible frames do not stall. Sessions are not
// safe for concurrent use: call them from the render thread and route work
// from other goroutines through a frame.Queue (see Loader and
// LightingController).
package viewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/assets"
	"github.com/Faultbox/glbviewer/internal/engine/lighting"
	"github.com/Faultbox/glbviewer/internal/glb"
	"github.com/Faultbox/glbviewer/internal/ibl"
	"github.com/Faultbox/glbviewer/internal/logger"
)

var (
	ErrNotInitialized     = errors.New("viewer: session not initialized")
	ErrAlreadyInitialized = errors.New("viewer: session already bound to a surface")
	ErrDestroyed          = errors.New("viewer: session destroyed")
)

// State is the session's position in its lifecycle.
type State int

const (
	StateCreated State = iota
	StateActive
	StatePaused
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	default:
		return "created"
	}
}

// LightConfig describes the session's single directional light.
type LightConfig struct {
	Intensity float32
	Kelvin    int
	// Direction need not be normalized.
	Direction [3]float32
}

// DefaultLight is a neutral daylight sun at 100000 lux.
func DefaultLight() LightConfig {
	return LightConfig{
		Intensity: 100000,
		Kelvin:    6500,
		Direction: [3]float32{-0.5, -1, -0.5},
	}
}

// Options configures a Session.
type Options struct {
	Light LightConfig
	View  ViewOptions
	// Environment names the bundled IBL under envs/<name>/<name>_ibl.ktx.
	// Empty disables image-based lighting.
	Environment       string
	IndirectIntensity float32
	Assets            *assets.Manager
	Logger            *zap.Logger
	Now               func() time.Time
}

// DefaultOptions mirrors the stock viewer configuration.
func DefaultOptions() Options {
	return Options{
		Light: DefaultLight(),
		View: ViewOptions{
			Antialiasing:      true,
			DynamicResolution: true,
			AmbientOcclusion:  true,
			Bloom:             true,
			MSAASamples:       4,
		},
		Environment:       "default_env",
		IndirectIntensity: 30000,
	}
}

// Stats counts frame-loop activity.
type Stats struct {
	Frames         uint64
	FrameErrors    uint64
	MaterialPasses uint64
}

type pendingLoad struct {
	fence FenceHandle
	start time.Time
	model string
}

// Session is a live binding between a surface and an engine.
type Session struct {
	engine    Engine
	scheduler Scheduler
	lifecycle Lifecycle
	opts      Options
	log       *zap.Logger
	now       func() time.Time

	state      State
	surface    Surface
	registered bool

	model    string
	hasModel bool

	light       LightConfig
	lightHandle LightHandle
	hasLight    bool

	pending  *pendingLoad
	gestures *GestureDetector
	// loadGen counts load and clear requests; a background read started
	// under an older generation must not attach.
	loadGen uint64

	animStart   int64
	animStarted bool

	stats Stats
}

// New creates an unbound session. lifecycle may be nil when the host drives
// OnResume/OnPause/OnDestroy itself.
func New(engine Engine, scheduler Scheduler, lifecycle Lifecycle, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logger.Named("viewer")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Light == (LightConfig{}) {
		opts.Light = DefaultLight()
	}
	return &Session{
		engine:    engine,
		scheduler: scheduler,
		lifecycle: lifecycle,
		opts:      opts,
		log:       opts.Logger,
		now:       opts.Now,
	}
}

// Initialize binds the session to surface, applies the view configuration,
// loads the default lighting environment, creates the initial light and
// registers with the host lifecycle. A missing environment is logged and
// skipped.
func (s *Session) Initialize(surface Surface) error {
	switch {
	case s.state == StateDestroyed:
		return ErrDestroyed
	case s.surface != nil:
		return ErrAlreadyInitialized
	}

	if err := s.engine.Bind(surface); err != nil {
		return fmt.Errorf("viewer: binding surface: %w", err)
	}
	s.surface = surface
	s.gestures = NewGestureDetector(s.ResetCamera)
	s.engine.Configure(s.opts.View)
	s.loadEnvironment()

	l := s.opts.Light
	if err := s.SetLighting(l.Intensity, l.Kelvin, l.Direction[0], l.Direction[1], l.Direction[2]); err != nil {
		s.log.Warn("initial light not created", zap.Error(err))
	}

	if s.lifecycle != nil {
		s.lifecycle.AddObserver(s)
	}
	w, h := surface.Size()
	s.log.Info("viewer initialized", zap.Int("width", w), zap.Int("height", h))
	return nil
}

func (s *Session) loadEnvironment() {
	name := s.opts.Environment
	if name == "" {
		return
	}
	path := fmt.Sprintf("envs/%s/%s_ibl.ktx", name, name)
	if s.opts.Assets == nil {
		s.log.Warn("no assets configured, skipping IBL", zap.String("path", path))
		return
	}
	data, err := s.opts.Assets.Load(path)
	if err != nil {
		s.log.Warn("IBL environment unavailable", zap.String("path", path), zap.Error(err))
		return
	}
	env, err := ibl.ReadKTX(data)
	if err != nil {
		s.log.Warn("IBL environment unreadable", zap.String("path", path), zap.Error(err))
		return
	}
	s.engine.SetIndirectLight(env, s.opts.IndirectIntensity)
	s.log.Debug("IBL loaded", zap.String("path", path), zap.Bool("sh", env.FromSH))
}

func (s *Session) usable() error {
	switch {
	case s.state == StateDestroyed:
		return ErrDestroyed
	case s.surface == nil:
		return ErrNotInitialized
	}
	return nil
}

// LoadModel replaces the current model with the one read from src. Reading
// blocks, so hosts with a latency-sensitive render thread should use a
// Loader. Payloads that cannot be read or are not GLB containers leave the
// current model in place; an engine-side parse failure leaves the session
// empty.
func (s *Session) LoadModel(ctx context.Context, src Source) error {
	if err := s.usable(); err != nil {
		return err
	}
	s.supersede()

	id := src.ID()
	data, err := src.Open(ctx, s.opts.Assets)
	if err != nil {
		s.log.Error("reading model", zap.String("model", id), zap.Error(err))
		return fmt.Errorf("viewer: reading %s: %w", id, err)
	}
	if err := glb.CheckHeader(data); err != nil {
		s.log.Error("rejecting model", zap.String("model", id), zap.Error(err))
		return fmt.Errorf("viewer: %s: %w", id, err)
	}

	s.detachModel()

	if _, err := s.engine.LoadGLB(data); err != nil {
		s.log.Error("loading model", zap.String("model", id), zap.Error(err))
		return fmt.Errorf("viewer: loading %s: %w", id, err)
	}
	s.engine.FitToUnitCube()

	s.pending = &pendingLoad{fence: s.engine.CreateFence(), start: s.now(), model: id}
	s.model, s.hasModel = id, true
	s.log.Info("model attached", zap.String("model", id), zap.Int("bytes", len(data)))
	return nil
}

// LoadAsset loads a bundled model.
func (s *Session) LoadAsset(ctx context.Context, path string) error {
	return s.LoadModel(ctx, AssetSource{Path: path})
}

// LoadFile loads a model from a path or file:// URI.
func (s *Session) LoadFile(ctx context.Context, path string) error {
	return s.LoadModel(ctx, FileSource{Path: path})
}

// LoadBuffer loads a model from memory.
func (s *Session) LoadBuffer(ctx context.Context, name string, data []byte) error {
	return s.LoadModel(ctx, BufferSource{Name: name, Data: data})
}

// detachModel releases the current model and any load still in flight.
func (s *Session) detachModel() {
	s.dropPending()
	s.engine.DestroyModel()
	s.model, s.hasModel = "", false
	s.animStarted = false
}

func (s *Session) dropPending() {
	if s.pending != nil {
		s.engine.DestroyFence(s.pending.fence)
		s.pending = nil
	}
}

// ClearModel unloads the current model. Loads still being read by a Loader
// are dropped when they arrive.
func (s *Session) ClearModel() {
	s.supersede()
	if s.usable() != nil {
		return
	}
	s.detachModel()
}

// supersede starts a new load generation and returns it.
func (s *Session) supersede() uint64 {
	s.loadGen++
	return s.loadGen
}

// latest reports whether gen is still the newest load generation.
func (s *Session) latest(gen uint64) bool {
	return s.loadGen == gen
}

// SetLighting replaces the directional light. The previous light is removed
// before the new one is created, so at most one exists at any time.
func (s *Session) SetLighting(intensity float32, kelvin int, dx, dy, dz float32) error {
	if err := s.usable(); err != nil {
		return err
	}

	if s.hasLight {
		s.engine.RemoveLight(s.lightHandle)
		s.hasLight = false
	}

	cfg := LightConfig{Intensity: intensity, Kelvin: kelvin, Direction: [3]float32{dx, dy, dz}}
	h, err := s.engine.CreateDirectionalLight(lighting.CCT(kelvin), intensity, cfg.Direction)
	if err != nil {
		s.log.Error("creating light", zap.Error(err))
		return fmt.Errorf("viewer: creating light: %w", err)
	}
	s.light, s.lightHandle, s.hasLight = cfg, h, true
	s.log.Debug("light updated",
		zap.Float32("intensity", intensity),
		zap.Int("kelvin", kelvin),
		zap.Float32s("direction", cfg.Direction[:]))
	return nil
}

// ResetCamera frames the current model in a unit cube. It does nothing when
// no model is loaded.
func (s *Session) ResetCamera() {
	if s.usable() != nil || !s.hasModel || !s.engine.HasModel() {
		return
	}
	s.engine.FitToUnitCube()
}

// OnTouch forwards a pointer event to the camera manipulator and the
// double-tap detector.
func (s *Session) OnTouch(ev TouchEvent) {
	if s.usable() != nil {
		return
	}
	s.engine.Manipulate(ev)
	s.gestures.OnTouch(ev)
}

// DoFrame is the per-refresh tick. It re-registers itself first, so a
// failing frame is logged and the next refresh still ticks.
func (s *Session) DoFrame(frameTimeNanos int64) {
	if s.state != StateActive {
		s.registered = false
		return
	}
	s.scheduler.PostFrameCallback(s)
	s.registered = true
	s.stats.Frames++

	defer func() {
		if r := recover(); r != nil {
			s.stats.FrameErrors++
			s.log.Error("frame panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	s.pollPending()
	s.animate(frameTimeNanos)
	if err := s.engine.Render(frameTimeNanos); err != nil {
		s.stats.FrameErrors++
		s.log.Error("render failed", zap.Error(err))
	}
}

func (s *Session) pollPending() {
	p := s.pending
	if p == nil {
		return
	}
	switch s.engine.PollFence(p.fence) {
	case FenceSatisfied:
		// Clear before compiling so a failing pass cannot run twice.
		s.pending = nil
		s.engine.DestroyFence(p.fence)
		s.log.Info("model ready",
			zap.String("model", p.model),
			zap.Duration("load_time", s.now().Sub(p.start)))
		s.compileMaterials()
	case FenceFailed:
		s.pending = nil
		s.engine.DestroyFence(p.fence)
		s.log.Warn("model upload fence failed", zap.String("model", p.model))
	}
}

func (s *Session) compileMaterials() {
	seen := make(map[MaterialHandle]bool)
	var unique []MaterialHandle
	for _, m := range s.engine.Materials() {
		if !seen[m] {
			seen[m] = true
			unique = append(unique, m)
		}
	}

	for _, m := range unique {
		if err := s.engine.CompileMaterial(m, PriorityHigh, HighPriorityVariants); err != nil {
			s.log.Warn("compiling material", zap.Uint64("material", uint64(m)), zap.Error(err))
		}
	}
	for _, m := range unique {
		if err := s.engine.CompileMaterial(m, PriorityLow, LowPriorityVariants); err != nil {
			s.log.Warn("compiling material", zap.Uint64("material", uint64(m)), zap.Error(err))
		}
	}
	s.stats.MaterialPasses++
	s.log.Debug("materials compiled", zap.Int("count", len(unique)))
}

// animate plays the first animation track from the first frame after the
// model was attached.
func (s *Session) animate(frameTimeNanos int64) {
	if !s.hasModel {
		return
	}
	a := s.engine.Animator()
	if a == nil || a.AnimationCount() == 0 {
		return
	}
	if !s.animStarted {
		s.animStart, s.animStarted = frameTimeNanos, true
	}
	elapsed := float32(time.Duration(frameTimeNanos - s.animStart).Seconds())
	a.ApplyAnimation(0, elapsed)
	a.UpdateBoneMatrices()
}

// OnResume starts ticking. It is ignored before Initialize and after destroy.
func (s *Session) OnResume() {
	if s.usable() != nil || s.state == StateActive {
		return
	}
	s.state = StateActive
	s.scheduler.PostFrameCallback(s)
	s.registered = true
	s.log.Debug("viewer resumed")
}

// OnPause stops ticking and keeps all state.
func (s *Session) OnPause() {
	if s.state != StateActive {
		return
	}
	s.state = StatePaused
	s.scheduler.RemoveFrameCallback(s)
	s.registered = false
	s.log.Debug("viewer paused")
}

// OnDestroy stops ticking and releases the model, light and engine. The
// session cannot be used afterwards.
func (s *Session) OnDestroy() {
	if s.state == StateDestroyed {
		return
	}
	s.scheduler.RemoveFrameCallback(s)
	s.registered = false

	if s.surface != nil {
		s.detachModel()
		if s.hasLight {
			s.engine.RemoveLight(s.lightHandle)
			s.hasLight = false
		}
		s.engine.Destroy()
	}
	if s.lifecycle != nil {
		s.lifecycle.RemoveObserver(s)
	}
	s.state = StateDestroyed
	s.log.Info("viewer destroyed")
}

// Destroy is OnDestroy for hosts without a Lifecycle.
func (s *Session) Destroy() {
	s.OnDestroy()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// CurrentModel returns the identifier of the loaded model.
func (s *Session) CurrentModel() (string, bool) {
	return s.model, s.hasModel
}

// Light returns the live light configuration.
func (s *Session) Light() (LightConfig, bool) {
	return s.light, s.hasLight
}

// LoadPending reports whether a load is waiting for its GPU fence.
func (s *Session) LoadPending() bool {
	return s.pending != nil
}

// Registered reports whether the frame callback is scheduled.
func (s *Session) Registered() bool {
	return s.registered
}

// Stats returns frame-loop counters.
func (s *Session) Stats() Stats {
	return s.stats
}

// Options returns the session configuration.
func (s *Session) Options() Options {
	return s.opts
}
