package viewer

import (
	"time"

	"github.com/Faultbox/glbviewer/internal/frame"
	"github.com/Faultbox/glbviewer/internal/ibl"
)

// Opaque engine handles. Zero is never a valid handle.
type (
	ModelHandle    uint64
	LightHandle    uint64
	FenceHandle    uint64
	MaterialHandle uint64
)

// FenceStatus is the result of a non-blocking fence poll.
type FenceStatus int

const (
	FencePending FenceStatus = iota
	FenceSatisfied
	// FenceFailed means the fence can never signal; the load is abandoned.
	FenceFailed
)

func (s FenceStatus) String() string {
	switch s {
	case FenceSatisfied:
		return "satisfied"
	case FenceFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Priority orders shader variant compilation.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityHigh
)

// VariantMask selects shader variants of a material.
type VariantMask uint32

const (
	VariantDirectionalLighting VariantMask = 1 << iota
	VariantDynamicLighting
	VariantShadowReceiver
	VariantSkinning
	VariantFog
	VariantVSM
	VariantSSR
)

// Variants compiled right after a model finishes uploading: the ones the
// first visible frames need, then the rest in the background.
const (
	HighPriorityVariants = VariantDirectionalLighting | VariantDynamicLighting | VariantShadowReceiver
	LowPriorityVariants  = VariantFog | VariantSkinning | VariantSSR | VariantVSM
)

// ViewOptions is the static visual-quality configuration applied once at
// initialization.
type ViewOptions struct {
	Antialiasing      bool
	DynamicResolution bool
	AmbientOcclusion  bool
	Bloom             bool
	HDR               bool
	MSAASamples       int
	ClearColor        [4]float32
}

// TouchAction is the phase of a pointer event.
type TouchAction int

const (
	TouchDown TouchAction = iota
	TouchMove
	TouchUp
	TouchCancel
	// TouchScroll carries a wheel or pinch zoom step in Scroll.
	TouchScroll
)

// TouchEvent is a pointer event in surface pixels.
type TouchEvent struct {
	Action TouchAction
	X, Y   float32
	Scroll float32
	// Time is a monotonic event timestamp.
	Time time.Duration
}

// Surface is a drawable area.
type Surface interface {
	Size() (width, height int)
}

// Engine is the rendering engine the session drives. All methods are
// called from the render thread.
type Engine interface {
	Bind(Surface) error
	Configure(ViewOptions)
	SetIndirectLight(env *ibl.Environment, intensity float32)

	// LoadGLB parses and uploads a model. Callers destroy the previous
	// model first; on error the engine holds no model.
	LoadGLB(data []byte) (ModelHandle, error)
	DestroyModel()
	HasModel() bool
	FitToUnitCube()

	CreateDirectionalLight(rgb [3]float32, intensity float32, dir [3]float32) (LightHandle, error)
	RemoveLight(LightHandle)

	CreateFence() FenceHandle
	PollFence(FenceHandle) FenceStatus
	DestroyFence(FenceHandle)

	// Materials lists the material instances referenced by renderables.
	// The list may contain duplicates.
	Materials() []MaterialHandle
	CompileMaterial(MaterialHandle, Priority, VariantMask) error

	// Animator returns nil when the current model has no animation data.
	Animator() Animator
	Manipulate(TouchEvent)
	Render(frameTimeNanos int64) error
	Destroy()
}

// Animator advances the current model's animations.
type Animator interface {
	AnimationCount() int
	ApplyAnimation(index int, seconds float32)
	UpdateBoneMatrices()
}

// Scheduler is the vsync-aligned frame scheduler.
type Scheduler interface {
	PostFrameCallback(frame.Callback)
	RemoveFrameCallback(frame.Callback)
}

// Poster hands work to the render thread.
type Poster interface {
	Post(func())
}
