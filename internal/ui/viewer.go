package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/engine/capture"
	"github.com/Faultbox/glbviewer/internal/engine/lighting"
	"github.com/Faultbox/glbviewer/internal/engine/renderer"
	"github.com/Faultbox/glbviewer/internal/library"
	"github.com/Faultbox/glbviewer/internal/logger"
	"github.com/Faultbox/glbviewer/internal/store"
	"github.com/Faultbox/glbviewer/internal/viewer"
)

// thumbnailDelay is how many frames after a load the automatic thumbnail
// is taken, so variants and the first animation pose have settled.
const thumbnailDelay = 30

// Slider ranges.
const (
	minLux, maxLux       = 1000, 150000
	minKelvin, maxKelvin = 1000, 15000
)

// panelSurface is the 3D view area in framebuffer pixels.
type panelSurface struct {
	width, height int
}

func (p *panelSurface) Size() (int, int) {
	return p.width, p.height
}

// ViewerScreen shows one model with lighting controls.
type ViewerScreen struct {
	session   *viewer.Session
	engine    *renderer.Engine
	host      *viewer.LifecycleRegistry
	loader    *viewer.Loader
	lighting  *viewer.LightingController
	lib       *library.Library
	shots     *capture.ScreenshotCapture
	poster    viewer.Poster
	surface   *panelSurface
	log       *zap.Logger
	onBack    func()
	start     time.Time
	pointer   pointer
	initErr   error
	model     store.Model
	status    string
	loading   bool
	thumbAt   uint64 // frame count at which to auto-save a thumbnail, 0 when off
	intensity float32
	kelvin    int32
	azimuth   float32
	elevation float32
}

// ViewerDeps are the collaborators of a ViewerScreen.
type ViewerDeps struct {
	Session  *viewer.Session
	Engine   *renderer.Engine
	Host     *viewer.LifecycleRegistry
	Loader   *viewer.Loader
	Lighting *viewer.LightingController
	Library  *library.Library
	Shots    *capture.ScreenshotCapture
	Poster   viewer.Poster
}

// NewViewerScreen creates the viewer screen. onBack runs on the UI thread.
func NewViewerScreen(d ViewerDeps, onBack func()) *ViewerScreen {
	vs := &ViewerScreen{
		session:  d.Session,
		engine:   d.Engine,
		host:     d.Host,
		loader:   d.Loader,
		lighting: d.Lighting,
		lib:      d.Library,
		shots:    d.Shots,
		poster:   d.Poster,
		surface:  &panelSurface{width: 1, height: 1},
		log:      logger.Named("ui"),
		onBack:   onBack,
		start:    time.Now(),
	}
	vs.syncSliders(d.Lighting.Current())
	return vs
}

func (vs *ViewerScreen) syncSliders(l viewer.LightConfig) {
	vs.intensity = l.Intensity
	vs.kelvin = int32(l.Kelvin)
	vs.azimuth, vs.elevation = lighting.SunAngles(l.Direction)
}

// Open binds the session on first use, resumes it and starts loading m.
func (vs *ViewerScreen) Open(m store.Model) {
	if vs.session.State() == viewer.StateCreated {
		if err := vs.session.Initialize(vs.surface); err != nil {
			vs.initErr = err
			vs.log.Error("viewer initialization failed", zap.Error(err))
			return
		}
	}
	vs.host.Resume()

	vs.model = m
	vs.loading = true
	vs.status = "Loading " + m.Name + "..."
	vs.thumbAt = 0
	vs.loader.Load(context.Background(), viewer.FileSource{Path: m.Path}, func(err error) {
		if errors.Is(err, viewer.ErrSuperseded) {
			// A later Open or Close owns the status line.
			return
		}
		vs.loading = false
		if err != nil {
			vs.status = err.Error()
			return
		}
		vs.status = ""
		if m.ThumbnailPath == "" {
			vs.thumbAt = vs.session.Stats().Frames + thumbnailDelay
		}
	})
}

// Close pauses rendering and drops the model.
func (vs *ViewerScreen) Close() {
	for _, ev := range vs.pointer.cancel(time.Since(vs.start)) {
		vs.session.OnTouch(ev)
	}
	vs.thumbAt = 0
	vs.lighting.Flush()
	vs.session.ClearModel()
	vs.host.Pause()
}

// Render draws the controls and the 3D view.
func (vs *ViewerScreen) Render(x, y, width, height float32) {
	imgui.SetNextWindowPos(imgui.NewVec2(x, y))
	imgui.SetNextWindowSize(imgui.NewVec2(width, height))
	flags := imgui.WindowFlagsNoResize | imgui.WindowFlagsNoMove | imgui.WindowFlagsNoCollapse |
		imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar | imgui.WindowFlagsNoScrollWithMouse
	if imgui.BeginV("Viewer", nil, flags) {
		if imgui.BeginChildStrV("Controls", imgui.NewVec2(280, 0), imgui.ChildFlagsBorders, 0) {
			vs.renderControls()
		}
		imgui.EndChild()
		imgui.SameLine()
		childFlags := imgui.WindowFlagsNoScrollbar | imgui.WindowFlagsNoScrollWithMouse
		if imgui.BeginChildStrV("View", imgui.NewVec2(0, 0), imgui.ChildFlagsNone, childFlags) {
			vs.renderView()
		}
		imgui.EndChild()
	}
	imgui.End()

	vs.handleKeys()
	vs.maybeThumbnail()
}

func (vs *ViewerScreen) handleKeys() {
	switch {
	case IsKeyPressed(imgui.KeyEscape):
		vs.onBack()
	case IsKeyPressed(imgui.KeyR):
		vs.session.ResetCamera()
	case IsKeyPressed(imgui.KeyF12):
		vs.screenshot()
	}
}

func (vs *ViewerScreen) renderControls() {
	if imgui.ButtonV("< Library", imgui.NewVec2(-1, 0)) {
		vs.onBack()
		return
	}
	imgui.Spacing()
	imgui.Text(vs.model.Name)
	if vs.status != "" {
		imgui.TextWrapped(vs.status)
	}
	if vs.initErr != nil {
		imgui.TextColored(imgui.NewVec4(1, 0.3, 0.3, 1), vs.initErr.Error())
	}

	imgui.Spacing()
	imgui.Separator()
	imgui.Text("Sun")
	imgui.SetNextItemWidth(-1)
	if imgui.SliderFloatV("##intensity", &vs.intensity, minLux, maxLux, "%.0f lux", imgui.SliderFlagsNone) {
		vs.lighting.SetIntensity(vs.intensity)
	}
	imgui.SetNextItemWidth(-1)
	if imgui.SliderIntV("##kelvin", &vs.kelvin, minKelvin, maxKelvin, "%d K", imgui.SliderFlagsNone) {
		vs.lighting.SetKelvin(int(vs.kelvin))
	}
	imgui.SetNextItemWidth(-1)
	changed := imgui.SliderFloatV("##azimuth", &vs.azimuth, 0, 360, "azimuth %.0f", imgui.SliderFlagsNone)
	imgui.SetNextItemWidth(-1)
	changed = imgui.SliderFloatV("##elevation", &vs.elevation, -89, 89, "elevation %.0f", imgui.SliderFlagsNone) || changed
	if changed {
		vs.lighting.SetDirection(lighting.SunDirection(vs.azimuth, vs.elevation))
	}
	if imgui.ButtonV("Default light", imgui.NewVec2(-1, 0)) {
		def := vs.session.Options().Light
		vs.lighting.Set(def)
		vs.syncSliders(def)
	}

	imgui.Spacing()
	imgui.Separator()
	if imgui.ButtonV("Reset camera", imgui.NewVec2(-1, 0)) {
		vs.session.ResetCamera()
	}
	if imgui.ButtonV("Save thumbnail", imgui.NewVec2(-1, 0)) {
		vs.saveThumbnail()
	}
	if imgui.ButtonV("Screenshot", imgui.NewVec2(-1, 0)) {
		vs.screenshot()
	}

	imgui.Spacing()
	imgui.Separator()
	stats := vs.session.Stats()
	imgui.TextDisabled(fmt.Sprintf("Frames: %d", stats.Frames))
	imgui.TextDisabled(fmt.Sprintf("Frame errors: %d", stats.FrameErrors))
	imgui.TextDisabled(fmt.Sprintf("Pending variants: %d", vs.engine.PendingVariants()))
	imgui.TextDisabled("Drag to orbit, scroll to zoom,")
	imgui.TextDisabled("double-click or R to reset.")
	imgui.TextDisabled("F12 screenshot, Esc back.")
}

func (vs *ViewerScreen) renderView() {
	avail := imgui.ContentRegionAvail()
	scale := imgui.CurrentIO().DisplayFramebufferScale()
	vs.surface.width = max(int(avail.X*scale.X), 1)
	vs.surface.height = max(int(avail.Y*scale.Y), 1)

	origin := imgui.WindowPos()
	origin.X += imgui.CursorPosX()
	origin.Y += imgui.CursorPosY()

	tex, _, _ := vs.engine.Texture()
	if tex == 0 {
		imgui.TextDisabled("No view")
		return
	}
	texRef := imgui.NewTextureRefTextureID(imgui.TextureID(tex))
	imgui.ImageWithBgV(
		*texRef,
		avail,
		imgui.NewVec2(0, 1), // GL textures are bottom-up
		imgui.NewVec2(1, 0),
		imgui.NewVec4(0, 0, 0, 1),
		imgui.NewVec4(1, 1, 1, 1),
	)

	mouse := imgui.MousePos()
	px := (mouse.X - origin.X) * scale.X
	py := (mouse.Y - origin.Y) * scale.Y
	events := vs.pointer.update(
		imgui.IsMouseDown(imgui.MouseButtonLeft),
		imgui.IsItemHovered(),
		px, py,
		imgui.CurrentIO().MouseWheel(),
		time.Since(vs.start),
	)
	for _, ev := range events {
		vs.session.OnTouch(ev)
	}
}

func (vs *ViewerScreen) maybeThumbnail() {
	if vs.thumbAt == 0 || vs.session.Stats().Frames < vs.thumbAt {
		return
	}
	vs.thumbAt = 0
	vs.saveThumbnail()
}

func (vs *ViewerScreen) saveThumbnail() {
	img := vs.engine.ReadPixels()
	if img == nil || vs.model.ID == "" {
		return
	}
	id := vs.model.ID
	go func() {
		m, err := vs.lib.SaveThumbnail(context.Background(), id, img)
		vs.poster.Post(func() {
			if err != nil {
				vs.status = "Thumbnail failed: " + err.Error()
				return
			}
			if vs.model.ID == m.ID {
				vs.model = m
			}
			vs.status = "Thumbnail saved"
		})
	}()
}

func (vs *ViewerScreen) screenshot() {
	img := vs.engine.ReadPixels()
	if img == nil {
		return
	}
	go func(img image.Image) {
		path, err := vs.shots.Capture(img)
		vs.poster.Post(func() {
			if err != nil {
				vs.status = "Screenshot failed: " + err.Error()
				return
			}
			vs.status = "Saved " + path
		})
	}(img)
}
