package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/library"
	"github.com/Faultbox/glbviewer/internal/logger"
	"github.com/Faultbox/glbviewer/internal/store"
	"github.com/Faultbox/glbviewer/internal/viewer"
)

// iconWidth is the thumbnail size in the model list.
const iconWidth = 64

type icon struct {
	tex    uint32
	width  int
	height int
}

// LibraryScreen lists imported models and manages them.
type LibraryScreen struct {
	lib    *library.Library
	poster viewer.Poster
	log    *zap.Logger

	onOpen   func(store.Model)
	onLogout func()

	models   []store.Model
	selected int
	details  string
	icons    map[string]icon
	busy     bool
	status   string

	renameBuf  string
	renameOpen bool
	user       string
}

// NewLibraryScreen creates a library screen. Callbacks run on the UI thread.
func NewLibraryScreen(lib *library.Library, poster viewer.Poster, onOpen func(store.Model), onLogout func()) *LibraryScreen {
	return &LibraryScreen{
		lib:      lib,
		poster:   poster,
		log:      logger.Named("ui"),
		onOpen:   onOpen,
		onLogout: onLogout,
		selected: -1,
		icons:    make(map[string]icon),
	}
}

// SetUser sets the name shown in the header.
func (ls *LibraryScreen) SetUser(name string) {
	ls.user = name
}

// Refresh reloads the model list in the background.
func (ls *LibraryScreen) Refresh() {
	ls.run("Loading...", func(ctx context.Context) (func(), error) {
		models, err := ls.lib.List(ctx)
		if err != nil {
			return nil, err
		}
		thumbs := loadIcons(models)
		return func() {
			ls.setModels(models)
			ls.setIcons(thumbs)
		}, nil
	})
}

// run executes work off the UI thread and applies its result on it.
func (ls *LibraryScreen) run(status string, work func(ctx context.Context) (func(), error)) {
	if ls.busy {
		return
	}
	ls.busy = true
	ls.status = status
	go func() {
		apply, err := work(context.Background())
		ls.poster.Post(func() {
			ls.busy = false
			ls.status = ""
			if err != nil {
				ls.log.Warn("library operation failed", zap.Error(err))
				ls.status = err.Error()
				return
			}
			if apply != nil {
				apply()
			}
		})
	}()
}

func (ls *LibraryScreen) setModels(models []store.Model) {
	var keep string
	if ls.selected >= 0 && ls.selected < len(ls.models) {
		keep = ls.models[ls.selected].ID
	}
	ls.models = models
	ls.selected = -1
	for i, m := range models {
		if m.ID == keep {
			ls.selected = i
		}
	}
	if ls.selected < 0 {
		ls.details = ""
	}
}

type pendingIcon struct {
	rgba []byte
	w, h int
}

// loadIcons decodes and scales thumbnails; GL upload happens in setIcons.
func loadIcons(models []store.Model) map[string]pendingIcon {
	out := make(map[string]pendingIcon)
	for _, m := range models {
		if m.ThumbnailPath == "" {
			continue
		}
		img, err := library.LoadThumbnail(m)
		if err != nil {
			continue
		}
		small := library.Scale(img, iconWidth)
		b := small.Bounds()
		out[m.ID] = pendingIcon{rgba: small.Pix, w: b.Dx(), h: b.Dy()}
	}
	return out
}

func (ls *LibraryScreen) setIcons(pending map[string]pendingIcon) {
	for id, ic := range ls.icons {
		DeleteTexture(ic.tex)
		delete(ls.icons, id)
	}
	for id, p := range pending {
		ls.icons[id] = icon{tex: CreateTextureFromRGBA(p.rgba, p.w, p.h), width: p.w, height: p.h}
	}
}

// Render draws the library window over the whole viewport.
func (ls *LibraryScreen) Render(x, y, width, height float32) {
	imgui.SetNextWindowPos(imgui.NewVec2(x, y))
	imgui.SetNextWindowSize(imgui.NewVec2(width, height))
	flags := imgui.WindowFlagsNoResize | imgui.WindowFlagsNoMove | imgui.WindowFlagsNoCollapse | imgui.WindowFlagsNoTitleBar
	if imgui.BeginV("Library", nil, flags) {
		ls.renderToolbar()
		imgui.Separator()
		ls.renderList()
		imgui.SameLine()
		ls.renderDetails()
	}
	imgui.End()
}

func (ls *LibraryScreen) renderToolbar() {
	imgui.Text(fmt.Sprintf("Models (%d)", len(ls.models)))
	imgui.SameLine()
	imgui.BeginDisabledV(ls.busy)
	if imgui.Button("Add model...") {
		ls.addModel()
	}
	imgui.SameLine()
	if imgui.Button("Refresh") {
		ls.Refresh()
	}
	imgui.EndDisabled()

	imgui.SameLine()
	if ls.user != "" {
		imgui.TextDisabled(ls.user)
		imgui.SameLine()
	}
	if imgui.Button("Sign out") {
		ls.onLogout()
	}

	if ls.status != "" {
		imgui.TextDisabled(ls.status)
	}
}

// addModel picks a file with the native dialog and imports it.
func (ls *LibraryScreen) addModel() {
	if ls.busy {
		return
	}
	ls.busy = true
	ls.status = "Choosing file..."
	go func() {
		path, err := dialog.File().
			Filter("glTF binary", "glb").
			Filter("All Files", "*").
			Title("Add model").
			Load()
		ls.poster.Post(func() {
			ls.busy = false
			ls.status = ""
			if err != nil {
				if !errors.Is(err, dialog.ErrCancelled) {
					ls.status = err.Error()
				}
				return
			}
			ls.importFile(path)
		})
	}()
}

func (ls *LibraryScreen) importFile(path string) {
	ls.run("Importing...", func(ctx context.Context) (func(), error) {
		m, err := ls.lib.Import(ctx, path, library.DisplayName(path))
		if err != nil {
			return nil, err
		}
		return func() {
			ls.status = "Imported " + m.Name
			ls.Refresh()
		}, nil
	})
}

func (ls *LibraryScreen) renderList() {
	if imgui.BeginChildStrV("ModelList", imgui.NewVec2(360, 0), imgui.ChildFlagsBorders, 0) {
		if len(ls.models) == 0 && !ls.busy {
			imgui.TextDisabled("No models yet. Use \"Add model...\" to import a .glb file.")
		}
		for i, m := range ls.models {
			if ic, ok := ls.icons[m.ID]; ok {
				texRef := imgui.NewTextureRefTextureID(imgui.TextureID(ic.tex))
				imgui.ImageV(*texRef, imgui.NewVec2(float32(ic.width)/2, float32(ic.height)/2), imgui.NewVec2(0, 0), imgui.NewVec2(1, 1))
				imgui.SameLine()
			}
			label := fmt.Sprintf("%s##%s", m.Name, m.ID)
			if imgui.SelectableBoolV(label, ls.selected == i, 0, imgui.NewVec2(0, 0)) {
				ls.selected = i
				ls.renameOpen = false
				ls.loadDetails(m)
			}
		}
	}
	imgui.EndChild()
}

func (ls *LibraryScreen) loadDetails(m store.Model) {
	ls.details = "Loading details..."
	go func() {
		text := library.Details(m)
		ls.poster.Post(func() {
			if ls.selected >= 0 && ls.selected < len(ls.models) && ls.models[ls.selected].ID == m.ID {
				ls.details = text
			}
		})
	}()
}

func (ls *LibraryScreen) renderDetails() {
	if imgui.BeginChildStrV("ModelDetails", imgui.NewVec2(0, 0), imgui.ChildFlagsBorders, 0) {
		if ls.selected < 0 || ls.selected >= len(ls.models) {
			imgui.TextDisabled("Select a model")
			imgui.EndChild()
			return
		}
		m := ls.models[ls.selected]

		imgui.BeginDisabledV(ls.busy)
		if imgui.ButtonV("Open", imgui.NewVec2(100, 0)) {
			ls.onOpen(m)
		}
		imgui.SameLine()
		if imgui.ButtonV("Rename", imgui.NewVec2(100, 0)) {
			ls.renameOpen = !ls.renameOpen
			ls.renameBuf = m.Name
		}
		imgui.SameLine()
		if imgui.ButtonV("Delete", imgui.NewVec2(100, 0)) {
			ls.deleteModel(m)
		}
		imgui.EndDisabled()

		if ls.renameOpen {
			imgui.SetNextItemWidth(240)
			done := imgui.InputTextWithHint("##rename", "New name", &ls.renameBuf, imgui.InputTextFlagsEnterReturnsTrue, nil)
			imgui.SameLine()
			if imgui.Button("Save") || done {
				ls.renameModel(m, ls.renameBuf)
			}
		}

		imgui.Spacing()
		imgui.Separator()
		imgui.TextWrapped(ls.details)
	}
	imgui.EndChild()
}

func (ls *LibraryScreen) renameModel(m store.Model, name string) {
	ls.run("Renaming...", func(ctx context.Context) (func(), error) {
		updated, err := ls.lib.Rename(ctx, m.ID, name)
		if err != nil {
			return nil, err
		}
		return func() {
			ls.renameOpen = false
			ls.loadDetails(updated)
			ls.Refresh()
		}, nil
	})
}

func (ls *LibraryScreen) deleteModel(m store.Model) {
	ls.run("Deleting...", func(ctx context.Context) (func(), error) {
		if err := ls.lib.Delete(ctx, m.ID); err != nil {
			return nil, err
		}
		return func() {
			ls.selected = -1
			ls.details = ""
			ls.Refresh()
		}, nil
	})
}

// Close releases thumbnail textures.
func (ls *LibraryScreen) Close() {
	ls.setIcons(nil)
}
