// Package main is a standalone GLB viewer window.
//
// Usage: glbview [flags] [model.glb]
//
// Without a file the bundled models/model.glb is shown. Drag to orbit,
// scroll to zoom, double-click to reset. R resets the camera, arrows move
// the sun, +/- change its intensity, F12 saves a screenshot.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/app"
	"github.com/Faultbox/glbviewer/internal/config"
	"github.com/Faultbox/glbviewer/internal/debounce"
	"github.com/Faultbox/glbviewer/internal/engine/capture"
	"github.com/Faultbox/glbviewer/internal/engine/input"
	"github.com/Faultbox/glbviewer/internal/engine/lighting"
	"github.com/Faultbox/glbviewer/internal/engine/renderer"
	"github.com/Faultbox/glbviewer/internal/engine/window"
	"github.com/Faultbox/glbviewer/internal/frame"
	"github.com/Faultbox/glbviewer/internal/logger"
	"github.com/Faultbox/glbviewer/internal/viewer"
)

const (
	windowTitle  = "GLB Viewer"
	defaultModel = "models/model.glb"

	// Keyboard steps.
	sunStep       = 5    // degrees
	intensityStep = 5000 // lux
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := app.InitLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== GLB Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

// source picks the model from the command line or the bundled default.
func source(args []string) viewer.Source {
	if len(args) > 0 {
		return viewer.FileSource{Path: args[0]}
	}
	return viewer.AssetSource{Path: defaultModel}
}

func run(cfg *config.Config) error {
	win, err := window.New(window.Config{
		Title:       windowTitle,
		Width:       cfg.Graphics.Width,
		Height:      cfg.Graphics.Height,
		Fullscreen:  cfg.Graphics.Fullscreen,
		VSync:       cfg.Graphics.VSync,
		MSAASamples: cfg.Graphics.MSAASamples,
	})
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer win.Close()

	in := input.New()
	in.SetScale(win.PixelScale())
	in.SetSize(win.Size())

	queue := frame.NewQueue()
	chor := frame.NewChoreographer(queue)
	host := viewer.NewLifecycleRegistry()
	engine := renderer.New(renderer.Options{Present: true})

	session := viewer.New(engine, chor, host, app.ViewerOptions(cfg, app.Assets(cfg)))
	if err := session.Initialize(win); err != nil {
		return err
	}
	host.Resume()
	defer host.Destroy()

	loader := viewer.NewLoader(session, queue)
	defer loader.Wait()
	src := source(config.Args())
	loader.Load(context.Background(), src, func(err error) {
		if err != nil {
			win.SetTitle(windowTitle + " - failed to load " + filepath.Base(src.ID()))
			return
		}
		win.SetTitle(windowTitle + " - " + filepath.Base(src.ID()))
	})

	light := viewer.NewLightingController(session, queue, debounce.New(cfg.Viewer.Debounce))
	defer light.Stop()
	shots := capture.NewScreenshotCapture(filepath.Join(cfg.Data.DataDir, "screenshots"), "glbview")

	for {
		if in.Update() {
			return nil
		}
		for _, ev := range in.Events() {
			switch ev.Type {
			case input.EventHidden:
				host.Pause()
			case input.EventShown:
				host.Resume()
			case input.EventWindowResize:
				in.SetScale(win.PixelScale())
				in.SetSize(win.Size())
			case input.EventTouch:
				session.OnTouch(ev.Touch)
			case input.EventKeyDown:
				if handleKey(ev.Key, session, engine, light, shots) {
					return nil
				}
			}
		}

		chor.DoFrame(time.Now().UnixNano())
		if session.Registered() {
			win.SwapBuffers()
		} else {
			// Nothing is drawn while minimized; avoid spinning.
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// handleKey applies a keyboard shortcut and reports whether to quit.
func handleKey(key sdl.Scancode, s *viewer.Session, e *renderer.Engine, light *viewer.LightingController, shots *capture.ScreenshotCapture) bool {
	cur := light.Current()
	az, el := lighting.SunAngles(cur.Direction)

	switch key {
	case sdl.SCANCODE_ESCAPE:
		return true
	case sdl.SCANCODE_R:
		s.ResetCamera()
	case sdl.SCANCODE_LEFT:
		light.SetDirection(lighting.SunDirection(az-sunStep, el))
	case sdl.SCANCODE_RIGHT:
		light.SetDirection(lighting.SunDirection(az+sunStep, el))
	case sdl.SCANCODE_UP:
		light.SetDirection(lighting.SunDirection(az, min(el+sunStep, 89)))
	case sdl.SCANCODE_DOWN:
		light.SetDirection(lighting.SunDirection(az, max(el-sunStep, -89)))
	case sdl.SCANCODE_EQUALS, sdl.SCANCODE_KP_PLUS:
		light.SetIntensity(cur.Intensity + intensityStep)
	case sdl.SCANCODE_MINUS, sdl.SCANCODE_KP_MINUS:
		light.SetIntensity(max(cur.Intensity-intensityStep, 0))
	case sdl.SCANCODE_F12:
		path, err := shots.Capture(e.ReadPixels())
		if err != nil {
			logger.Warn("screenshot failed", zap.Error(err))
			break
		}
		logger.Info("screenshot saved", zap.String("path", path))
	}
	return false
}
