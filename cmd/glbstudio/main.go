// Package main is the GLB studio: sign in, manage a model library and view
// models with adjustable lighting.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/app"
	"github.com/Faultbox/glbviewer/internal/config"
	"github.com/Faultbox/glbviewer/internal/debounce"
	"github.com/Faultbox/glbviewer/internal/engine/capture"
	"github.com/Faultbox/glbviewer/internal/engine/renderer"
	"github.com/Faultbox/glbviewer/internal/frame"
	"github.com/Faultbox/glbviewer/internal/logger"
	"github.com/Faultbox/glbviewer/internal/ui"
	"github.com/Faultbox/glbviewer/internal/viewer"
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

	logger.Info("=== GLB Studio ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("studio error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("studio closed normally")
}

func run(cfg *config.Config) error {
	svc, err := app.Open(cfg)
	if err != nil {
		return err
	}

	backend, err := ui.NewBackend("GLB Studio", int32(cfg.Graphics.Width), int32(cfg.Graphics.Height))
	if err != nil {
		return fmt.Errorf("creating UI backend: %w", err)
	}

	queue := frame.NewQueue()
	chor := frame.NewChoreographer(queue)
	host := viewer.NewLifecycleRegistry()
	engine := renderer.New(renderer.Options{})
	session := viewer.New(engine, chor, host, app.ViewerOptions(cfg, app.Assets(cfg)))

	loader := viewer.NewLoader(session, queue)
	defer loader.Wait()
	light := viewer.NewLightingController(session, queue, debounce.New(cfg.Viewer.Debounce))
	defer light.Stop()

	studio := ui.NewStudio(backend, chor, svc.Auth, svc.Library, ui.ViewerDeps{
		Session:  session,
		Engine:   engine,
		Host:     host,
		Loader:   loader,
		Lighting: light,
		Library:  svc.Library,
		Shots:    capture.NewScreenshotCapture(filepath.Join(cfg.Data.DataDir, "screenshots"), "glbstudio"),
		Poster:   queue,
	})

	studio.AutoLogin(context.Background())
	studio.Run()
	return nil
}
