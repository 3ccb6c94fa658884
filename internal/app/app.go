// Package app wires configuration into the services the viewer hosts share.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/assets"
	"github.com/Faultbox/glbviewer/internal/auth"
	"github.com/Faultbox/glbviewer/internal/config"
	"github.com/Faultbox/glbviewer/internal/library"
	"github.com/Faultbox/glbviewer/internal/logger"
	"github.com/Faultbox/glbviewer/internal/store"
	"github.com/Faultbox/glbviewer/internal/viewer"
)

// assetCacheBytes bounds the in-memory asset cache.
const assetCacheBytes = 64 << 20

// Services are the persistent back ends of the studio and the CLI.
type Services struct {
	Config  *config.Config
	Store   *store.Store
	Crypto  *auth.Crypto
	Auth    *auth.Service
	Library *library.Library
}

// Open creates the record store, the installation key and the services on
// top of them.
func Open(cfg *config.Config) (*Services, error) {
	st, err := store.New(cfg.Data.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	c, err := auth.OpenCrypto(cfg.KeyFile())
	if err != nil {
		return nil, fmt.Errorf("opening key: %w", err)
	}
	return &Services{
		Config:  cfg,
		Store:   st,
		Crypto:  c,
		Auth:    auth.NewService(st, c, cfg.Auth.RememberLogin),
		Library: library.New(st, cfg.Data.DataDir),
	}, nil
}

// InitLogging configures the global logger from cfg.
func InitLogging(cfg *config.Config) error {
	return logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
}

// Assets returns a manager over the bundled assets directory. A missing
// directory is logged and leaves the manager empty.
func Assets(cfg *config.Config) *assets.Manager {
	am := assets.NewManager(assetCacheBytes)
	if cfg.Data.AssetsDir == "" {
		return am
	}
	if err := am.AddDir(cfg.Data.AssetsDir); err != nil {
		logger.Warn("bundled assets unavailable", zap.Error(err))
	}
	return am
}

// ViewerOptions maps the viewer section of cfg onto session options.
func ViewerOptions(cfg *config.Config, am *assets.Manager) viewer.Options {
	v := cfg.Viewer
	opts := viewer.DefaultOptions()
	opts.Light = viewer.LightConfig{
		Intensity: v.LightIntensity,
		Kelvin:    v.ColorTemperature,
		Direction: v.LightDirection,
	}
	opts.View = viewer.ViewOptions{
		Antialiasing:      v.Quality.Antialiasing,
		DynamicResolution: v.Quality.DynamicResolution,
		AmbientOcclusion:  v.Quality.AmbientOcclusion,
		Bloom:             v.Quality.Bloom,
		HDR:               v.Quality.HDR,
		MSAASamples:       cfg.Graphics.MSAASamples,
		ClearColor:        v.ClearColor,
	}
	opts.Environment = v.Environment
	opts.IndirectIntensity = v.IndirectIntensity
	opts.Assets = am
	return opts
}
