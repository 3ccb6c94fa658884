package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/glbviewer/internal/auth"
	"github.com/Faultbox/glbviewer/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Data.AssetsDir = filepath.Join(t.TempDir(), "assets")
	return cfg
}

func TestOpen(t *testing.T) {
	cfg := testConfig(t)
	svc, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := os.Stat(cfg.KeyFile()); err != nil {
		t.Errorf("key file not created: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.Auth.Register(ctx, auth.RoleUser, "a@b.c", "secret1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// A second Open over the same data reads the same key and records.
	again, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := again.Auth.Login(ctx, auth.RoleUser, "a@b.c", "secret1"); err != nil {
		t.Errorf("Login after reopen: %v", err)
	}
}

func TestAssetsMissingDir(t *testing.T) {
	cfg := testConfig(t)
	am := Assets(cfg)
	if am.Exists("envs/default_env/default_env_ibl.ktx") {
		t.Error("empty manager reports an asset")
	}
}

func TestAssetsDir(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(filepath.Join(cfg.Data.AssetsDir, "models"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Data.AssetsDir, "models", "a.glb"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !Assets(cfg).Exists("models/a.glb") {
		t.Error("asset in configured dir not found")
	}
}

func TestViewerOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Viewer.ColorTemperature = 4000
	cfg.Viewer.Quality.Bloom = false
	cfg.Graphics.MSAASamples = 8

	opts := ViewerOptions(cfg, nil)
	if opts.Light.Kelvin != 4000 || opts.Light.Intensity != 100000 {
		t.Errorf("light = %+v", opts.Light)
	}
	if opts.View.Bloom || !opts.View.Antialiasing || opts.View.MSAASamples != 8 {
		t.Errorf("view = %+v", opts.View)
	}
	if opts.Environment != "default_env" || opts.IndirectIntensity != 30000 {
		t.Errorf("environment = %q at %v", opts.Environment, opts.IndirectIntensity)
	}
}
