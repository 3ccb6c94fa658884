// Package library manages the user's imported models: copies of GLB files
// under the data directory, their store records and PNG thumbnails.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/glbviewer/internal/glb"
	"github.com/Faultbox/glbviewer/internal/logger"
	"github.com/Faultbox/glbviewer/internal/store"
)

// ErrNotGLB rejects files without a binary glTF preamble.
var ErrNotGLB = errors.New("library: not a GLB file")

// DefaultWorkers bounds ImportAll.
const DefaultWorkers = 4

// Library is rooted at a data directory: models are copied to
// <data>/models and thumbnails written to <data>/thumbnails.
type Library struct {
	store   *store.Store
	dataDir string
	workers int
	log     *zap.Logger
	now     func() time.Time
}

// New returns a library over st.
func New(st *store.Store, dataDir string) *Library {
	return &Library{
		store:   st,
		dataDir: dataDir,
		workers: DefaultWorkers,
		log:     logger.Named("library"),
		now:     time.Now,
	}
}

// ModelsDir is where imported files live.
func (l *Library) ModelsDir() string {
	return filepath.Join(l.dataDir, "models")
}

// ThumbnailsDir is where thumbnails live.
func (l *Library) ThumbnailsDir() string {
	return filepath.Join(l.dataDir, "thumbnails")
}

// DisplayName turns a file path into a model name: the base name without
// its .glb extension.
func DisplayName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".glb") {
		base = base[:len(base)-len(ext)]
	}
	return base
}

// fileName makes name safe to embed in a file name.
func fileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		name = "model"
	}
	if !strings.EqualFold(filepath.Ext(name), ".glb") {
		name += ".glb"
	}
	return name
}

// Import copies srcPath into the library and records it under name. An
// empty name is derived from the file name.
func (l *Library) Import(ctx context.Context, srcPath, name string) (store.Model, error) {
	if err := ctx.Err(); err != nil {
		return store.Model{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = DisplayName(srcPath)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return store.Model{}, fmt.Errorf("library: opening %s: %w", srcPath, err)
	}
	defer src.Close()

	if _, err := glb.ReadHeader(src); err != nil {
		return store.Model{}, fmt.Errorf("%w: %s: %v", ErrNotGLB, filepath.Base(srcPath), err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return store.Model{}, fmt.Errorf("library: rewinding %s: %w", srcPath, err)
	}

	dst, err := l.copyIn(src, name)
	if err != nil {
		return store.Model{}, err
	}

	m, err := l.store.InsertModel(ctx, store.Model{Name: strings.TrimSpace(name), Path: dst})
	if err != nil {
		if rerr := os.Remove(dst); rerr != nil {
			l.log.Warn("removing orphaned copy", zap.String("path", dst), zap.Error(rerr))
		}
		return store.Model{}, fmt.Errorf("library: recording %s: %w", name, err)
	}
	l.log.Info("model imported", zap.String("id", m.ID), zap.String("name", m.Name), zap.String("path", dst))
	return m, nil
}

// copyIn writes r to models/<unixmillis>_<name>, stepping the timestamp on
// collision.
func (l *Library) copyIn(r io.Reader, name string) (string, error) {
	dir := l.ModelsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("library: creating %s: %w", dir, err)
	}

	stamp := l.now().UnixMilli()
	base := fileName(name)
	for {
		dst := filepath.Join(dir, fmt.Sprintf("%d_%s", stamp, base))
		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			stamp++
			continue
		}
		if err != nil {
			return "", fmt.Errorf("library: creating %s: %w", dst, err)
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			os.Remove(dst)
			return "", fmt.Errorf("library: copying to %s: %w", dst, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(dst)
			return "", fmt.Errorf("library: copying to %s: %w", dst, err)
		}
		return dst, nil
	}
}

// ImportAll imports paths with bounded parallelism. Results are in input
// order; on error the models that did import stay in the library and the
// first error is returned.
func (l *Library) ImportAll(ctx context.Context, paths []string) ([]store.Model, error) {
	out := make([]store.Model, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(l.workers, 1))
	for i, p := range paths {
		g.Go(func() error {
			m, err := l.Import(gctx, p, "")
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// List returns every model in import order.
func (l *Library) List(ctx context.Context) ([]store.Model, error) {
	return l.store.ListModels(ctx)
}

// Get returns one model.
func (l *Library) Get(ctx context.Context, id string) (store.Model, error) {
	return l.store.GetModel(ctx, id)
}

// Rename changes a model's display name. The file keeps its name.
func (l *Library) Rename(ctx context.Context, id, name string) (store.Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Model{}, errors.New("library: name must not be empty")
	}
	m, err := l.store.GetModel(ctx, id)
	if err != nil {
		return store.Model{}, err
	}
	m.Name = name
	return l.store.UpdateModel(ctx, m)
}

// Delete removes the record, the copied file and the thumbnail. Files that
// are already gone are not an error.
func (l *Library) Delete(ctx context.Context, id string) error {
	m, err := l.store.GetModel(ctx, id)
	if err != nil {
		return err
	}
	if err := l.store.DeleteModel(ctx, id); err != nil {
		return err
	}
	for _, p := range []string{m.Path, m.ThumbnailPath} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			l.log.Warn("removing model file", zap.String("path", p), zap.Error(err))
		}
	}
	l.log.Info("model deleted", zap.String("id", id), zap.String("name", m.Name))
	return nil
}
