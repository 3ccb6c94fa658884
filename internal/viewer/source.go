package viewer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/glbviewer/internal/assets"
)

// ErrNoAssets is returned when an AssetSource is opened without a manager.
var ErrNoAssets = errors.New("viewer: no asset manager configured")

// Source is where a model's bytes come from.
type Source interface {
	// ID identifies the model for logs and CurrentModel.
	ID() string
	// Open reads the full payload. It blocks on I/O.
	Open(ctx context.Context, am *assets.Manager) ([]byte, error)
}

// AssetSource names a bundled asset.
type AssetSource struct {
	Path string
}

func (s AssetSource) ID() string { return s.Path }

func (s AssetSource) Open(ctx context.Context, am *assets.Manager) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if am == nil {
		return nil, ErrNoAssets
	}
	return am.Load(s.Path)
}

// FileSource is a user-selected file, given as a path or file:// URI.
type FileSource struct {
	Path string
}

func (s FileSource) ID() string { return s.Path }

func (s FileSource) Open(ctx context.Context, _ *assets.Manager) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := localPath(s.Path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func localPath(p string) (string, error) {
	if !strings.HasPrefix(p, "file:") {
		return p, nil
	}
	u, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("viewer: bad file URI %q: %w", p, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("viewer: remote file URI %q", p)
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	return filepath.FromSlash(path), nil
}

// BufferSource is an in-memory payload.
type BufferSource struct {
	Name string
	Data []byte
}

func (s BufferSource) ID() string {
	if s.Name == "" {
		return "buffer"
	}
	return s.Name
}

func (s BufferSource) Open(ctx context.Context, _ *assets.Manager) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Data, nil
}
