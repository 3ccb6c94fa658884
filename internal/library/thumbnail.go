package library

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/Faultbox/glbviewer/internal/store"
)

// ThumbnailWidth is the width thumbnails are scaled to.
const ThumbnailWidth = 256

// Scale resizes img to width, keeping its aspect ratio.
func Scale(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	height := max(b.Dy()*width/b.Dx(), 1)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// SaveThumbnail stores a PNG preview for the model and records its path.
func (l *Library) SaveThumbnail(ctx context.Context, id string, img image.Image) (store.Model, error) {
	m, err := l.store.GetModel(ctx, id)
	if err != nil {
		return store.Model{}, err
	}

	dir := l.ThumbnailsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return store.Model{}, fmt.Errorf("library: creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, id+".png")
	if err := writePNG(path, Scale(img, ThumbnailWidth)); err != nil {
		return store.Model{}, err
	}

	m.ThumbnailPath = path
	m, err = l.store.UpdateModel(ctx, m)
	if err != nil {
		return store.Model{}, err
	}
	l.log.Debug("thumbnail saved", zap.String("id", id), zap.String("path", path))
	return m, nil
}

// LoadThumbnail decodes the model's thumbnail.
func LoadThumbnail(m store.Model) (image.Image, error) {
	if m.ThumbnailPath == "" {
		return nil, fmt.Errorf("library: %s has no thumbnail", m.Name)
	}
	f, err := os.Open(m.ThumbnailPath)
	if err != nil {
		return nil, fmt.Errorf("library: opening thumbnail: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("library: decoding thumbnail: %w", err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("library: creating thumbnail: %w", err)
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("library: encoding thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("library: writing thumbnail: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("library: writing thumbnail: %w", err)
	}
	return nil
}
