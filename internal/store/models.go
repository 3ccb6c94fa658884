package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Model is an imported GLB file.
type Model struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// models.json keeps records in insertion order.
func (s *Store) loadModels() ([]Model, error) {
	var models []Model
	if _, err := s.readJSON(modelsFile, &models); err != nil {
		return nil, err
	}
	return models, nil
}

func indexOfModel(models []Model, id string) int {
	for i, m := range models {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// InsertModel stores m with a fresh ID and timestamps.
func (s *Store) InsertModel(ctx context.Context, m Model) (Model, error) {
	if err := ctx.Err(); err != nil {
		return Model{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	models, err := s.loadModels()
	if err != nil {
		return Model{}, err
	}
	m.ID = newID()
	m.CreatedAt = s.now().UTC()
	m.UpdatedAt = m.CreatedAt
	models = append(models, m)
	if err := s.writeJSON(modelsFile, models, 0o644); err != nil {
		return Model{}, err
	}
	s.log.Debug("model inserted", zap.String("id", m.ID), zap.String("name", m.Name))
	return m, nil
}

// GetModel returns the model with the given ID.
func (s *Store) GetModel(ctx context.Context, id string) (Model, error) {
	if err := ctx.Err(); err != nil {
		return Model{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	models, err := s.loadModels()
	if err != nil {
		return Model{}, err
	}
	i := indexOfModel(models, id)
	if i < 0 {
		return Model{}, fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	return models[i], nil
}

// ListModels returns every model in creation order.
func (s *Store) ListModels(ctx context.Context) ([]Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadModels()
}

// UpdateModel replaces the stored record with m, keeping its creation time
// and bumping UpdatedAt.
func (s *Store) UpdateModel(ctx context.Context, m Model) (Model, error) {
	if err := ctx.Err(); err != nil {
		return Model{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	models, err := s.loadModels()
	if err != nil {
		return Model{}, err
	}
	i := indexOfModel(models, m.ID)
	if i < 0 {
		return Model{}, fmt.Errorf("model %s: %w", m.ID, ErrNotFound)
	}
	m.CreatedAt = models[i].CreatedAt
	m.UpdatedAt = s.now().UTC()
	models[i] = m
	if err := s.writeJSON(modelsFile, models, 0o644); err != nil {
		return Model{}, err
	}
	return m, nil
}

// DeleteModel removes the record. Files it points to are the caller's.
func (s *Store) DeleteModel(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	models, err := s.loadModels()
	if err != nil {
		return err
	}
	i := indexOfModel(models, id)
	if i < 0 {
		return fmt.Errorf("model %s: %w", id, ErrNotFound)
	}
	models = append(models[:i], models[i+1:]...)
	if err := s.writeJSON(modelsFile, models, 0o644); err != nil {
		return err
	}
	s.log.Debug("model deleted", zap.String("id", id))
	return nil
}
