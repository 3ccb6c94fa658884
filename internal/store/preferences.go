package store

import (
	"context"
	"fmt"
	"os"
)

// Preferences are the remembered login. Password is stored encrypted by
// the caller.
type Preferences struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoadPreferences returns the saved login or ErrNotFound.
func (s *Store) LoadPreferences(ctx context.Context) (Preferences, error) {
	if err := ctx.Err(); err != nil {
		return Preferences{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Preferences
	found, err := s.readJSON(prefsFile, &p)
	if err != nil {
		return Preferences{}, err
	}
	if !found {
		return Preferences{}, ErrNotFound
	}
	return p, nil
}

// SavePreferences replaces the saved login.
func (s *Store) SavePreferences(ctx context.Context, p Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(prefsFile, p, 0o600)
}

// ClearPreferences forgets the saved login. Clearing twice is not an error.
func (s *Store) ClearPreferences(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(prefsFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", prefsFile, err)
	}
	return nil
}
