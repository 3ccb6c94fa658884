package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// User is a registered account. Email and Role together are unique.
type User struct {
	ID           string    `json:"id"`
	Role         string    `json:"role"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func sameAccount(u User, role, email string) bool {
	return u.Role == role && strings.EqualFold(u.Email, email)
}

func (s *Store) loadUsers() ([]User, error) {
	var users []User
	if _, err := s.readJSON(usersFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// RegisterUser inserts u, assigning its ID and creation time. An existing
// account with the same role and email yields ErrDuplicate.
func (s *Store) RegisterUser(ctx context.Context, u User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return User{}, err
	}
	for _, existing := range users {
		if sameAccount(existing, u.Role, u.Email) {
			return User{}, fmt.Errorf("user %s (%s): %w", u.Email, u.Role, ErrDuplicate)
		}
	}

	u.ID = newID()
	u.CreatedAt = s.now().UTC()
	users = append(users, u)
	if err := s.writeJSON(usersFile, users, 0o600); err != nil {
		return User{}, err
	}
	s.log.Info("user registered", zap.String("id", u.ID), zap.String("role", u.Role))
	return u, nil
}

// FindUser returns the account matching role, email and password hash.
func (s *Store) FindUser(ctx context.Context, role, email, passwordHash string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.loadUsers()
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if sameAccount(u, role, email) && u.PasswordHash == passwordHash {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// GetUser returns the account with the given ID.
func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.loadUsers()
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}
