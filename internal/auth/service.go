// Package auth registers and signs in users against the record store and
// remembers the last successful login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/logger"
	"github.com/Faultbox/glbviewer/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidInput       = errors.New("auth: invalid input")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Status is the phase of the current authentication attempt.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// AuthState is what a login screen renders. User and Role are set on
// success, Message on error.
type AuthState struct {
	Status  Status
	User    store.User
	Role    Role
	Message string
}

// Service owns the signed-in session.
type Service struct {
	store    *store.Store
	crypto   *Crypto
	remember bool
	log      *zap.Logger

	mu    sync.RWMutex
	state AuthState
}

// NewService signs users in against st. With remember set, successful
// logins are saved for AutoLogin.
func NewService(st *store.Store, c *Crypto, remember bool) *Service {
	return &Service{
		store:    st,
		crypto:   c,
		remember: remember,
		log:      logger.Named("auth"),
	}
}

// State returns the current state.
func (s *Service) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns the signed-in user.
func (s *Service) Current() (store.User, bool) {
	st := s.State()
	return st.User, st.Status == StatusSuccess
}

func (s *Service) set(st AuthState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Service) fail(err error) error {
	s.set(AuthState{Status: StatusError, Message: message(err)})
	return err
}

// message strips package prefixes for display.
func message(err error) string {
	msg := err.Error()
	for _, prefix := range []string{"auth: ", "store: "} {
		msg = strings.ReplaceAll(msg, prefix, "")
	}
	return msg
}

// Validate checks email and password shape.
func Validate(email, password string) error {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	case !strings.Contains(email, "@"):
		return fmt.Errorf("%w: email must contain @", ErrInvalidInput)
	case password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	case len(password) < MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// Register creates an account. The service returns to idle afterwards;
// registering does not sign in.
func (s *Service) Register(ctx context.Context, role Role, email, password string) (store.User, error) {
	if !role.Valid() {
		return store.User{}, s.fail(fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role))
	}
	if err := Validate(email, password); err != nil {
		return store.User{}, s.fail(err)
	}
	s.set(AuthState{Status: StatusLoading})

	hash, err := s.crypto.Hash(password)
	if err != nil {
		return store.User{}, s.fail(err)
	}
	u, err := s.store.RegisterUser(ctx, store.User{
		Role:         string(role),
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			err = fmt.Errorf("auth: an account for %s already exists: %w", strings.TrimSpace(email), store.ErrDuplicate)
		}
		s.log.Warn("registration failed", zap.Error(err))
		return store.User{}, s.fail(err)
	}
	s.set(AuthState{Status: StatusIdle})
	return u, nil
}

// Login signs in and, when remembering is enabled, saves the credentials.
func (s *Service) Login(ctx context.Context, role Role, email, password string) (store.User, error) {
	if !role.Valid() {
		return store.User{}, s.fail(fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role))
	}
	if err := Validate(email, password); err != nil {
		return store.User{}, s.fail(err)
	}
	s.set(AuthState{Status: StatusLoading})

	u, err := s.authenticate(ctx, role, email, password)
	if err != nil {
		s.log.Info("login failed", zap.String("role", role.String()), zap.Error(err))
		return store.User{}, s.fail(err)
	}
	if s.remember {
		if err := s.rememberLogin(ctx, role, u.Email, password); err != nil {
			s.log.Warn("could not remember login", zap.Error(err))
		}
	}
	s.set(AuthState{Status: StatusSuccess, User: u, Role: role})
	s.log.Info("signed in", zap.String("user", u.ID), zap.String("role", role.String()))
	return u, nil
}

func (s *Service) authenticate(ctx context.Context, role Role, email, password string) (store.User, error) {
	hash, err := s.crypto.Hash(password)
	if err != nil {
		return store.User{}, err
	}
	u, err := s.store.FindUser(ctx, string(role), strings.TrimSpace(email), hash)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, ErrInvalidCredentials
	}
	return u, err
}

func (s *Service) rememberLogin(ctx context.Context, role Role, email, password string) error {
	sealed, err := s.crypto.Encrypt(password)
	if err != nil {
		return err
	}
	return s.store.SavePreferences(ctx, store.Preferences{Email: email, Password: sealed, Role: string(role)})
}

// AutoLogin signs in with saved credentials. It reports false with a nil
// error when nothing is saved. Saved credentials that are rejected are
// cleared; transient failures keep them. Either way the service returns to
// idle.
func (s *Service) AutoLogin(ctx context.Context) (store.User, bool, error) {
	prefs, err := s.store.LoadPreferences(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, false, nil
	}
	if err != nil {
		return store.User{}, false, err
	}
	s.set(AuthState{Status: StatusLoading})

	u, role, err := s.savedLogin(ctx, prefs)
	if err != nil {
		if staleLogin(err) {
			s.log.Info("saved login rejected", zap.Error(err))
			if cerr := s.store.ClearPreferences(ctx); cerr != nil {
				s.log.Warn("clearing saved login", zap.Error(cerr))
			}
		} else {
			s.log.Warn("saved login unavailable", zap.Error(err))
		}
		s.set(AuthState{Status: StatusIdle})
		return store.User{}, false, err
	}
	s.set(AuthState{Status: StatusSuccess, User: u, Role: role})
	s.log.Info("signed in from saved login", zap.String("user", u.ID))
	return u, true, nil
}

// staleLogin reports whether saved credentials can never succeed again.
// Other failures, such as a cancelled context or an unreadable store, keep
// them for the next attempt.
func staleLogin(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrBadCiphertext) ||
		errors.Is(err, ErrInvalidInput)
}

func (s *Service) savedLogin(ctx context.Context, p store.Preferences) (store.User, Role, error) {
	role, err := ParseRole(p.Role)
	if err != nil {
		return store.User{}, "", err
	}
	password, err := s.crypto.Decrypt(p.Password)
	if err != nil {
		return store.User{}, "", err
	}
	u, err := s.authenticate(ctx, role, p.Email, password)
	return u, role, err
}

// Logout forgets the saved login and returns to idle.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.ClearPreferences(ctx); err != nil {
		return err
	}
	s.set(AuthState{Status: StatusIdle})
	s.log.Info("signed out")
	return nil
}

// Reset clears an error state, for screens that dismiss the message.
func (s *Service) Reset() {
	s.set(AuthState{Status: StatusIdle})
}
