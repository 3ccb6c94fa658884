// Package store persists users, imported models and saved login
// preferences as JSON files under a data directory.
//
// Every file is rewritten atomically (temp file + rename) and guarded by a
// single RWMutex, so one Store may be shared between goroutines. Methods
// touch the disk; call them off the render thread.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/glbviewer/internal/logger"
)

var (
	ErrNotFound  = errors.New("store: record not found")
	ErrDuplicate = errors.New("store: record already exists")
)

const (
	usersFile  = "users.json"
	modelsFile = "models.json"
	prefsFile  = "preferences.json"
)

// Store is a JSON-file-backed record store rooted at a directory.
type Store struct {
	root string
	mu   sync.RWMutex
	log  *zap.Logger
	now  func() time.Time
}

// New opens (creating if needed) a store rooted at root.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{root: root, log: logger.Named("store"), now: time.Now}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) path(name string) string {
	return filepath.Join(s.root, name)
}

func newID() string {
	return uuid.NewString()
}

// readJSON decodes name into v. A missing file leaves v untouched and
// reports found=false.
func (s *Store) readJSON(name string, v any) (found bool, err error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return true, nil
}

// writeJSON replaces name with the encoding of v.
func (s *Store) writeJSON(name string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	final := s.path(name)
	tmp, err := os.CreateTemp(s.root, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp %s: %w", name, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp %s: %w", name, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp %s: %w", name, err)
	}
	return nil
}
