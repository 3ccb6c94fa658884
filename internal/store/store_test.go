package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatal(err)
	}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var tick time.Duration
	s.now = func() time.Time {
		tick += time.Second
		return base.Add(tick)
	}
	return s
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.RegisterUser(ctx, User{Role: "user", Email: "a@b.c", PasswordHash: "h1"})
	if err != nil {
		t.Fatal(err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Errorf("registered user missing ID or time: %+v", u)
	}

	if _, err := s.RegisterUser(ctx, User{Role: "user", Email: "A@B.C", PasswordHash: "h2"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate err = %v, want ErrDuplicate", err)
	}
	admin, err := s.RegisterUser(ctx, User{Role: "admin", Email: "a@b.c", PasswordHash: "h3"})
	if err != nil {
		t.Fatalf("same email with another role: %v", err)
	}

	tests := []struct {
		name              string
		role, email, hash string
		wantID            string
	}{
		{"user", "user", "a@b.c", "h1", u.ID},
		{"email case", "user", "A@b.C", "h1", u.ID},
		{"admin", "admin", "a@b.c", "h3", admin.ID},
		{"wrong hash", "user", "a@b.c", "h3", ""},
		{"wrong role", "admin", "a@b.c", "h1", ""},
		{"unknown", "user", "x@y.z", "h1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindUser(ctx, tt.role, tt.email, tt.hash)
			if tt.wantID == "" {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("err = %v, want ErrNotFound", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.ID != tt.wantID {
				t.Errorf("ID = %s, want %s", got.ID, tt.wantID)
			}
		})
	}

	byID, err := s.GetUser(ctx, admin.ID)
	if err != nil || byID.Role != "admin" {
		t.Errorf("GetUser = %+v, %v", byID, err)
	}

	// A second handle on the same directory sees the records.
	reopened, err := New(s.Root())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reopened.FindUser(ctx, "user", "a@b.c", "h1"); err != nil {
		t.Errorf("reopened store: %v", err)
	}
	info, err := os.Stat(filepath.Join(s.Root(), usersFile))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("users file perm = %o, want 600", perm)
	}
}

func TestModels(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"duck", "helmet", "fox"} {
		m, err := s.InsertModel(ctx, Model{Name: name, Path: "/m/" + name + ".glb"})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, m.ID)
	}

	list, err := s.ListModels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].Name != "duck" || list[2].Name != "fox" {
		t.Fatalf("list = %+v", list)
	}

	m, err := s.GetModel(ctx, ids[1])
	if err != nil {
		t.Fatal(err)
	}
	m.Name = "damaged helmet"
	m.CreatedAt = time.Time{}
	updated, err := s.UpdateModel(ctx, m)
	if err != nil {
		t.Fatal(err)
	}
	if updated.CreatedAt != list[1].CreatedAt {
		t.Errorf("CreatedAt changed: %v -> %v", list[1].CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Errorf("UpdatedAt not bumped: %v", updated.UpdatedAt)
	}

	if err := s.DeleteModel(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetModel(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetModel after delete err = %v", err)
	}
	if err := s.DeleteModel(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if _, err := s.UpdateModel(ctx, Model{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update unknown err = %v", err)
	}

	list, _ = s.ListModels(ctx)
	if len(list) != 2 || list[0].Name != "damaged helmet" {
		t.Errorf("list after edits = %+v", list)
	}
}

func TestEmptyStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list, err := s.ListModels(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("ListModels = %v, %v", list, err)
	}
	if _, err := s.LoadPreferences(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadPreferences err = %v", err)
	}
	if err := s.ClearPreferences(ctx); err != nil {
		t.Errorf("ClearPreferences on empty store: %v", err)
	}
}

func TestPreferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := Preferences{Email: "a@b.c", Password: "c2VjcmV0", Role: "user"}
	if err := s.SavePreferences(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadPreferences(ctx)
	if err != nil || got != want {
		t.Errorf("LoadPreferences = %+v, %v", got, err)
	}
	if err := s.ClearPreferences(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadPreferences(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("after clear err = %v", err)
	}
}

func TestCorruptFile(t *testing.T) {
	s := newTestStore(t)
	if err := os.WriteFile(filepath.Join(s.Root(), modelsFile), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ListModels(context.Background()); err == nil {
		t.Error("ListModels accepted a corrupt file")
	}
}

func TestCancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.InsertModel(ctx, Model{Name: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("InsertModel err = %v", err)
	}
	if _, err := s.RegisterUser(ctx, User{Email: "a@b"}); !errors.Is(err, context.Canceled) {
		t.Errorf("RegisterUser err = %v", err)
	}
	list, _ := s.ListModels(context.Background())
	if len(list) != 0 {
		t.Errorf("cancelled insert was stored: %+v", list)
	}
}

func TestConcurrentInserts(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.InsertModel(ctx, Model{Name: fmt.Sprintf("m%d", i)}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	list, err := s.ListModels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 20 {
		t.Errorf("stored %d models, want 20", len(list))
	}
	seen := map[string]bool{}
	for _, m := range list {
		if seen[m.ID] {
			t.Errorf("duplicate ID %s", m.ID)
		}
		seen[m.ID] = true
	}
	tmps, _ := filepath.Glob(filepath.Join(s.Root(), "*.tmp"))
	if len(tmps) != 0 {
		t.Errorf("temp files left behind: %v", tmps)
	}
}
