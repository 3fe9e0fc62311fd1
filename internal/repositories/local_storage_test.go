package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/flix/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestLocalStorage(t *testing.T) {
	t.Run("Get Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalStorage(db)
		value, ok, err := repo.Get("token")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || value != "" {
			t.Errorf("expected missing key, got %q (ok=%v)", value, ok)
		}
	})

	t.Run("Set And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalStorage(db)
		if err := repo.Set(map[string]string{"token": "t1", "username": "alice"}); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		for key, want := range map[string]string{"token": "t1", "username": "alice"} {
			got, ok, err := repo.Get(key)
			if err != nil {
				t.Fatalf("failed to get %s: %v", key, err)
			}
			if !ok || got != want {
				t.Errorf("expected %s=%q, got %q (ok=%v)", key, want, got, ok)
			}
		}
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalStorage(db)
		if err := repo.Set(map[string]string{"token": "t1"}); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		if err := repo.Set(map[string]string{"token": "t2"}); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		got, _, err := repo.Get("token")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got != "t2" {
			t.Errorf("expected t2, got %q", got)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM local_storage").Scan(&count); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 row, got %d", count)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalStorage(db)
		if err := repo.Set(map[string]string{"token": "t1", "username": "alice", "theme": "dark"}); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		if err := repo.Remove("token", "username", "never-set"); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}

		if _, ok, _ := repo.Get("token"); ok {
			t.Error("token should be removed")
		}
		if _, ok, _ := repo.Get("theme"); !ok {
			t.Error("unrelated keys should survive")
		}

		if err := repo.Remove(); err != nil {
			t.Errorf("removing nothing should succeed, got %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewLocalStorage(db)
		db.Close()

		if _, _, err := repo.Get("token"); !errors.Is(err, shared.ErrLocalStorage) {
			t.Errorf("expected ErrLocalStorage from Get, got %v", err)
		}
		if err := repo.Set(map[string]string{"token": "t"}); !errors.Is(err, shared.ErrLocalStorage) {
			t.Errorf("expected ErrLocalStorage from Set, got %v", err)
		}
		if err := repo.Remove("token"); !errors.Is(err, shared.ErrLocalStorage) {
			t.Errorf("expected ErrLocalStorage from Remove, got %v", err)
		}
	})
}
