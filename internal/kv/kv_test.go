package kv

import (
	"context"
	"testing"

	"github.com/filmiq/filmiq/internal/database"
	"github.com/filmiq/filmiq/internal/migrations"
)

func sqliteStore(t *testing.T) *SQLite {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return NewSQLite(db)
}

func TestStores(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqliteStore(t),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("missing key: ok=%v err=%v", ok, err)
			}

			if err := s.Set(ctx, "filmiq:streak:poster:p1", `{"currentStreak":1}`); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := s.Set(ctx, "filmiq:streak:poster:p1", `{"currentStreak":2}`); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			v, ok, err := s.Get(ctx, "filmiq:streak:poster:p1")
			if err != nil || !ok {
				t.Fatalf("get: ok=%v err=%v", ok, err)
			}
			if v != `{"currentStreak":2}` {
				t.Errorf("expected overwritten value, got %q", v)
			}
		})
	}
}
