package selector

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
	"time"
)

type fakeLoader struct {
	ids   []string
	err   error
	calls int
}

func (f *fakeLoader) LoadManifest(context.Context) ([]string, error) {
	f.calls++
	return f.ids, f.err
}

func fixedNow() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }

func TestForDate(t *testing.T) {
	loader := &fakeLoader{ids: []string{"20250101", "20250314", "20250315", "20250316"}}
	s := New(loader, WithClock(fixedNow))
	ctx := context.Background()

	day := time.Date(2025, 3, 14, 23, 0, 0, 0, time.UTC)
	a, err := s.ForDate(ctx, day)
	if err != nil {
		t.Fatalf("for date: %v", err)
	}
	b, _ := s.ForDate(ctx, day.Add(-time.Hour))
	if a != "20250314" || a != b {
		t.Fatalf("expected 20250314 twice, got %q and %q", a, b)
	}

	if id, err := s.Today(ctx); err != nil || id != "20250315" {
		t.Fatalf("today: %q %v", id, err)
	}
	if _, err := s.ForDate(ctx, fixedNow().AddDate(0, 0, 1)); !errors.Is(err, ErrFutureDate) {
		t.Errorf("expected ErrFutureDate, got %v", err)
	}
	if _, err := s.ForDate(ctx, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrPuzzleNotFound) {
		t.Errorf("expected ErrPuzzleNotFound, got %v", err)
	}
	if loader.calls != 1 {
		t.Errorf("expected manifest to be cached, loaded %d times", loader.calls)
	}
}

func TestForDateWithoutManifest(t *testing.T) {
	s := New(&fakeLoader{err: errors.New("404")}, WithClock(fixedNow))
	id, err := s.ForDate(context.Background(), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || id != "20250201" {
		t.Fatalf("expected date id without manifest, got %q %v", id, err)
	}
}

func TestRandom(t *testing.T) {
	ids := []string{"a", "b", "c"}
	s := New(&fakeLoader{ids: ids}, WithRand(rand.New(rand.NewPCG(1, 2))))

	seen := map[string]bool{}
	for range 100 {
		id, err := s.Random(context.Background())
		if err != nil {
			t.Fatalf("random: %v", err)
		}
		if !slices.Contains(ids, id) {
			t.Fatalf("id %q not in manifest", id)
		}
		seen[id] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected every id to be picked, got %v", seen)
	}
}

func TestNoPuzzlesAvailable(t *testing.T) {
	tests := map[string]*fakeLoader{
		"load error": {err: errors.New("connection refused")},
		"empty":      {ids: []string{}},
		"blank ids":  {ids: []string{" ", ""}},
	}

	for name, loader := range tests {
		t.Run(name, func(t *testing.T) {
			s := New(loader)
			if _, err := s.Random(context.Background()); !errors.Is(err, ErrNoPuzzlesAvailable) {
				t.Fatalf("expected ErrNoPuzzlesAvailable, got %v", err)
			}
			if id := s.RandomOrDefault(context.Background()); id != DefaultPuzzleID {
				t.Fatalf("expected fallback %s, got %s", DefaultPuzzleID, id)
			}
		})
	}
}

func TestManifestReloadsAfterTTL(t *testing.T) {
	now := fixedNow()
	loader := &fakeLoader{ids: []string{"a"}}
	s := New(loader, WithClock(func() time.Time { return now }), WithTTL(time.Minute))
	ctx := context.Background()

	s.Manifest(ctx)
	s.Manifest(ctx)
	now = now.Add(2 * time.Minute)
	s.Manifest(ctx)
	if loader.calls != 2 {
		t.Fatalf("expected 2 loads, got %d", loader.calls)
	}
}

func TestCalendar(t *testing.T) {
	s := New(&fakeLoader{ids: []string{"20250316", "20250301", "20250228", "20250315", "poster-7", "20250301"}}, WithClock(fixedNow))

	got, err := s.Calendar(context.Background(), 2025, time.March)
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if want := []string{"20250301", "20250315"}; !slices.Equal(got, want) {
		t.Fatalf("calendar %v, want %v", got, want)
	}
}
