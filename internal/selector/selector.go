// Package selector picks the puzzle a new session plays, by date or at
// random from the manifest of available puzzle ids.
package selector

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
)

// DefaultPuzzleID is the puzzle callers fall back to when nothing can be
// selected.
const DefaultPuzzleID = "20250101"

// DefaultManifestTTL is how long a loaded manifest is reused.
const DefaultManifestTTL = 5 * time.Minute

var (
	ErrNoPuzzlesAvailable = errors.New("no puzzles available")
	ErrPuzzleNotFound     = errors.New("no puzzle for date")
	ErrFutureDate         = errors.New("date is in the future")
)

// ManifestLoader returns the ids of every available puzzle.
type ManifestLoader interface {
	LoadManifest(ctx context.Context) ([]string, error)
}

// DateID formats t as a daily puzzle id (YYYYMMDD).
func DateID(t time.Time) string { return t.Format("20060102") }

// ParseDateID parses a YYYYMMDD puzzle id in loc.
func ParseDateID(id string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("20060102", id, loc)
}

// Selector caches the manifest and answers selection queries against it.
type Selector struct {
	loader ManifestLoader
	now    func() time.Time
	loc    *time.Location
	ttl    time.Duration

	mu       sync.Mutex
	rng      *rand.Rand
	ids      []string
	loadedAt time.Time
}

type Option func(*Selector)

func WithClock(now func() time.Time) Option { return func(s *Selector) { s.now = now } }

func WithLocation(loc *time.Location) Option { return func(s *Selector) { s.loc = loc } }

func WithRand(rng *rand.Rand) Option { return func(s *Selector) { s.rng = rng } }

func WithTTL(d time.Duration) Option { return func(s *Selector) { s.ttl = d } }

func New(loader ManifestLoader, opts ...Option) *Selector {
	s := &Selector{
		loader: loader,
		now:    time.Now,
		loc:    time.UTC,
		ttl:    DefaultManifestTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Manifest returns the cached manifest, reloading it once the TTL expires.
// A load failure or an empty manifest is reported as ErrNoPuzzlesAvailable.
func (s *Selector) Manifest(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids != nil && s.now().Sub(s.loadedAt) < s.ttl {
		return s.ids, nil
	}
	ids, err := s.loader.LoadManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoPuzzlesAvailable, err)
	}
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: manifest is empty", ErrNoPuzzlesAvailable)
	}
	s.ids, s.loadedAt = cleaned, s.now()
	return s.ids, nil
}

// Today is ForDate for the current date.
func (s *Selector) Today(ctx context.Context) (string, error) {
	return s.ForDate(ctx, s.now())
}

// ForDate returns the puzzle id for date. The same date always yields the
// same id. Future dates are refused; when the manifest is available the
// date must also be listed in it.
func (s *Selector) ForDate(ctx context.Context, date time.Time) (string, error) {
	id := DateID(date.In(s.loc))
	if id > DateID(s.now().In(s.loc)) {
		return "", fmt.Errorf("%w: %s", ErrFutureDate, id)
	}
	ids, err := s.Manifest(ctx)
	if err != nil {
		// Without a manifest the date itself is the best guess.
		return id, nil
	}
	if !slices.Contains(ids, id) {
		return "", fmt.Errorf("%w: %s", ErrPuzzleNotFound, id)
	}
	return id, nil
}

// Random picks a puzzle id uniformly from the manifest. Consecutive calls
// may return the same id.
func (s *Selector) Random(ctx context.Context) (string, error) {
	ids, err := s.Manifest(ctx)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng != nil {
		return ids[s.rng.IntN(len(ids))], nil
	}
	return ids[rand.IntN(len(ids))], nil
}

// RandomOrDefault is Random falling back to DefaultPuzzleID.
func (s *Selector) RandomOrDefault(ctx context.Context) string {
	id, err := s.Random(ctx)
	if err != nil {
		return DefaultPuzzleID
	}
	return id
}

// Calendar lists the playable date ids of one month, oldest first.
func (s *Selector) Calendar(ctx context.Context, year int, month time.Month) ([]string, error) {
	ids, err := s.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%04d%02d", year, int(month))
	today := DateID(s.now().In(s.loc))

	var out []string
	for _, id := range ids {
		if len(id) == 8 && strings.HasPrefix(id, prefix) && id <= today {
			if _, err := ParseDateID(id, s.loc); err == nil {
				out = append(out, id)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
