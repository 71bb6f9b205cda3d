// Package streak keeps the cross-session counters of each game: streaks,
// best streak and endless-mode lives.
package streak

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/kv"
)

// ErrRunOver is returned when an endless outcome is recorded with no lives
// left. The run must be restarted first.
var ErrRunOver = errors.New("endless run is over")

// State is the persisted ledger of one game for one player.
type State struct {
	CurrentStreak         int `json:"currentStreak"`
	BestStreak            int `json:"bestStreak"`
	Lives                 int `json:"lives,omitempty"`
	MaxStreakEverRecorded int `json:"maxStreakEverRecorded"`
	Played                int `json:"played"`
	Won                   int `json:"won"`
}

// Key is the store key for variant and player. Games never share a key.
func Key(variant, player string) string {
	return "filmiq:streak:" + variant + ":" + player
}

// Ledger applies terminal outcomes to a State and persists it after every
// change.
type Ledger struct {
	mu      sync.Mutex
	store   kv.Store
	key     string
	variant engine.Variant
	state   State
	logger  *slog.Logger
}

// Open loads the ledger for v and player. A missing or unreadable entry
// starts a fresh ledger; storage errors are logged, never returned.
func Open(ctx context.Context, store kv.Store, v engine.Variant, player string, logger *slog.Logger) *Ledger {
	l := &Ledger{
		store:   store,
		key:     Key(v.Name, player),
		variant: v,
		state:   fresh(v),
		logger:  logger,
	}

	raw, ok, err := store.Get(ctx, l.key)
	switch {
	case err != nil:
		logger.Warn("loading streak failed, starting fresh", "key", l.key, "error", err)
	case ok:
		var s State
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			logger.Warn("corrupt streak entry, starting fresh", "key", l.key, "error", err)
			break
		}
		if v.Mode != engine.ModeEndless {
			s.Lives = 0
		}
		l.state = s
	}
	return l
}

func fresh(v engine.Variant) State {
	if v.Mode == engine.ModeEndless {
		return State{Lives: v.Lives}
	}
	return State{}
}

// State returns the current counters.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// RecordOutcome applies one terminal session result.
//
// Single-puzzle games only count plays and wins. In streak mode a win
// extends the streak and a loss resets it. In endless mode a loss costs a
// life and the streak is reset only when the last life is lost.
func (l *Ledger) RecordOutcome(ctx context.Context, won bool) (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := &l.state
	if l.variant.Mode == engine.ModeEndless && s.Lives <= 0 {
		return *s, ErrRunOver
	}

	s.Played++
	if won {
		s.Won++
	}

	switch l.variant.Mode {
	case engine.ModeSingle:
	case engine.ModeStreak:
		if won {
			l.extendLocked()
		} else {
			s.CurrentStreak = 0
		}
	case engine.ModeEndless:
		if won {
			l.extendLocked()
		} else {
			s.Lives--
			if s.Lives == 0 {
				s.CurrentStreak = 0
			}
		}
	}

	l.saveLocked(ctx)
	return *s, nil
}

func (l *Ledger) extendLocked() {
	s := &l.state
	s.CurrentStreak++
	s.BestStreak = max(s.BestStreak, s.CurrentStreak)
	s.MaxStreakEverRecorded = max(s.MaxStreakEverRecorded, s.BestStreak)
}

// Restart begins a new endless run with full lives and no current streak.
// The best streak is kept.
func (l *Ledger) Restart(ctx context.Context) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.CurrentStreak = 0
	if l.variant.Mode == engine.ModeEndless {
		l.state.Lives = l.variant.Lives
	}
	l.saveLocked(ctx)
	return l.state
}

func (l *Ledger) saveLocked(ctx context.Context) {
	raw, err := json.Marshal(l.state)
	if err != nil {
		l.logger.Error("encoding streak", "key", l.key, "error", err)
		return
	}
	if err := l.store.Set(ctx, l.key, string(raw)); err != nil {
		l.logger.Error("saving streak", "key", l.key, "error", err)
	}
}
