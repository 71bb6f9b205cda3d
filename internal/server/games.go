package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/filmiq/filmiq/internal/assets"
	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/kv"
	"github.com/filmiq/filmiq/internal/selector"
	"github.com/filmiq/filmiq/internal/streak"
	"github.com/filmiq/filmiq/internal/trivia"
)

var (
	errPuzzleUnavailable = errors.New("puzzle unavailable")
	errUnknownVariant    = errors.New("unknown game")
	errBadDate           = errors.New("date must be YYYY-MM-DD")
)

// gameSession is one live ladder game owned by a player.
type gameSession struct {
	id     string
	player Player
	date   string
	ctrl   *engine.Controller
	ledger *streak.Ledger // shared with every other session of the same player and game
	cancel context.CancelFunc

	mu     sync.Mutex
	streak *streak.State
}

func (s *gameSession) close() { s.cancel() }

func (s *gameSession) streakState() *streak.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streak
}

// games owns every live session and trivia run.
type games struct {
	logger       *slog.Logger
	players      *PlayerStore
	streaks      kv.Store
	variants     map[string]engine.Variant
	selector     *selector.Selector
	assets       *assets.Provider
	bank         *trivia.Bank
	questionTime time.Duration
	clock        engine.Clock
	broker       *Broker

	sessions *Registry[*gameSession]
	runs     *Registry[*trivia.Run]

	ledgerMu sync.Mutex
	ledgers  map[string]*streak.Ledger
}

func newGames(d Deps, logger *slog.Logger, broker *Broker) *games {
	g := &games{
		logger:       logger,
		players:      d.Players,
		streaks:      d.Streaks,
		variants:     d.Variants,
		selector:     d.Selector,
		assets:       d.Assets,
		bank:         d.Bank,
		questionTime: d.QuestionTime,
		clock:        d.Clock,
		broker:       broker,
		sessions:     NewRegistry(func(s *gameSession) { s.close() }),
		runs:         NewRegistry(func(r *trivia.Run) { r.Close() }),
		ledgers:      make(map[string]*streak.Ledger),
	}
	if g.clock == nil {
		g.clock = engine.SystemClock()
	}
	if g.questionTime <= 0 {
		g.questionTime = trivia.QuestionTime
	}
	if g.bank == nil {
		g.bank = trivia.NewBank(nil)
	}
	return g
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// ledger returns the one streak ledger of player for v. Sessions, restarts
// and reads all go through it so no stale copy is ever written back.
func (g *games) ledger(ctx context.Context, v engine.Variant, player string) *streak.Ledger {
	key := streak.Key(v.Name, player)

	g.ledgerMu.Lock()
	defer g.ledgerMu.Unlock()
	if l, ok := g.ledgers[key]; ok {
		return l
	}
	l := streak.Open(ctx, g.streaks, v, player, g.logger)
	g.ledgers[key] = l
	return l
}

func (g *games) variant(name string) (engine.Variant, error) {
	v, ok := g.variants[name]
	if !ok {
		return engine.Variant{}, fmt.Errorf("%w: %s", errUnknownVariant, name)
	}
	return v, nil
}

// pick chooses the puzzle of a new session. Single-puzzle games play by date,
// the others draw at random.
func (g *games) pick(ctx context.Context, v engine.Variant, date string) (string, error) {
	if v.Mode != engine.ModeSingle {
		return g.selector.RandomOrDefault(ctx), nil
	}
	if date == "" {
		return g.selector.Today(ctx)
	}
	t, err := selector.ParseDateID(strings.ReplaceAll(date, "-", ""), time.UTC)
	if err != nil {
		return "", errBadDate
	}
	return g.selector.ForDate(ctx, t)
}

func (g *games) start(ctx context.Context, p Player, v engine.Variant, date string) (*gameSession, error) {
	ledger := g.ledger(ctx, v, p.ID)
	if v.Mode == engine.ModeEndless && ledger.State().Lives <= 0 {
		return nil, streak.ErrRunOver
	}

	puzzleID, err := g.pick(ctx, v, date)
	if err != nil {
		return nil, err
	}

	rng := newRand()
	puzzle, err := g.assets.LoadPuzzle(ctx, v, puzzleID, rng)
	if err != nil {
		var cfgErr *engine.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errPuzzleUnavailable, err)
	}

	sess := &gameSession{
		id:     g.sessions.NewID(),
		player: p,
		ledger: ledger,
	}
	if v.Mode == engine.ModeSingle {
		sess.date = puzzleID
	}

	gate := engine.NewGate(v.Stages())
	ctrl, err := engine.NewController(sess.id, v, puzzle,
		engine.WithGate(gate),
		engine.WithRand(rng),
		engine.WithNow(g.clock.Now),
		engine.WithListener(func(ev engine.Event) { g.onSessionEvent(sess, ev) }),
	)
	if err != nil {
		return nil, err
	}
	sess.ctrl = ctrl

	pctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	go func() {
		if err := g.assets.Prefetch(pctx, v, puzzleID, gate); err != nil && !errors.Is(err, context.Canceled) {
			g.logger.Warn("prefetch stopped", "session", sess.id, "error", err)
		}
	}()

	g.sessions.Put(sess.id, p.ID, sess)
	g.logger.Info("session started",
		"session", sess.id,
		"variant", v.Name,
		"puzzle", puzzleID,
		"player", p.ID,
	)
	return sess, nil
}

// onSessionEvent runs on every controller event. Terminal events feed the
// streak ledger and the results history before being published.
func (g *games) onSessionEvent(sess *gameSession, ev engine.Event) {
	if ev.Type == engine.EventGameOver {
		g.finish(sess, ev.Snapshot)
	}
	g.broker.Publish(sess.id, ev)
}

func (g *games) finish(sess *gameSession, snap engine.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	won := snap.Status == engine.StatusWon
	st, err := sess.ledger.RecordOutcome(ctx, won)
	if err != nil {
		g.logger.Warn("streak not recorded", "session", sess.id, "error", err)
	} else {
		sess.mu.Lock()
		sess.streak = &st
		sess.mu.Unlock()
	}

	score := 0
	if snap.FinalScore != nil {
		score = *snap.FinalScore
	}
	err = g.players.RecordResult(ctx, sess.player.ID, Result{
		Game:     snap.Variant,
		PuzzleID: snap.PuzzleID,
		Score:    score,
		MaxScore: snap.MaxPoints,
		Won:      won,
	})
	if err != nil {
		g.logger.Error("recording result", "session", sess.id, "error", err)
	}

	g.logger.Info("session finished",
		"session", sess.id,
		"variant", snap.Variant,
		"puzzle", snap.PuzzleID,
		"won", won,
		"score", score,
	)
}

func (g *games) session(id string, p Player) (*gameSession, error) {
	sess, ok := g.sessions.Get(id, p.ID)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, nil
}

func (g *games) startRun(p Player, theme string) (*trivia.Run, error) {
	id := g.runs.NewID()
	run, err := trivia.NewRun(id, g.bank, theme,
		trivia.WithClock(g.clock),
		trivia.WithTimeLimit(g.questionTime),
		trivia.WithListener(func(ev trivia.Event) { g.onRunEvent(p, ev) }),
	)
	if err != nil {
		return nil, err
	}
	g.runs.Put(id, p.ID, run)
	g.logger.Info("trivia run started", "run", id, "theme", theme, "player", p.ID)
	return run, nil
}

func (g *games) onRunEvent(p Player, ev trivia.Event) {
	if ev.Type == trivia.EventGameOver {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := g.players.RecordResult(ctx, p.ID, Result{
			Game:     "trivia:" + ev.Snapshot.Theme,
			PuzzleID: ev.Snapshot.RunID,
			Score:    ev.Snapshot.Score,
			MaxScore: ev.Snapshot.Total,
			Won:      ev.Snapshot.Won,
		})
		if err != nil {
			g.logger.Error("recording result", "run", ev.Snapshot.RunID, "error", err)
		}
	}
	g.broker.Publish(ev.Snapshot.RunID, ev)
}

func (g *games) run(id string, p Player) (*trivia.Run, error) {
	run, ok := g.runs.Get(id, p.ID)
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, nil
}

// reap evicts idle sessions and runs until ctx is done.
func (g *games) reap(ctx context.Context, idle time.Duration) error {
	interval := idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	done := make(chan error, 1)
	go func() {
		done <- g.runs.RunReaper(ctx, interval, idle, func(n int) {
			g.logger.Info("reaped idle trivia runs", "count", n)
		})
	}()
	err := g.sessions.RunReaper(ctx, interval, idle, func(n int) {
		g.logger.Info("reaped idle sessions", "count", n)
	})
	return errors.Join(err, <-done)
}

func (g *games) close() {
	g.sessions.Close()
	g.runs.Close()
}
