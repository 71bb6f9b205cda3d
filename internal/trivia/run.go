package trivia

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/filmiq/filmiq/internal/engine"
)

// QuestionTime is the countdown for each question.
const QuestionTime = 20 * time.Second

// ErrInvalidOption is returned when an answer names no option.
var ErrInvalidOption = errors.New("invalid option")

// WarnNoReplacement is reported when skip-question finds nothing to swap in.
const WarnNoReplacement = "no unused question left at this level; counted as incorrect"

// Answer is the log entry for one question.
type Answer struct {
	QuestionID string `json:"questionId"`
	Level      Level  `json:"level"`
	Selected   int    `json:"selected"`
	Correct    bool   `json:"correct"`
	TimedOut   bool   `json:"timedOut,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
}

// EventType names run notifications.
type EventType string

const (
	EventAnswer           EventType = "answer"
	EventTimeout          EventType = "timeout"
	EventNext             EventType = "next"
	EventFiftyFifty       EventType = "fifty_fifty"
	EventQuestionReplaced EventType = "question_replaced"
	EventQuestionSkipped  EventType = "question_skipped"
	EventGameOver         EventType = "game_over"
)

// Event is emitted after every run transition.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot Snapshot  `json:"snapshot"`
}

// Run is one pass through a theme. Every awaiting question owns a countdown;
// leaving that state cancels it so a late expiry is dropped.
type Run struct {
	ID    string
	Theme string

	mu        sync.Mutex
	bank      *Bank
	questions []Question
	used      UsedQuestionSet
	rng       *rand.Rand
	clock     engine.Clock
	countdown *engine.Countdown
	timeLimit time.Duration
	listeners []func(Event)

	index    int
	state    engine.StateKind
	answers  []Answer
	score    int
	powerUps engine.PowerUps
	hidden   []int
	warning  string
}

// RunOption configures a Run.
type RunOption func(*Run)

func WithClock(c engine.Clock) RunOption { return func(r *Run) { r.clock = c } }

func WithRand(rng *rand.Rand) RunOption { return func(r *Run) { r.rng = rng } }

func WithTimeLimit(d time.Duration) RunOption { return func(r *Run) { r.timeLimit = d } }

func WithListener(fn func(Event)) RunOption {
	return func(r *Run) { r.listeners = append(r.listeners, fn) }
}

// NewRun draws the questions for theme and starts the first countdown.
func NewRun(id string, bank *Bank, theme string, opts ...RunOption) (*Run, error) {
	if _, ok := bank.pool[theme]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	r := &Run{
		ID:        id,
		Theme:     theme,
		bank:      bank,
		used:      make(UsedQuestionSet),
		timeLimit: QuestionTime,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.countdown = engine.NewCountdown(r.clock)

	for _, tier := range Tiers {
		pool := bank.Questions(theme, tier.Level)
		if len(pool) < tier.Count {
			return nil, fmt.Errorf("%w: %q has %d %s questions, need %d",
				ErrNotEnoughQuestions, theme, len(pool), tier.Level, tier.Count)
		}
		r.shuffle(pool)
		for _, q := range pool[:tier.Count] {
			r.used.Add(q.ID)
			r.questions = append(r.questions, q)
		}
	}

	r.mu.Lock()
	r.state = engine.StateAwaitingGuess
	r.startLocked()
	r.mu.Unlock()
	return r, nil
}

func (r *Run) shuffle(qs []Question) {
	swap := func(i, j int) { qs[i], qs[j] = qs[j], qs[i] }
	if r.rng != nil {
		r.rng.Shuffle(len(qs), swap)
		return
	}
	rand.Shuffle(len(qs), swap)
}

// Answer selects option (0-based) for the current question.
func (r *Run) Answer(option int) (Snapshot, error) {
	r.mu.Lock()
	if r.state != engine.StateAwaitingGuess {
		r.mu.Unlock()
		return Snapshot{}, &engine.IllegalTransitionError{Op: "answer", State: r.state}
	}
	q := r.questions[r.index]
	if option < 0 || option >= len(q.Options) || slices.Contains(r.hidden, option) {
		r.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %d", ErrInvalidOption, option)
	}
	r.countdown.Cancel()
	r.resolveLocked(Answer{Selected: option, Correct: option == q.Correct})
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.emit(Event{Type: EventAnswer, Snapshot: snap})
	return snap, nil
}

func (r *Run) expire(gen uint64) {
	r.mu.Lock()
	if r.state != engine.StateAwaitingGuess || !r.countdown.Current(gen) {
		r.mu.Unlock()
		return
	}
	r.countdown.Cancel()
	r.resolveLocked(Answer{Selected: -1, TimedOut: true})
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.emit(Event{Type: EventTimeout, Snapshot: snap})
}

// Next leaves the resolved question for the following one, or ends the run
// after the last question.
func (r *Run) Next() (Snapshot, error) {
	r.mu.Lock()
	if r.state != engine.StateResolved {
		r.mu.Unlock()
		return Snapshot{}, &engine.IllegalTransitionError{Op: "next", State: r.state}
	}
	ev := r.advanceLocked(EventNext)
	r.mu.Unlock()

	r.emit(ev)
	return ev.Snapshot, nil
}

// UseFiftyFifty hides two wrong options of the current question. It is a
// no-op returning false after the first use.
func (r *Run) UseFiftyFifty() ([]int, bool, error) {
	r.mu.Lock()
	if r.state != engine.StateAwaitingGuess {
		r.mu.Unlock()
		return nil, false, &engine.IllegalTransitionError{Op: "useFiftyFifty", State: r.state}
	}
	if r.powerUps.FiftyFiftyUsed {
		r.mu.Unlock()
		return nil, false, nil
	}
	q := r.questions[r.index]
	hidden := engine.HideTwo(len(q.Options), q.Correct, r.rng)
	if hidden == nil {
		r.mu.Unlock()
		return nil, false, nil
	}
	r.powerUps.FiftyFiftyUsed = true
	r.hidden = hidden
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.emit(Event{Type: EventFiftyFifty, Snapshot: snap})
	return slices.Clone(hidden), true, nil
}

// UseSkipQuestion swaps the current question for an unused one of the same
// level and restarts its countdown. When none is left the question counts as
// incorrect, the run moves on and the snapshot carries a warning. It is a
// no-op returning false after the first use.
func (r *Run) UseSkipQuestion() (Snapshot, bool, error) {
	r.mu.Lock()
	if r.state != engine.StateAwaitingGuess {
		r.mu.Unlock()
		return Snapshot{}, false, &engine.IllegalTransitionError{Op: "useSkipQuestion", State: r.state}
	}
	if r.powerUps.SkipQuestionUsed {
		r.mu.Unlock()
		return Snapshot{}, false, nil
	}
	r.powerUps.SkipQuestionUsed = true

	cur := r.questions[r.index]
	var spare []Question
	for _, q := range r.bank.Questions(r.Theme, cur.Level) {
		if !r.used.Has(q.ID) {
			spare = append(spare, q)
		}
	}

	var ev Event
	if len(spare) > 0 {
		r.shuffle(spare)
		r.questions[r.index] = spare[0]
		r.used.Add(spare[0].ID)
		r.hidden = nil
		r.startLocked()
		ev = Event{Type: EventQuestionReplaced, Snapshot: r.snapshotLocked()}
	} else {
		r.countdown.Cancel()
		r.resolveLocked(Answer{Selected: -1, Skipped: true})
		ev = r.advanceLocked(EventQuestionSkipped)
		r.warning = WarnNoReplacement
		ev.Snapshot = r.snapshotLocked()
	}
	r.mu.Unlock()

	r.emit(ev)
	return ev.Snapshot, true, nil
}

// Snapshot returns the current read model.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Over reports whether the run has ended.
func (r *Run) Over() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == engine.StateGameOver
}

// Close cancels any running countdown.
func (r *Run) Close() { r.countdown.Cancel() }

func (r *Run) startLocked() {
	r.warning = ""
	r.countdown.Start(r.timeLimit, r.expire)
}

func (r *Run) resolveLocked(a Answer) {
	q := r.questions[r.index]
	a.QuestionID, a.Level = q.ID, q.Level
	r.answers = append(r.answers, a)
	if a.Correct {
		r.score++
	}
	r.state = engine.StateResolved
}

func (r *Run) advanceLocked(typ EventType) Event {
	r.hidden = nil
	if r.index == len(r.questions)-1 {
		r.state = engine.StateGameOver
		return Event{Type: EventGameOver, Snapshot: r.snapshotLocked()}
	}
	r.index++
	r.state = engine.StateAwaitingGuess
	r.startLocked()
	return Event{Type: typ, Snapshot: r.snapshotLocked()}
}

func (r *Run) emit(ev Event) {
	for _, fn := range r.listeners {
		fn(ev)
	}
}
