package engine

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
)

// Outcome is returned by every transition.
type Outcome struct {
	Verdict  *Verdict `json:"verdict,omitempty"`
	Skipped  bool     `json:"skipped"`
	Snapshot Snapshot `json:"snapshot"`
}

// Controller is the stage state machine for one session. Transitions are
// serialized; listeners run after the lock is released.
type Controller struct {
	mu        sync.Mutex
	s         *Session
	gate      *Gate
	rng       *rand.Rand
	now       func() time.Time
	listeners []func(Event)
}

// Option configures a Controller.
type Option func(*Controller)

// WithGate makes the controller wait on g before accepting input for a stage.
// Without a gate every stage counts as loaded.
func WithGate(g *Gate) Option { return func(c *Controller) { c.gate = g } }

// WithRand sets the random source used by fifty-fifty.
func WithRand(r *rand.Rand) Option { return func(c *Controller) { c.rng = r } }

// WithListener subscribes fn to controller events.
func WithListener(fn func(Event)) Option {
	return func(c *Controller) { c.listeners = append(c.listeners, fn) }
}

// WithNow overrides the session start clock.
func WithNow(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// NewController starts a session for puzzle p in AwaitingGuess(1).
func NewController(id string, v Variant, p Puzzle, opts ...Option) (*Controller, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if p.Ladder == nil || p.Ladder.Len() != v.Stages() {
		return nil, configErr(v.Name, "puzzle %s ladder does not have %d stages", p.ID, v.Stages())
	}
	if strings.TrimSpace(p.Answer) == "" {
		return nil, configErr(v.Name, "puzzle %s has no answer", p.ID)
	}

	c := &Controller{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.gate == nil {
		c.gate = OpenGate(v.Stages())
	}
	if c.gate.Len() != v.Stages() {
		return nil, configErr(v.Name, "evidence gate tracks %d stages, want %d", c.gate.Len(), v.Stages())
	}
	c.s = &Session{
		ID:        id,
		Variant:   v,
		Puzzle:    p,
		StartedAt: c.now(),
		stage:     1,
		status:    StatusInProgress,
	}
	c.gate.Watch(c.onStageResolved)
	return c, nil
}

// ID returns the session id.
func (c *Controller) ID() string { return c.s.ID }

// Variant returns the session's variant.
func (c *Controller) Variant() Variant { return c.s.Variant }

// SubmitGuess judges text against the answer at the current stage. A blank
// guess is a skip.
func (c *Controller) SubmitGuess(text string) (Outcome, error) {
	guess := strings.TrimSpace(text)
	if guess == "" {
		return c.Skip()
	}

	c.mu.Lock()
	if err := c.checkAwaiting("submitGuess"); err != nil {
		c.mu.Unlock()
		return Outcome{}, err
	}
	if err := c.stageErr(); err != nil {
		c.mu.Unlock()
		return Outcome{}, err
	}

	i := c.s.stage
	verdict := Evaluate(guess, c.s.Puzzle.Answer)
	c.s.log = append(c.s.log, LogEntry{Stage: i, Guess: guess, Verdict: &verdict})

	events := []Event{{Type: EventGuess, Snapshot: c.snapshotLocked()}}
	if verdict.Correct {
		c.finishLocked(true, c.s.Puzzle.Ladder.PointsAt(i))
		events = append(events, Event{Type: EventGameOver, Snapshot: c.snapshotLocked()})
	} else {
		events = append(events, c.advanceLocked())
	}
	out := Outcome{Verdict: &verdict, Snapshot: c.snapshotLocked()}
	c.mu.Unlock()

	c.emit(events)
	return out, nil
}

// Skip gives up on the current stage without scoring. It is the only
// transition allowed on a stage whose evidence failed to load.
func (c *Controller) Skip() (Outcome, error) {
	c.mu.Lock()
	if err := c.checkAwaiting("skip"); err != nil {
		c.mu.Unlock()
		return Outcome{}, err
	}
	if err := c.gate.Err(c.s.stage); errors.Is(err, ErrStageNotReady) {
		c.mu.Unlock()
		return Outcome{}, err
	}

	c.s.log = append(c.s.log, LogEntry{Stage: c.s.stage, Skipped: true})
	events := []Event{
		{Type: EventSkip, Snapshot: c.snapshotLocked()},
		c.advanceLocked(),
	}
	out := Outcome{Skipped: true, Snapshot: c.snapshotLocked()}
	c.mu.Unlock()

	c.emit(events)
	return out, nil
}

// UseFiftyFifty hides two wrong choices on the current stage. It returns
// false without changing anything when the power-up was already used, the
// variant does not offer it, or the stage has no choices to remove.
func (c *Controller) UseFiftyFifty() ([]int, bool, error) {
	c.mu.Lock()
	if err := c.checkAwaiting("useFiftyFifty"); err != nil {
		c.mu.Unlock()
		return nil, false, err
	}
	if !c.s.Variant.FiftyFifty || c.s.powerUps.FiftyFiftyUsed {
		c.mu.Unlock()
		return nil, false, nil
	}
	stage, _ := c.s.Puzzle.Ladder.StageAt(c.s.stage)
	correct := -1
	for i, choice := range stage.Choices {
		if Evaluate(choice, c.s.Puzzle.Answer).Correct {
			correct = i
			break
		}
	}
	hidden := HideTwo(len(stage.Choices), correct, c.rng)
	if hidden == nil {
		c.mu.Unlock()
		return nil, false, nil
	}
	c.s.powerUps.FiftyFiftyUsed = true
	c.s.hidden = hidden
	ev := Event{Type: EventFiftyFifty, Snapshot: c.snapshotLocked()}
	c.mu.Unlock()

	c.emit([]Event{ev})
	return slices.Clone(hidden), true, nil
}

// HideTwo picks two distinct wrong option indices out of n, never correct.
// It returns nil when correct is not a valid index or fewer than two wrong
// options exist.
func HideTwo(n, correct int, rng *rand.Rand) []int {
	if correct < 0 || correct >= n || n < 3 {
		return nil
	}
	wrong := make([]int, 0, n-1)
	for i := range n {
		if i != correct {
			wrong = append(wrong, i)
		}
	}
	swap := func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] }
	if rng != nil {
		rng.Shuffle(len(wrong), swap)
	} else {
		rand.Shuffle(len(wrong), swap)
	}
	hidden := wrong[:2]
	slices.Sort(hidden)
	return hidden
}

// StageReady reports whether stage i's evidence has loaded.
func (c *Controller) StageReady(i int) bool { return c.gate.Ready(i) }

// Gate exposes the evidence gate so loaders can resolve stages.
func (c *Controller) Gate() *Gate { return c.gate }

// CurrentEvidence returns the evidence for the current stage.
func (c *Controller) CurrentEvidence() (Evidence, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, err := c.s.Puzzle.Ladder.StageAt(c.s.stage)
	if err != nil {
		return Evidence{}, err
	}
	return st.Evidence, nil
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Snapshot returns a copy of the session read model.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Over reports whether the session reached GameOver.
func (c *Controller) Over() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.status != StatusInProgress
}

func (c *Controller) checkAwaiting(op string) error {
	if c.s.status != StatusInProgress {
		return &IllegalTransitionError{Op: op, State: StateGameOver}
	}
	return nil
}

func (c *Controller) stageErr() error {
	err := c.gate.Err(c.s.stage)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStageNotReady):
		return ErrStageNotReady
	default:
		return &EvidenceUnavailableError{PuzzleID: c.s.Puzzle.ID, Stage: c.s.stage, Err: err}
	}
}

// advanceLocked moves past a stage that was missed, ending the game with
// zero points on the last stage.
func (c *Controller) advanceLocked() Event {
	if c.s.stage < c.s.Puzzle.Ladder.Len() {
		c.s.stage++
		c.s.hidden = nil
		return Event{Type: EventStageAdvanced, Snapshot: c.snapshotLocked()}
	}
	c.finishLocked(false, 0)
	return Event{Type: EventGameOver, Snapshot: c.snapshotLocked()}
}

func (c *Controller) finishLocked(won bool, score int) {
	c.s.finalScore = &score
	if won {
		c.s.status = StatusWon
	} else {
		c.s.status = StatusLost
	}
}

func (c *Controller) stateLocked() State {
	if c.s.status == StatusInProgress {
		return State{Kind: StateAwaitingGuess, Stage: c.s.stage}
	}
	return State{
		Kind:       StateGameOver,
		Stage:      c.s.stage,
		FinalScore: *c.s.finalScore,
		Won:        c.s.status == StatusWon,
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.s
	st, _ := s.Puzzle.Ladder.StageAt(s.stage)
	ev := st.Evidence
	snap := Snapshot{
		SessionID:   s.ID,
		PuzzleID:    s.Puzzle.ID,
		Variant:     s.Variant.Name,
		State:       c.stateLocked().Kind,
		Status:      s.status,
		Stage:       s.stage,
		TotalStages: s.Puzzle.Ladder.Len(),
		Label:       st.Label,
		Evidence:    &ev,
		Choices:     st.Choices,
		Hidden:      slices.Clone(s.hidden),
		MaxPoints:   s.Variant.MaxPoints(),
		Won:         s.status == StatusWon,
		Ready:       c.gate.Ready(s.stage),
		PowerUps: PowerUpState{
			PowerUps:            s.powerUps,
			FiftyFiftyAvailable: s.Variant.FiftyFifty && !s.powerUps.FiftyFiftyUsed && len(st.Choices) >= 3,
		},
		Log:       slices.Clone(s.log),
		StartedAt: s.StartedAt,
	}
	if s.status == StatusInProgress {
		snap.PointsAvailable = st.Points
	} else {
		score := *s.finalScore
		snap.Score = score
		snap.FinalScore = &score
		snap.Answer = s.Puzzle.Answer
	}
	if snap.Log == nil {
		snap.Log = []LogEntry{}
	}
	return snap
}

func (c *Controller) onStageResolved(stage int, err error) {
	c.mu.Lock()
	if c.s == nil || c.s.status != StatusInProgress || stage != c.s.stage {
		c.mu.Unlock()
		return
	}
	ev := Event{Type: EventStageReady, Snapshot: c.snapshotLocked()}
	if err != nil {
		ev.Type = EventEvidenceUnavailable
	}
	c.mu.Unlock()

	c.emit([]Event{ev})
}

func (c *Controller) emit(events []Event) {
	for _, ev := range events {
		for _, fn := range c.listeners {
			fn(ev)
		}
	}
}
