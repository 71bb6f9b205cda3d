package engine

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
)

func newMediaController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	l, err := NewLadder(Daily(), mediaEvidence(4), nil)
	if err != nil {
		t.Fatalf("new ladder: %v", err)
	}
	c, err := NewController("s1", Daily(), Puzzle{ID: "20250101", Answer: "Inception", Ladder: l}, opts...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func choiceLadder(t *testing.T) *Ladder {
	t.Helper()
	choices := []string{"Memento", "Inception", "Tenet", "Dunkirk"}
	stages := make([]Stage, 4)
	for i := range stages {
		stages[i] = Stage{
			Index:    i + 1,
			Points:   4 - i,
			Evidence: Evidence{Kind: Daily().Kinds[i]},
			Choices:  choices,
		}
	}
	l, err := NewLadderFromStages("daily", stages)
	if err != nil {
		t.Fatalf("new ladder: %v", err)
	}
	return l
}

func TestCaseInsensitiveWinAtFirstStage(t *testing.T) {
	c := newMediaController(t)

	out, err := c.SubmitGuess("inception")
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if out.Verdict == nil || !out.Verdict.Correct {
		t.Fatal("expected a correct verdict")
	}
	st := c.State()
	if st.Kind != StateGameOver || st.FinalScore != 4 || !st.Won {
		t.Fatalf("expected GameOver(4, true), got %+v", st)
	}
	if out.Snapshot.Answer != "Inception" {
		t.Errorf("expected answer revealed after game over, got %q", out.Snapshot.Answer)
	}
}

func TestSkipsThenWinAtLastStage(t *testing.T) {
	c := newMediaController(t)

	for i := 1; i <= 3; i++ {
		out, err := c.SubmitGuess("   ")
		if err != nil {
			t.Fatalf("empty guess at stage %d: %v", i, err)
		}
		if !out.Skipped || out.Verdict != nil {
			t.Fatalf("stage %d: expected empty guess to be a skip", i)
		}
	}
	if _, err := c.SubmitGuess("Inception"); err != nil {
		t.Fatalf("guess: %v", err)
	}

	snap := c.Snapshot()
	if snap.FinalScore == nil || *snap.FinalScore != 1 || !snap.Won {
		t.Fatalf("expected final score 1, got %+v", snap.FinalScore)
	}
	if len(snap.Log) != 4 {
		t.Fatalf("expected 4 log entries, got %d", len(snap.Log))
	}
	for i, e := range snap.Log[:3] {
		if !e.Skipped || e.Verdict != nil || e.Stage != i+1 {
			t.Errorf("log %d: expected skip at stage %d, got %+v", i, i+1, e)
		}
	}
}

func TestAllWrongLoses(t *testing.T) {
	c := newMediaController(t)

	for _, g := range []string{"Memento", "Tenet", "Dunkirk", "Interstellar"} {
		out, err := c.SubmitGuess(g)
		if err != nil {
			t.Fatalf("guess %q: %v", g, err)
		}
		if out.Verdict == nil || out.Verdict.Correct {
			t.Fatalf("guess %q: expected incorrect verdict", g)
		}
	}

	st := c.State()
	if st.Kind != StateGameOver || st.FinalScore != 0 || st.Won {
		t.Fatalf("expected GameOver(0, false), got %+v", st)
	}
}

func TestPosterWinRevealCount(t *testing.T) {
	l, err := NewLadder(Poster(), make([]Evidence, 5), rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("new ladder: %v", err)
	}
	c, err := NewController("p1", Poster(), Puzzle{ID: "tt1375666", Answer: "Inception", Ladder: l})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	c.SubmitGuess("Memento")
	c.Skip()
	out, err := c.SubmitGuess("Inception")
	if err != nil {
		t.Fatalf("guess: %v", err)
	}

	snap := out.Snapshot
	if snap.Evidence == nil || snap.Evidence.Revealed != 50 || len(snap.Evidence.Cells) != 50 {
		t.Fatalf("expected 50 revealed cells at win, got %+v", snap.Evidence)
	}
	if *snap.FinalScore != 3 {
		t.Errorf("expected final score 3, got %d", *snap.FinalScore)
	}
}

func TestFiftyFiftyOncePerSession(t *testing.T) {
	c, err := NewController("s1", Daily(), Puzzle{ID: "x", Answer: "Inception", Ladder: choiceLadder(t)},
		WithRand(rand.New(rand.NewPCG(3, 4))))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	hidden, ok, err := c.UseFiftyFifty()
	if err != nil || !ok {
		t.Fatalf("first fifty-fifty: ok=%v err=%v", ok, err)
	}
	if len(hidden) != 2 || hidden[0] == hidden[1] || slices.Contains(hidden, 1) {
		t.Fatalf("expected two distinct wrong options hidden, got %v", hidden)
	}

	again, ok, err := c.UseFiftyFifty()
	if err != nil || ok || again != nil {
		t.Fatalf("second fifty-fifty should be a no-op: hidden=%v ok=%v err=%v", again, ok, err)
	}

	snap := c.Snapshot()
	if !slices.Equal(snap.Hidden, hidden) {
		t.Errorf("expected %v hidden, got %v", hidden, snap.Hidden)
	}
	if snap.PowerUps.FiftyFiftyAvailable {
		t.Error("expected fifty-fifty to be spent")
	}
}

func TestFiftyFiftyNoOpWithoutChoices(t *testing.T) {
	c := newMediaController(t)

	_, ok, err := c.UseFiftyFifty()
	if err != nil || ok {
		t.Fatalf("expected no-op on free-text stage: ok=%v err=%v", ok, err)
	}
	if c.Snapshot().PowerUps.FiftyFiftyUsed {
		t.Error("no-op must not consume the power-up")
	}
}

func TestTransitionsAfterGameOver(t *testing.T) {
	c := newMediaController(t)
	c.SubmitGuess("Inception")

	var illegal *IllegalTransitionError
	if _, err := c.SubmitGuess("Inception"); !errors.As(err, &illegal) {
		t.Errorf("guess: expected IllegalTransitionError, got %v", err)
	}
	if _, err := c.Skip(); !errors.As(err, &illegal) {
		t.Errorf("skip: expected IllegalTransitionError, got %v", err)
	}
	if _, _, err := c.UseFiftyFifty(); !errors.As(err, &illegal) {
		t.Errorf("fifty-fifty: expected IllegalTransitionError, got %v", err)
	}
	if c.State().FinalScore != 4 {
		t.Error("rejected transitions must not change the score")
	}
}

func TestFinalScoreDrawnFromLadder(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	allowed := []int{0, 4, 3, 2, 1}

	for range 200 {
		c := newMediaController(t)
		for !c.Over() {
			switch rng.IntN(3) {
			case 0:
				c.Skip()
			case 1:
				c.SubmitGuess("Memento")
			default:
				c.SubmitGuess("Inception")
			}
		}
		st := c.State()
		if !slices.Contains(allowed, st.FinalScore) {
			t.Fatalf("final score %d not in %v", st.FinalScore, allowed)
		}
		if st.Won && st.FinalScore != c.s.Puzzle.Ladder.PointsAt(st.Stage) {
			t.Fatalf("win at stage %d scored %d", st.Stage, st.FinalScore)
		}
	}
}

func TestSkipOnFinalStageScoresZero(t *testing.T) {
	c := newMediaController(t)
	for range 4 {
		if _, err := c.Skip(); err != nil {
			t.Fatalf("skip: %v", err)
		}
	}
	st := c.State()
	if st.FinalScore != 0 || st.Won {
		t.Fatalf("expected GameOver(0, false), got %+v", st)
	}
}

func TestGateBlocksPendingStage(t *testing.T) {
	gate := NewGate(4)
	c := newMediaController(t, WithGate(gate))

	if c.StageReady(1) {
		t.Fatal("stage 1 should not be ready yet")
	}
	if _, err := c.SubmitGuess("Inception"); !errors.Is(err, ErrStageNotReady) {
		t.Fatalf("guess: expected ErrStageNotReady, got %v", err)
	}
	if _, err := c.Skip(); !errors.Is(err, ErrStageNotReady) {
		t.Fatalf("skip: expected ErrStageNotReady, got %v", err)
	}

	gate.MarkReady(1)
	if _, err := c.SubmitGuess("Memento"); err != nil {
		t.Fatalf("guess after ready: %v", err)
	}
	if _, err := c.SubmitGuess("Inception"); !errors.Is(err, ErrStageNotReady) {
		t.Fatalf("stage 2: expected ErrStageNotReady, got %v", err)
	}
}

func TestUnavailableEvidenceOnlyAllowsSkip(t *testing.T) {
	gate := NewGate(4)
	c := newMediaController(t, WithGate(gate))

	cause := errors.New("404 audio_clip.mp3")
	gate.MarkFailed(1, cause)

	_, err := c.SubmitGuess("Inception")
	var unavailable *EvidenceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected EvidenceUnavailableError, got %v", err)
	}
	if unavailable.Stage != 1 || !errors.Is(err, cause) {
		t.Errorf("unexpected error %v", err)
	}

	if _, err := c.Skip(); err != nil {
		t.Fatalf("skip past failed stage: %v", err)
	}
	if st := c.State(); st.Kind != StateAwaitingGuess || st.Stage != 2 {
		t.Fatalf("expected AwaitingGuess(2), got %+v", st)
	}
}

func TestListenerEvents(t *testing.T) {
	var mu sync.Mutex
	var got []EventType
	gate := NewGate(4)
	c := newMediaController(t, WithGate(gate), WithListener(func(ev Event) {
		mu.Lock()
		got = append(got, ev.Type)
		mu.Unlock()
	}))

	gate.MarkReady(1)
	c.SubmitGuess("Memento")
	gate.MarkReady(3)
	gate.MarkFailed(2, nil)
	c.Skip()
	gate.MarkReady(4)
	c.SubmitGuess("Inception")

	want := []EventType{
		EventStageReady,
		EventGuess, EventStageAdvanced,
		EventEvidenceUnavailable,
		EventSkip, EventStageAdvanced,
		EventGuess, EventGameOver,
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(got, want) {
		t.Fatalf("events:\n got %v\nwant %v", got, want)
	}
}

func TestNewControllerConfigurationErrors(t *testing.T) {
	l, _ := NewLadder(Daily(), mediaEvidence(4), nil)
	var cfgErr *ConfigurationError

	if _, err := NewController("s", Poster(), Puzzle{ID: "x", Answer: "A", Ladder: l}); !errors.As(err, &cfgErr) {
		t.Errorf("ladder length mismatch: expected ConfigurationError, got %v", err)
	}
	if _, err := NewController("s", Daily(), Puzzle{ID: "x", Answer: " ", Ladder: l}); !errors.As(err, &cfgErr) {
		t.Errorf("blank answer: expected ConfigurationError, got %v", err)
	}
	if _, err := NewController("s", Daily(), Puzzle{ID: "x", Answer: "A", Ladder: l}, WithGate(NewGate(2))); !errors.As(err, &cfgErr) {
		t.Errorf("gate mismatch: expected ConfigurationError, got %v", err)
	}
}

func TestHideTwo(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	for range 100 {
		hidden := HideTwo(4, 2, rng)
		if len(hidden) != 2 || hidden[0] >= hidden[1] || slices.Contains(hidden, 2) {
			t.Fatalf("unexpected hidden set %v", hidden)
		}
	}
	if HideTwo(2, 0, rng) != nil {
		t.Error("expected nil with only one wrong option")
	}
	if HideTwo(4, -1, rng) != nil {
		t.Error("expected nil without a correct option")
	}
}
