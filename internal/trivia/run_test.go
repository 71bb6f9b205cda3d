package trivia

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/engine/enginetest"
)

// testBank builds a theme with the given number of questions per level. The
// correct option is always index 2.
func testBank(theme string, easy, medium, hard int) *Bank {
	var qs []Question
	for level, n := range map[Level]int{Easy: easy, Medium: medium, Hard: hard} {
		for i := range n {
			qs = append(qs, Question{
				ID:      fmt.Sprintf("%s-%s-%d", theme, level, i),
				Theme:   theme,
				Text:    fmt.Sprintf("%s question %d?", level, i),
				Options: []string{"A", "B", "C", "D"},
				Correct: 2,
				Level:   level,
			})
		}
	}
	return NewBank(qs)
}

func newTestRun(t *testing.T, bank *Bank) (*Run, *enginetest.ManualClock, *[]EventType) {
	t.Helper()
	clock := enginetest.NewManualClock(time.Unix(0, 0))
	var events []EventType
	r, err := NewRun("run1", bank, "Marvel",
		WithClock(clock),
		WithRand(rand.New(rand.NewPCG(1, 1))),
		WithListener(func(ev Event) { events = append(events, ev.Type) }),
	)
	if err != nil {
		t.Fatalf("new run: %v", err)
	}
	t.Cleanup(r.Close)
	return r, clock, &events
}

func TestRunOrderAndScore(t *testing.T) {
	r, _, _ := newTestRun(t, testBank("Marvel", 7, 5, 3))

	var levels []Level
	for i := range RunLength() {
		snap := r.Snapshot()
		if snap.Number != i+1 || snap.Total != 15 {
			t.Fatalf("expected question %d/15, got %d/%d", i+1, snap.Number, snap.Total)
		}
		levels = append(levels, r.questions[r.index].Level)

		option := 2
		if i%2 == 1 {
			option = 0
		}
		snap, err := r.Answer(option)
		if err != nil {
			t.Fatalf("answer %d: %v", i+1, err)
		}
		if snap.State != engine.StateResolved || snap.Question.Correct == nil || *snap.Question.Correct != 2 {
			t.Fatalf("answer %d: expected resolved state revealing option 2, got %+v", i+1, snap)
		}
		if _, err := r.Next(); err != nil {
			t.Fatalf("next %d: %v", i+1, err)
		}
	}

	want := slices.Concat(
		slices.Repeat([]Level{Easy}, 7),
		slices.Repeat([]Level{Medium}, 5),
		slices.Repeat([]Level{Hard}, 3),
	)
	if !slices.Equal(levels, want) {
		t.Fatalf("levels %v, want %v", levels, want)
	}

	snap := r.Snapshot()
	if snap.State != engine.StateGameOver || snap.FinalScore == nil || *snap.FinalScore != 8 || !snap.Won {
		t.Fatalf("expected GameOver with 8/15, got %+v", snap)
	}

	var illegal *engine.IllegalTransitionError
	if _, err := r.Answer(2); !errors.As(err, &illegal) {
		t.Errorf("answer after game over: expected IllegalTransitionError, got %v", err)
	}
	if _, err := r.Next(); !errors.As(err, &illegal) {
		t.Errorf("next after game over: expected IllegalTransitionError, got %v", err)
	}
}

func TestNotEnoughQuestions(t *testing.T) {
	_, err := NewRun("r", testBank("Marvel", 7, 4, 3), "Marvel")
	if !errors.Is(err, ErrNotEnoughQuestions) {
		t.Fatalf("expected ErrNotEnoughQuestions, got %v", err)
	}
	if _, err := NewRun("r", testBank("Marvel", 7, 5, 3), "DC"); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("expected ErrUnknownTheme, got %v", err)
	}
}

func TestTimeoutIsIncorrectAndRevealsAnswer(t *testing.T) {
	r, clock, events := newTestRun(t, testBank("Marvel", 7, 5, 3))

	clock.Advance(QuestionTime - time.Second)
	if r.Snapshot().State != engine.StateAwaitingGuess {
		t.Fatal("expired too early")
	}
	clock.Advance(time.Second)

	snap := r.Snapshot()
	if snap.State != engine.StateResolved {
		t.Fatalf("expected resolved after timeout, got %s", snap.State)
	}
	if len(snap.Answers) != 1 || !snap.Answers[0].TimedOut || snap.Answers[0].Correct || snap.Answers[0].Skipped {
		t.Fatalf("expected a timed-out incorrect answer, got %+v", snap.Answers)
	}
	if snap.Question.Correct == nil {
		t.Fatal("expected correct option to be revealed")
	}
	if !slices.Equal(*events, []EventType{EventTimeout}) {
		t.Errorf("events %v", *events)
	}

	var illegal *engine.IllegalTransitionError
	if _, err := r.Answer(2); !errors.As(err, &illegal) {
		t.Errorf("answer after timeout: expected IllegalTransitionError, got %v", err)
	}
}

func TestAnswerCancelsCountdown(t *testing.T) {
	r, clock, events := newTestRun(t, testBank("Marvel", 7, 5, 3))

	clock.Advance(10 * time.Second)
	if _, err := r.Answer(2); err != nil {
		t.Fatalf("answer: %v", err)
	}
	clock.Advance(time.Minute)

	snap := r.Snapshot()
	if len(snap.Answers) != 1 || snap.Answers[0].TimedOut {
		t.Fatalf("stale expiry recorded: %+v", snap.Answers)
	}
	if !slices.Equal(*events, []EventType{EventAnswer}) {
		t.Errorf("events %v", *events)
	}

	if _, err := r.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := r.Snapshot().RemainingS; got != QuestionTime.Seconds() {
		t.Errorf("expected a fresh %v countdown, got %vs", QuestionTime, got)
	}
}

func TestFiftyFiftyOncePerRun(t *testing.T) {
	r, _, _ := newTestRun(t, testBank("Marvel", 7, 5, 3))

	hidden, ok, err := r.UseFiftyFifty()
	if err != nil || !ok {
		t.Fatalf("fifty-fifty: ok=%v err=%v", ok, err)
	}
	if len(hidden) != 2 || slices.Contains(hidden, 2) {
		t.Fatalf("expected two wrong options hidden, got %v", hidden)
	}
	if _, err := r.Answer(hidden[0]); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("answering a hidden option: expected ErrInvalidOption, got %v", err)
	}

	r.Answer(2)
	r.Next()
	if _, ok, _ := r.UseFiftyFifty(); ok {
		t.Fatal("second fifty-fifty should be a no-op")
	}
	if len(r.Snapshot().Hidden) != 0 {
		t.Error("hidden options must not carry over to the next question")
	}
}

func TestSkipQuestionReplacesFromSameLevel(t *testing.T) {
	r, _, events := newTestRun(t, testBank("Marvel", 8, 5, 3))

	before := r.Snapshot().Question.ID
	snap, ok, err := r.UseSkipQuestion()
	if err != nil || !ok {
		t.Fatalf("skip question: ok=%v err=%v", ok, err)
	}
	if snap.Question.ID == before || snap.Question.Level != "easy" {
		t.Fatalf("expected a different easy question, got %+v", snap.Question)
	}
	if snap.Number != 1 || snap.State != engine.StateAwaitingGuess || snap.Warning != "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	for _, q := range r.questions {
		if q.ID == before {
			t.Fatal("replaced question still in the run")
		}
	}

	if _, ok, _ := r.UseSkipQuestion(); ok {
		t.Fatal("second skip-question should be a no-op")
	}
	if !slices.Equal(*events, []EventType{EventQuestionReplaced}) {
		t.Errorf("events %v", *events)
	}
}

func TestSkipQuestionWithoutReplacementAdvances(t *testing.T) {
	r, _, events := newTestRun(t, testBank("Marvel", 7, 5, 3))

	snap, ok, err := r.UseSkipQuestion()
	if err != nil || !ok {
		t.Fatalf("skip question: ok=%v err=%v", ok, err)
	}
	if snap.Warning != WarnNoReplacement {
		t.Errorf("expected warning, got %q", snap.Warning)
	}
	if snap.Number != 2 || snap.State != engine.StateAwaitingGuess {
		t.Fatalf("expected to move to question 2, got %d in %s", snap.Number, snap.State)
	}
	if len(snap.Answers) != 1 || snap.Answers[0].Correct || !snap.Answers[0].Skipped {
		t.Fatalf("expected skipped question logged as incorrect, got %+v", snap.Answers)
	}
	if !slices.Equal(*events, []EventType{EventQuestionSkipped}) {
		t.Errorf("events %v", *events)
	}
}

func TestUsedQuestionSetIsPerRun(t *testing.T) {
	bank := testBank("Marvel", 8, 5, 3)
	a, _, _ := newTestRun(t, bank)
	b, _, _ := newTestRun(t, bank)

	if len(a.used) != 15 || len(b.used) != 15 {
		t.Fatalf("expected 15 used questions per run, got %d and %d", len(a.used), len(b.used))
	}
	a.UseSkipQuestion()
	if len(a.used) != 16 || len(b.used) != 15 {
		t.Fatalf("runs share used questions: %d and %d", len(a.used), len(b.used))
	}
}

func TestBankThemes(t *testing.T) {
	bank := NewBank([]Question{
		{Theme: "Star Wars", Text: "q", Options: []string{"a", "b"}, Correct: 0, Level: Easy},
		{Theme: "Marvel", Text: "q", Options: []string{"a", "b"}, Correct: 1, Level: Hard},
		{Theme: "Bad", Text: "q", Options: []string{"a", "b"}, Correct: 4, Level: Hard},
		{Theme: "Bad", Text: "q", Options: []string{"a", "b"}, Correct: 0, Level: 9},
	})
	if got := bank.Themes(); !slices.Equal(got, []string{"Marvel", "Star Wars"}) {
		t.Fatalf("themes %v", got)
	}
	if bank.Playable("Marvel") {
		t.Error("Marvel should not be playable with one question")
	}
	if !testBank("X", 7, 5, 3).Playable("X") {
		t.Error("full theme should be playable")
	}
}
