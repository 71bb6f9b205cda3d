package trivia

import (
	"slices"

	"github.com/filmiq/filmiq/internal/engine"
)

// QuestionView is a question as shown to the player. The correct option is
// only filled in once the question is resolved.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Level   string   `json:"level"`
	Correct *int     `json:"correct,omitempty"`
}

// Snapshot is the read model of a run.
type Snapshot struct {
	RunID      string           `json:"runId"`
	Theme      string           `json:"theme"`
	State      engine.StateKind `json:"state"`
	Number     int              `json:"number"`
	Total      int              `json:"total"`
	Question   QuestionView     `json:"question"`
	Hidden     []int            `json:"hidden,omitempty"`
	RemainingS float64          `json:"remainingSeconds"`
	Score      int              `json:"score"`
	PowerUps   engine.PowerUps  `json:"powerUps"`
	Warning    string           `json:"warning,omitempty"`
	Answers    []Answer         `json:"answers"`
	FinalScore *int             `json:"finalScore,omitempty"`
	Won        bool             `json:"won"`
}

func (r *Run) snapshotLocked() Snapshot {
	q := r.questions[r.index]
	snap := Snapshot{
		RunID:  r.ID,
		Theme:  r.Theme,
		State:  r.state,
		Number: r.index + 1,
		Total:  len(r.questions),
		Question: QuestionView{
			ID:      q.ID,
			Text:    q.Text,
			Options: slices.Clone(q.Options),
			Level:   q.Level.String(),
		},
		Hidden:     slices.Clone(r.hidden),
		RemainingS: r.countdown.Remaining().Seconds(),
		Score:      r.score,
		PowerUps:   r.powerUps,
		Warning:    r.warning,
		Answers:    slices.Clone(r.answers),
	}
	if r.state != engine.StateAwaitingGuess {
		correct := q.Correct
		snap.Question.Correct = &correct
		snap.RemainingS = 0
	}
	if r.state == engine.StateGameOver {
		score := r.score
		snap.FinalScore = &score
		snap.Won = Passed(score, len(r.questions))
	}
	if snap.Answers == nil {
		snap.Answers = []Answer{}
	}
	return snap
}

// Passed reports whether score is a winning result: a strict majority of
// the questions answered correctly.
func Passed(score, total int) bool { return score*2 > total }
