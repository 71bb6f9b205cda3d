package engine

import "time"

// Status is the outcome of a session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// StateKind names the controller states.
type StateKind string

const (
	StateAwaitingGuess StateKind = "awaiting_guess"
	StateResolved      StateKind = "resolved"
	StateGameOver      StateKind = "game_over"
)

// Puzzle is the immutable target of one session.
type Puzzle struct {
	ID     string
	Answer string
	Ladder *Ladder
}

// LogEntry records one guess or skip. Skips carry no verdict.
type LogEntry struct {
	Stage    int      `json:"stage"`
	Guess    string   `json:"guess,omitempty"`
	Skipped  bool     `json:"skipped,omitempty"`
	TimedOut bool     `json:"timedOut,omitempty"`
	Verdict  *Verdict `json:"verdict,omitempty"`
}

// PowerUps records which single-use modifiers a session has consumed.
type PowerUps struct {
	FiftyFiftyUsed   bool `json:"fiftyFiftyUsed"`
	SkipQuestionUsed bool `json:"skipQuestionUsed"`
}

// Session is one player's attempt at one puzzle. It is owned by exactly one
// Controller and never shared.
type Session struct {
	ID        string
	Variant   Variant
	Puzzle    Puzzle
	StartedAt time.Time

	stage      int
	log        []LogEntry
	powerUps   PowerUps
	hidden     []int
	finalScore *int
	status     Status
}

// State is the controller state in tagged form.
type State struct {
	Kind       StateKind `json:"kind"`
	Stage      int       `json:"stage"`
	FinalScore int       `json:"finalScore"`
	Won        bool      `json:"won"`
}

// PowerUpState is what the presentation layer needs to enable power-up
// buttons.
type PowerUpState struct {
	PowerUps
	FiftyFiftyAvailable bool `json:"fiftyFiftyAvailable"`
}

// Snapshot is the read model handed to presentation adapters.
type Snapshot struct {
	SessionID       string       `json:"sessionId"`
	PuzzleID        string       `json:"puzzleId"`
	Variant         string       `json:"variant"`
	State           StateKind    `json:"state"`
	Status          Status       `json:"status"`
	Stage           int          `json:"stage"`
	TotalStages     int          `json:"totalStages"`
	Label           string       `json:"label,omitempty"`
	Evidence        *Evidence    `json:"evidence,omitempty"`
	Choices         []string     `json:"choices,omitempty"`
	Hidden          []int        `json:"hidden,omitempty"`
	PointsAvailable int          `json:"pointsAvailable"`
	MaxPoints       int          `json:"maxPoints"`
	Score           int          `json:"score"`
	FinalScore      *int         `json:"finalScore,omitempty"`
	Won             bool         `json:"won"`
	Ready           bool         `json:"ready"`
	PowerUps        PowerUpState `json:"powerUps"`
	Log             []LogEntry   `json:"log"`
	Answer          string       `json:"answer,omitempty"`
	StartedAt       time.Time    `json:"startedAt"`
}

// EventType names controller notifications.
type EventType string

const (
	EventGuess               EventType = "guess"
	EventSkip                EventType = "skip"
	EventStageAdvanced       EventType = "stage_advanced"
	EventFiftyFifty          EventType = "fifty_fifty"
	EventGameOver            EventType = "game_over"
	EventStageReady          EventType = "stage_ready"
	EventEvidenceUnavailable EventType = "evidence_unavailable"
)

// Event is emitted to listeners after every state change.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot Snapshot  `json:"snapshot"`
}
