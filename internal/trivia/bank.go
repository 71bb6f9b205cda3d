// Package trivia implements the timed theme quiz: fifteen multiple-choice
// questions of one theme in rising difficulty, each under a countdown.
package trivia

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// Level is a question's difficulty tier.
type Level int

const (
	Easy Level = iota + 1
	Medium
	Hard
)

func (l Level) String() string {
	switch l {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// Valid reports whether l is one of the three tiers.
func (l Level) Valid() bool { return l >= Easy && l <= Hard }

// Question is one multiple-choice question.
type Question struct {
	ID      string   `json:"id"`
	Theme   string   `json:"theme"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct int      `json:"-"`
	Level   Level    `json:"level"`
}

var (
	ErrUnknownTheme       = errors.New("unknown theme")
	ErrNotEnoughQuestions = errors.New("not enough questions for theme")
)

// Bank holds the loaded questions grouped by theme and tier.
type Bank struct {
	themes []string
	pool   map[string]map[Level][]Question
}

// NewBank indexes qs. Questions with an invalid level or correct index are
// dropped; questions without an ID get one from their position.
func NewBank(qs []Question) *Bank {
	b := &Bank{pool: make(map[string]map[Level][]Question)}
	for i, q := range qs {
		if q.Theme == "" || !q.Level.Valid() || q.Correct < 0 || q.Correct >= len(q.Options) {
			continue
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("%s#%d", q.Theme, i+1)
		}
		byLevel, ok := b.pool[q.Theme]
		if !ok {
			byLevel = make(map[Level][]Question)
			b.pool[q.Theme] = byLevel
			b.themes = append(b.themes, q.Theme)
		}
		byLevel[q.Level] = append(byLevel[q.Level], q)
	}
	slices.Sort(b.themes)
	return b
}

// Themes lists the themes with at least one question, sorted.
func (b *Bank) Themes() []string { return slices.Clone(b.themes) }

// Questions returns the questions of theme at level.
func (b *Bank) Questions(theme string, level Level) []Question {
	return slices.Clone(b.pool[theme][level])
}

// Playable reports whether theme has enough questions for a full run.
func (b *Bank) Playable(theme string) bool {
	for _, tier := range Tiers {
		if len(b.pool[theme][tier.Level]) < tier.Count {
			return false
		}
	}
	return true
}

// Tier is how many questions of one level a run asks.
type Tier struct {
	Level Level
	Count int
}

// Tiers is the order and size of each difficulty block in a run.
var Tiers = []Tier{
	{Level: Easy, Count: 7},
	{Level: Medium, Count: 5},
	{Level: Hard, Count: 3},
}

// RunLength is the number of questions in a full run.
func RunLength() int {
	n := 0
	for _, t := range Tiers {
		n += t.Count
	}
	return n
}

// UsedQuestionSet tracks which questions a run has already shown.
type UsedQuestionSet map[string]struct{}

func (s UsedQuestionSet) Add(id string) { s[id] = struct{}{} }

func (s UsedQuestionSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s UsedQuestionSet) Clear() { clear(s) }
