package server

import (
	"strings"
	"testing"

	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/streak"
)

func TestNewShareCard(t *testing.T) {
	score := func(n int) *int { return &n }

	tests := []struct {
		name  string
		mode  engine.Mode
		snap  engine.Snapshot
		date  string
		st    *streak.State
		wants []string
	}{
		{
			name: "daily win",
			mode: engine.ModeSingle,
			snap: engine.Snapshot{Variant: "daily", Status: engine.StatusWon, Won: true, FinalScore: score(2),
				MaxPoints: 4, Label: "Medium: 8-second video clip"},
			date:  "20250301",
			wants: []string{"01/03/2025", "got it on the 8-second video clip", "2/4 points", "https://filmiq.example/play/daily"},
		},
		{
			name:  "daily loss",
			mode:  engine.ModeSingle,
			snap:  engine.Snapshot{Variant: "daily", Status: engine.StatusLost, FinalScore: score(0), MaxPoints: 4},
			date:  "20250301",
			wants: []string{"couldn't get it today", "0/4 points"},
		},
		{
			name: "poster win",
			mode: engine.ModeStreak,
			snap: engine.Snapshot{Variant: "poster", Status: engine.StatusWon, Won: true, FinalScore: score(3),
				MaxPoints: 5, Stage: 3, Answer: "Heat"},
			st:    &streak.State{CurrentStreak: 4},
			wants: []string{"FilmIQ Poster", `got "Heat" in stage 3`, "Streak: 4"},
		},
		{
			name:  "endless loss",
			mode:  engine.ModeEndless,
			snap:  engine.Snapshot{Variant: "endless", Status: engine.StatusLost, FinalScore: score(0), MaxPoints: 4},
			st:    &streak.State{MaxStreakEverRecorded: 7},
			wants: []string{"FilmIQ Endless", "Best streak: 7"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := newShareCard("https://filmiq.example/", tt.mode, tt.snap, tt.date, tt.st)
			if card == nil {
				t.Fatal("expected a card")
			}
			for _, want := range tt.wants {
				if !strings.Contains(card.Text, want) {
					t.Errorf("text %q missing %q", card.Text, want)
				}
			}
		})
	}

	if card := newShareCard("", engine.ModeSingle, engine.Snapshot{Status: engine.StatusInProgress}, "", nil); card != nil {
		t.Errorf("expected no card while in progress, got %+v", card)
	}
}
