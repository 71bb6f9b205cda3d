package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Stage is one rung of the evidence ladder.
type Stage struct {
	Index    int      `json:"index"`
	Points   int      `json:"points"`
	Label    string   `json:"label,omitempty"`
	Evidence Evidence `json:"evidence"`
	Choices  []string `json:"choices,omitempty"`
}

// Ladder is the ordered, read-only sequence of stages for one puzzle.
type Ladder struct {
	variant string
	stages  []Stage
}

// NewLadder builds the ladder for one puzzle of variant v from per-stage
// evidence descriptors. Reveal variants get a fresh cell permutation drawn
// from rng (or the global source when rng is nil); each stage unveils a
// prefix of it, so cells are never hidden again once shown.
func NewLadder(v Variant, evidence []Evidence, rng *rand.Rand) (*Ladder, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	n := v.Stages()
	if len(evidence) != n {
		return nil, configErr(v.Name, "expected %d evidence payloads, got %d", n, len(evidence))
	}

	var order []int
	if v.Reveal != nil {
		if rng != nil {
			order = rng.Perm(v.Reveal.Total)
		} else {
			order = rand.Perm(v.Reveal.Total)
		}
	}

	stages := make([]Stage, n)
	for i := range n {
		ev := evidence[i]
		if ev.Kind == "" {
			ev.Kind = v.Kinds[i]
		}
		if ev.Kind != v.Kinds[i] {
			return nil, configErr(v.Name, "stage %d evidence is %q, want %q", i+1, ev.Kind, v.Kinds[i])
		}
		if ev.Duration == 0 && len(v.Durations) == n {
			ev.Duration = v.Durations[i]
		}
		if v.Reveal != nil {
			ev.TotalCells = v.Reveal.Total
			ev.Revealed = v.Reveal.Cumulative[i]
			ev.Cells = slices.Clone(order[:ev.Revealed])
		}
		stages[i] = Stage{
			Index:    i + 1,
			Points:   v.Points[i],
			Label:    v.Label(i + 1),
			Evidence: ev,
		}
	}
	return newLadder(v.Name, stages)
}

// NewLadderFromStages validates an explicit stage list.
func NewLadderFromStages(variant string, stages []Stage) (*Ladder, error) {
	return newLadder(variant, slices.Clone(stages))
}

func newLadder(variant string, stages []Stage) (*Ladder, error) {
	if len(stages) == 0 {
		return nil, configErr(variant, "ladder has no stages")
	}
	points := make([]int, len(stages))
	for i, s := range stages {
		if s.Index != i+1 {
			return nil, configErr(variant, "stage at position %d has index %d", i+1, s.Index)
		}
		points[i] = s.Points
	}
	if err := checkPoints(variant, points); err != nil {
		return nil, err
	}
	for i := 1; i < len(stages); i++ {
		prev, cur := stages[i-1].Evidence, stages[i].Evidence
		if cur.Kind != EvidenceReveal || prev.Kind != EvidenceReveal {
			continue
		}
		if cur.Revealed < prev.Revealed || cur.TotalCells != prev.TotalCells {
			return nil, configErr(variant, "stage %d reveal %d/%d regresses from %d/%d",
				i+1, cur.Revealed, cur.TotalCells, prev.Revealed, prev.TotalCells)
		}
	}
	for _, s := range stages {
		if ev := s.Evidence; ev.Kind == EvidenceReveal && (ev.Revealed > ev.TotalCells || ev.TotalCells <= 0) {
			return nil, configErr(variant, "stage %d reveals %d of %d cells", s.Index, ev.Revealed, ev.TotalCells)
		}
	}
	return &Ladder{variant: variant, stages: stages}, nil
}

// Len is the number of stages N.
func (l *Ladder) Len() int { return len(l.stages) }

// StageAt returns stage i (1-based).
func (l *Ladder) StageAt(i int) (Stage, error) {
	if i < 1 || i > len(l.stages) {
		return Stage{}, fmt.Errorf("stage %d outside 1..%d", i, len(l.stages))
	}
	return l.stages[i-1], nil
}

// PointsAt returns the score for a win at stage i, or 0 outside the ladder.
func (l *Ladder) PointsAt(i int) int {
	if i < 1 || i > len(l.stages) {
		return 0
	}
	return l.stages[i-1].Points
}

// IsTerminal reports whether i is the last stage.
func (l *Ladder) IsTerminal(i int) bool { return i == len(l.stages) }
