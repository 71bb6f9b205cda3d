package engine

import "time"

// Mode selects how terminal outcomes feed the streak ledger.
type Mode string

const (
	// ModeSingle is a one-shot puzzle (daily); no streak is tracked.
	ModeSingle Mode = "single"
	// ModeEndless chains puzzles with a pool of lives.
	ModeEndless Mode = "endless"
	// ModeStreak chains puzzles; any loss resets the current streak.
	ModeStreak Mode = "streak"
)

// DefaultLives is the number of lives an endless run starts with.
const DefaultLives = 5

// GridReveal describes a partial-reveal ladder: Cumulative[i] cells of Total
// are visible at stage i+1. Counts never decrease and never exceed Total; the
// last stage may leave part of the grid covered.
type GridReveal struct {
	Total      int   `json:"total"`
	Cumulative []int `json:"cumulative"`
}

// Variant is the per-game configuration shared by every puzzle of that game.
type Variant struct {
	Name       string          `json:"name"`
	Mode       Mode            `json:"mode"`
	Points     []int           `json:"points"`
	Labels     []string        `json:"labels,omitempty"`
	Kinds      []EvidenceKind  `json:"kinds"`
	Durations  []time.Duration `json:"durations,omitempty"`
	Reveal     *GridReveal     `json:"reveal,omitempty"`
	FiftyFifty bool            `json:"fiftyFifty"`
	Lives      int             `json:"lives,omitempty"`
}

// Stages is the ladder length N.
func (v Variant) Stages() int { return len(v.Points) }

// MaxPoints is the score for a first-stage win.
func (v Variant) MaxPoints() int {
	if len(v.Points) == 0 {
		return 0
	}
	return v.Points[0]
}

// Label returns the human description of stage i (1-based), or "".
func (v Variant) Label(i int) string {
	if i < 1 || i > len(v.Labels) {
		return ""
	}
	return v.Labels[i-1]
}

// Validate checks the point table, stage kinds and reveal table.
func (v Variant) Validate() error {
	if v.Name == "" {
		return configErr("", "variant name is required")
	}
	switch v.Mode {
	case ModeSingle, ModeStreak:
	case ModeEndless:
		if v.Lives < 1 {
			return configErr(v.Name, "endless mode needs at least one life, got %d", v.Lives)
		}
	default:
		return configErr(v.Name, "unknown mode %q", v.Mode)
	}

	n := len(v.Points)
	if n == 0 {
		return configErr(v.Name, "point table is empty")
	}
	if err := checkPoints(v.Name, v.Points); err != nil {
		return err
	}
	if len(v.Kinds) != n {
		return configErr(v.Name, "expected %d stage kinds, got %d", n, len(v.Kinds))
	}
	if len(v.Labels) != 0 && len(v.Labels) != n {
		return configErr(v.Name, "expected %d stage labels, got %d", n, len(v.Labels))
	}
	if len(v.Durations) != 0 && len(v.Durations) != n {
		return configErr(v.Name, "expected %d stage durations, got %d", n, len(v.Durations))
	}

	reveals := 0
	for i, k := range v.Kinds {
		if !k.valid() {
			return configErr(v.Name, "stage %d has unknown evidence kind %q", i+1, k)
		}
		if k == EvidenceReveal {
			reveals++
		}
		// Clip files are named after their length in whole seconds.
		if k == EvidenceClip && (len(v.Durations) != n || v.Durations[i] < time.Second) {
			return configErr(v.Name, "clip stage %d needs a duration of at least 1s", i+1)
		}
	}
	if reveals > 0 && reveals != n {
		return configErr(v.Name, "reveal stages cannot be mixed with media stages")
	}
	if reveals > 0 && v.Reveal == nil {
		return configErr(v.Name, "reveal stages need a reveal table")
	}
	if v.Reveal != nil {
		if reveals == 0 {
			return configErr(v.Name, "reveal table set on a media ladder")
		}
		if err := checkReveal(v.Name, n, *v.Reveal); err != nil {
			return err
		}
	}
	return nil
}

func checkPoints(variant string, points []int) error {
	for i, p := range points {
		if p <= 0 {
			return configErr(variant, "stage %d has non-positive point value %d", i+1, p)
		}
		if i > 0 && p >= points[i-1] {
			return configErr(variant, "point values must strictly decrease: stage %d has %d after %d", i+1, p, points[i-1])
		}
	}
	return nil
}

func checkReveal(variant string, n int, r GridReveal) error {
	if r.Total <= 0 {
		return configErr(variant, "reveal total must be positive, got %d", r.Total)
	}
	if len(r.Cumulative) != n {
		return configErr(variant, "expected %d cumulative reveal counts, got %d", n, len(r.Cumulative))
	}
	for i, c := range r.Cumulative {
		if c < 0 || c > r.Total {
			return configErr(variant, "stage %d reveal count %d outside 0..%d", i+1, c, r.Total)
		}
		if i > 0 && c < r.Cumulative[i-1] {
			return configErr(variant, "reveal counts must not decrease: stage %d has %d after %d", i+1, c, r.Cumulative[i-1])
		}
	}
	if r.Cumulative[n-1] == 0 {
		return configErr(variant, "final stage reveals no cells")
	}
	return nil
}

var mediaLabels = []string{
	"Very Hard: 30-second audio clip",
	"Hard: 5 random still frames",
	"Medium: 8-second video clip",
	"Easy: 30-second video clip",
}

func mediaVariant(name string, mode Mode) Variant {
	return Variant{
		Name:       name,
		Mode:       mode,
		Points:     []int{4, 3, 2, 1},
		Labels:     append([]string(nil), mediaLabels...),
		Kinds:      []EvidenceKind{EvidenceAudio, EvidenceStills, EvidenceClip, EvidenceClip},
		Durations:  []time.Duration{30 * time.Second, 0, 8 * time.Second, 30 * time.Second},
		FiftyFifty: true,
	}
}

// Daily is the one-puzzle-per-date media game.
func Daily() Variant { return mediaVariant("daily", ModeSingle) }

// Endless chains random media puzzles with DefaultLives lives.
func Endless() Variant {
	v := mediaVariant("endless", ModeEndless)
	v.Lives = DefaultLives
	return v
}

// Poster is the grid-reveal game over a 20x20 poster grid.
func Poster() Variant {
	return Variant{
		Name:   "poster",
		Mode:   ModeStreak,
		Points: []int{5, 4, 3, 2, 1},
		Labels: []string{
			"Stage 1: 20 squares",
			"Stage 2: 35 squares",
			"Stage 3: 50 squares",
			"Stage 4: 100 squares",
			"Stage 5: 200 squares",
		},
		Kinds: []EvidenceKind{EvidenceReveal, EvidenceReveal, EvidenceReveal, EvidenceReveal, EvidenceReveal},
		Reveal: &GridReveal{
			Total:      400,
			Cumulative: []int{20, 35, 50, 100, 200},
		},
	}
}

// Builtin returns the built-in variants keyed by name.
func Builtin() map[string]Variant {
	return map[string]Variant{
		"daily":   Daily(),
		"endless": Endless(),
		"poster":  Poster(),
	}
}
