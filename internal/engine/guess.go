package engine

import (
	"strings"

	"golang.org/x/text/cases"
)

// Verdict is the result of judging one guess.
type Verdict struct {
	Correct bool `json:"correct"`
}

// Normalize trims surrounding whitespace and case-folds s.
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Evaluate compares a guess to the secret answer. Matching is exact after
// normalization; near misses are wrong. Callers route blank guesses to Skip
// instead of calling Evaluate.
func Evaluate(rawGuess, secretAnswer string) Verdict {
	return Verdict{Correct: Normalize(rawGuess) == Normalize(secretAnswer)}
}
