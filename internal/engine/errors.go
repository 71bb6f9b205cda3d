package engine

import (
	"errors"
	"fmt"
)

// ErrStageNotReady is returned when a transition is attempted on a stage
// whose evidence is still loading.
var ErrStageNotReady = errors.New("stage evidence not ready")

// ConfigurationError reports a malformed variant or ladder. It is returned at
// construction time and must stop session creation.
type ConfigurationError struct {
	Variant string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Variant == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: variant %q: %s", e.Variant, e.Reason)
}

func configErr(variant, format string, args ...any) error {
	return &ConfigurationError{Variant: variant, Reason: fmt.Sprintf(format, args...)}
}

// EvidenceUnavailableError reports that a stage's payload failed to load.
// The stage stays paused; skipping is the only way past it.
type EvidenceUnavailableError struct {
	PuzzleID string
	Stage    int
	Err      error
}

func (e *EvidenceUnavailableError) Error() string {
	return fmt.Sprintf("evidence for puzzle %s stage %d unavailable: %v", e.PuzzleID, e.Stage, e.Err)
}

func (e *EvidenceUnavailableError) Unwrap() error { return e.Err }

// IllegalTransitionError is returned when an operation is invoked in a state
// that does not accept it, e.g. a guess after the game is over.
type IllegalTransitionError struct {
	Op    string
	State StateKind
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: %s in state %s", e.Op, e.State)
}
