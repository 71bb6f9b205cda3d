package engine

import "time"

// EvidenceKind identifies how a stage's clue is presented.
type EvidenceKind string

const (
	EvidenceAudio  EvidenceKind = "audio"
	EvidenceStills EvidenceKind = "stills"
	EvidenceClip   EvidenceKind = "clip"
	EvidenceReveal EvidenceKind = "reveal"
)

func (k EvidenceKind) valid() bool {
	switch k {
	case EvidenceAudio, EvidenceStills, EvidenceClip, EvidenceReveal:
		return true
	}
	return false
}

// Evidence is the payload rendered for one stage. Media kinds carry URIs;
// the reveal kind carries the cumulative set of grid cells to unveil.
type Evidence struct {
	Kind     EvidenceKind  `json:"kind"`
	URIs     []string      `json:"uris,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`

	Revealed   int   `json:"revealed,omitempty"`
	TotalCells int   `json:"totalCells,omitempty"`
	Cells      []int `json:"cells,omitempty"`
}
