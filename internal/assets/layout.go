package assets

import (
	"fmt"
	"path"
	"time"

	"github.com/filmiq/filmiq/internal/engine"
)

// Files inside media/<puzzleId>/.
const (
	AnswerFile = "movie.txt"
	PosterFile = "Poster.png"
	AudioFile  = "audio_clip.mp3"
	StillCount = 5
)

// ManifestFile lists the available puzzle ids at the root of the tree.
const ManifestFile = "available_dates.json"

// PuzzleDir is the directory holding one puzzle's files.
func PuzzleDir(id string) string { return path.Join("media", id) }

// StageFiles returns the files a stage of kind needs, relative to the
// puzzle directory. Clips are named after their length in seconds.
func StageFiles(kind engine.EvidenceKind, d time.Duration) []string {
	switch kind {
	case engine.EvidenceAudio:
		return []string{AudioFile}
	case engine.EvidenceStills:
		files := make([]string, StillCount)
		for i := range files {
			files[i] = fmt.Sprintf("frame_%d.jpg", i+1)
		}
		return files
	case engine.EvidenceClip:
		return []string{fmt.Sprintf("%ds.mp4", int(d/time.Second))}
	case engine.EvidenceReveal:
		return []string{PosterFile}
	}
	return nil
}
