package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/streak"
)

// ShareCard is the shareable summary of a finished session.
type ShareCard struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

func shareURL(publicURL, variant string) string {
	return strings.TrimRight(publicURL, "/") + "/play/" + variant
}

// newShareCard builds the card for a finished session, or nil while it is
// still in progress.
func newShareCard(publicURL string, mode engine.Mode, snap engine.Snapshot, date string, st *streak.State) *ShareCard {
	if snap.Status == engine.StatusInProgress {
		return nil
	}
	url := shareURL(publicURL, snap.Variant)

	score := 0
	if snap.FinalScore != nil {
		score = *snap.FinalScore
	}
	points := fmt.Sprintf("%d/%d points", score, snap.MaxPoints)

	// "Medium: 8-second video clip" -> "8-second video clip"
	stage := snap.Label
	if _, after, ok := strings.Cut(stage, ": "); ok {
		stage = after
	}

	title := cases.Title(language.English).String(snap.Variant)

	var text string
	switch mode {
	case engine.ModeSingle:
		day := date
		if len(date) == 8 {
			day = date[6:8] + "/" + date[4:6] + "/" + date[0:4]
		}
		if snap.Won {
			text = fmt.Sprintf("FilmIQ - %s: got it on the %s! %s. Beat my score? Play here: %s", day, stage, points, url)
		} else {
			text = fmt.Sprintf("FilmIQ - %s: couldn't get it today. %s. Think you can do better? Play here: %s", day, points, url)
		}
	case engine.ModeStreak:
		if snap.Won {
			text = fmt.Sprintf("FilmIQ %s: got %q in stage %d! %s.", title, snap.Answer, snap.Stage, points)
			if st != nil {
				text += fmt.Sprintf(" Streak: %d.", st.CurrentStreak)
			}
		} else {
			text = fmt.Sprintf("FilmIQ %s: missed %q. %s. Streak reset.", title, snap.Answer, points)
		}
		text += " Try it: " + url
	default:
		if snap.Won {
			text = fmt.Sprintf("FilmIQ %s: got it on the %s! %s.", title, stage, points)
		} else {
			text = fmt.Sprintf("FilmIQ %s: missed this one. %s.", title, points)
		}
		if st != nil {
			text += fmt.Sprintf(" Best streak: %d.", st.MaxStreakEverRecorded)
		}
		text += " Play here: " + url
	}
	return &ShareCard{Text: text, URL: url}
}

func handleSharePNG(g *games, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.session(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}
		if !sess.ctrl.Over() {
			writeError(w, http.StatusConflict, "session is still in progress")
			return
		}

		png, err := qrcode.Encode(shareURL(publicURL, sess.ctrl.Variant().Name), qrcode.Medium, 320)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to generate QR code")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}
