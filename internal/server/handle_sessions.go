package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/streak"
)

type StartSessionRequest struct {
	Date string `json:"date,omitempty"`
}

// SessionResponse is a controller snapshot plus the player's ledger and,
// once the game is over, the share card.
type SessionResponse struct {
	engine.Snapshot
	Streak *streak.State `json:"streak,omitempty"`
	Share  *ShareCard    `json:"share,omitempty"`
}

type GuessRequest struct {
	Guess string `json:"guess"`
}

type OutcomeResponse struct {
	Verdict *engine.Verdict `json:"verdict,omitempty"`
	Skipped bool            `json:"skipped"`
	Session SessionResponse `json:"session"`
}

type FiftyFiftyResponse struct {
	Applied bool            `json:"applied"`
	Hidden  []int           `json:"hidden"`
	Session SessionResponse `json:"session"`
}

type ReadyResponse struct {
	Stage int    `json:"stage"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

const maxReadyWait = 10 * time.Second

func sessionResponse(sess *gameSession, publicURL string, snap engine.Snapshot) SessionResponse {
	st := sess.streakState()
	if st == nil && sess.ctrl.Variant().Mode != engine.ModeSingle {
		cur := sess.ledger.State()
		st = &cur
	}
	return SessionResponse{
		Snapshot: snap,
		Streak:   st,
		Share:    newShareCard(publicURL, sess.ctrl.Variant().Mode, snap, sess.date, st),
	}
}

func handleStartSession(g *games, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := g.variant(chi.URLParam(r, "variant"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}

		var req StartSessionRequest
		if r.Body != nil {
			if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		sess, err := g.start(r.Context(), playerFrom(r), v, req.Date)
		if errors.Is(err, errBadDate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeGameError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, sessionResponse(sess, publicURL, sess.ctrl.Snapshot()))
	}
}

func handleGetSession(g *games, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.session(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse(sess, publicURL, sess.ctrl.Snapshot()))
	}
}

func handleGuess(g *games, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.session(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}

		var req GuessRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		out, err := sess.ctrl.SubmitGuess(req.Guess)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, OutcomeResponse{
			Verdict: out.Verdict,
			Skipped: out.Skipped,
			Session: sessionResponse(sess, publicURL, out.Snapshot),
		})
	}
}

func handleSkip(g *games, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.session(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}

		out, err := sess.ctrl.Skip()
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, OutcomeResponse{
			Skipped: true,
			Session: sessionResponse(sess, publicURL, out.Snapshot),
		})
	}
}

func handleSessionFiftyFifty(g *games, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.session(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}

		hidden, applied, err := sess.ctrl.UseFiftyFifty()
		if err != nil {
			writeGameError(w, err)
			return
		}
		if hidden == nil {
			hidden = []int{}
		}
		writeJSON(w, http.StatusOK, FiftyFiftyResponse{
			Applied: applied,
			Hidden:  hidden,
			Session: sessionResponse(sess, publicURL, sess.ctrl.Snapshot()),
		})
	}
}

// handleReady reports whether a stage's evidence has loaded. With ?wait=1 it
// blocks until the stage resolves or a short deadline passes.
func handleReady(g *games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.session(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}

		stage := sess.ctrl.State().Stage
		if s := r.URL.Query().Get("stage"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > sess.ctrl.Gate().Len() {
				writeError(w, http.StatusBadRequest, "invalid stage")
				return
			}
			stage = n
		}

		gate := sess.ctrl.Gate()
		if r.URL.Query().Get("wait") != "" {
			ctx, cancel := context.WithTimeout(r.Context(), maxReadyWait)
			_ = gate.Wait(ctx, stage)
			cancel()
		}

		resp := ReadyResponse{Stage: stage, Ready: gate.Ready(stage)}
		if err := gate.Err(stage); err != nil && !errors.Is(err, engine.ErrStageNotReady) {
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
