package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/filmiq/filmiq/internal/trivia"
)

type StartRunRequest struct {
	Theme string `json:"theme"`
}

type AnswerRequest struct {
	Option int `json:"option"`
}

type ThemesResponse struct {
	Themes []string `json:"themes"`
}

type RunPowerUpResponse struct {
	Applied bool            `json:"applied"`
	Hidden  []int           `json:"hidden,omitempty"`
	Run     trivia.Snapshot `json:"run"`
}

func handleThemes(g *games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var themes []string
		for _, t := range g.bank.Themes() {
			if g.bank.Playable(t) {
				themes = append(themes, t)
			}
		}
		if themes == nil {
			themes = []string{}
		}
		writeJSON(w, http.StatusOK, ThemesResponse{Themes: themes})
	}
}

func handleStartRun(g *games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartRunRequest
		if err := readJSON(r, &req); err != nil || req.Theme == "" {
			writeError(w, http.StatusBadRequest, "theme is required")
			return
		}

		run, err := g.startRun(playerFrom(r), req.Theme)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, run.Snapshot())
	}
}

func handleGetRun(g *games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := g.run(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run.Snapshot())
	}
}

func handleRunAnswer(g *games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := g.run(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}

		var req AnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		snap, err := run.Answer(req.Option)
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleRunNext(g *games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := g.run(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}

		snap, err := run.Next()
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleRunFiftyFifty(g *games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := g.run(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}

		hidden, applied, err := run.UseFiftyFifty()
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RunPowerUpResponse{Applied: applied, Hidden: hidden, Run: run.Snapshot()})
	}
}

func handleRunSkipQuestion(g *games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := g.run(chi.URLParam(r, "id"), playerFrom(r))
		if err != nil {
			writeGameError(w, err)
			return
		}

		snap, applied, err := run.UseSkipQuestion()
		if err != nil {
			writeGameError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RunPowerUpResponse{Applied: applied, Run: snap})
	}
}
