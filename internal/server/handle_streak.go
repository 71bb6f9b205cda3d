package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func handleGetStreak(g *games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := g.variant(chi.URLParam(r, "variant"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		ledger := g.ledger(r.Context(), v, playerFrom(r).ID)
		writeJSON(w, http.StatusOK, ledger.State())
	}
}

func handleRestart(g *games) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := g.variant(chi.URLParam(r, "variant"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		ledger := g.ledger(r.Context(), v, playerFrom(r).ID)
		writeJSON(w, http.StatusOK, ledger.Restart(r.Context()))
	}
}
