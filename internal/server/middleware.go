package server

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const ctxKeyPlayer ctxKey = iota

// requirePlayer resolves the bearer token (or ?token= for event streams,
// which cannot set headers) and stores the player in the context.
func requirePlayer(players *PlayerStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !found || token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing player token")
				return
			}

			p, err := players.FromToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid player token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyPlayer, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func playerFrom(r *http.Request) Player {
	return r.Context().Value(ctxKeyPlayer).(Player)
}
