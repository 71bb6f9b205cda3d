package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

type SignUpRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type PlayerResponse struct {
	Token  string `json:"token"`
	Player Player `json:"player"`
}

type ResultsResponse struct {
	Results []Result `json:"results"`
}

const minPasswordLen = 6

func handleSignUp(players *PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignUpRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || len(req.Password) < minPasswordLen {
			writeError(w, http.StatusBadRequest, "name and a password of at least 6 characters are required")
			return
		}

		p, token, err := players.SignUp(r.Context(), req.Name, req.Password)
		if errors.Is(err, ErrNameTaken) {
			writeError(w, http.StatusConflict, "name already taken")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, PlayerResponse{Token: token, Player: p})
	}
}

func handleLogin(players *PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignUpRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		p, token, err := players.Login(r.Context(), strings.TrimSpace(req.Name), req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid name or password")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, PlayerResponse{Token: token, Player: p})
	}
}

func handleGuest(players *PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, token, err := players.Guest(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, PlayerResponse{Token: token, Player: p})
	}
}

func handleResults(players *PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 100 {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
				return
			}
			limit = n
		}

		results, err := players.Results(r.Context(), playerFrom(r).ID, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ResultsResponse{Results: results})
	}
}
