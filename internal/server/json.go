package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/selector"
	"github.com/filmiq/filmiq/internal/streak"
	"github.com/filmiq/filmiq/internal/trivia"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeGameError maps game errors to status codes; anything unknown is a 500.
func writeGameError(w http.ResponseWriter, err error) {
	var (
		illegal     *engine.IllegalTransitionError
		unavailable *engine.EvidenceUnavailableError
		cfgErr      *engine.ConfigurationError
	)
	switch {
	case errors.As(err, &illegal):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrStageNotReady):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &unavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &cfgErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, streak.ErrRunOver):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, selector.ErrFutureDate),
		errors.Is(err, trivia.ErrInvalidOption):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, selector.ErrPuzzleNotFound),
		errors.Is(err, trivia.ErrUnknownTheme),
		errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, selector.ErrNoPuzzlesAvailable),
		errors.Is(err, errPuzzleUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, trivia.ErrNotEnoughQuestions):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
