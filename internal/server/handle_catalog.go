package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/filmiq/filmiq/internal/assets"
	"github.com/filmiq/filmiq/internal/selector"
)

type TitlesResponse struct {
	Titles []string `json:"titles"`
}

type CalendarResponse struct {
	Month string   `json:"month"`
	Dates []string `json:"dates"`
}

func handleTitles(titles *assets.TitleIndex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := assets.SuggestLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= limit {
				limit = n
			}
		}

		var out []string
		if titles != nil {
			out = titles.Suggest(r.URL.Query().Get("q"), limit)
		}
		if out == nil {
			out = []string{}
		}
		writeJSON(w, http.StatusOK, TitlesResponse{Titles: out})
	}
}

// handleCalendar lists the playable daily dates of ?month=YYYY-MM
// (default: the current month).
func handleCalendar(sel *selector.Selector, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		month := now().UTC()
		if s := r.URL.Query().Get("month"); s != "" {
			t, err := time.Parse("2006-01", s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
				return
			}
			month = t
		}

		ids, err := sel.Calendar(r.Context(), month.Year(), month.Month())
		if err != nil {
			writeGameError(w, err)
			return
		}

		dates := make([]string, 0, len(ids))
		for _, id := range ids {
			dates = append(dates, id[0:4]+"-"+id[4:6]+"-"+id[6:8])
		}
		writeJSON(w, http.StatusOK, CalendarResponse{Month: month.Format("2006-01"), Dates: dates})
	}
}
