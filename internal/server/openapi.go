package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/filmiq/filmiq/internal/streak"
	"github.com/filmiq/filmiq/internal/trivia"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthStatus is one entry of the /healthz response.
type HealthStatus struct {
	Status string `json:"status"`
}

type sessionPath struct {
	ID string `path:"id"`
}

type variantPath struct {
	Variant string `path:"variant"`
}

type startSessionInput struct {
	variantPath
	StartSessionRequest
}

type guessInput struct {
	sessionPath
	GuessRequest
}

type readyInput struct {
	sessionPath
	Stage int  `query:"stage"`
	Wait  bool `query:"wait"`
}

type answerInput struct {
	sessionPath
	AnswerRequest
}

type titlesInput struct {
	Q     string `query:"q"`
	Limit int    `query:"limit"`
}

type calendarInput struct {
	Month string `query:"month" example:"2025-01"`
}

type resultsInput struct {
	Limit int `query:"limit"`
}

type op struct {
	method, path, summary, description string
	req                                any
	resp                               any
	status                             int
	contentType                        string
	errors                             []int
}

var operations = []op{
	{method: http.MethodGet, path: "/healthz", summary: "Health check",
		description: "Returns the health status of backend dependencies.",
		resp:        map[string]HealthStatus{}, status: http.StatusOK},

	{method: http.MethodPost, path: "/api/players", summary: "Sign up",
		description: "Creates a named player account and returns a bearer token.",
		req:         SignUpRequest{}, resp: PlayerResponse{}, status: http.StatusCreated,
		errors: []int{http.StatusBadRequest, http.StatusConflict}},
	{method: http.MethodPost, path: "/api/players/login", summary: "Sign in",
		description: "Checks name and password and returns a new bearer token.",
		req:         SignUpRequest{}, resp: PlayerResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized}},
	{method: http.MethodPost, path: "/api/players/guest", summary: "Play as guest",
		description: "Creates an anonymous player and returns a bearer token.",
		resp:        PlayerResponse{}, status: http.StatusCreated},
	{method: http.MethodGet, path: "/api/players/me/results", summary: "Results history",
		description: "Finished games of the current player, newest first. Requires Bearer token.",
		req:         resultsInput{}, resp: ResultsResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized}},

	{method: http.MethodPost, path: "/api/games/{variant}/sessions", summary: "Start session",
		description: "Starts a new session of a game. Daily accepts an optional date (YYYY-MM-DD). Requires Bearer token.",
		req:         startSessionInput{}, resp: SessionResponse{}, status: http.StatusCreated,
		errors: []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusServiceUnavailable}},
	{method: http.MethodGet, path: "/api/sessions/{id}", summary: "Get session",
		description: "Returns the session snapshot. Requires Bearer token.",
		req:         sessionPath{}, resp: SessionResponse{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound}},
	{method: http.MethodPost, path: "/api/sessions/{id}/guess", summary: "Submit guess",
		description: "Evaluates a title against the answer. A blank guess skips the stage.",
		req:         guessInput{}, resp: OutcomeResponse{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound, http.StatusConflict, http.StatusServiceUnavailable}},
	{method: http.MethodPost, path: "/api/sessions/{id}/skip", summary: "Skip stage",
		description: "Gives up the current stage and reveals the next one.",
		req:         sessionPath{}, resp: OutcomeResponse{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound, http.StatusConflict}},
	{method: http.MethodPost, path: "/api/sessions/{id}/fifty-fifty", summary: "Use fifty-fifty",
		description: "Hides two wrong choices of the current stage. Once per session.",
		req:         sessionPath{}, resp: FiftyFiftyResponse{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound, http.StatusConflict}},
	{method: http.MethodGet, path: "/api/sessions/{id}/ready", summary: "Stage readiness",
		description: "Reports whether a stage's evidence has loaded. wait=true blocks briefly.",
		req:         readyInput{}, resp: ReadyResponse{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusNotFound}},
	{method: http.MethodGet, path: "/api/sessions/{id}/events", summary: "Session events",
		description: "Server-Sent Events stream of session snapshots. Pass token as query parameter.",
		req:         sessionPath{}, status: http.StatusOK, contentType: "text/event-stream",
		errors: []int{http.StatusNotFound}},
	{method: http.MethodGet, path: "/api/sessions/{id}/share.png", summary: "Share QR code",
		description: "PNG QR code linking to the game, once the session is over.",
		req:         sessionPath{}, status: http.StatusOK, contentType: "image/png",
		errors: []int{http.StatusNotFound, http.StatusConflict}},
	{method: http.MethodGet, path: "/ws/sessions/{id}", summary: "Session feed (WebSocket)",
		description: "WebSocket stream of session snapshots. Pass token as query parameter.",
		req:         sessionPath{}, status: http.StatusSwitchingProtocols, contentType: "application/json"},

	{method: http.MethodGet, path: "/api/games/{variant}/streak", summary: "Get streak",
		description: "Current streak ledger of the player for a game.",
		req:         variantPath{}, resp: streak.State{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound}},
	{method: http.MethodPost, path: "/api/games/{variant}/restart", summary: "Restart run",
		description: "Restores lives and clears the current streak. The best-ever streak is kept.",
		req:         variantPath{}, resp: streak.State{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound}},

	{method: http.MethodGet, path: "/api/trivia/themes", summary: "List themes",
		description: "Themes with enough questions for a full run.",
		resp:        ThemesResponse{}, status: http.StatusOK},
	{method: http.MethodPost, path: "/api/trivia/runs", summary: "Start trivia run",
		description: "Starts a 15-question run of one theme.",
		req:         StartRunRequest{}, resp: trivia.Snapshot{}, status: http.StatusCreated,
		errors: []int{http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity}},
	{method: http.MethodGet, path: "/api/trivia/runs/{id}", summary: "Get trivia run",
		req: sessionPath{}, resp: trivia.Snapshot{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound}},
	{method: http.MethodPost, path: "/api/trivia/runs/{id}/answer", summary: "Answer question",
		description: "Selects an option (0-3) for the current question.",
		req:         answerInput{}, resp: trivia.Snapshot{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict}},
	{method: http.MethodPost, path: "/api/trivia/runs/{id}/next", summary: "Next question",
		req: sessionPath{}, resp: trivia.Snapshot{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound, http.StatusConflict}},
	{method: http.MethodPost, path: "/api/trivia/runs/{id}/fifty-fifty", summary: "Use fifty-fifty",
		req: sessionPath{}, resp: RunPowerUpResponse{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound, http.StatusConflict}},
	{method: http.MethodPost, path: "/api/trivia/runs/{id}/skip-question", summary: "Skip question",
		description: "Replaces the current question with another of the same level.",
		req:         sessionPath{}, resp: RunPowerUpResponse{}, status: http.StatusOK,
		errors: []int{http.StatusNotFound, http.StatusConflict}},
	{method: http.MethodGet, path: "/api/trivia/runs/{id}/events", summary: "Trivia run events",
		description: "Server-Sent Events stream of run snapshots. Pass token as query parameter.",
		req:         sessionPath{}, status: http.StatusOK, contentType: "text/event-stream",
		errors: []int{http.StatusNotFound}},

	{method: http.MethodGet, path: "/api/titles", summary: "Title suggestions",
		description: "Up to 10 movie titles containing the query, case-insensitively.",
		req:         titlesInput{}, resp: TitlesResponse{}, status: http.StatusOK},
	{method: http.MethodGet, path: "/api/daily/calendar", summary: "Daily calendar",
		description: "Playable daily puzzle dates of a month.",
		req:         calendarInput{}, resp: CalendarResponse{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusServiceUnavailable}},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "FilmIQ API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the FilmIQ movie guessing games.")

	for _, o := range operations {
		oc, err := r.NewOperationContext(o.method, o.path)
		if err != nil {
			continue
		}
		oc.SetSummary(o.summary)
		if o.description != "" {
			oc.SetDescription(o.description)
		}
		if o.req != nil {
			oc.AddReqStructure(o.req)
		}
		if o.contentType != "" {
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(o.status), openapi.WithContentType(o.contentType))
		} else {
			oc.AddRespStructure(o.resp, openapi.WithHTTPStatus(o.status))
		}
		for _, status := range o.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
