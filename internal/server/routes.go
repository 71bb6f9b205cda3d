package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps, g *games, broker *Broker) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("FilmIQ API", "/openapi.json", "/docs"))

	// Public routes.
	r.Post("/api/players", handleSignUp(d.Players))
	r.Post("/api/players/login", handleLogin(d.Players))
	r.Post("/api/players/guest", handleGuest(d.Players))
	r.Get("/api/titles", handleTitles(d.Titles))
	r.Get("/api/daily/calendar", handleCalendar(d.Selector, g.clock.Now))
	r.Get("/api/trivia/themes", handleThemes(g))

	// Player routes: bearer token, or ?token= for event streams.
	r.Group(func(r chi.Router) {
		r.Use(requirePlayer(d.Players))

		r.Get("/api/players/me/results", handleResults(d.Players))

		r.Route("/api/games/{variant}", func(r chi.Router) {
			r.Post("/sessions", handleStartSession(g, d.PublicURL))
			r.Get("/streak", handleGetStreak(g))
			r.Post("/restart", handleRestart(g))
		})

		r.Route("/api/sessions/{id}", func(r chi.Router) {
			r.Get("/", handleGetSession(g, d.PublicURL))
			r.Post("/guess", handleGuess(g, d.PublicURL))
			r.Post("/skip", handleSkip(g, d.PublicURL))
			r.Post("/fifty-fifty", handleSessionFiftyFifty(g, d.PublicURL))
			r.Get("/ready", handleReady(g))
			r.Get("/events", handleEvents(broker, sessionFeed(g)))
			r.Get("/share.png", handleSharePNG(g, d.PublicURL))
		})

		r.Post("/api/trivia/runs", handleStartRun(g))
		r.Route("/api/trivia/runs/{id}", func(r chi.Router) {
			r.Get("/", handleGetRun(g))
			r.Post("/answer", handleRunAnswer(g))
			r.Post("/next", handleRunNext(g))
			r.Post("/fifty-fifty", handleRunFiftyFifty(g))
			r.Post("/skip-question", handleRunSkipQuestion(g))
			r.Get("/events", handleEvents(broker, runFeed(g)))
		})

		r.Get("/ws/sessions/{id}", handleWSFeed(logger, broker, sessionFeed(g)))
		r.Get("/ws/trivia/runs/{id}", handleWSFeed(logger, broker, runFeed(g)))
	})

	if d.MediaDir != "" {
		if info, err := os.Stat(d.MediaDir); err == nil && info.IsDir() {
			logger.Info("serving media", "dir", d.MediaDir)
			r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(d.MediaDir))))
		}
	}

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(os.DirFS(d.SPADir)))
		}
	}
}
