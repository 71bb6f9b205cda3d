package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/filmiq/filmiq/internal/assets"
	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/kv"
	"github.com/filmiq/filmiq/internal/selector"
	"github.com/filmiq/filmiq/internal/trivia"
)

// Deps are the collaborators the HTTP surface is built on.
type Deps struct {
	Players  *PlayerStore
	Streaks  kv.Store
	Variants map[string]engine.Variant
	Selector *selector.Selector
	Assets   *assets.Provider
	Titles   *assets.TitleIndex
	Bank     *trivia.Bank

	QuestionTime time.Duration
	// IdleTimeout evicts sessions and trivia runs nobody touched for that
	// long. Zero disables reaping.
	IdleTimeout time.Duration
	PublicURL   string
	MediaDir    string
	SPADir      string
	Clock       engine.Clock
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
	games  *games
	idle   time.Duration
}

// New builds the server. mount registers extra routes (health checks) on
// the same router.
func New(addr string, logger *slog.Logger, d Deps, mount func(r chi.Router)) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	broker := NewBroker()
	g := newGames(d, logger, broker)
	if mount != nil {
		mount(r)
	}
	addRoutes(r, logger, d, g, broker)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
		games:  g,
		idle:   d.IdleTimeout,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Reap evicts idle games until ctx is done.
func (s *Server) Reap(ctx context.Context) error {
	if s.idle <= 0 {
		<-ctx.Done()
		return nil
	}
	return s.games.reap(ctx, s.idle)
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	s.games.close()
	return err
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
