package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/filmiq/filmiq/internal/assets"
	"github.com/filmiq/filmiq/internal/config"
	"github.com/filmiq/filmiq/internal/database"
	"github.com/filmiq/filmiq/internal/handler/health"
	"github.com/filmiq/filmiq/internal/kv"
	"github.com/filmiq/filmiq/internal/migrations"
	"github.com/filmiq/filmiq/internal/selector"
	"github.com/filmiq/filmiq/internal/server"
	"github.com/filmiq/filmiq/internal/trivia"
	"github.com/filmiq/filmiq/internal/variant"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// A missing .env is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	variants, err := variant.Resolve(cfg.VariantsFile)
	if err != nil {
		return fmt.Errorf("loading variants: %w", err)
	}

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	checks := map[string]health.Checker{
		"sqlite": dbChecker{db},
	}

	// --- Streak storage: Redis when configured, SQLite otherwise ---
	var streaks kv.Store = kv.NewSQLite(db)
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		streaks = kv.NewRedis(rdb)
		checks["redis"] = redisChecker{rdb}
		logger.Info("connected to redis")
	}

	// --- Media ---
	var src assets.Source
	if cfg.MediaDir != "" {
		src = assets.NewFSSource(os.DirFS(cfg.MediaDir), "/files")
		logger.Info("serving media from disk", "dir", cfg.MediaDir)
	} else {
		src, err = assets.NewHTTPSource(&http.Client{Timeout: 10 * time.Second}, cfg.MediaBaseURL)
		if err != nil {
			return fmt.Errorf("media source: %w", err)
		}
	}
	provider := assets.NewProvider(src, logger)
	checks["media"] = health.Optional(health.CheckerFunc(func(ctx context.Context) error {
		return src.Stat(ctx, assets.ManifestFile)
	}))

	titles := loadTitles(logger, cfg.TitlesCSV)
	bank := loadQuestions(logger, cfg.QuestionsCSV)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Players:      server.NewPlayerStore(db),
		Streaks:      streaks,
		Variants:     variants,
		Selector:     selector.New(provider),
		Assets:       provider,
		Titles:       titles,
		Bank:         bank,
		QuestionTime: cfg.QuestionTime(),
		IdleTimeout:  cfg.SessionIdleTimeout,
		PublicURL:    cfg.PublicURL,
		MediaDir:     cfg.MediaDir,
		SPADir:       cfg.SPADir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return srv.Reap(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// loadTitles reads the autocomplete list. Without it suggestions are empty.
func loadTitles(logger *slog.Logger, path string) *assets.TitleIndex {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("titles not loaded", "path", path, "error", err)
		return assets.NewTitleIndex(nil)
	}
	defer f.Close()

	titles, err := assets.LoadTitles(f)
	if err != nil {
		logger.Warn("titles not loaded", "path", path, "error", err)
		return assets.NewTitleIndex(nil)
	}
	logger.Info("loaded titles", "count", titles.Len())
	return titles
}

// loadQuestions reads the trivia bank. Without it no theme is playable.
func loadQuestions(logger *slog.Logger, path string) *trivia.Bank {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("questions not loaded", "path", path, "error", err)
		return trivia.NewBank(nil)
	}
	defer f.Close()

	qs, err := assets.LoadQuestions(f)
	if err != nil {
		logger.Warn("questions not loaded", "path", path, "error", err)
		return trivia.NewBank(nil)
	}
	bank := trivia.NewBank(qs)
	logger.Info("loaded questions", "count", len(qs), "themes", len(bank.Themes()))
	return bank
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
