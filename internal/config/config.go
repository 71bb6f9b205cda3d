package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/filmiq.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	// RedisURL is optional; streaks are kept in SQLite without it.
	RedisURL string `env:"REDIS_URL"`

	// MediaDir, when set, serves the media tree from disk and takes
	// precedence over MediaBaseURL.
	MediaDir     string `env:"MEDIA_DIR"`
	MediaBaseURL string `env:"MEDIA_BASE_URL" envDefault:"https://filmiq.app"`
	TitlesCSV    string `env:"TITLES_CSV" envDefault:"data/movies.csv"`
	QuestionsCSV string `env:"QUESTIONS_CSV" envDefault:"data/questions.csv"`
	VariantsFile string `env:"VARIANTS_FILE"`

	QuestionSeconds    int           `env:"QUESTION_SECONDS" envDefault:"20"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"1h"`
	PublicURL          string        `env:"PUBLIC_URL" envDefault:"https://filmiq.app"`
	SPADir             string        `env:"SPA_DIR" envDefault:"../web/dist"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.QuestionSeconds <= 0 {
		return nil, fmt.Errorf("QUESTION_SECONDS must be positive, got %d", cfg.QuestionSeconds)
	}
	return &cfg, nil
}

// QuestionTime is the trivia countdown per question.
func (c *Config) QuestionTime() time.Duration {
	return time.Duration(c.QuestionSeconds) * time.Second
}
