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
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/filmiq/filmiq/internal/assets"
	"github.com/filmiq/filmiq/internal/database"
	"github.com/filmiq/filmiq/internal/migrations"
)

type Config struct {
	dbPath       string
	mediaDir     string
	mediaURL     string
	questions    string
	theme        string
	date         string
	player       string
	variantsFile string
	verbose      bool
}

func (c *Config) validate() error {
	if c.mediaDir == "" && c.mediaURL == "" {
		return errors.New("one of --media-dir or --media-url must be provided")
	}
	return nil
}

func (c *Config) logger(w io.Writer) *slog.Logger {
	if !c.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (c *Config) source() (assets.Source, error) {
	if c.mediaDir != "" {
		return assets.NewFSSource(os.DirFS(c.mediaDir), c.mediaDir), nil
	}
	return assets.NewHTTPSource(&http.Client{Timeout: 10 * time.Second}, c.mediaURL)
}

func (c *Config) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := database.Open(ctx, c.dbPath)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// bindEnv lets every flag of fs be set from FILMIQ_<FLAG> as well.
func bindEnv(fs *pflag.FlagSet) {
	v := viper.New()
	v.SetEnvPrefix("FILMIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "filmiq",
		Short:         "Guess the movie from progressively easier clues.",
		SilenceErrors: true,
		Version:       releaseVersion,
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.dbPath, "db", "filmiq.db", "local database for streaks and results (env: FILMIQ_DB)")
	fs.StringVar(&cfg.mediaDir, "media-dir", "", "local media tree (env: FILMIQ_MEDIA_DIR)")
	fs.StringVar(&cfg.mediaURL, "media-url", "https://filmiq.app", "base URL of the media tree (env: FILMIQ_MEDIA_URL)")
	fs.StringVar(&cfg.player, "player", "local", "name the local ledger is kept under (env: FILMIQ_PLAYER)")
	fs.StringVar(&cfg.variantsFile, "variants", "", "YAML file overriding the built-in games (env: FILMIQ_VARIANTS)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: FILMIQ_VERBOSE)")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		bindEnv(c.Flags())
		return nil
	}

	cmd.AddCommand(newPlayCmd(cfg), newTriviaCmd(cfg), newValidateCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("filmiq v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
