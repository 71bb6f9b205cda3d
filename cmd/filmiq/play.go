package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/filmiq/filmiq/internal/assets"
	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/kv"
	"github.com/filmiq/filmiq/internal/selector"
	"github.com/filmiq/filmiq/internal/server"
	"github.com/filmiq/filmiq/internal/streak"
	"github.com/filmiq/filmiq/internal/variant"
)

const fiftyFiftyCommand = "/5050"

func newPlayCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <game>",
		Short: "Play one session of a game in the terminal",
		Long: "Play one session of a game (daily, endless, poster or a custom variant).\n" +
			"Type a title to guess, an empty line to skip, " + fiftyFiftyCommand + " to hide two choices.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runPlay(cmd.Context(), cfg, args[0], cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&cfg.date, "date", "", "daily puzzle date, YYYY-MM-DD (env: FILMIQ_DATE)")
	return cmd
}

func runPlay(ctx context.Context, cfg *Config, name string, in io.Reader, out, errOut io.Writer) error {
	logger := cfg.logger(errOut)

	variants, err := variant.Resolve(cfg.variantsFile)
	if err != nil {
		return err
	}
	v, ok := variants[name]
	if !ok {
		return fmt.Errorf("unknown game %q", name)
	}

	src, err := cfg.source()
	if err != nil {
		return err
	}
	provider := assets.NewProvider(src, logger)
	sel := selector.New(provider)

	var puzzleID string
	switch {
	case v.Mode != engine.ModeSingle:
		puzzleID = sel.RandomOrDefault(ctx)
	case cfg.date != "":
		t, err := time.Parse("2006-01-02", cfg.date)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		if puzzleID, err = sel.ForDate(ctx, t); err != nil {
			return err
		}
	default:
		if puzzleID, err = sel.Today(ctx); err != nil {
			return err
		}
	}

	db, err := cfg.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	ledger := streak.Open(ctx, kv.NewSQLite(db), v, cfg.player, logger)
	if v.Mode == engine.ModeEndless && ledger.State().Lives <= 0 {
		fmt.Fprintln(out, "No lives left. Starting a new run.")
		ledger.Restart(ctx)
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	puzzle, err := provider.LoadPuzzle(ctx, v, puzzleID, rng)
	if err != nil {
		return err
	}

	gate := engine.NewGate(v.Stages())
	ctrl, err := engine.NewController(uuid.NewString(), v, puzzle, engine.WithGate(gate), engine.WithRand(rng))
	if err != nil {
		return err
	}

	pctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go prefetch(pctx, logger, provider, v, puzzleID, gate)

	snap, err := playSession(ctx, in, out, ctrl)
	if err != nil {
		return err
	}

	st, err := ledger.RecordOutcome(ctx, snap.Won)
	if err != nil && !errors.Is(err, streak.ErrRunOver) {
		return err
	}
	printStreak(out, v, st)

	score := 0
	if snap.FinalScore != nil {
		score = *snap.FinalScore
	}
	players := server.NewPlayerStore(db)
	p, err := players.Local(ctx, cfg.player)
	if err != nil {
		return err
	}
	return players.RecordResult(ctx, p.ID, server.Result{
		Game:     v.Name,
		PuzzleID: snap.PuzzleID,
		Score:    score,
		MaxScore: snap.MaxPoints,
		Won:      snap.Won,
	})
}

func prefetch(ctx context.Context, logger *slog.Logger, provider *assets.Provider, v engine.Variant, id string, gate *engine.Gate) {
	if err := provider.Prefetch(ctx, v, id, gate); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("prefetch stopped", "puzzle", id, "error", err)
	}
}

// playSession drives ctrl from lines read from in until the game is over.
func playSession(ctx context.Context, in io.Reader, out io.Writer, ctrl *engine.Controller) (engine.Snapshot, error) {
	lines := bufio.NewScanner(in)
	shown := 0

	for !ctrl.Over() {
		stage := ctrl.State().Stage
		if stage != shown {
			waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := ctrl.Gate().Wait(waitCtx, stage)
			cancel()
			if ctx.Err() != nil {
				return engine.Snapshot{}, ctx.Err()
			}
			printStage(out, ctrl.Snapshot(), err)
			shown = stage
		}

		fmt.Fprint(out, "> ")
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return engine.Snapshot{}, err
			}
			return engine.Snapshot{}, io.ErrUnexpectedEOF
		}
		line := strings.TrimSpace(lines.Text())

		if line == fiftyFiftyCommand {
			hidden, applied, err := ctrl.UseFiftyFifty()
			switch {
			case err != nil:
				fmt.Fprintln(out, err)
			case !applied:
				fmt.Fprintln(out, "Fifty-fifty is not available.")
			default:
				printChoices(out, ctrl.Snapshot().Choices, hidden)
			}
			continue
		}

		res, err := ctrl.SubmitGuess(line)
		var unavailable *engine.EvidenceUnavailableError
		switch {
		case errors.As(err, &unavailable):
			fmt.Fprintln(out, "This clue could not be loaded. Press enter to skip it.")
			continue
		case err != nil:
			fmt.Fprintln(out, err)
			continue
		}

		switch {
		case res.Skipped:
			fmt.Fprintln(out, "Skipped.")
		case res.Verdict != nil && !res.Verdict.Correct:
			fmt.Fprintln(out, "Wrong!")
		}
	}

	snap := ctrl.Snapshot()
	score := 0
	if snap.FinalScore != nil {
		score = *snap.FinalScore
	}
	if snap.Won {
		fmt.Fprintf(out, "Correct! The movie was %s. You scored %d/%d.\n", snap.Answer, score, snap.MaxPoints)
	} else {
		fmt.Fprintf(out, "Out of clues. The movie was %s. You scored 0/%d.\n", snap.Answer, snap.MaxPoints)
	}
	return snap, nil
}

func printStage(out io.Writer, snap engine.Snapshot, loadErr error) {
	fmt.Fprintf(out, "\nStage %d/%d - %s (%d points)\n", snap.Stage, snap.TotalStages, snap.Label, snap.PointsAvailable)
	if loadErr != nil {
		fmt.Fprintf(out, "  clue unavailable: %v\n", loadErr)
		return
	}
	if ev := snap.Evidence; ev != nil {
		if ev.Kind == engine.EvidenceReveal {
			fmt.Fprintf(out, "  %d of %d squares revealed\n", ev.Revealed, ev.TotalCells)
		}
		for _, uri := range ev.URIs {
			fmt.Fprintf(out, "  %s\n", uri)
		}
	}
	printChoices(out, snap.Choices, snap.Hidden)
}

func printChoices(out io.Writer, choices []string, hidden []int) {
	for i, c := range choices {
		if slices.Contains(hidden, i) {
			continue
		}
		fmt.Fprintf(out, "  - %s\n", c)
	}
}

func printStreak(out io.Writer, v engine.Variant, st streak.State) {
	switch v.Mode {
	case engine.ModeEndless:
		fmt.Fprintf(out, "Streak %d (best %d), %d lives left.\n", st.CurrentStreak, st.MaxStreakEverRecorded, st.Lives)
	case engine.ModeStreak:
		fmt.Fprintf(out, "Streak %d (best %d).\n", st.CurrentStreak, st.BestStreak)
	default:
		fmt.Fprintf(out, "Played %d, won %d.\n", st.Played, st.Won)
	}
}
