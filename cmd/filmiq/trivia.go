package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/filmiq/filmiq/internal/assets"
	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/trivia"
)

const skipQuestionCommand = "/skip"

func newTriviaCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trivia",
		Short: "Play a 15-question theme quiz in the terminal",
		Long: "Answer A-D for each question. " + fiftyFiftyCommand + " hides two wrong options and " +
			skipQuestionCommand + " swaps the question, once each per run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(cfg.questions)
			if err != nil {
				return err
			}
			defer f.Close()

			qs, err := assets.LoadQuestions(f)
			if err != nil {
				return err
			}
			bank := trivia.NewBank(qs)

			if cfg.theme == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Themes:")
				for _, t := range bank.Themes() {
					if bank.Playable(t) {
						fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", t)
					}
				}
				return nil
			}

			run, err := trivia.NewRun(uuid.NewString(), bank, cfg.theme, trivia.WithListener(func(ev trivia.Event) {
				if ev.Type == trivia.EventTimeout {
					fmt.Fprintln(cmd.OutOrStdout(), "\nTime's up! Press enter to continue.")
				}
			}))
			if err != nil {
				return err
			}
			defer run.Close()

			_, err = playTrivia(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), run)
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.questions, "questions", "questions.csv", "question bank CSV (env: FILMIQ_QUESTIONS)")
	cmd.Flags().StringVar(&cfg.theme, "theme", "", "theme to play; lists themes when empty (env: FILMIQ_THEME)")
	return cmd
}

func optionIndex(s string) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}
	i := int(strings.ToUpper(s)[0]) - 'A'
	return i, i >= 0 && i < 4
}

func playTrivia(ctx context.Context, in io.Reader, out io.Writer, run *trivia.Run) (trivia.Snapshot, error) {
	lines := bufio.NewScanner(in)

	for !run.Over() {
		if ctx.Err() != nil {
			return trivia.Snapshot{}, ctx.Err()
		}

		snap := run.Snapshot()
		if snap.State == engine.StateResolved {
			if snap.Warning != "" {
				fmt.Fprintln(out, snap.Warning)
			}
			if _, err := run.Next(); err != nil {
				return trivia.Snapshot{}, err
			}
			continue
		}
		printQuestion(out, snap)

		fmt.Fprint(out, "> ")
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return trivia.Snapshot{}, err
			}
			return trivia.Snapshot{}, io.ErrUnexpectedEOF
		}
		line := strings.TrimSpace(lines.Text())

		switch line {
		case fiftyFiftyCommand:
			if _, applied, err := run.UseFiftyFifty(); err == nil && !applied {
				fmt.Fprintln(out, "Fifty-fifty already used.")
			}
			continue
		case skipQuestionCommand:
			if _, applied, err := run.UseSkipQuestion(); err == nil && !applied {
				fmt.Fprintln(out, "Skip already used.")
			}
			continue
		}

		i, ok := optionIndex(line)
		if !ok {
			fmt.Fprintln(out, "Answer with A, B, C or D.")
			continue
		}
		res, err := run.Answer(i)
		var illegal *engine.IllegalTransitionError
		switch {
		case errors.As(err, &illegal):
			// The countdown ran out while waiting for input.
			continue
		case errors.Is(err, trivia.ErrInvalidOption):
			fmt.Fprintln(out, "That option is hidden.")
			continue
		case err != nil:
			return trivia.Snapshot{}, err
		}

		last := res.Answers[len(res.Answers)-1]
		if last.Correct {
			fmt.Fprintln(out, "Correct!")
		} else if c := res.Question.Correct; c != nil {
			fmt.Fprintf(out, "Wrong! It was %c) %s\n", 'A'+*c, res.Question.Options[*c])
		}
	}

	final := run.Snapshot()
	verdict := "Better luck next time."
	if final.Won {
		verdict = "Well done!"
	}
	fmt.Fprintf(out, "\nYou scored %d/%d. %s\n", final.Score, final.Total, verdict)
	return final, nil
}

func printQuestion(out io.Writer, snap trivia.Snapshot) {
	fmt.Fprintf(out, "\nQuestion %d/%d (%s, %.0fs)\n%s\n", snap.Number, snap.Total, snap.Question.Level, snap.RemainingS, snap.Question.Text)
	for i, opt := range snap.Question.Options {
		if slices.Contains(snap.Hidden, i) {
			continue
		}
		fmt.Fprintf(out, "  %c) %s\n", 'A'+i, opt)
	}
}
