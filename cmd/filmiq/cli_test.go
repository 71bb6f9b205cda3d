package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/filmiq/filmiq/internal/assets"
	"github.com/filmiq/filmiq/internal/engine"
	"github.com/filmiq/filmiq/internal/engine/enginetest"
	"github.com/filmiq/filmiq/internal/trivia"
)

var testStart = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func dailyController(t *testing.T) *engine.Controller {
	t.Helper()
	fsys := fstest.MapFS{
		"media/20250101/movie.txt":      {Data: []byte("Heat")},
		"media/20250101/audio_clip.mp3": {Data: []byte("id3")},
		"media/20250101/8s.mp4":         {Data: []byte("mp4")},
		"media/20250101/30s.mp4":        {Data: []byte("mp4")},
	}
	for i := 1; i <= 5; i++ {
		fsys[fmt.Sprintf("media/20250101/frame_%d.jpg", i)] = &fstest.MapFile{Data: []byte("jpg")}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := assets.NewProvider(assets.NewFSSource(fsys, "media-root"), logger)
	v := engine.Daily()
	puzzle, err := provider.LoadPuzzle(context.Background(), v, "20250101", rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("LoadPuzzle: %v", err)
	}

	gate := engine.NewGate(v.Stages())
	ctrl, err := engine.NewController("s1", v, puzzle, engine.WithGate(gate))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if err := provider.Prefetch(context.Background(), v, "20250101", gate); err != nil {
		t.Fatalf("Prefetch: %v", err)
	}
	return ctrl
}

func TestPlaySession(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantWon   bool
		wantScore int
		wantOut   []string
	}{
		{
			name:      "skip then win",
			input:     "\nheat\n",
			wantWon:   true,
			wantScore: 3,
			wantOut:   []string{"Stage 1/4", "Skipped.", "Stage 2/4", "The movie was Heat. You scored 3/4."},
		},
		{
			name:    "wrong every stage",
			input:   "Ronin\nRonin\n\nRonin\n",
			wantOut: []string{"Wrong!", "Stage 4/4", "You scored 0/4."},
		},
		{
			name:      "fifty-fifty without choices",
			input:     fiftyFiftyCommand + "\nHEAT\n",
			wantWon:   true,
			wantScore: 4,
			wantOut:   []string{"Fifty-fifty is not available."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			snap, err := playSession(context.Background(), strings.NewReader(tt.input), &out, dailyController(t))
			if err != nil {
				t.Fatalf("playSession: %v", err)
			}
			if snap.Won != tt.wantWon || *snap.FinalScore != tt.wantScore {
				t.Errorf("won=%v score=%d, want won=%v score=%d", snap.Won, *snap.FinalScore, tt.wantWon, tt.wantScore)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestPlaySessionInputEnds(t *testing.T) {
	_, err := playSession(context.Background(), strings.NewReader("Ronin\n"), io.Discard, dailyController(t))
	if err != io.ErrUnexpectedEOF {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestPlayTrivia(t *testing.T) {
	var qs []trivia.Question
	for _, tier := range trivia.Tiers {
		for i := range tier.Count {
			qs = append(qs, trivia.Question{
				Theme:   "Heists",
				Text:    fmt.Sprintf("%s %d", tier.Level, i),
				Options: []string{"a", "b", "c", "d"},
				Correct: 1,
				Level:   tier.Level,
			})
		}
	}
	clock := enginetest.NewManualClock(testStart)
	run, err := trivia.NewRun("r1", trivia.NewBank(qs), "Heists", trivia.WithClock(clock))
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	defer run.Close()

	// First answer wrong, then fifty-fifty, then all right.
	input := "A\nz\n" + fiftyFiftyCommand + "\n" + strings.Repeat("b\n", trivia.RunLength()-1)
	var out bytes.Buffer
	snap, err := playTrivia(context.Background(), strings.NewReader(input), &out, run)
	if err != nil {
		t.Fatalf("playTrivia: %v\n%s", err, out.String())
	}
	if snap.Score != trivia.RunLength()-1 || !snap.Won {
		t.Errorf("score=%d won=%v", snap.Score, snap.Won)
	}
	for _, want := range []string{"Wrong! It was B) b", "Answer with A, B, C or D.", "You scored 14/15. Well done!"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("variants:\n  - name: broken\n    mode: single\n    points: [1, 2]\n    stages: [audio, clip]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr bool
		wantOut string
	}{
		{"builtins", []string{"validate"}, false, "poster"},
		{"bad file", []string{"validate", "--variants", bad}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := newCmd(&Config{})
			cmd.SetArgs(tt.args)
			cmd.SetOut(&out)
			err := cmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out.String(), tt.wantOut) {
				t.Errorf("output %q missing %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestPrefetchLogsOnlyUnexpectedStops(t *testing.T) {
	src, err := assets.NewHTTPSource(http.DefaultClient, "http://127.0.0.1:1/media")
	if err != nil {
		t.Fatal(err)
	}
	provider := assets.NewProvider(src, slog.New(slog.NewTextHandler(io.Discard, nil)))
	v := engine.Daily()

	expired, cancel := context.WithDeadline(context.Background(), testStart)
	t.Cleanup(cancel)
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		wantLog bool
	}{
		{"deadline", expired, true},
		{"canceled", canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			prefetch(tt.ctx, logger, provider, v, "20250101", engine.NewGate(v.Stages()))

			if got := strings.Contains(buf.String(), "prefetch stopped"); got != tt.wantLog {
				t.Fatalf("logged = %v, want %v: %q", got, tt.wantLog, buf.String())
			}
		})
	}
}
