package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/filmiq/filmiq/internal/engine"
)

// Provider turns a media tree into puzzles. It satisfies
// selector.ManifestLoader.
type Provider struct {
	src    Source
	logger *slog.Logger
}

func NewProvider(src Source, logger *slog.Logger) *Provider {
	return &Provider{src: src, logger: logger}
}

// Source returns the underlying media source.
func (p *Provider) Source() Source { return p.src }

// LoadManifest reads the list of puzzle ids. The manifest is either a JSON
// array of ids or an object with a "dates" array.
func (p *Provider) LoadManifest(ctx context.Context) ([]string, error) {
	raw, err := p.src.ReadFile(ctx, ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("manifest is not valid JSON")
	}

	res := gjson.ParseBytes(raw)
	if !res.IsArray() {
		res = res.Get("dates")
	}
	if !res.IsArray() {
		return nil, errors.New("manifest has no id array")
	}
	ids := make([]string, 0, int(res.Get("#").Int()))
	res.ForEach(func(_, v gjson.Result) bool {
		ids = append(ids, v.String())
		return true
	})
	return ids, nil
}

// LoadSecretAnswer reads the answer title of puzzle id.
func (p *Provider) LoadSecretAnswer(ctx context.Context, id string) (string, error) {
	raw, err := p.src.ReadFile(ctx, path.Join(PuzzleDir(id), AnswerFile))
	if err != nil {
		return "", fmt.Errorf("reading answer for %s: %w", id, err)
	}
	answer := strings.TrimSpace(string(raw))
	if answer == "" {
		return "", fmt.Errorf("answer for %s is empty", id)
	}
	return answer, nil
}

// Describe returns the evidence descriptors of every stage of puzzle id
// without touching the source.
func (p *Provider) Describe(v engine.Variant, id string) []engine.Evidence {
	ev := make([]engine.Evidence, v.Stages())
	for i, kind := range v.Kinds {
		var d time.Duration
		if len(v.Durations) == len(v.Kinds) {
			d = v.Durations[i]
		}
		files := StageFiles(kind, d)
		uris := make([]string, len(files))
		for j, f := range files {
			uris[j] = p.src.URL(path.Join(PuzzleDir(id), f))
		}
		ev[i] = engine.Evidence{Kind: kind, URIs: uris, Duration: d}
	}
	return ev
}

// LoadPuzzle reads the answer of id and builds its ladder for v.
func (p *Provider) LoadPuzzle(ctx context.Context, v engine.Variant, id string, rng *rand.Rand) (engine.Puzzle, error) {
	answer, err := p.LoadSecretAnswer(ctx, id)
	if err != nil {
		return engine.Puzzle{}, err
	}
	ladder, err := engine.NewLadder(v, p.Describe(v, id), rng)
	if err != nil {
		return engine.Puzzle{}, err
	}
	return engine.Puzzle{ID: id, Answer: answer, Ladder: ladder}, nil
}

// LoadEvidence checks that every file of stage (1-based) exists and returns
// its descriptor. Failures come back as *engine.EvidenceUnavailableError.
func (p *Provider) LoadEvidence(ctx context.Context, v engine.Variant, id string, stage int) (engine.Evidence, error) {
	all := p.Describe(v, id)
	if stage < 1 || stage > len(all) {
		return engine.Evidence{}, &engine.EvidenceUnavailableError{
			PuzzleID: id, Stage: stage, Err: fmt.Errorf("no stage %d", stage),
		}
	}
	ev := all[stage-1]
	var d time.Duration
	if len(v.Durations) == len(v.Kinds) {
		d = v.Durations[stage-1]
	}
	for _, f := range StageFiles(ev.Kind, d) {
		if err := p.src.Stat(ctx, path.Join(PuzzleDir(id), f)); err != nil {
			return engine.Evidence{}, &engine.EvidenceUnavailableError{PuzzleID: id, Stage: stage, Err: err}
		}
	}
	return ev, nil
}

// Prefetch loads every stage of puzzle id concurrently and resolves gate as
// each one finishes. Load failures are recorded in the gate; only ctx
// cancellation is returned.
func (p *Provider) Prefetch(ctx context.Context, v engine.Variant, id string, gate *engine.Gate) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for stage := 1; stage <= gate.Len(); stage++ {
		g.Go(func() error {
			if _, err := p.LoadEvidence(gctx, v, id, stage); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.logger.Warn("evidence unavailable", "puzzle", id, "stage", stage, "error", err)
				gate.MarkFailed(stage, err)
				return nil
			}
			gate.MarkReady(stage)
			return nil
		})
	}
	return g.Wait()
}

// PosterURL links the poster image of puzzle id.
func (p *Provider) PosterURL(id string) string {
	return p.src.URL(path.Join(PuzzleDir(id), PosterFile))
}
