// Package variant loads game variant definitions from YAML.
package variant

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/filmiq/filmiq/internal/engine"
)

type file struct {
	Variants []item `yaml:"variants"`
}

type item struct {
	Name       string   `yaml:"name"`
	Mode       string   `yaml:"mode"`
	Points     []int    `yaml:"points"`
	Labels     []string `yaml:"labels"`
	Stages     []string `yaml:"stages"`
	Durations  []string `yaml:"durations"`
	Reveal     *reveal  `yaml:"reveal"`
	FiftyFifty bool     `yaml:"fifty_fifty"`
	Lives      int      `yaml:"lives"`
}

type reveal struct {
	Total      int   `yaml:"total"`
	Cumulative []int `yaml:"cumulative"`
}

// Parse decodes and validates a variants document. Every variant is
// checked with engine.Variant.Validate, so a malformed table fails here
// with an *engine.ConfigurationError rather than mid-game.
func Parse(r io.Reader) (map[string]engine.Variant, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("variants file is empty")
		}
		return nil, fmt.Errorf("decoding variants: %w", err)
	}
	if len(f.Variants) == 0 {
		return nil, fmt.Errorf("variants file defines no variants")
	}

	out := make(map[string]engine.Variant, len(f.Variants))
	for _, it := range f.Variants {
		v, err := it.toVariant()
		if err != nil {
			return nil, err
		}
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := out[v.Name]; dup {
			return nil, &engine.ConfigurationError{Variant: v.Name, Reason: "defined twice"}
		}
		out[v.Name] = v
	}
	return out, nil
}

func (it item) toVariant() (engine.Variant, error) {
	name := strings.TrimSpace(it.Name)
	v := engine.Variant{
		Name:       name,
		Mode:       engine.Mode(strings.ToLower(strings.TrimSpace(it.Mode))),
		Points:     it.Points,
		Labels:     it.Labels,
		FiftyFifty: it.FiftyFifty,
		Lives:      it.Lives,
	}
	if v.Mode == engine.ModeEndless && v.Lives == 0 {
		v.Lives = engine.DefaultLives
	}
	for _, s := range it.Stages {
		v.Kinds = append(v.Kinds, engine.EvidenceKind(strings.ToLower(strings.TrimSpace(s))))
	}
	for i, s := range it.Durations {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return engine.Variant{}, &engine.ConfigurationError{
				Variant: name,
				Reason:  fmt.Sprintf("stage %d duration %q: %v", i+1, s, err),
			}
		}
		v.Durations = append(v.Durations, d)
	}
	if it.Reveal != nil {
		v.Reveal = &engine.GridReveal{Total: it.Reveal.Total, Cumulative: it.Reveal.Cumulative}
	}
	return v, nil
}

// LoadFile reads variants from path.
func LoadFile(path string) (map[string]engine.Variant, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening variants file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Resolve returns the built-in variants overlaid with those in path. An
// empty path yields the built-ins.
func Resolve(path string) (map[string]engine.Variant, error) {
	out := engine.Builtin()
	if strings.TrimSpace(path) == "" {
		return out, nil
	}
	custom, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	maps.Copy(out, custom)
	return out, nil
}
