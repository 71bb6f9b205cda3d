package engine

import (
	"context"
	"errors"
	"slices"
	"sync"
)

type loadState int

const (
	loadPending loadState = iota
	loadReady
	loadFailed
)

type stageLoad struct {
	state loadState
	err   error
	done  chan struct{}
}

// Gate tracks whether each stage's evidence has finished loading. Loaders
// resolve stages from any goroutine; the controller refuses to act on a stage
// until it is resolved.
type Gate struct {
	mu       sync.Mutex
	stages   []stageLoad
	watchers []func(stage int, err error)
}

// NewGate returns a gate with n pending stages.
func NewGate(n int) *Gate {
	g := &Gate{stages: make([]stageLoad, n)}
	for i := range g.stages {
		g.stages[i].done = make(chan struct{})
	}
	return g
}

// OpenGate returns a gate with n stages already ready.
func OpenGate(n int) *Gate {
	g := NewGate(n)
	for i := range n {
		g.MarkReady(i + 1)
	}
	return g
}

// Len is the number of stages the gate tracks.
func (g *Gate) Len() int { return len(g.stages) }

// MarkReady records that stage i finished loading. Only the first resolution
// of a stage counts.
func (g *Gate) MarkReady(i int) { g.resolve(i, loadReady, nil) }

// MarkFailed records that stage i could not be loaded.
func (g *Gate) MarkFailed(i int, err error) {
	if err == nil {
		err = errors.New("evidence failed to load")
	}
	g.resolve(i, loadFailed, err)
}

func (g *Gate) resolve(i int, state loadState, err error) {
	g.mu.Lock()
	if i < 1 || i > len(g.stages) || g.stages[i-1].state != loadPending {
		g.mu.Unlock()
		return
	}
	s := &g.stages[i-1]
	s.state, s.err = state, err
	close(s.done)
	watchers := slices.Clone(g.watchers)
	g.mu.Unlock()

	for _, fn := range watchers {
		fn(i, err)
	}
}

// Watch registers fn to be called whenever a stage is resolved.
func (g *Gate) Watch(fn func(stage int, err error)) {
	g.mu.Lock()
	g.watchers = append(g.watchers, fn)
	g.mu.Unlock()
}

// Ready reports whether stage i loaded successfully.
func (g *Gate) Ready(i int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return i >= 1 && i <= len(g.stages) && g.stages[i-1].state == loadReady
}

// Err returns the load error of stage i, ErrStageNotReady while it is
// pending, or nil once it is ready.
func (g *Gate) Err(i int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i < 1 || i > len(g.stages) {
		return ErrStageNotReady
	}
	switch s := g.stages[i-1]; s.state {
	case loadReady:
		return nil
	case loadFailed:
		return s.err
	default:
		return ErrStageNotReady
	}
}

// Wait blocks until stage i is resolved or ctx is done.
func (g *Gate) Wait(ctx context.Context, i int) error {
	g.mu.Lock()
	if i < 1 || i > len(g.stages) {
		g.mu.Unlock()
		return ErrStageNotReady
	}
	done := g.stages[i-1].done
	g.mu.Unlock()

	select {
	case <-done:
		return g.Err(i)
	case <-ctx.Done():
		return ctx.Err()
	}
}
