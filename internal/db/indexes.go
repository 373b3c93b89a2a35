package db

import (
	"context"
	"sync"
)

// IndexGuard runs an index build until it has succeeded once. Failed
// attempts are retried on the next call to Ensure.
type IndexGuard struct {
	mu    sync.Mutex
	done  bool
	build func(ctx context.Context) error
}

func NewIndexGuard(build func(ctx context.Context) error) *IndexGuard {
	return &IndexGuard{build: build}
}

// Ensure runs the build unless a previous call already succeeded.
func (g *IndexGuard) Ensure(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done {
		return nil
	}
	if err := g.build(ctx); err != nil {
		return err
	}
	g.done = true
	return nil
}
