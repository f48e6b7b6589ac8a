package tui

import (
	"context"
	"sync"

	"github.com/vovakirdan/scattershot/internal/scattershot"
)

// Feed keeps the most recent best nodes of a search for display.
// It implements scattershot.BestSink and is safe for concurrent use.
type Feed struct {
	mu    sync.Mutex
	nodes []scattershot.Node
	limit int
}

// NewFeed creates a feed holding up to limit nodes.
func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 50
	}
	return &Feed{limit: limit}
}

// WriteBest records n. It never fails.
func (f *Feed) WriteBest(_ context.Context, n scattershot.Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	n.Record = nil
	f.nodes = append(f.nodes, n)
	if len(f.nodes) > f.limit {
		f.nodes = f.nodes[len(f.nodes)-f.limit:]
	}
	return nil
}

// Recent returns the recorded nodes, newest first.
func (f *Feed) Recent() []scattershot.Node {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]scattershot.Node, len(f.nodes))
	for i, n := range f.nodes {
		out[len(f.nodes)-1-i] = n
	}
	return out
}
