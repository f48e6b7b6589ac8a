package m64

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/vovakirdan/scattershot/internal/scattershot"
)

// Writer keeps the best recording of a search on disk. It implements
// scattershot.BestSink.
type Writer struct {
	path       string
	base       string
	startFrame int64

	mu      sync.Mutex
	written int
}

// NewWriter creates a writer for path. When base is not empty it is copied
// to path before the first write, so frames before startFrame come from it.
func NewWriter(path, base string, startFrame int64) *Writer {
	return &Writer{path: path, base: base, startFrame: startFrame}
}

// Path returns the output path.
func (w *Writer) Path() string {
	return w.path
}

// Written returns the number of recordings written.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// WriteBest writes the inputs of n and cuts the file after its last frame.
func (w *Writer) WriteBest(_ context.Context, n scattershot.Node) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written == 0 && w.base != "" && w.base != w.path {
		if err := Copy(w.path, w.base); err != nil {
			return err
		}
	} else if w.written == 0 && w.base == "" {
		if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: remove stale %s: %v", ErrIO, w.path, err)
		}
	}

	if err := Save(w.path, n.Record, w.startFrame); err != nil {
		return err
	}
	if err := Truncate(w.path, n.Frame); err != nil {
		return err
	}
	w.written++
	return nil
}
