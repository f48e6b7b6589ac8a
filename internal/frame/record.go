// Package frame owns the input history of a simulation and moves the
// simulation through it: forward one frame at a time, or backward by
// restoring a checkpoint and replaying recorded inputs.
package frame

import (
	"maps"
	"slices"

	"github.com/vovakirdan/scattershot/internal/core"
)

// Record maps frame indices to the input applied on that frame.
// Gaps are allowed and read as neutral input.
type Record struct {
	inputs map[int64]core.Input
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{inputs: make(map[int64]core.Input)}
}

// Set stores the input for frame f, replacing any previous one.
func (r *Record) Set(f int64, in core.Input) {
	if f < 0 {
		return
	}
	r.inputs[f] = in
}

// Get returns the input recorded for frame f.
func (r *Record) Get(f int64) (core.Input, bool) {
	in, ok := r.inputs[f]
	return in, ok
}

// At returns the input for frame f, or the neutral input for a gap.
func (r *Record) At(f int64) core.Input {
	return r.inputs[f]
}

// Len returns the number of recorded frames.
func (r *Record) Len() int {
	return len(r.inputs)
}

// Empty reports whether no frame has been recorded.
func (r *Record) Empty() bool {
	return len(r.inputs) == 0
}

// Frames returns the recorded frame indices in ascending order.
func (r *Record) Frames() []int64 {
	var frames []int64
	for f := range r.inputs {
		frames = append(frames, f)
	}
	slices.Sort(frames)
	return frames
}

// First returns the lowest recorded frame index.
func (r *Record) First() (int64, bool) {
	if r.Empty() {
		return 0, false
	}
	first := int64(-1)
	for f := range r.inputs {
		if first < 0 || f < first {
			first = f
		}
	}
	return first, true
}

// Last returns the highest recorded frame index.
func (r *Record) Last() (int64, bool) {
	if r.Empty() {
		return 0, false
	}
	last := int64(-1)
	for f := range r.inputs {
		if f > last {
			last = f
		}
	}
	return last, true
}

// Slice returns a copy of the entries in [from, to).
func (r *Record) Slice(from, to int64) *Record {
	out := NewRecord()
	for f, in := range r.inputs {
		if f >= from && f < to {
			out.inputs[f] = in
		}
	}
	return out
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	return &Record{inputs: maps.Clone(r.inputs)}
}

// Equal reports whether both records hold the same entries.
func (r *Record) Equal(o *Record) bool {
	if o == nil {
		return r.Empty()
	}
	return maps.Equal(r.inputs, o.inputs)
}

// Inputs returns the inputs for frames [from, to), with gaps as neutral input.
func (r *Record) Inputs(from, to int64) []core.Input {
	if to <= from {
		return nil
	}
	out := make([]core.Input, 0, to-from)
	for f := from; f < to; f++ {
		out = append(out, r.inputs[f])
	}
	return out
}
