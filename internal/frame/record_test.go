package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vovakirdan/scattershot/internal/core"
)

func TestRecordGapsReadNeutral(t *testing.T) {
	r := NewRecord()
	r.Set(2, core.NewInput(core.ButtonA, 1, 2))
	r.Set(5, core.NewInput(0, -3, 4))
	r.Set(-1, core.NewInput(core.ButtonB, 0, 0))

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (negative frames ignored)", r.Len())
	}
	want := []core.Input{
		{},
		core.NewInput(core.ButtonA, 1, 2),
		{},
		{},
		core.NewInput(0, -3, 4),
	}
	if diff := cmp.Diff(want, r.Inputs(1, 6)); diff != "" {
		t.Errorf("Inputs(1, 6) mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordBounds(t *testing.T) {
	r := NewRecord()
	if _, ok := r.First(); ok {
		t.Error("First() on empty record should report false")
	}
	for _, f := range []int64{9, 3, 7} {
		r.Set(f, core.NewInput(0, int8(f), 0))
	}

	first, _ := r.First()
	last, _ := r.Last()
	if first != 3 || last != 9 {
		t.Errorf("First/Last = %d/%d, want 3/9", first, last)
	}
	if diff := cmp.Diff([]int64{3, 7, 9}, r.Frames()); diff != "" {
		t.Errorf("Frames() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordSliceAndClone(t *testing.T) {
	r := NewRecord()
	for f := int64(0); f < 10; f++ {
		r.Set(f, core.NewInput(0, int8(f), 0))
	}

	s := r.Slice(3, 6)
	if diff := cmp.Diff([]int64{3, 4, 5}, s.Frames()); diff != "" {
		t.Errorf("Slice(3, 6) frames mismatch (-want +got):\n%s", diff)
	}

	c := r.Clone()
	c.Set(0, core.NewInput(core.ButtonZ, 0, 0))
	if r.At(0).Buttons != 0 {
		t.Error("Clone() shares storage with the original")
	}
	if r.Equal(c) {
		t.Error("Equal() should detect the modified entry")
	}
	if !r.Equal(r.Clone()) {
		t.Error("a record should equal its clone")
	}
}
