package frame

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/sim/pyramid"
)

func inputAt(i int) core.Input {
	switch {
	case i < 15:
		return core.NewInput(0, 0, 127)
	case i%7 == 0:
		return core.NewInput(core.ButtonB, 40, 90)
	default:
		return core.NewInput(0, int8(i*3), 100)
	}
}

func newController(t *testing.T) (*Controller, *pyramid.Sim) {
	t.Helper()
	s := pyramid.New()
	return NewController(s, 0), s
}

func TestAdvanceRecordsInputs(t *testing.T) {
	c, _ := newController(t)

	for i := 0; i < 10; i++ {
		c.Advance(inputAt(i))
	}

	if c.Frame() != 10 {
		t.Fatalf("Frame() = %d, want 10", c.Frame())
	}
	rec := c.Record()
	if rec.Len() != 10 {
		t.Fatalf("Record().Len() = %d, want 10", rec.Len())
	}
	for i := 0; i < 10; i++ {
		in, ok := c.Input(int64(i))
		if !ok || in != inputAt(i) {
			t.Errorf("Input(%d) = %v, %v; want %v", i, in, ok, inputAt(i))
		}
	}
	if _, ok := c.Input(10); ok {
		t.Error("Input(10) should not exist yet")
	}
}

func TestRollbackReplayIsDeterministic(t *testing.T) {
	c, s := newController(t)

	fingerprints := make(map[int64]any)
	for i := 0; i < 60; i++ {
		fingerprints[c.Frame()] = s.Fingerprint()
		c.Advance(inputAt(i))
	}
	fingerprints[c.Frame()] = s.Fingerprint()

	for _, target := range []int64{45, 12, 0, 30} {
		if err := c.Rollback(target); err != nil {
			t.Fatalf("Rollback(%d) failed: %v", target, err)
		}
		if c.Frame() != target {
			t.Fatalf("Frame() = %d after Rollback(%d)", c.Frame(), target)
		}
		if s.Fingerprint() != fingerprints[target] {
			t.Errorf("state at frame %d differs after rollback", target)
		}

		// Replaying the recorded inputs reproduces the original end state.
		for f := target; f < 60; f++ {
			in, _ := c.rec.Get(f)
			c.Advance(in)
		}
		if s.Fingerprint() != fingerprints[60] {
			t.Errorf("replay from %d diverged at frame 60", target)
		}
	}
}

func TestRollbackKeepsSupersededEntries(t *testing.T) {
	c, _ := newController(t)
	c.AdvanceN(core.NewInput(0, 0, 127), 20)

	if err := c.Rollback(10); err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}
	if _, ok := c.rec.Get(15); !ok {
		t.Error("entries after the rollback target should stay stored")
	}
	if got := c.Record().Len(); got != 10 {
		t.Errorf("Record().Len() = %d, want 10 live entries", got)
	}

	c.Advance(core.NewInput(core.ButtonB, 0, 0))
	in, _ := c.rec.Get(10)
	if in.Buttons != core.ButtonB {
		t.Errorf("Advance after rollback should overwrite frame 10, got %v", in)
	}
}

func TestRollbackErrors(t *testing.T) {
	s := pyramid.New()
	c := NewController(s, 5)
	c.AdvanceN(core.NewInput(0, 0, 127), 5)

	if err := c.Rollback(11); !errors.Is(err, ErrFutureFrame) {
		t.Errorf("Rollback(future) = %v, want ErrFutureFrame", err)
	}
	if err := c.Rollback(4); !errors.Is(err, ErrCorruptHistory) {
		t.Errorf("Rollback(before start) = %v, want ErrCorruptHistory", err)
	}
	if err := c.Rollback(10); err != nil {
		t.Errorf("Rollback(current) = %v, want nil", err)
	}

	// A hole in the history between the checkpoint and the target.
	delete(c.rec.inputs, 6)
	if err := c.Rollback(8); !errors.Is(err, ErrCorruptHistory) {
		t.Errorf("Rollback(across gap) = %v, want ErrCorruptHistory", err)
	}
}

func TestAdvanceInvalidatesLaterCheckpoints(t *testing.T) {
	c, s := newController(t)
	c.AdvanceN(core.NewInput(0, 0, 127), 10)
	c.Save()
	c.AdvanceN(core.NewInput(0, 0, 127), 10)
	c.Save()

	if err := c.Rollback(5); err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}
	c.Advance(core.NewInput(0, 127, 0))

	if _, ok := c.checkpoints[10]; ok {
		t.Error("checkpoint at 10 should be invalidated by writing frame 5")
	}
	if _, ok := c.checkpoints[20]; ok {
		t.Error("checkpoint at 20 should be invalidated by writing frame 5")
	}
	if _, ok := c.checkpoints[5]; !ok {
		t.Error("checkpoint at the rollback target should be kept")
	}

	// The new branch replays from its own history.
	c.AdvanceN(core.NewInput(0, 127, 0), 4)
	want := s.Fingerprint()
	if err := c.Rollback(7); err != nil {
		t.Fatalf("Rollback() failed: %v", err)
	}
	c.AdvanceN(core.NewInput(0, 127, 0), 3)
	if s.Fingerprint() != want {
		t.Error("replay on the new branch diverged")
	}
}

func TestCheckpointEviction(t *testing.T) {
	c, _ := newController(t)
	c.MaxCheckpoints = 3

	for i := 0; i < 5; i++ {
		c.AdvanceN(core.NewInput(0, 0, 127), 2)
		c.Save()
	}

	if c.Checkpoints() != 3 {
		t.Fatalf("Checkpoints() = %d, want 3", c.Checkpoints())
	}
	if _, ok := c.checkpoints[0]; !ok {
		t.Error("the start checkpoint must never be evicted")
	}
	if err := c.Rollback(1); err != nil {
		t.Errorf("Rollback() from the start checkpoint failed: %v", err)
	}
}

func TestSeekMatchesDirectRun(t *testing.T) {
	ref, refSim := newController(t)
	for i := 0; i < 40; i++ {
		ref.Advance(inputAt(i))
	}
	target := ref.Record()

	c, s := newController(t)
	for i := 0; i < 25; i++ {
		if i < 18 {
			c.Advance(inputAt(i))
		} else {
			c.Advance(core.NewInput(0, -100, -100))
		}
	}

	if err := c.Seek(target, 40); err != nil {
		t.Fatalf("Seek() failed: %v", err)
	}
	if c.Frame() != 40 {
		t.Fatalf("Frame() = %d after Seek, want 40", c.Frame())
	}
	if s.Fingerprint() != refSim.Fingerprint() {
		t.Error("Seek() did not reproduce the target state")
	}
	if diff := cmp.Diff(target.Inputs(0, 40), c.Record().Inputs(0, 40)); diff != "" {
		t.Errorf("record mismatch after Seek (-want +got):\n%s", diff)
	}
}

func TestSeekBackward(t *testing.T) {
	c, s := newController(t)
	for i := 0; i < 30; i++ {
		c.Advance(inputAt(i))
	}
	prefix := c.Record().Slice(0, 12)

	fresh, freshSim := newController(t)
	for i := 0; i < 12; i++ {
		fresh.Advance(inputAt(i))
	}

	if err := c.Seek(prefix, 12); err != nil {
		t.Fatalf("Seek() failed: %v", err)
	}
	if c.Frame() != 12 || s.Fingerprint() != freshSim.Fingerprint() {
		t.Error("Seek() to a shorter prefix did not restore its state")
	}
}
