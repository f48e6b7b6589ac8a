package frame

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/sim"
)

// DefaultMaxCheckpoints bounds the checkpoints a controller keeps.
const DefaultMaxCheckpoints = 256

var (
	// ErrCorruptHistory means a rollback target cannot be reached from any
	// checkpoint with the recorded inputs. It is not recoverable.
	ErrCorruptHistory = errors.New("frame: corrupt history")

	// ErrFutureFrame means a rollback target lies beyond the current frame.
	ErrFutureFrame = errors.New("frame: rollback target in the future")
)

// Controller advances a simulation and rolls it back through checkpoints.
// It is owned by a single goroutine.
type Controller struct {
	sim   sim.Simulation
	rec   *Record
	frame int64
	start int64

	checkpoints map[int64]sim.Checkpoint
	cpFrames    []int64 // sorted keys of checkpoints

	// MaxCheckpoints bounds stored checkpoints; the oldest one after the
	// start frame is evicted first. Zero means DefaultMaxCheckpoints.
	MaxCheckpoints int
}

// NewController wraps s, which must currently be at frame start, and takes
// the initial checkpoint.
func NewController(s sim.Simulation, start int64) *Controller {
	c := &Controller{
		sim:         s,
		rec:         NewRecord(),
		frame:       start,
		start:       start,
		checkpoints: make(map[int64]sim.Checkpoint),
	}
	c.Save()
	return c
}

// Sim returns the controlled simulation.
func (c *Controller) Sim() sim.Simulation {
	return c.sim
}

// Frame returns the index of the next frame to be written.
func (c *Controller) Frame() int64 {
	return c.frame
}

// StartFrame returns the frame of the initial checkpoint.
func (c *Controller) StartFrame() int64 {
	return c.start
}

// Input returns the input recorded for frame f, if f is before the current frame.
func (c *Controller) Input(f int64) (core.Input, bool) {
	if f >= c.frame {
		return core.Input{}, false
	}
	return c.rec.Get(f)
}

// Record returns a copy of the live history from the start frame up to the
// current frame. Superseded entries are not included.
func (c *Controller) Record() *Record {
	return c.rec.Slice(c.start, c.frame)
}

// Checkpoints returns the number of stored checkpoints.
func (c *Controller) Checkpoints() int {
	return len(c.checkpoints)
}

// Advance applies in for one frame and records it at the current frame.
func (c *Controller) Advance(in core.Input) {
	c.sim.Stage(in)
	c.sim.Step()
	c.rec.Set(c.frame, in)
	c.invalidateAfter(c.frame)
	c.frame++
}

// AdvanceN applies in for n frames.
func (c *Controller) AdvanceN(in core.Input, n int) {
	for i := 0; i < n; i++ {
		c.Advance(in)
	}
}

// Save checkpoints the current frame.
func (c *Controller) Save() {
	c.storeCheckpoint(c.frame, c.sim.Save())
}

// Rollback restores the simulation to the state at target by loading the
// nearest checkpoint at or before it and replaying recorded inputs.
// Recorded entries after target are kept until overwritten by Advance.
func (c *Controller) Rollback(target int64) error {
	if target > c.frame {
		return fmt.Errorf("%w: target %d, current %d", ErrFutureFrame, target, c.frame)
	}
	if target == c.frame {
		return nil
	}
	if target < c.start {
		return fmt.Errorf("%w: target %d before start frame %d", ErrCorruptHistory, target, c.start)
	}

	i, found := slices.BinarySearch(c.cpFrames, target)
	if !found {
		i--
	}
	if i < 0 {
		return fmt.Errorf("%w: no checkpoint at or before frame %d", ErrCorruptHistory, target)
	}
	from := c.cpFrames[i]
	if err := c.sim.Load(c.checkpoints[from]); err != nil {
		return fmt.Errorf("%w: load checkpoint %d: %v", ErrCorruptHistory, from, err)
	}
	c.frame = from

	for c.frame < target {
		in, ok := c.rec.Get(c.frame)
		if !ok {
			return fmt.Errorf("%w: no input recorded for frame %d (replaying %d..%d)",
				ErrCorruptHistory, c.frame, from, target)
		}
		c.sim.Stage(in)
		c.sim.Step()
		c.frame++
	}

	if from != target {
		c.Save()
	}
	return nil
}

// Seek moves the controller to frame upTo of rec. It rolls back to the first
// frame where rec diverges from the live history and advances through the
// remainder; gaps in rec are applied as neutral input.
func (c *Controller) Seek(rec *Record, upTo int64) error {
	if upTo < c.start {
		return fmt.Errorf("%w: seek target %d before start frame %d", ErrCorruptHistory, upTo, c.start)
	}

	diverge := c.start
	limit := min(c.frame, upTo)
	for diverge < limit {
		want, wok := rec.Get(diverge)
		have, hok := c.rec.Get(diverge)
		if wok != hok || want != have {
			break
		}
		diverge++
	}

	if err := c.Rollback(diverge); err != nil {
		return err
	}
	for c.frame < upTo {
		c.Advance(rec.At(c.frame))
	}
	return nil
}

func (c *Controller) storeCheckpoint(f int64, cp sim.Checkpoint) {
	if _, ok := c.checkpoints[f]; !ok {
		i, _ := slices.BinarySearch(c.cpFrames, f)
		c.cpFrames = slices.Insert(c.cpFrames, i, f)
	}
	c.checkpoints[f] = cp

	limit := c.MaxCheckpoints
	if limit <= 0 {
		limit = DefaultMaxCheckpoints
	}
	for len(c.cpFrames) > limit && len(c.cpFrames) > 1 {
		// cpFrames[0] is the start frame and is never evicted.
		evict := c.cpFrames[1]
		delete(c.checkpoints, evict)
		c.cpFrames = slices.Delete(c.cpFrames, 1, 2)
	}
}

// invalidateAfter drops checkpoints of frames after f, whose state depended
// on the input that was just overwritten.
func (c *Controller) invalidateAfter(f int64) {
	i, _ := slices.BinarySearch(c.cpFrames, f+1)
	for _, k := range c.cpFrames[i:] {
		delete(c.checkpoints, k)
	}
	c.cpFrames = c.cpFrames[:i]
}
