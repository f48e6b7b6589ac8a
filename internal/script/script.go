// Package script runs bounded maneuvers against a frame controller.
//
// A Script has three phases applied in order: Verify checks a precondition
// without touching the simulation, Execute performs the maneuver and
// Validate checks the result. Scripts compose by running other scripts
// through Env.Modify, which rolls the controller back when the nested script
// does not succeed.
package script

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/frame"
	"github.com/vovakirdan/scattershot/internal/sim"
	"github.com/vovakirdan/scattershot/internal/stick"
)

var (
	// ErrPreconditionNotMet is reported when Verify rejects the current state.
	ErrPreconditionNotMet = errors.New("script: precondition not met")

	// ErrPostconditionFailed is reported when Validate rejects the result.
	ErrPostconditionFailed = errors.New("script: postcondition failed")
)

// Script is a maneuver with a precondition, an execution and a postcondition.
type Script interface {
	// Verify reports whether the maneuver can start. It must not mutate state.
	Verify(env *Env) bool

	// Execute performs the maneuver. A false result means it aborted midway;
	// an error is fatal and aborts the caller.
	Execute(env *Env) (bool, error)

	// Validate checks the postcondition after a successful execution.
	Validate(env *Env) bool
}

// Result reports the outcome of running a script.
type Result struct {
	Validated bool
	Executed  bool
	Asserted  bool
	Status    *Status
	Start     int64
	End       int64
	Err       error
}

// OK reports whether every phase succeeded.
func (r Result) OK() bool {
	return r.Validated && r.Executed && r.Asserted && r.Err == nil
}

// Fatal reports whether the result carries an error other than a failed
// precondition or postcondition.
func (r Result) Fatal() bool {
	return r.Err != nil &&
		!errors.Is(r.Err, ErrPreconditionNotMet) &&
		!errors.Is(r.Err, ErrPostconditionFailed)
}

// Env is the context a script runs in. Each run gets its own Env sharing the
// controller and resolver of its parent.
type Env struct {
	Frames   *frame.Controller
	Resolver *stick.Resolver
	Status   *Status

	start int64
}

// NewEnv creates a top-level environment.
func NewEnv(frames *frame.Controller, resolver *stick.Resolver) *Env {
	return &Env{
		Frames:   frames,
		Resolver: resolver,
		Status:   NewStatus(),
		start:    frames.Frame(),
	}
}

func (e *Env) child() *Env {
	return &Env{
		Frames:   e.Frames,
		Resolver: e.Resolver,
		Status:   NewStatus(),
		start:    e.Frames.Frame(),
	}
}

// Sim returns the simulation driven by the controller.
func (e *Env) Sim() sim.Simulation {
	return e.Frames.Sim()
}

// Player returns the current player state.
func (e *Env) Player() sim.PlayerState {
	return e.Frames.Sim().Player()
}

// Frame returns the current frame.
func (e *Env) Frame() int64 {
	return e.Frames.Frame()
}

// StartFrame returns the frame the script started at.
func (e *Env) StartFrame() int64 {
	return e.start
}

// Advance applies in for one frame.
func (e *Env) Advance(in core.Input) {
	e.Frames.Advance(in)
}

// AdvanceStick resolves the stick reading closest to yaw and mag relative to
// the current camera and applies it with buttons for one frame.
func (e *Env) AdvanceStick(buttons core.Buttons, yaw core.Angle, mag float32) core.Input {
	in := e.Resolver.Resolve(yaw, mag, e.Sim().CameraYaw(), stick.DirectionAuto)
	in = in.WithButtons(buttons)
	e.Frames.Advance(in)
	return in
}

// Rollback moves the controller back to frame f.
func (e *Env) Rollback(f int64) error {
	return e.Frames.Rollback(f)
}

// Diff returns the inputs written since the script started.
func (e *Env) Diff() *frame.Record {
	return e.Frames.Record().Slice(e.start, e.Frames.Frame())
}

// Run applies the phases of s in order. An aborted execution is not rolled
// back; use Modify for that.
func Run(env *Env, s Script) Result {
	child := env.child()
	res := Result{
		Status: child.Status,
		Start:  child.start,
		End:    child.start,
	}

	if !s.Verify(child) {
		res.Err = ErrPreconditionNotMet
		return res
	}
	res.Validated = true

	ok, err := s.Execute(child)
	res.End = env.Frames.Frame()
	if err != nil {
		res.Err = err
		return res
	}
	res.Executed = ok
	if !ok {
		return res
	}

	res.Asserted = s.Validate(child)
	if !res.Asserted {
		res.Err = ErrPostconditionFailed
	}
	return res
}

// Modify runs s and rolls the controller back to the frame it started at
// unless s succeeds.
func (e *Env) Modify(s Script) Result {
	res := Run(e, s)
	if res.OK() || res.Fatal() {
		return res
	}
	if err := e.Frames.Rollback(res.Start); err != nil {
		res.Err = errors.Join(res.Err, fmt.Errorf("script: restore frame %d: %w", res.Start, err))
		return res
	}
	res.End = res.Start
	return res
}

// ModifyFunc runs fn as an ad hoc script with the rollback guarantee of Modify.
func (e *Env) ModifyFunc(fn func(env *Env) (bool, error)) Result {
	return e.Modify(Func(fn))
}

// Func adapts a function to a Script with no precondition.
type Func func(env *Env) (bool, error)

// Verify always passes.
func (f Func) Verify(*Env) bool { return true }

// Execute calls f.
func (f Func) Execute(env *Env) (bool, error) { return f(env) }

// Validate always passes.
func (f Func) Validate(*Env) bool { return true }
