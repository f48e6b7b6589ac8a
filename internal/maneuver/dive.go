package maneuver

import (
	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/script"
	"github.com/vovakirdan/scattershot/internal/sim"
)

const defaultSlideFrames = 20

// DiveSlide dives on a pause-buffered frame, waits for the dive slide and
// rolls out of it. Yaw offsets are relative to the facing yaw when each
// stick reading is resolved.
type DiveSlide struct {
	DiveYawOffset    core.Angle
	RolloutYawOffset core.Angle
	MaxSlideFrames   int
}

// Verify requires a walking player with enough speed to dive.
func (d DiveSlide) Verify(env *script.Env) bool {
	p := env.Player()
	return p.Action == sim.ActWalking && p.ForwardVel >= 2
}

// Execute presses B with START, spends the pause on neutral and START
// frames, then rolls out with B once the dive slide begins.
func (d DiveSlide) Execute(env *script.Env) (bool, error) {
	limit := d.MaxSlideFrames
	if limit <= 0 {
		limit = defaultSlideFrames
	}

	env.AdvanceStick(core.ButtonB|core.ButtonStart, env.Player().FaceYaw+d.DiveYawOffset, RunMag)
	if a := env.Player().Action; a != sim.ActDive && a != sim.ActDiveSlide {
		return false, nil
	}

	env.Advance(core.Input{})
	env.Advance(core.NewInput(core.ButtonStart, 0, 0))

	for i := 0; env.Player().Action == sim.ActDive; i++ {
		if i >= limit {
			return false, nil
		}
		env.Advance(core.Input{})
	}
	if env.Player().Action != sim.ActDiveSlide {
		return false, nil
	}

	env.AdvanceStick(core.ButtonB, env.Player().FaceYaw+d.RolloutYawOffset, RunMag)
	return env.Player().Action == sim.ActForwardRollout, nil
}

// Validate requires at least one written frame.
func (d DiveSlide) Validate(env *script.Env) bool {
	return env.Diff().Len() > 0
}
