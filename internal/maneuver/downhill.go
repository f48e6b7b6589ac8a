package maneuver

import (
	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/script"
	"github.com/vovakirdan/scattershot/internal/sim"
)

const (
	defaultDownhillFrames = 15
	maxTurnaroundFrames   = 60
)

// RunDownhill runs at full magnitude down the platform slope until speed
// stops increasing.
type RunDownhill struct {
	Platform Platform

	// RoughTargetAngle is used when the platform is too flat to have a
	// downhill direction.
	RoughTargetAngle core.Angle

	// IgnoreXzSum accepts runs that leave the platform less tilted than
	// they found it.
	IgnoreXzSum bool

	MaxFrames int
}

// Verify requires the player on the platform, walking or turning around.
func (r RunDownhill) Verify(env *script.Env) bool {
	if _, ok := r.Platform.Under(env); !ok {
		return false
	}
	switch env.Player().Action {
	case sim.ActIdle, sim.ActWalking, sim.ActTurningAround, sim.ActFinishTurningAround:
		return true
	}
	return false
}

// Execute runs downhill, recording the equilibrium point where speed first
// stops increasing.
func (r RunDownhill) Execute(env *script.Env) (bool, error) {
	limit := r.MaxFrames
	if limit <= 0 {
		limit = defaultDownhillFrames
	}

	obj, _ := r.Platform.Under(env)
	startXz := XzSum(obj)
	startSpeed := env.Player().ForwardVel
	prevSpeed := startSpeed
	maxSpeed := startSpeed

	for i := 0; i < limit; i++ {
		yaw := r.RoughTargetAngle
		if XzSum(obj) >= flatXzSum {
			yaw = DownhillYaw(obj)
		}
		env.AdvanceStick(0, yaw, RunMag)

		p := env.Player()
		var ok bool
		obj, ok = r.Platform.Under(env)
		if !ok || !onGround(p.Action) {
			script.Set(env.Status, TooDownhill, true)
			return false, nil
		}

		maxSpeed = max(maxSpeed, p.ForwardVel)
		if p.ForwardVel < prevSpeed && p.Action == sim.ActWalking {
			script.Set(env.Status, FramePassedEquilibriumPoint, env.Frame()-1)
			script.Set(env.Status, PassedEquilibriumSpeed, prevSpeed)
			break
		}
		prevSpeed = p.ForwardVel
	}

	finalXz := XzSum(obj)
	script.Set(env.Status, MaxSpeed, maxSpeed)
	script.Set(env.Status, FinalXzSum, finalXz)
	if maxSpeed <= startSpeed && env.Player().ForwardVel < startSpeed {
		script.Set(env.Status, TooUphill, true)
	}

	if !r.IgnoreXzSum && finalXz < startXz {
		return false, nil
	}
	return true, nil
}

// Validate requires at least one written frame.
func (r RunDownhill) Validate(env *script.Env) bool {
	return env.Diff().Len() > 0
}

// TurnAroundAndRunDownhill turns the player around on the platform and then
// runs downhill. A turnaround that collapses back into walking (double
// turnaround) is recovered by running one extra frame in the current direction.
type TurnAroundAndRunDownhill struct {
	Platform         Platform
	Brake            bool
	RoughTargetAngle core.Angle
	IgnoreXzSum      bool
}

// Verify requires the player walking on the platform at speed 16 or more.
func (t TurnAroundAndRunDownhill) Verify(env *script.Env) bool {
	if _, ok := t.Platform.Under(env); !ok {
		return false
	}
	p := env.Player()
	return p.ForwardVel >= 16 && p.Action == sim.ActWalking
}

// Execute performs the turnaround and the downhill run.
func (t TurnAroundAndRunDownhill) Execute(env *script.Env) (bool, error) {
	if t.Brake {
		res := env.Modify(BrakeToIdle{Platform: t.Platform})
		if res.Fatal() {
			return false, res.Err
		}
		if !res.Validated || !res.OK() {
			script.Set(env.Status, TooDownhill, env.Player().Action == sim.ActLavaBoost)
			return false, nil
		}
	} else {
		ok, err := t.turnAround(env)
		if !ok || err != nil {
			return false, err
		}
	}

	res := env.Modify(RunDownhill{
		Platform:         t.Platform,
		RoughTargetAngle: t.RoughTargetAngle,
		IgnoreXzSum:      t.IgnoreXzSum,
	})
	if res.Fatal() {
		return false, res.Err
	}

	script.Copy(env.Status, res.Status, FramePassedEquilibriumPoint)
	script.Copy(env.Status, res.Status, MaxSpeed)
	script.Copy(env.Status, res.Status, PassedEquilibriumSpeed)
	script.Copy(env.Status, res.Status, FinalXzSum)
	script.Copy(env.Status, res.Status, TooUphill)
	return true, nil
}

func (t TurnAroundAndRunDownhill) turnAround(env *script.Env) (bool, error) {
	for i := 0; ; i++ {
		if i >= maxTurnaroundFrames {
			return false, nil
		}
		env.AdvanceStick(0, env.Player().FaceYaw.Opposite(), RunMag)

		p := env.Player()
		if p.Action == sim.ActWalking && p.PrevAction == sim.ActTurningAround {
			script.Set(env.Status, FinishTurnaroundFailedToExpire, true)

			if err := env.Rollback(env.Frame() - 1); err != nil {
				return false, err
			}
			env.AdvanceStick(0, env.Player().FaceYaw, RunMag)
			if _, ok := t.Platform.Under(env); !ok || env.Player().Action != sim.ActWalking {
				return false, nil
			}
			env.AdvanceStick(0, env.Player().FaceYaw.Opposite(), RunMag)
			p = env.Player()
		}

		if p.Action != sim.ActTurningAround && p.Action != sim.ActFinishTurningAround {
			script.Set(env.Status, TooDownhill, p.Action == sim.ActLavaBoost)
			return false, nil
		}
		if _, ok := t.Platform.Under(env); !ok {
			script.Set(env.Status, TooDownhill, p.FloorObject < 0)
			return false, nil
		}
		if p.Action != sim.ActTurningAround {
			break
		}
	}

	// Hand the frame that finishes the turnaround to the downhill run.
	if err := env.Rollback(env.Frame() - 1); err != nil {
		return false, err
	}
	return true, nil
}

// Validate requires at least one written frame.
func (t TurnAroundAndRunDownhill) Validate(env *script.Env) bool {
	return env.Diff().Len() > 0
}
