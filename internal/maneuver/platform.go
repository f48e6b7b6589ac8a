// Package maneuver implements the scripts the search composes: braking,
// running downhill on a tilting platform, turning around, the pause-buffered
// dive slide and rewinding.
package maneuver

import (
	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/script"
	"github.com/vovakirdan/scattershot/internal/sim"
)

// RunMag is the largest intended magnitude a stick reading can produce.
const RunMag float32 = 32

// flatXzSum is the tilt below which a platform has no usable downhill direction.
const flatXzSum float32 = 0.01

// Platform identifies the tilting platform a maneuver runs on.
type Platform struct {
	Slot     int
	Behavior sim.Behavior
}

// BitFSPyramid is the tilting inverted pyramid in Bowser in the Fire Sea.
var BitFSPyramid = Platform{Slot: 84, Behavior: "bhvBitfsTiltingInvertedPyramid"}

// orDefault returns p, or BitFSPyramid when p is the zero value.
func (p Platform) orDefault() Platform {
	if p.Behavior == "" {
		return BitFSPyramid
	}
	return p
}

// Under returns the platform object when the player stands on it.
func (p Platform) Under(env *script.Env) (sim.ObjectState, bool) {
	p = p.orDefault()
	if !env.Player().OnObject(p.Slot) {
		return sim.ObjectState{}, false
	}
	obj, ok := env.Sim().Object(p.Slot)
	if !ok || obj.Behavior != p.Behavior {
		return sim.ObjectState{}, false
	}
	return obj, true
}

// XzSum returns |normal x| + |normal z| of a tilting platform.
func XzSum(obj sim.ObjectState) float32 {
	return abs32(obj.Param(sim.ParamNormalX)) + abs32(obj.Param(sim.ParamNormalZ))
}

// DownhillYaw returns the yaw pointing down the platform slope.
func DownhillYaw(obj sim.ObjectState) core.Angle {
	return core.Atan2s(obj.Param(sim.ParamNormalZ), obj.Param(sim.ParamNormalX))
}

// Status keys reported by the maneuvers.
var (
	TooDownhill                    = script.NewKey[bool]("tooDownhill")
	TooUphill                      = script.NewKey[bool]("tooUphill")
	FinishTurnaroundFailedToExpire = script.NewKey[bool]("finishTurnaroundFailedToExpire")
	MaxSpeed                       = script.NewKey[float32]("maxSpeed")
	FramePassedEquilibriumPoint    = script.NewKey[int64]("framePassedEquilibriumPoint")
	PassedEquilibriumSpeed         = script.NewKey[float32]("passedEquilibriumSpeed")
	FinalXzSum                     = script.NewKey[float32]("finalXzSum")
	BrakeFrames                    = script.NewKey[int]("brakeFrames")
	RewoundFrames                  = script.NewKey[int64]("rewoundFrames")
)

func onGround(a sim.Action) bool {
	switch a {
	case sim.ActIdle, sim.ActWalking, sim.ActBraking, sim.ActTurningAround, sim.ActFinishTurningAround:
		return true
	}
	return false
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
