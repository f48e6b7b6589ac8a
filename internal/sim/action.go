package sim

// Action is the character's movement action.
type Action int

const (
	ActIdle Action = iota
	ActWalking
	ActBraking
	ActTurningAround
	ActFinishTurningAround
	ActDive
	ActDiveSlide
	ActForwardRollout
	ActFreefall
	ActFreefallLand
	ActFreefallLandStop
	ActLavaBoost
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActIdle:
		return "idle"
	case ActWalking:
		return "walking"
	case ActBraking:
		return "braking"
	case ActTurningAround:
		return "turning_around"
	case ActFinishTurningAround:
		return "finish_turning_around"
	case ActDive:
		return "dive"
	case ActDiveSlide:
		return "dive_slide"
	case ActForwardRollout:
		return "forward_rollout"
	case ActFreefall:
		return "freefall"
	case ActFreefallLand:
		return "freefall_land"
	case ActFreefallLandStop:
		return "freefall_land_stop"
	case ActLavaBoost:
		return "lava_boost"
	default:
		return "unknown"
	}
}

// Airborne reports whether the action leaves the floor.
func (a Action) Airborne() bool {
	switch a {
	case ActDive, ActForwardRollout, ActFreefall, ActLavaBoost:
		return true
	}
	return false
}
