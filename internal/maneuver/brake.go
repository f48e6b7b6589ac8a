package maneuver

import (
	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/script"
	"github.com/vovakirdan/scattershot/internal/sim"
)

const defaultBrakeFrames = 40

// BrakeToIdle releases the stick until the player stands still on the platform.
type BrakeToIdle struct {
	Platform  Platform
	MaxFrames int
}

// Verify requires the player on the platform in a grounded action.
func (b BrakeToIdle) Verify(env *script.Env) bool {
	if _, ok := b.Platform.Under(env); !ok {
		return false
	}
	return onGround(env.Player().Action)
}

// Execute advances neutral frames until the player is idle.
func (b BrakeToIdle) Execute(env *script.Env) (bool, error) {
	limit := b.MaxFrames
	if limit <= 0 {
		limit = defaultBrakeFrames
	}

	for i := 0; i < limit; i++ {
		if env.Player().Action == sim.ActIdle {
			script.Set(env.Status, BrakeFrames, i)
			return true, nil
		}
		env.Advance(core.Input{})
		if _, ok := b.Platform.Under(env); !ok {
			script.Set(env.Status, TooDownhill, true)
			return false, nil
		}
	}
	script.Set(env.Status, BrakeFrames, limit)
	return env.Player().Action == sim.ActIdle, nil
}

// Validate requires the player to be idle.
func (b BrakeToIdle) Validate(env *script.Env) bool {
	return env.Player().Action == sim.ActIdle
}
