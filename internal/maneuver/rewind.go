package maneuver

import (
	"github.com/vovakirdan/scattershot/internal/script"
)

// Rewind rolls back a fraction of the frames written since the controller's
// start frame, up to half of them.
type Rewind struct {
	// Percent selects how much of the allowed rewind to use, 0 to 99.
	Percent int
}

// Verify always passes.
func (r Rewind) Verify(*script.Env) bool {
	return true
}

// Execute rolls back.
func (r Rewind) Execute(env *script.Env) (bool, error) {
	current := env.Frame()
	maxRewind := (current - env.Frames.StartFrame()) / 2
	n := int64(r.Percent%100) * maxRewind / 100
	if n < 0 {
		n = 0
	}
	script.Set(env.Status, RewoundFrames, n)
	if err := env.Rollback(current - n); err != nil {
		return false, err
	}
	return true, nil
}

// Validate always passes; a rewind may legitimately write nothing.
func (r Rewind) Validate(*script.Env) bool {
	return true
}
