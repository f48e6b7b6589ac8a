package scattershot

import (
	"fmt"

	"github.com/vovakirdan/scattershot/internal/config"
	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/maneuver"
	"github.com/vovakirdan/scattershot/internal/script"
)

// axis is one categorical movement choice with its weights in a fixed order.
type axis struct {
	options []string
	weights []float64
}

func newAxis(weights map[string]float64, order ...string) axis {
	a := axis{options: order, weights: make([]float64, len(order))}
	for i, name := range order {
		a.weights[i] = weights[name]
	}
	return a
}

func (a axis) draw(r *RNG) string {
	i := r.Choose(a.weights)
	if i < 0 {
		return a.options[0]
	}
	return a.options[i]
}

// Movement draws and applies one random movement per call.
type Movement struct {
	magnitude axis
	yaw       axis
	buttons   axis
	script    axis
	platform  maneuver.Platform
}

// randomButtons are the buttons a random button draw may press.
var randomButtons = []core.Buttons{core.ButtonB, core.ButtonZ, core.ButtonCUp}

// NewMovement compiles the movement weights.
func NewMovement(w config.WeightsConfig, platform maneuver.Platform) *Movement {
	return &Movement{
		magnitude: newAxis(w.Magnitude, config.MagnitudeMax, config.MagnitudeZero, config.MagnitudeSame, config.MagnitudeRandom),
		yaw:       newAxis(w.Yaw, config.YawMatchFacing, config.YawAntiFacing, config.YawSame, config.YawRandom),
		buttons:   newAxis(w.Buttons, config.ButtonsSame, config.ButtonsNone, config.ButtonsRandom),
		script:    newAxis(w.Script, config.ScriptNone, config.ScriptDiveSlide, config.ScriptRunDownhill, config.ScriptTurnaround, config.ScriptRewind),
		platform:  platform,
	}
}

// Apply performs one movement at the controller's current frame. A script
// is tried first when one is drawn; if it fails, a single raw stick input is
// applied instead. Only fatal script errors are returned.
func (m *Movement) Apply(env *script.Env, r *RNG) error {
	mag := m.magnitude.draw(r)
	yaw := m.yaw.draw(r)
	buttons := m.buttons.draw(r)
	scr := m.script.draw(r)

	done, err := m.runScript(env, r, scr)
	if err != nil || done {
		return err
	}

	p := env.Player()

	var intendedMag float32
	switch mag {
	case config.MagnitudeMax:
		intendedMag = maneuver.RunMag
	case config.MagnitudeZero:
		intendedMag = 0
	case config.MagnitudeSame:
		intendedMag = p.IntendedMag
	case config.MagnitudeRandom:
		intendedMag = float32(r.Intn(1025)) / 32
	}

	var intendedYaw core.Angle
	switch yaw {
	case config.YawMatchFacing:
		intendedYaw = p.FaceYaw
	case config.YawAntiFacing:
		intendedYaw = p.FaceYaw.Opposite()
	case config.YawSame:
		intendedYaw = p.IntendedYaw
	case config.YawRandom:
		intendedYaw = core.Angle(uint16(r.Uint64()))
	}

	var pressed core.Buttons
	switch buttons {
	case config.ButtonsSame:
		if prev, ok := env.Frames.Input(env.Frame() - 1); ok {
			pressed = prev.Buttons
		}
	case config.ButtonsRandom:
		for _, b := range randomButtons {
			if r.Intn(2) == 1 {
				pressed |= b
			}
		}
	}
	// START is only pressed by scripts that manage the pause.
	pressed &^= core.ButtonStart

	env.AdvanceStick(pressed, intendedYaw, intendedMag)
	return nil
}

// runScript reports whether a drawn script succeeded and stands in for the
// raw input.
func (m *Movement) runScript(env *script.Env, r *RNG, name string) (bool, error) {
	var s script.Script
	face := env.Player().FaceYaw
	switch name {
	case config.ScriptRunDownhill:
		s = maneuver.RunDownhill{Platform: m.platform, RoughTargetAngle: face, IgnoreXzSum: true}
	case config.ScriptTurnaround:
		s = maneuver.TurnAroundAndRunDownhill{Platform: m.platform, RoughTargetAngle: face, IgnoreXzSum: true}
	case config.ScriptDiveSlide:
		s = maneuver.DiveSlide{
			DiveYawOffset:    core.Angle(r.Intn(0x8000) - 0x4000),
			RolloutYawOffset: core.Angle(r.Intn(0x8000) - 0x4000),
		}
	case config.ScriptRewind:
		s = maneuver.Rewind{Percent: r.Intn(100)}
	default:
		return false, nil
	}

	res := env.Modify(s)
	if res.Fatal() {
		return false, fmt.Errorf("script %s: %w", name, res.Err)
	}
	return res.OK(), nil
}
