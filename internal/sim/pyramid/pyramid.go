// Package pyramid is a small deterministic reference simulation: a character
// running on a tilting inverted pyramid platform suspended over lava.
//
// It models just enough movement (walking, braking, turnarounds, dives, dive
// slides, rollouts and falls) for the search engine, its scripts and its tests
// to exercise every code path against a real, replayable simulation.
package pyramid

import (
	"errors"
	"math"

	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/registry"
	"github.com/vovakirdan/scattershot/internal/sim"
	"github.com/vovakirdan/scattershot/internal/stick"
)

// ID is the registry identifier of this simulation.
const ID = "pyramid"

// Geometry of the level. Coordinates follow the simulation convention:
// y is up, yaw 0 faces +z and yaw 0x4000 faces +x.
const (
	PyramidSlot     = 84
	PyramidBehavior = sim.Behavior("bhvBitfsTiltingInvertedPyramid")

	CenterX    float32 = -1940
	CenterY    float32 = -2750
	CenterZ    float32 = -695
	HalfExtent float32 = 300
	LavaHeight float32 = -3071

	cameraX float32 = -1940
	cameraZ float32 = 400

	gravity        float32 = 4
	maxFallSpeed   float32 = -75
	normalStep     float32 = 0.01
	maxTilt        float32 = 0.45
	tiltDistance   float32 = 600
	slopeAccel     float32 = 4
	turnaroundYaw          = 0x471C
	faceTurnRate           = 0x800
	maxGroundSpeed float32 = 48
)

// ErrForeignCheckpoint is returned by Load for checkpoints it did not create.
var ErrForeignCheckpoint = errors.New("pyramid: checkpoint from another simulation")

type player struct {
	pos         [3]float32
	velY        float32
	forwardVel  float32
	faceYaw     core.Angle
	intendedYaw core.Angle
	intendedMag float32
	action      sim.Action
	prevAction  sim.Action
	prevButtons core.Buttons
}

type platform struct {
	normalX, normalZ float32
}

// state is the complete simulation state. It is a plain value so that a copy
// is a checkpoint.
type state struct {
	frame    int64
	paused   bool
	player   player
	platform platform
	staged   core.Input
}

// Sim is the pyramid simulation.
type Sim struct {
	st state
}

// New creates a simulation in its initial state.
func New() *Sim {
	s := &Sim{}
	s.st.player = player{
		pos:     [3]float32{CenterX, CenterY, CenterZ + 150},
		faceYaw: -0x8000,
		action:  sim.ActIdle,
	}
	s.st.player.pos[1] = s.floorHeight(s.st.player.pos[0], s.st.player.pos[2])
	return s
}

func init() {
	registry.Register(ID, "BitFS tilting pyramid", func() sim.Simulation {
		return New()
	})
}

// ID returns the registry identifier.
func (s *Sim) ID() string {
	return ID
}

// Frame returns the number of frames stepped since creation.
func (s *Sim) Frame() int64 {
	return s.st.frame
}

// Stage sets the input consumed by the next Step.
func (s *Sim) Stage(in core.Input) {
	s.st.staged = in
}

// Save returns a copy of the full state.
func (s *Sim) Save() sim.Checkpoint {
	return s.st
}

// Load restores a checkpoint created by Save.
func (s *Sim) Load(cp sim.Checkpoint) error {
	st, ok := cp.(state)
	if !ok {
		return ErrForeignCheckpoint
	}
	s.st = st
	return nil
}

// Fingerprint returns a comparable copy of the state for equality checks.
func (s *Sim) Fingerprint() any {
	return s.st
}

// CameraYaw returns the yaw from the fixed camera toward the player.
func (s *Sim) CameraYaw() core.Angle {
	p := s.st.player.pos
	return core.Atan2s(p[2]-cameraZ, p[0]-cameraX)
}

// Player returns a copy of the player state.
func (s *Sim) Player() sim.PlayerState {
	p := s.st.player
	floorObj := -1
	floor := LavaHeight
	if s.overPlatform(p.pos[0], p.pos[2]) {
		floorObj = PyramidSlot
		floor = s.floorHeight(p.pos[0], p.pos[2])
	}
	return sim.PlayerState{
		Pos:         p.pos,
		Vel:         [3]float32{p.faceYaw.Sin() * p.forwardVel, p.velY, p.faceYaw.Cos() * p.forwardVel},
		ForwardVel:  p.forwardVel,
		FaceYaw:     p.faceYaw,
		IntendedYaw: p.intendedYaw,
		IntendedMag: p.intendedMag,
		Action:      p.action,
		PrevAction:  p.prevAction,
		FloorHeight: floor,
		FloorObject: floorObj,
	}
}

// Object returns the pyramid platform; every other slot is empty.
func (s *Sim) Object(slot int) (sim.ObjectState, bool) {
	if slot != PyramidSlot {
		return sim.ObjectState{}, false
	}
	o := sim.ObjectState{
		Behavior: PyramidBehavior,
		Pos:      [3]float32{CenterX, CenterY, CenterZ},
	}
	o.Params[sim.ParamNormalX] = s.st.platform.normalX
	o.Params[sim.ParamNormalY] = s.normalY()
	o.Params[sim.ParamNormalZ] = s.st.platform.normalZ
	return o, true
}

func (s *Sim) normalY() float32 {
	n := s.st.platform
	return float32(math.Sqrt(float64(1 - n.normalX*n.normalX - n.normalZ*n.normalZ)))
}

func (s *Sim) overPlatform(x, z float32) bool {
	return x >= CenterX-HalfExtent && x <= CenterX+HalfExtent &&
		z >= CenterZ-HalfExtent && z <= CenterZ+HalfExtent
}

// floorHeight returns the height of the tilted platform plane at (x, z).
func (s *Sim) floorHeight(x, z float32) float32 {
	n := s.st.platform
	return CenterY - (n.normalX*(x-CenterX)+n.normalZ*(z-CenterZ))/s.normalY()
}

// Paused reports whether the game is paused.
func (s *Sim) Paused() bool {
	return s.st.paused
}

// Step advances one frame. Pressing START runs the frame and pauses the game;
// pressing it again while paused resumes on the following frame. Paused
// frames do not run object or player logic.
func (s *Sim) Step() {
	in := s.st.staged
	s.st.frame++
	startPressed := in.Buttons.Has(core.ButtonStart) && !s.st.player.prevButtons.Has(core.ButtonStart)

	if s.st.paused {
		if startPressed {
			s.st.paused = false
		}
		s.st.player.prevButtons = in.Buttons
		return
	}

	s.stepPlayer(in)
	s.stepPlatform()
	if startPressed {
		s.st.paused = true
	}
	s.st.player.prevButtons = in.Buttons
}

func (s *Sim) stepPlatform() {
	p := s.st.player
	var tx, tz float32
	if !p.action.Airborne() && s.overPlatform(p.pos[0], p.pos[2]) {
		tx = clamp((p.pos[0]-CenterX)/tiltDistance, -maxTilt, maxTilt)
		tz = clamp((p.pos[2]-CenterZ)/tiltDistance, -maxTilt, maxTilt)
	}
	s.st.platform.normalX = approach(s.st.platform.normalX, tx, normalStep)
	s.st.platform.normalZ = approach(s.st.platform.normalZ, tz, normalStep)
}

func (s *Sim) stepPlayer(in core.Input) {
	p := &s.st.player
	mag, baseYaw, moving := stick.Intended(in.StickX, in.StickY)
	if moving {
		p.intendedYaw = baseYaw + s.CameraYaw()
		p.intendedMag = mag
	} else {
		p.intendedMag = 0
	}
	pressedB := in.Buttons.Has(core.ButtonB) && !p.prevButtons.Has(core.ButtonB)

	switch p.action {
	case sim.ActIdle:
		if p.intendedMag > 0 {
			p.faceYaw = p.intendedYaw
			s.setAction(sim.ActWalking)
		}
	case sim.ActWalking:
		s.stepWalking(pressedB)
	case sim.ActBraking:
		p.forwardVel = approach(p.forwardVel+s.slope(), 0, 4)
		if p.forwardVel <= 0 {
			p.forwardVel = 0
			s.setAction(sim.ActIdle)
		}
		s.moveOnGround()
	case sim.ActTurningAround:
		switch {
		case p.intendedMag == 0:
			s.setAction(sim.ActBraking)
		case absAngle(p.intendedYaw-p.faceYaw) < 0x4000:
			s.setAction(sim.ActWalking)
		default:
			p.forwardVel += s.slope() - 4
			if p.forwardVel <= 0 {
				p.forwardVel = 8
				p.faceYaw = p.faceYaw.Opposite()
				s.setAction(sim.ActFinishTurningAround)
			}
		}
		s.moveOnGround()
	case sim.ActFinishTurningAround:
		s.setAction(sim.ActWalking)
		s.moveOnGround()
	case sim.ActDive:
		s.moveInAir(sim.ActDiveSlide)
	case sim.ActDiveSlide:
		if pressedB {
			p.velY = 30
			s.setAction(sim.ActForwardRollout)
			s.moveInAir(sim.ActFreefallLand)
			return
		}
		p.forwardVel = approach(p.forwardVel+s.slope(), 0, 1)
		if p.forwardVel == 0 {
			s.setAction(sim.ActIdle)
		}
		s.moveOnGround()
	case sim.ActForwardRollout, sim.ActFreefall:
		s.moveInAir(sim.ActFreefallLand)
	case sim.ActFreefallLand:
		s.setAction(sim.ActFreefallLandStop)
		s.moveOnGround()
	case sim.ActFreefallLandStop:
		p.forwardVel = approach(p.forwardVel, 0, 2)
		if p.intendedMag > 0 && p.forwardVel == 0 {
			p.faceYaw = p.intendedYaw
			s.setAction(sim.ActWalking)
		} else if p.forwardVel == 0 {
			s.setAction(sim.ActIdle)
		}
		s.moveOnGround()
	case sim.ActLavaBoost:
		p.velY = maxf(p.velY-gravity, maxFallSpeed)
		p.pos[1] = maxf(p.pos[1]+p.velY, LavaHeight)
	}
}

func (s *Sim) stepWalking(pressedB bool) {
	p := &s.st.player
	switch {
	case pressedB && p.forwardVel >= 2:
		p.forwardVel = minf(p.forwardVel+15, maxGroundSpeed)
		p.velY = 12
		s.setAction(sim.ActDive)
		s.moveInAir(sim.ActDiveSlide)
		return
	case p.intendedMag == 0:
		s.setAction(sim.ActBraking)
	case p.forwardVel >= 16 && absAngle(p.intendedYaw-p.faceYaw) > turnaroundYaw:
		s.setAction(sim.ActTurningAround)
	default:
		if p.forwardVel < p.intendedMag {
			p.forwardVel += 1.1 - p.forwardVel/43
		} else {
			p.forwardVel -= 1
		}
		p.faceYaw = approachAngle(p.faceYaw, p.intendedYaw, faceTurnRate)
	}
	p.forwardVel = clamp(p.forwardVel+s.slope(), 0, maxGroundSpeed)
	s.moveOnGround()
}

// slope returns the acceleration gained moving along the facing direction.
func (s *Sim) slope() float32 {
	p := s.st.player
	n := s.st.platform
	return (n.normalX*p.faceYaw.Sin() + n.normalZ*p.faceYaw.Cos()) * slopeAccel
}

func (s *Sim) moveOnGround() {
	p := &s.st.player
	p.pos[0] += p.faceYaw.Sin() * p.forwardVel
	p.pos[2] += p.faceYaw.Cos() * p.forwardVel
	if !s.overPlatform(p.pos[0], p.pos[2]) {
		p.velY = 0
		s.setAction(sim.ActFreefall)
		return
	}
	p.pos[1] = s.floorHeight(p.pos[0], p.pos[2])
	p.velY = 0
}

func (s *Sim) moveInAir(landing sim.Action) {
	p := &s.st.player
	p.pos[0] += p.faceYaw.Sin() * p.forwardVel
	p.pos[2] += p.faceYaw.Cos() * p.forwardVel
	p.pos[1] += p.velY
	p.velY = maxf(p.velY-gravity, maxFallSpeed)

	if s.overPlatform(p.pos[0], p.pos[2]) {
		floor := s.floorHeight(p.pos[0], p.pos[2])
		if p.pos[1] <= floor {
			p.pos[1] = floor
			p.velY = 0
			s.setAction(landing)
		}
		return
	}
	if p.pos[1] <= LavaHeight {
		p.pos[1] = LavaHeight
		p.velY = 84
		p.forwardVel = 0
		s.setAction(sim.ActLavaBoost)
	}
}

func (s *Sim) setAction(a sim.Action) {
	p := &s.st.player
	p.prevAction = p.action
	p.action = a
}

func approach(cur, target, step float32) float32 {
	if cur < target {
		return minf(cur+step, target)
	}
	return maxf(cur-step, target)
}

func approachAngle(cur, target core.Angle, step int) core.Angle {
	d := int(target - cur)
	switch {
	case d > step:
		return cur + core.Angle(step)
	case d < -step:
		return cur - core.Angle(step)
	default:
		return target
	}
}

func absAngle(a core.Angle) int {
	if a < 0 {
		return -int(a)
	}
	return int(a)
}

func clamp(v, lo, hi float32) float32 {
	return maxf(lo, minf(hi, v))
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
