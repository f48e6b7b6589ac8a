// Package bitfs defines the search target on the tilting inverted pyramid in
// Bowser in the Fire Sea: how states are binned, which states are worth
// keeping and how fit they are.
package bitfs

import (
	"math"

	"github.com/vovakirdan/scattershot/internal/binning"
	"github.com/vovakirdan/scattershot/internal/config"
	"github.com/vovakirdan/scattershot/internal/sim"
)

// modes lists the actions the binner distinguishes, in mode index order.
// Every other action shares the index len(modes).
var modes = []sim.Action{
	sim.ActBraking,
	sim.ActDive,
	sim.ActDiveSlide,
	sim.ActForwardRollout,
	sim.ActFreefallLandStop,
	sim.ActFreefall,
	sim.ActFreefallLand,
	sim.ActTurningAround,
	sim.ActFinishTurningAround,
	sim.ActWalking,
}

func modeIndex(a sim.Action) int64 {
	for i, m := range modes {
		if m == a {
			return int64(i)
		}
	}
	return int64(len(modes))
}

// Target bins, validates and scores states against a region of interest.
type Target struct {
	region config.Region
}

// New creates a target for region.
func New(region config.Region) *Target {
	return &Target{region: region}
}

// Region returns the region of interest.
func (t *Target) Region() config.Region {
	return t.region
}

func (t *Target) platform(s sim.Simulation) (sim.ObjectState, bool) {
	obj, ok := s.Object(t.region.PlatformSlot)
	if !ok || string(obj.Behavior) != t.region.PlatformBehavior {
		return sim.ObjectState{}, false
	}
	return obj, true
}

// Bin implements binning.Binner. States are first split by action mode and
// vertical speed. Outside the target normal envelope, normals, speed and
// facing are folded into coarse cells; inside it, into fine cells.
func (t *Target) Bin(s sim.Simulation) binning.Bin {
	r := t.region
	p := s.Player()
	obj, _ := t.platform(s)
	nx := obj.Param(sim.ParamNormalX)
	ny := obj.Param(sim.ParamNormalY)
	nz := obj.Param(sim.ParamNormalZ)
	face := int64(uint16(p.FaceYaw))

	var c binning.Composer
	c.Push(modeIndex(p.Action), uint64(len(modes)+1))
	c.Push(binning.Digit(40-p.Vel[1], 0.25), 30)

	if !t.inTargetEnvelope(nx, nz) {
		c.Push(binning.Digit(nx+1, 7), 14)
		c.Push(binning.Digit(nz+1, 7), 14)
		c.Push(binning.Digit(p.ForwardVel+20, 1.0/8), 16)
		c.Push(face/0x4000, 4)
		c.Push(1, 2)
		return binning.Bin{
			X: binning.Cell(p.Pos[0], r.OriginX, r.CoarseCell.X),
			Y: binning.Cell(p.Pos[1], r.OriginY, r.CoarseCell.Y),
			Z: binning.Cell(p.Pos[2], r.OriginZ, r.CoarseCell.Z),
			S: c.Value(),
		}
	}

	xzSum := abs32(nx) + abs32(nz)
	c.Push(binning.Digit(nx+1, 100), 200)
	c.Push(binning.Digit(xzSum-r.NormRegimeMin, 100), 10)
	c.Push(binning.Digit(ny-0.7, 100), 30)
	c.Push(binning.Digit(p.ForwardVel+20, 1), 100)
	c.Push(face/0x1000, 16)
	c.Push(0, 2)
	return binning.Bin{
		X: binning.Cell(p.Pos[0], r.OriginX, r.FineCell.X),
		Y: binning.Cell(p.Pos[1], r.OriginY, r.FineCell.Y),
		Z: binning.Cell(p.Pos[2], r.OriginZ, r.FineCell.Z),
		S: c.Value(),
	}
}

// inTargetEnvelope reports whether both normals sit on the 0.01 lattice
// through the target normal and the platform is tilted enough.
func (t *Target) inTargetEnvelope(nx, nz float32) bool {
	r := t.region
	if abs32(nx)+abs32(nz) < r.NormRegimeMin {
		return false
	}
	return onLattice(nx-r.TargetNormalX) && onLattice(nz-r.TargetNormalZ)
}

func onLattice(delta float32) bool {
	scaled := float64(delta) * 100
	rem := scaled - math.Floor(scaled)
	return rem <= 0.001 || rem >= 0.999
}

// Valid reports whether a state is worth keeping in the frontier.
func (t *Target) Valid(s sim.Simulation) bool {
	r := t.region
	p := s.Player()

	if p.Pos[0] < r.MinX || p.Pos[0] > r.MaxX {
		return false
	}
	if p.Pos[2] < r.MinZ || p.Pos[2] > r.MaxZ {
		return false
	}
	if p.Pos[1] > r.MaxY {
		return false
	}

	obj, ok := t.platform(s)
	if !ok {
		return false
	}
	// Stay in the desired quadrant.
	if obj.Param(sim.ParamNormalZ) < r.MinNormalZ || obj.Param(sim.ParamNormalX) > r.MaxNormalX {
		return false
	}

	if modeIndex(p.Action) == int64(len(modes)) {
		return false
	}
	if p.Action == sim.ActFreefall && p.Vel[1] > r.MinFreefallVelY {
		return false
	}

	overLava := p.FloorHeight <= r.LavaHeight
	if overLava && p.Action != sim.ActFreefall {
		return false
	}
	if !overLava && p.Pos[1] > p.FloorHeight+r.MaxHeightAboveFloor {
		return false
	}
	return true
}

// Fitness scores a state; higher is better.
func (t *Target) Fitness(s sim.Simulation) float64 {
	obj, ok := t.platform(s)
	if !ok {
		return math.Inf(-1)
	}
	switch t.region.Fitness {
	case config.FitnessNormalY:
		return float64(obj.Param(sim.ParamNormalY))
	default:
		return float64(abs32(obj.Param(sim.ParamNormalX)) + abs32(obj.Param(sim.ParamNormalZ)))
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
