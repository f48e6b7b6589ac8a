// Package sim defines the boundary between the search engine and the
// simulation it drives.
//
// The engine never reaches into simulation memory directly. A Simulation
// exposes typed accessors for the fields the search reads, a staging slot for
// the controller input and checkpoint primitives for rollback.
package sim

import (
	"github.com/vovakirdan/scattershot/internal/core"
)

// Simulation is a deterministic, single-owner simulation instance.
// Implementations are not safe for concurrent use; every search worker owns
// its own instance.
type Simulation interface {
	// ID returns the registry identifier of the simulation.
	ID() string

	// Stage writes the controller input consumed by the next Step.
	Stage(in core.Input)

	// Step advances exactly one frame using the staged input.
	Step()

	// Player returns a copy of the controlled character's state.
	Player() PlayerState

	// CameraYaw returns the camera yaw used to make stick input camera-relative.
	CameraYaw() core.Angle

	// Object returns a copy of the dynamic object in the given slot.
	Object(slot int) (ObjectState, bool)

	// Save captures the complete simulation state.
	Save() Checkpoint

	// Load restores a state captured by Save on the same instance type.
	Load(cp Checkpoint) error
}

// Checkpoint is an opaque snapshot produced by Simulation.Save.
// Only the simulation that created it knows its layout.
type Checkpoint any

// PlayerState is the subset of character state the search reads.
type PlayerState struct {
	Pos         [3]float32
	Vel         [3]float32
	ForwardVel  float32
	FaceYaw     core.Angle
	IntendedYaw core.Angle
	IntendedMag float32
	Action      Action
	PrevAction  Action
	FloorHeight float32
	FloorObject int // object slot of the floor, -1 when not standing on an object
}

// OnObject reports whether the player stands on the object in slot.
func (p PlayerState) OnObject(slot int) bool {
	return p.FloorObject >= 0 && p.FloorObject == slot
}

// Behavior identifies what kind of dynamic object occupies a slot.
type Behavior string

// Object parameter indices shared by simulations that model tilting platforms.
const (
	ParamNormalX = iota
	ParamNormalY
	ParamNormalZ
	NumParams = 8
)

// ObjectState is a copy of one dynamic object table entry.
type ObjectState struct {
	Behavior Behavior
	Pos      [3]float32
	Params   [NumParams]float32
}

// Param returns the float parameter at index i, or 0 when out of range.
func (o ObjectState) Param(i int) float32 {
	if i < 0 || i >= NumParams {
		return 0
	}
	return o.Params[i]
}
