// Package binning reduces simulation states to coarse comparable keys used to
// deduplicate the search frontier.
package binning

import (
	"fmt"
	"math"

	"github.com/vovakirdan/scattershot/internal/sim"
)

// Bin is a lossy key for a simulation state: three position cells and a
// composed scalar for everything else. Equal bins are treated as the same
// state.
type Bin struct {
	X, Y, Z uint8
	S       uint64
}

// String renders the bin as "x/y/z:s".
func (b Bin) String() string {
	return fmt.Sprintf("%d/%d/%d:%d", b.X, b.Y, b.Z, b.S)
}

// Binner classifies a simulation state. Implementations must be pure: the
// same state always yields the same bin.
type Binner interface {
	Bin(s sim.Simulation) Bin
}

// BinnerFunc adapts a function to a Binner.
type BinnerFunc func(s sim.Simulation) Bin

// Bin calls f.
func (f BinnerFunc) Bin(s sim.Simulation) Bin {
	return f(s)
}

// Composer packs digits into one integer with value = value*base + digit.
// Digits outside [0, base) are clamped so neighbouring fields never bleed
// into each other.
type Composer struct {
	value uint64
}

// Push appends digit in the given base.
func (c *Composer) Push(digit int64, base uint64) *Composer {
	if base == 0 {
		return c
	}
	d := uint64(0)
	switch {
	case digit <= 0:
	case uint64(digit) >= base:
		d = base - 1
	default:
		d = uint64(digit)
	}
	c.value = c.value*base + d
	return c
}

// Value returns the composed integer.
func (c *Composer) Value() uint64 {
	return c.value
}

// Digit returns floor(v * scale) as an integer digit.
func Digit(v, scale float32) int64 {
	return int64(math.Floor(float64(v * scale)))
}

// Cell returns floor((v + offset) / width) clamped to a byte.
func Cell(v, offset, width float32) uint8 {
	if width <= 0 {
		return 0
	}
	c := math.Floor(float64((v + offset) / width))
	switch {
	case c < 0:
		return 0
	case c > math.MaxUint8:
		return math.MaxUint8
	default:
		return uint8(c)
	}
}
