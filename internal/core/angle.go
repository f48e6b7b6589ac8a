package core

import "math"

// Angle is a 16-bit wrapping angle: 0x10000 units per full turn.
// Arithmetic wraps the same way the simulation's s16 angles do.
type Angle int16

const (
	// AngleHalfTurn is 180 degrees.
	AngleHalfTurn = 0x8000
	// AngleQuarterTurn is 90 degrees.
	AngleQuarterTurn Angle = 0x4000
	// HAU is the width of a heading angle unit bucket.
	HAU = 16
)

// Opposite returns the angle rotated by half a turn.
func (a Angle) Opposite() Angle {
	return Angle(uint16(a) + AngleHalfTurn)
}

// HAU returns the heading angle unit bucket containing a.
func (a Angle) HAU() int {
	return int(uint16(a)) / HAU
}

// Diff returns the signed shortest rotation from b to a.
func (a Angle) Diff(b Angle) Angle {
	return a - b
}

// Radians converts the angle to radians in (-pi, pi].
func (a Angle) Radians() float64 {
	return float64(a) * math.Pi / AngleHalfTurn
}

// Sin returns sin(a) as float32.
func (a Angle) Sin() float32 {
	return float32(math.Sin(a.Radians()))
}

// Cos returns cos(a) as float32.
func (a Angle) Cos() float32 {
	return float32(math.Cos(a.Radians()))
}

// arctanTable holds atan(i/1024) in angle units for i in [0, 1024].
var arctanTable = buildArctanTable()

func buildArctanTable() [1025]uint16 {
	var t [1025]uint16
	for i := range t {
		t[i] = uint16(math.Round(math.Atan(float64(i)/1024) * AngleHalfTurn / math.Pi))
	}
	return t
}

// atan2Lookup expects 0 <= y <= x.
func atan2Lookup(y, x float32) uint16 {
	if x == 0 {
		return arctanTable[0]
	}
	return arctanTable[int32(y/x*1024+0.5)]
}

// Atan2s returns the fixed-point angle of the vector (x, y) measured from the
// +y axis toward +x, using the simulation's octant-reduced lookup table.
// Results match the simulation bit for bit for float32 inputs.
func Atan2s(y, x float32) Angle {
	var ret uint16
	if x >= 0 {
		if y >= 0 {
			if y >= x {
				ret = atan2Lookup(x, y)
			} else {
				ret = 0x4000 - atan2Lookup(y, x)
			}
		} else {
			y = -y
			if y < x {
				ret = 0x4000 + atan2Lookup(y, x)
			} else {
				ret = 0x8000 - atan2Lookup(x, y)
			}
		}
	} else {
		x = -x
		if y < 0 {
			y = -y
			if y >= x {
				ret = 0x8000 + atan2Lookup(x, y)
			} else {
				ret = 0xC000 - atan2Lookup(y, x)
			}
		} else {
			if y < x {
				ret = 0xC000 + atan2Lookup(y, x)
			} else {
				ret = -atan2Lookup(x, y)
			}
		}
	}
	return Angle(ret)
}
