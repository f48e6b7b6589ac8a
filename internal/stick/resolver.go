package stick

import (
	"math"
	"sort"

	"github.com/vovakirdan/scattershot/internal/core"
)

// Direction selects which way the resolver walks HAU buckets when the bucket
// containing the requested yaw has no reading.
type Direction int

const (
	// DirectionAuto probes both sides alternately: 0, +1, -1, +2, -2, ...
	DirectionAuto Direction = iota
	// DirectionPositive probes increasing offsets only.
	DirectionPositive
	// DirectionNegative probes decreasing offsets only.
	DirectionNegative
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionAuto:
		return "auto"
	case DirectionPositive:
		return "positive"
	case DirectionNegative:
		return "negative"
	default:
		return "unknown"
	}
}

// ParseDirection converts "auto", "positive"/"+" or "negative"/"-".
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "", "auto", "0":
		return DirectionAuto, true
	case "positive", "+", "pos":
		return DirectionPositive, true
	case "negative", "-", "neg":
		return DirectionNegative, true
	}
	return DirectionAuto, false
}

// bucketCount is the number of HAU buckets in the angle space.
const bucketCount = 0x10000 / core.HAU

// Resolver answers closest-reading queries over a populated Table.
type Resolver struct {
	table *Table
}

// NewResolver creates a resolver over t, populating it if needed.
func NewResolver(t *Table) *Resolver {
	t.Populate()
	return &Resolver{table: t}
}

// DefaultResolver returns a resolver over the process-wide table.
func DefaultResolver() *Resolver {
	return &Resolver{table: Default()}
}

// Table returns the underlying table.
func (r *Resolver) Table() *Table {
	return r.table
}

// Resolve returns the stick-only input whose intended yaw falls in the same
// HAU as intendedYaw (after camera correction) and whose intended magnitude is
// closest to intendedMag. A zero magnitude resolves to the neutral stick.
func (r *Resolver) Resolve(intendedYaw core.Angle, intendedMag float32, cameraYaw core.Angle, dir Direction) core.Input {
	in, _ := r.Closest(intendedYaw, intendedMag, cameraYaw, dir)
	return in
}

// Closest is Resolve that also reports whether any bucket matched.
// A false result means the walk covered the whole angle space without a hit.
func (r *Resolver) Closest(intendedYaw core.Angle, intendedMag float32, cameraYaw core.Angle, dir Direction) (core.Input, bool) {
	if intendedMag == 0 {
		return core.Input{}, true
	}

	// intendedYaw = baseYaw + cameraYaw
	minIntended := intendedYaw - intendedYaw&(core.HAU-1)
	minBase := minIntended - cameraYaw

	s := search{mag: intendedMag, bestDist: float32(math.Inf(1))}

	offset := 0
	for probes := 0; probes <= bucketCount; probes++ {
		if s.scanBucket(r.table, minBase+core.Angle(core.HAU*offset)) {
			return s.exact, true
		}

		switch dir {
		case DirectionPositive:
			if s.found {
				return s.best, true
			}
			offset++
		case DirectionNegative:
			if s.found {
				return s.best, true
			}
			offset--
		default:
			// Once a side matches, the mirrored offset is still checked
			// before stopping.
			switch {
			case offset == 0:
				if s.found {
					return s.best, true
				}
				offset = 1
			case offset > 0:
				offset = -offset
			case s.found:
				return s.best, true
			default:
				offset = -offset + 1
			}
		}
	}
	return s.best, s.found
}

type search struct {
	mag      float32
	found    bool
	best     core.Input
	bestDist float32
	exact    core.Input
}

// scanBucket examines every base yaw of one HAU bucket. It returns true when an
// exact magnitude key was found; s.exact then holds its input.
func (s *search) scanBucket(t *Table, start core.Angle) bool {
	for i := 0; i < core.HAU; i++ {
		entries := t.byYaw[start+core.Angle(i)]
		if len(entries) == 0 {
			continue
		}
		s.found = true

		j := sort.Search(len(entries), func(k int) bool { return entries[k].Mag >= s.mag })
		if j < len(entries) && entries[j].Mag == s.mag {
			s.exact = entries[j].Reading.input()
			return true
		}

		var cand Entry
		var dist float32
		switch {
		case j == 0:
			cand, dist = entries[0], entries[0].Mag-s.mag
		case j == len(entries):
			cand, dist = entries[j-1], s.mag-entries[j-1].Mag
		default:
			lower, upper := entries[j-1], entries[j]
			lowerDist, upperDist := s.mag-lower.Mag, upper.Mag-s.mag
			if lowerDist <= upperDist {
				cand, dist = lower, lowerDist
			} else {
				cand, dist = upper, upperDist
			}
		}
		if dist < s.bestDist {
			s.bestDist = dist
			s.best = cand.Reading.input()
		}
	}
	return false
}

func (r Reading) input() core.Input {
	return core.Input{StickX: r.X, StickY: r.Y}
}
