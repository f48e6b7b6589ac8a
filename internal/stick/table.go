// Package stick maps movement intents (a yaw and an intended magnitude) to the
// raw joystick readings that produce them.
//
// The simulation turns a stick reading into an intended magnitude and a yaw
// relative to the camera. Table inverts that transform for every reading a
// controller can produce; Resolver answers nearest-reading queries over it.
package stick

import (
	"math"
	"sort"
	"sync"

	"github.com/vovakirdan/scattershot/internal/core"
)

const (
	deadZone     = 8
	deadZoneStep = 6
	maxStickMag  = 64
)

// Reading is a raw joystick position.
type Reading struct {
	X, Y int8
}

// Entry is one magnitude key of a yaw bucket.
type Entry struct {
	Mag     float32
	Reading Reading
}

// Table maps a camera-relative base yaw to the readings reachable at that yaw,
// ordered by intended magnitude.
//
// A Table is populated once and read-only afterwards, so concurrent readers need
// no locking.
type Table struct {
	once   sync.Once
	byYaw  map[core.Angle][]Entry
	nEntry int
}

// NewTable returns an empty table. Call Populate before querying it.
func NewTable() *Table {
	return &Table{}
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the process-wide table, populating it on first use.
func Default() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewTable()
		defaultTable.Populate()
	})
	return defaultTable
}

// Intended applies the simulation's dead zone and clamp to a raw reading and
// returns the resulting intended magnitude and camera-relative base yaw.
// ok is false when the reading produces no movement.
func Intended(x, y int8) (mag float32, baseYaw core.Angle, ok bool) {
	adjX := adjustAxis(x)
	adjY := adjustAxis(y)

	stickMag := float32(math.Sqrt(float64(adjX*adjX + adjY*adjY)))
	if stickMag > maxStickMag {
		adjX *= maxStickMag / stickMag
		adjY *= maxStickMag / stickMag
		stickMag = maxStickMag
	}

	mag = (stickMag / maxStickMag) * (stickMag / maxStickMag) * maxStickMag
	mag /= 2
	if mag <= 0 {
		return 0, 0, false
	}
	return mag, core.Atan2s(-adjY, adjX), true
}

func adjustAxis(v int8) float32 {
	switch {
	case v <= -deadZone:
		return float32(v) + deadZoneStep
	case v >= deadZone:
		return float32(v) - deadZoneStep
	default:
		return 0
	}
}

// Populate sweeps every joystick coordinate and records the first reading found
// for each (base yaw, magnitude) pair. Calling it again is a no-op.
func (t *Table) Populate() {
	t.once.Do(t.populate)
}

func (t *Table) populate() {
	seen := make(map[core.Angle]map[float32]Reading)
	for x := -128; x <= 127; x++ {
		for y := -128; y <= 127; y++ {
			mag, yaw, ok := Intended(int8(x), int8(y))
			if !ok {
				continue
			}
			bucket, exists := seen[yaw]
			if !exists {
				bucket = make(map[float32]Reading)
				seen[yaw] = bucket
			}
			if _, dup := bucket[mag]; dup {
				continue
			}
			bucket[mag] = Reading{X: int8(x), Y: int8(y)}
		}
	}

	t.byYaw = make(map[core.Angle][]Entry, len(seen))
	for yaw, bucket := range seen {
		entries := make([]Entry, 0, len(bucket))
		for mag, r := range bucket {
			entries = append(entries, Entry{Mag: mag, Reading: r})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Mag < entries[j].Mag })
		t.byYaw[yaw] = entries
		t.nEntry += len(entries)
	}
}

// Len returns the number of (yaw, magnitude) keys recorded.
func (t *Table) Len() int {
	return t.nEntry
}

// Yaws returns the number of distinct base yaws recorded.
func (t *Table) Yaws() int {
	return len(t.byYaw)
}

// Bucket returns the entries recorded for a base yaw, ordered by magnitude.
// The returned slice must not be modified.
func (t *Table) Bucket(yaw core.Angle) []Entry {
	return t.byYaw[yaw]
}

// Lookup returns the reading recorded for an exact (yaw, magnitude) key.
func (t *Table) Lookup(yaw core.Angle, mag float32) (Reading, bool) {
	entries := t.byYaw[yaw]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Mag >= mag })
	if i < len(entries) && entries[i].Mag == mag {
		return entries[i].Reading, true
	}
	return Reading{}, false
}

// Equal reports whether two tables hold exactly the same keys and readings.
func (t *Table) Equal(other *Table) bool {
	if t.nEntry != other.nEntry || len(t.byYaw) != len(other.byYaw) {
		return false
	}
	for yaw, entries := range t.byYaw {
		theirs, ok := other.byYaw[yaw]
		if !ok || len(theirs) != len(entries) {
			return false
		}
		for i := range entries {
			if entries[i] != theirs[i] {
				return false
			}
		}
	}
	return true
}
