// Package config provides YAML-based search configuration loading and
// preset management for scattershot.
package config

import (
	"errors"
	"fmt"
)

// Config contains all configuration for a search run.
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Weights WeightsConfig `yaml:"weights"`
	Region  Region        `yaml:"region"`
	Output  OutputConfig  `yaml:"output"`
}

// SearchConfig defines the engine budget and behavior.
type SearchConfig struct {
	Sim            string `yaml:"sim"`             // registry ID of the simulation
	StartFrame     int64  `yaml:"start_frame"`     // frame of the initial checkpoint
	Workers        int    `yaml:"workers"`         // concurrent workers, each with its own simulation
	Seed           uint64 `yaml:"seed"`            // RNG seed; 0 picks one from the clock
	Iterations     int64  `yaml:"iterations"`      // total movement budget across workers
	MaxFrames      int64  `yaml:"max_frames"`      // nodes this far past the start are not extended
	SegmentLength  int    `yaml:"segment_length"`  // movements applied per frontier selection
	Policy         Policy `yaml:"policy"`          // frontier acceptance policy
	MaxCheckpoints int    `yaml:"max_checkpoints"` // per-worker checkpoint bound
}

// Policy decides what happens when a valid state lands in an occupied bin.
type Policy string

const (
	// PolicyKeepFirst keeps the first node found for each bin.
	PolicyKeepFirst Policy = "keep-first"
	// PolicyReplaceBetter replaces the occupant when the newcomer is strictly fitter.
	PolicyReplaceBetter Policy = "replace-better"
)

// WeightsConfig holds the categorical weights for each movement axis.
// Keys name options; see the Magnitude*, Yaw*, Buttons* and Script* constants.
type WeightsConfig struct {
	Magnitude map[string]float64 `yaml:"magnitude"`
	Yaw       map[string]float64 `yaml:"yaw"`
	Buttons   map[string]float64 `yaml:"buttons"`
	Script    map[string]float64 `yaml:"script"`
}

// Movement option names.
const (
	MagnitudeMax    = "max"
	MagnitudeZero   = "zero"
	MagnitudeSame   = "same"
	MagnitudeRandom = "random"

	YawMatchFacing = "match_facing"
	YawAntiFacing  = "anti_facing"
	YawSame        = "same"
	YawRandom      = "random"

	ButtonsSame   = "same"
	ButtonsNone   = "none"
	ButtonsRandom = "random"

	ScriptNone        = "none"
	ScriptDiveSlide   = "dive_slide"
	ScriptRunDownhill = "run_downhill"
	ScriptTurnaround  = "turnaround"
	ScriptRewind      = "rewind"
)

// Region holds the region-of-interest constants used by binning, validity
// and fitness for the tilting pyramid target.
type Region struct {
	PlatformSlot     int    `yaml:"platform_slot"`
	PlatformBehavior string `yaml:"platform_behavior"`

	MinX float32 `yaml:"min_x"`
	MaxX float32 `yaml:"max_x"`
	MinZ float32 `yaml:"min_z"`
	MaxZ float32 `yaml:"max_z"`
	MaxY float32 `yaml:"max_y"`

	// Cell origins are added to positions before dividing by the cell size.
	OriginX float32 `yaml:"origin_x"`
	OriginY float32 `yaml:"origin_y"`
	OriginZ float32 `yaml:"origin_z"`

	CoarseCell Cells `yaml:"coarse_cell"`
	FineCell   Cells `yaml:"fine_cell"`

	TargetNormalX float32 `yaml:"target_normal_x"`
	TargetNormalZ float32 `yaml:"target_normal_z"`
	NormRegimeMin float32 `yaml:"norm_regime_min"` // xz sum below this is binned coarsely
	MaxNormalX    float32 `yaml:"max_normal_x"`    // quadrant bound
	MinNormalZ    float32 `yaml:"min_normal_z"`    // quadrant bound

	LavaHeight          float32 `yaml:"lava_height"`
	MinFreefallVelY     float32 `yaml:"min_freefall_vel_y"`
	MaxHeightAboveFloor float32 `yaml:"max_height_above_floor"`

	Fitness string `yaml:"fitness"` // "xz_sum" or "normal_y"
}

// Cells is a cell size per axis.
type Cells struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// Fitness function names.
const (
	FitnessXzSum   = "xz_sum"
	FitnessNormalY = "normal_y"
)

// OutputConfig defines where results are written.
type OutputConfig struct {
	M64 string `yaml:"m64"` // best recording; empty disables
	DB  string `yaml:"db"`  // run history database; empty uses the default path
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	s := c.Search
	if s.Workers < 1 {
		errs = append(errs, fmt.Errorf("search.workers must be at least 1, got %d", s.Workers))
	}
	if s.SegmentLength < 1 {
		errs = append(errs, fmt.Errorf("search.segment_length must be at least 1, got %d", s.SegmentLength))
	}
	if s.StartFrame < 0 {
		errs = append(errs, fmt.Errorf("search.start_frame must not be negative, got %d", s.StartFrame))
	}
	if s.Policy != PolicyKeepFirst && s.Policy != PolicyReplaceBetter {
		errs = append(errs, fmt.Errorf("search.policy %q is not %q or %q", s.Policy, PolicyKeepFirst, PolicyReplaceBetter))
	}

	axes := []struct {
		name    string
		weights map[string]float64
		known   []string
	}{
		{"magnitude", c.Weights.Magnitude, []string{MagnitudeMax, MagnitudeZero, MagnitudeSame, MagnitudeRandom}},
		{"yaw", c.Weights.Yaw, []string{YawMatchFacing, YawAntiFacing, YawSame, YawRandom}},
		{"buttons", c.Weights.Buttons, []string{ButtonsSame, ButtonsNone, ButtonsRandom}},
		{"script", c.Weights.Script, []string{ScriptNone, ScriptDiveSlide, ScriptRunDownhill, ScriptTurnaround, ScriptRewind}},
	}
	for _, axis := range axes {
		if err := checkWeights(axis.name, axis.weights, axis.known); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Region.Fitness != FitnessXzSum && c.Region.Fitness != FitnessNormalY {
		errs = append(errs, fmt.Errorf("region.fitness %q is not %q or %q", c.Region.Fitness, FitnessXzSum, FitnessNormalY))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func checkWeights(axis string, weights map[string]float64, known []string) error {
	total := 0.0
	for name, w := range weights {
		found := false
		for _, k := range known {
			if k == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("weights.%s: unknown option %q", axis, name)
		}
		if w < 0 {
			return fmt.Errorf("weights.%s.%s must not be negative", axis, name)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("weights.%s needs at least one positive weight", axis)
	}
	return nil
}
