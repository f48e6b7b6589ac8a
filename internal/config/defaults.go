package config

import (
	_ "embed"
)

//go:embed defaults/scattershot.yaml
var defaultYAML []byte

// DefaultConfig returns the default search configuration.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			Sim:            "pyramid",
			StartFrame:     0,
			Workers:        1,
			Seed:           0,
			Iterations:     20000,
			MaxFrames:      600,
			SegmentLength:  8,
			Policy:         PolicyKeepFirst,
			MaxCheckpoints: 256,
		},
		Weights: WeightsConfig{
			Magnitude: map[string]float64{
				MagnitudeMax:    4,
				MagnitudeZero:   1,
				MagnitudeSame:   1,
				MagnitudeRandom: 2,
			},
			Yaw: map[string]float64{
				YawMatchFacing: 4,
				YawAntiFacing:  0.5,
				YawSame:        1,
				YawRandom:      4,
			},
			Buttons: map[string]float64{
				ButtonsSame:   1,
				ButtonsNone:   2,
				ButtonsRandom: 1,
			},
			Script: map[string]float64{
				ScriptNone:        95,
				ScriptDiveSlide:   10,
				ScriptRunDownhill: 20,
				ScriptTurnaround:  10,
				ScriptRewind:      5,
			},
		},
		Region: DefaultRegion(),
		Output: OutputConfig{
			M64: "best.m64",
		},
	}
}

// DefaultRegion returns the region of interest around the BitFS pyramid.
func DefaultRegion() Region {
	return Region{
		PlatformSlot:        84,
		PlatformBehavior:    "bhvBitfsTiltingInvertedPyramid",
		MinX:                -2330,
		MaxX:                -1550,
		MinZ:                -1090,
		MaxZ:                -300,
		MaxY:                -2400,
		OriginX:             2330,
		OriginY:             3200,
		OriginZ:             1090,
		CoarseCell:          Cells{X: 200, Y: 400, Z: 200},
		FineCell:            Cells{X: 10, Y: 50, Z: 10},
		TargetNormalX:       -0.30,
		TargetNormalZ:       0.37,
		NormRegimeMin:       0.5,
		MaxNormalX:          0.15,
		MinNormalZ:          -0.15,
		LavaHeight:          -3071,
		MinFreefallVelY:     -20,
		MaxHeightAboveFloor: 150,
		Fitness:             FitnessXzSum,
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
