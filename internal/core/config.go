// Package core holds the value types shared by every layer of the search
// engine: controller inputs, fixed-point angles and runtime settings.
package core

// RuntimeConfig contains process-level settings resolved from flags.
// Search-specific tuning lives in the config package.
type RuntimeConfig struct {
	Seed       int64 // Root RNG seed; 0 means derive from the clock
	Workers    int   // Number of search workers (one simulation each)
	StartFrame int64 // First frame the search may modify
	TickRate   int   // Dashboard refresh rate (ticks per second)
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		Seed:       0,
		Workers:    1,
		StartFrame: 0,
		TickRate:   10,
	}
}
