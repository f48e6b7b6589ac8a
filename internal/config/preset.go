package config

import "maps"

// Preset represents a named search style.
type Preset string

const (
	// PresetExplore favours raw random input and keeps the first node per bin.
	PresetExplore Preset = "explore"
	// PresetExploit favours scripted maneuvers and replaces fitter occupants.
	PresetExploit Preset = "exploit"
	// PresetFixed disables scripts, leaving plain stick and button input.
	PresetFixed Preset = "fixed"
)

// ParsePreset converts a string to a Preset.
func ParsePreset(s string) (Preset, bool) {
	switch p := Preset(s); p {
	case PresetExplore, PresetExploit, PresetFixed:
		return p, true
	}
	return "", false
}

// ApplyPreset modifies the config based on a preset.
func ApplyPreset(cfg *Config, preset Preset) {
	w := &cfg.Weights
	w.Script = maps.Clone(w.Script)
	w.Yaw = maps.Clone(w.Yaw)
	w.Magnitude = maps.Clone(w.Magnitude)
	if w.Script == nil {
		w.Script = make(map[string]float64)
	}
	if w.Yaw == nil {
		w.Yaw = make(map[string]float64)
	}
	if w.Magnitude == nil {
		w.Magnitude = make(map[string]float64)
	}

	switch preset {
	case PresetExplore:
		cfg.Search.Policy = PolicyKeepFirst
		w.Yaw[YawRandom] = 8
		w.Magnitude[MagnitudeRandom] = 4
		w.Script[ScriptRewind] = 15
	case PresetExploit:
		cfg.Search.Policy = PolicyReplaceBetter
		w.Script[ScriptRunDownhill] = 40
		w.Script[ScriptTurnaround] = 25
		w.Script[ScriptDiveSlide] = 20
		w.Script[ScriptRewind] = 2
	case PresetFixed:
		for name := range w.Script {
			w.Script[name] = 0
		}
		w.Script[ScriptNone] = 1
	}
}
