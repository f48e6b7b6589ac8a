package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg, err := Parse(DefaultYAML())
	if err != nil {
		t.Fatalf("embedded YAML does not parse: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("embedded defaults differ from DefaultConfig() (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadCustomPathMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := []byte(`
search:
  workers: 4
  policy: replace-better
weights:
  script:
    rewind: 50
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Search.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Search.Workers)
	}
	if cfg.Search.Policy != PolicyReplaceBetter {
		t.Errorf("Policy = %q, want replace-better", cfg.Search.Policy)
	}
	if cfg.Weights.Script[ScriptRewind] != 50 {
		t.Errorf("rewind weight = %v, want 50", cfg.Weights.Script[ScriptRewind])
	}
	if cfg.Weights.Script[ScriptNone] != 95 {
		t.Errorf("unlisted script weight lost its default: %v", cfg.Weights.Script[ScriptNone])
	}
	if cfg.Search.SegmentLength != 8 {
		t.Errorf("SegmentLength = %d, want default 8", cfg.Search.SegmentLength)
	}
	if cfg.Region.PlatformSlot != 84 {
		t.Errorf("PlatformSlot = %d, want default 84", cfg.Region.PlatformSlot)
	}
}

func TestLoadCustomPathErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing custom file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("search: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() of malformed YAML should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"zero workers", func(c *Config) { c.Search.Workers = 0 }, "search.workers"},
		{"bad policy", func(c *Config) { c.Search.Policy = "newest" }, "search.policy"},
		{"zero segment", func(c *Config) { c.Search.SegmentLength = 0 }, "search.segment_length"},
		{"unknown option", func(c *Config) { c.Weights.Yaw["sideways"] = 1 }, `unknown option "sideways"`},
		{"negative weight", func(c *Config) { c.Weights.Buttons[ButtonsNone] = -1 }, "must not be negative"},
		{"all zero", func(c *Config) {
			c.Weights.Magnitude = map[string]float64{MagnitudeMax: 0}
		}, "weights.magnitude needs"},
		{"bad fitness", func(c *Config) { c.Region.Fitness = "speed" }, "region.fitness"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestApplyPreset(t *testing.T) {
	base := DefaultConfig()

	fixed := DefaultConfig()
	ApplyPreset(&fixed, PresetFixed)
	for name, w := range fixed.Weights.Script {
		if name != ScriptNone && w != 0 {
			t.Errorf("fixed preset left script %q at weight %v", name, w)
		}
	}
	if err := fixed.Validate(); err != nil {
		t.Errorf("fixed preset config invalid: %v", err)
	}

	exploit := DefaultConfig()
	ApplyPreset(&exploit, PresetExploit)
	if exploit.Search.Policy != PolicyReplaceBetter {
		t.Errorf("exploit policy = %q", exploit.Search.Policy)
	}
	if exploit.Weights.Script[ScriptRunDownhill] <= base.Weights.Script[ScriptRunDownhill] {
		t.Error("exploit preset should raise the run_downhill weight")
	}

	shared := DefaultConfig()
	explore := shared
	ApplyPreset(&explore, PresetExplore)
	if shared.Weights.Yaw[YawRandom] != base.Weights.Yaw[YawRandom] {
		t.Error("ApplyPreset mutated weight maps shared with another config")
	}

	if _, ok := ParsePreset("explore"); !ok {
		t.Error("ParsePreset(explore) failed")
	}
	if _, ok := ParsePreset("hard"); ok {
		t.Error("ParsePreset(hard) should fail")
	}
}
