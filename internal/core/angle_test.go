package core

import "testing"

func TestAtan2sCardinalDirections(t *testing.T) {
	tests := []struct {
		name string
		y, x float32
		want Angle
	}{
		{"positive y", 1, 0, 0},
		{"positive x", 0, 1, 0x4000},
		{"negative y", -1, 0, -0x8000},
		{"negative x", 0, -1, -0x4000},
		{"diagonal", 1, 1, 0x2000},
		{"opposite diagonal", -1, -1, -0x6000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Atan2s(tt.y, tt.x); got != tt.want {
				t.Errorf("Atan2s(%v, %v) = %#x, want %#x", tt.y, tt.x, uint16(got), uint16(tt.want))
			}
		})
	}
}

func TestAtan2sIsMonotonicInFirstOctant(t *testing.T) {
	prev := Atan2s(64, 0)
	for x := float32(1); x <= 64; x++ {
		cur := Atan2s(64, x)
		if cur < prev {
			t.Fatalf("Atan2s(64, %v) = %d decreased from %d", x, cur, prev)
		}
		prev = cur
	}
}

func TestAngleOppositeWraps(t *testing.T) {
	if got := Angle(0x1000).Opposite(); got != Angle(-0x7000) {
		t.Errorf("Opposite(0x1000) = %#x, want -0x7000", int(got))
	}
	if got := Angle(-0x8000).Opposite(); got != 0 {
		t.Errorf("Opposite(-0x8000) = %d, want 0", got)
	}
}

func TestAngleHAU(t *testing.T) {
	if got := Angle(0).HAU(); got != 0 {
		t.Errorf("HAU(0) = %d, want 0", got)
	}
	if got := Angle(31).HAU(); got != 1 {
		t.Errorf("HAU(31) = %d, want 1", got)
	}
	if got := Angle(-1).HAU(); got != 4095 {
		t.Errorf("HAU(-1) = %d, want 4095", got)
	}
}

func TestButtonsString(t *testing.T) {
	if got := Buttons(0).String(); got != "-" {
		t.Errorf("empty buttons = %q, want %q", got, "-")
	}
	if got := (ButtonB | ButtonStart).String(); got != "B+S" {
		t.Errorf("B|START = %q, want %q", got, "B+S")
	}
	if !(ButtonB | ButtonZ).Has(ButtonZ) {
		t.Error("Has(Z) should be true")
	}
}
