package scattershot

import "testing"

func TestRNGIsReproducible(t *testing.T) {
	a, b := NewRNG(42), NewRNG(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
	if a.Draws() != 100 {
		t.Errorf("Draws() = %d, want 100", a.Draws())
	}
}

func TestRNGSplit(t *testing.T) {
	root := NewRNG(7)
	s0, s1 := root.Split(0), root.Split(1)
	if root.Draws() != 0 {
		t.Error("Split() advanced the parent")
	}
	if s0.Uint64() == s1.Uint64() {
		t.Error("split streams start with the same value")
	}
	if NewRNG(7).Split(1).Uint64() != NewRNG(7).Split(1).Uint64() {
		t.Error("Split() is not deterministic")
	}
}

func TestRNGRanges(t *testing.T) {
	r := NewRNG(1)
	for i := 0; i < 1000; i++ {
		if n := r.Intn(10); n < 0 || n >= 10 {
			t.Fatalf("Intn(10) = %d", n)
		}
		if f := r.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64() = %v", f)
		}
	}
	if r.Intn(0) != 0 {
		t.Error("Intn(0) should be 0")
	}
}

func TestRNGChoose(t *testing.T) {
	r := NewRNG(3)
	if got := r.Choose([]float64{0, 0}); got != -1 {
		t.Errorf("Choose(all zero) = %d, want -1", got)
	}

	counts := make([]int, 3)
	for i := 0; i < 3000; i++ {
		counts[r.Choose([]float64{1, 0, 3})]++
	}
	if counts[1] != 0 {
		t.Errorf("zero-weight option chosen %d times", counts[1])
	}
	if counts[2] < counts[0] {
		t.Errorf("weight 3 chosen less often than weight 1: %v", counts)
	}
}
