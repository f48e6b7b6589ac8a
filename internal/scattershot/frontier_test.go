package scattershot

import (
	"testing"

	"github.com/vovakirdan/scattershot/internal/binning"
	"github.com/vovakirdan/scattershot/internal/config"
)

func node(x uint8, fitness float64) Node {
	return Node{Bin: binning.Bin{X: x}, Fitness: fitness, Frame: int64(x)}
}

func TestFrontierKeepFirst(t *testing.T) {
	f := NewFrontier(config.PolicyKeepFirst)
	f.Seed(node(0, 0))

	if _, o, _ := f.Offer(node(1, 1)); o != Accepted {
		t.Errorf("new bin: outcome %v, want accepted", o)
	}
	if _, o, _ := f.Offer(node(1, 5)); o != Rejected {
		t.Errorf("occupied bin: outcome %v, want rejected", o)
	}
	got, _ := f.Get(binning.Bin{X: 1})
	if got.Fitness != 1 {
		t.Errorf("keep-first replaced the occupant: fitness %v", got.Fitness)
	}
	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}
}

func TestFrontierReplaceBetter(t *testing.T) {
	f := NewFrontier(config.PolicyReplaceBetter)
	f.Offer(node(1, 1))

	if _, o, _ := f.Offer(node(1, 1)); o != Rejected {
		t.Errorf("equal fitness: outcome %v, want rejected", o)
	}
	stored, o, _ := f.Offer(node(1, 2))
	if o != Replaced {
		t.Fatalf("fitter node: outcome %v, want replaced", o)
	}
	got, _ := f.Get(binning.Bin{X: 1})
	if got.Fitness != 2 || got.Seq != stored.Seq {
		t.Errorf("occupant = %+v, want the fitter node", got)
	}
	if f.Len() != 1 {
		t.Errorf("Len() = %d, want 1", f.Len())
	}
}

func TestFrontierBestIgnoresMembership(t *testing.T) {
	f := NewFrontier(config.PolicyKeepFirst)
	if _, ok := f.Best(); ok {
		t.Error("empty frontier has a best node")
	}

	if _, _, best := f.Offer(node(1, 1)); !best {
		t.Error("first offer should become best")
	}
	if _, o, best := f.Offer(node(1, 3)); o != Rejected || !best {
		t.Errorf("rejected but fitter node: outcome %v, best %v", o, best)
	}
	if _, _, best := f.Offer(node(2, 2)); best {
		t.Error("less fit node became best")
	}

	b, _ := f.Best()
	if b.Fitness != 3 {
		t.Errorf("Best().Fitness = %v, want 3", b.Fitness)
	}
}

func TestFrontierInsertionOrder(t *testing.T) {
	f := NewFrontier(config.PolicyKeepFirst)
	for _, x := range []uint8{5, 3, 9} {
		f.Offer(node(x, 0))
	}
	nodes := f.Nodes()
	for i, want := range []uint8{5, 3, 9} {
		if nodes[i].Bin.X != want || nodes[i].Seq != int64(i) {
			t.Errorf("nodes[%d] = bin %d seq %d, want bin %d seq %d", i, nodes[i].Bin.X, nodes[i].Seq, want, i)
		}
	}

	r := NewRNG(1)
	for i := 0; i < 20; i++ {
		n, ok := f.Pick(r)
		if !ok {
			t.Fatal("Pick() on non-empty frontier failed")
		}
		if _, ok := f.Get(n.Bin); !ok {
			t.Errorf("Pick() returned unknown bin %v", n.Bin)
		}
	}
	if _, ok := NewFrontier(config.PolicyKeepFirst).Pick(r); ok {
		t.Error("Pick() on empty frontier succeeded")
	}
}
