package scattershot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vovakirdan/scattershot/internal/binning"
	"github.com/vovakirdan/scattershot/internal/bitfs"
	"github.com/vovakirdan/scattershot/internal/config"
	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/frame"
	"github.com/vovakirdan/scattershot/internal/sim"
	"github.com/vovakirdan/scattershot/internal/sim/pyramid"
)

// gridTarget accepts every state and bins by 10 unit position cells.
type gridTarget struct{}

func (gridTarget) Bin(s sim.Simulation) binning.Bin {
	p := s.Player()
	return binning.Bin{
		X: binning.Cell(p.Pos[0], 2330, 10),
		Y: binning.Cell(p.Pos[1], 3200, 50),
		Z: binning.Cell(p.Pos[2], 1090, 10),
	}
}

func (gridTarget) Valid(sim.Simulation) bool { return true }

func (gridTarget) Fitness(s sim.Simulation) float64 {
	return float64(s.Player().ForwardVel)
}

func newSim() sim.Simulation { return pyramid.New() }

func testOptions(target Target, iterations int64) Options {
	cfg := config.DefaultConfig()
	cfg.Search.Seed = 99
	cfg.Search.Iterations = iterations
	cfg.Search.Workers = 1
	return Options{
		Search:  cfg.Search,
		Weights: cfg.Weights,
		NewSim:  newSim,
		Target:  target,
	}
}

type accepted struct {
	Bin   binning.Bin
	Frame int64
}

func runCollect(t *testing.T, opts Options) ([]accepted, Result) {
	t.Helper()
	var got []accepted
	opts.OnAccept = func(n Node, _ Outcome) {
		got = append(got, accepted{n.Bin, n.Frame})
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	return got, res
}

func TestRunIsDeterministic(t *testing.T) {
	opts := testOptions(bitfs.New(config.DefaultRegion()), 300)

	first, r1 := runCollect(t, opts)
	second, r2 := runCollect(t, opts)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("accepted nodes differ between runs (-first +second):\n%s", diff)
	}
	if r1.Progress.Frontier != r2.Progress.Frontier {
		t.Errorf("frontier sizes differ: %d vs %d", r1.Progress.Frontier, r2.Progress.Frontier)
	}
	if r1.HasBest != r2.HasBest || (r1.HasBest && r1.Best.Fitness != r2.Best.Fitness) {
		t.Errorf("best nodes differ: %+v vs %+v", r1.Best, r2.Best)
	}
}

func TestRunRespectsBudget(t *testing.T) {
	opts := testOptions(gridTarget{}, 500)
	opts.Search.Workers = 4

	var mu sync.Mutex
	count := 0
	opts.OnAccept = func(Node, Outcome) {
		mu.Lock()
		count++
		mu.Unlock()
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if res.Progress.Iterations != 500 {
		t.Errorf("Iterations = %d, want 500", res.Progress.Iterations)
	}
	if res.Progress.Accepted == 0 {
		t.Error("no node accepted")
	}
	if int64(count) != res.Progress.Accepted {
		t.Errorf("OnAccept called %d times, Accepted = %d", count, res.Progress.Accepted)
	}
	if res.Progress.Frontier != int(res.Progress.Accepted)+1 {
		t.Errorf("Frontier = %d, want accepted + root = %d", res.Progress.Frontier, res.Progress.Accepted+1)
	}
}

func TestRunStopsAtHorizon(t *testing.T) {
	opts := testOptions(gridTarget{}, 400)
	opts.Search.MaxFrames = 5
	opts.Weights.Script = map[string]float64{config.ScriptNone: 1}

	e, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	for _, n := range e.Frontier().Nodes() {
		if n.Frame > 5 {
			t.Errorf("node at frame %d beyond horizon 5", n.Frame)
		}
		if n.Record.Len() != int(n.Frame) {
			t.Errorf("node at frame %d has %d recorded inputs", n.Frame, n.Record.Len())
		}
	}
}

func TestNodesReplayToTheirBin(t *testing.T) {
	opts := testOptions(gridTarget{}, 300)
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	for _, n := range e.Frontier().Nodes() {
		s := pyramid.New()
		for f := int64(0); f < n.Frame; f++ {
			s.Stage(n.Record.At(f))
			s.Step()
		}
		if got := (gridTarget{}).Bin(s); got != n.Bin {
			t.Errorf("node seq %d: replay lands in %v, want %v", n.Seq, got, n.Bin)
		}
	}
}

func TestSinksSeeImprovingBest(t *testing.T) {
	opts := testOptions(gridTarget{}, 400)
	var seen []float64
	opts.Sinks = []BestSink{BestSinkFunc(func(_ context.Context, n Node) error {
		seen = append(seen, n.Fitness)
		return nil
	})}

	e, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(seen) == 0 {
		t.Fatal("sink never called")
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("sink saw fitness %v after %v", seen[i], seen[i-1])
		}
	}
	if last := seen[len(seen)-1]; last != res.Best.Fitness {
		t.Errorf("last sunk fitness %v, best %v", last, res.Best.Fitness)
	}
}

func TestSinkErrorAbortsRun(t *testing.T) {
	errDisk := errors.New("disk full")
	opts := testOptions(gridTarget{}, 1000)
	opts.Sinks = []BestSink{BestSinkFunc(func(context.Context, Node) error { return errDisk })}

	e, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	_, err = e.Run(context.Background())
	if !errors.Is(err, errDisk) {
		t.Errorf("Run() error = %v, want %v", err, errDisk)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := New(testOptions(gridTarget{}, 0))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	res, err := e.Run(ctx)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !res.Canceled {
		t.Error("Result.Canceled = false")
	}
	if res.Progress.Iterations != 0 {
		t.Errorf("Iterations = %d after cancel, want 0", res.Progress.Iterations)
	}
	if res.Progress.Frontier != 1 {
		t.Errorf("Frontier = %d, want only the root", res.Progress.Frontier)
	}
}

func TestRunFromStartFrame(t *testing.T) {
	base := frame.NewRecord()
	walk := core.NewInput(0, 0, 100)
	for f := int64(0); f < 10; f++ {
		base.Set(f, walk)
	}

	opts := testOptions(gridTarget{}, 100)
	opts.Search.StartFrame = 10
	opts.Base = base
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	want := pyramid.New()
	for f := 0; f < 10; f++ {
		want.Stage(walk)
		want.Step()
	}
	root := e.Frontier().Nodes()[0]
	if root.Frame != 10 {
		t.Errorf("root frame = %d, want 10", root.Frame)
	}
	if root.Bin != (gridTarget{}).Bin(want) {
		t.Errorf("root bin = %v, want %v", root.Bin, (gridTarget{}).Bin(want))
	}
	for _, n := range e.Frontier().Nodes() {
		if first, ok := n.Record.First(); ok && first < 10 {
			t.Errorf("node record starts at frame %d, before the start frame", first)
		}
	}
}

func TestNewRejectsMissingParts(t *testing.T) {
	if _, err := New(Options{Target: gridTarget{}}); err == nil {
		t.Error("New() without a simulation factory should fail")
	}
	if _, err := New(Options{NewSim: newSim}); err == nil {
		t.Error("New() without a target should fail")
	}
	e, err := New(Options{NewSim: newSim, Target: gridTarget{}})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if e.Seed() == 0 {
		t.Error("zero seed was not replaced")
	}
}
