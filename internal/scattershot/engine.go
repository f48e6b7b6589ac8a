// Package scattershot implements a randomized novelty search over simulation
// states. Workers repeatedly pick a retained node, replay its inputs, apply a
// few random movements and keep every resulting state that lands in an
// unoccupied bin.
package scattershot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/scattershot/internal/binning"
	"github.com/vovakirdan/scattershot/internal/config"
	"github.com/vovakirdan/scattershot/internal/frame"
	"github.com/vovakirdan/scattershot/internal/maneuver"
	"github.com/vovakirdan/scattershot/internal/script"
	"github.com/vovakirdan/scattershot/internal/sim"
	"github.com/vovakirdan/scattershot/internal/stick"
)

// Target bins, validates and scores simulation states.
type Target interface {
	binning.Binner
	Valid(s sim.Simulation) bool
	Fitness(s sim.Simulation) float64
}

// BestSink persists each new best node as it is found.
type BestSink interface {
	WriteBest(ctx context.Context, n Node) error
}

// BestSinkFunc adapts a function to a BestSink.
type BestSinkFunc func(ctx context.Context, n Node) error

// WriteBest calls f.
func (f BestSinkFunc) WriteBest(ctx context.Context, n Node) error {
	return f(ctx, n)
}

// Options configures an Engine.
type Options struct {
	Search  config.SearchConfig
	Weights config.WeightsConfig

	// NewSim creates a simulation at frame 0. Each worker gets its own.
	NewSim func() sim.Simulation
	Target Target

	// Platform is the platform the maneuver scripts run on.
	Platform maneuver.Platform
	Resolver *stick.Resolver

	// Base holds the inputs replayed to reach Search.StartFrame.
	Base *frame.Record

	Logger *log.Logger
	Sinks  []BestSink

	// OnAccept is called for every node accepted into or replacing an
	// occupant of the frontier. It may be called from several goroutines.
	OnAccept func(n Node, o Outcome)
}

// Progress is a snapshot of a running search.
type Progress struct {
	Iterations  int64
	Budget      int64
	Frontier    int
	Accepted    int64
	Replaced    int64
	Invalid     int64
	BestFitness float64
	BestFrame   int64
	HasBest     bool
	Elapsed     time.Duration
}

// Result is the outcome of Run.
type Result struct {
	Progress Progress
	Best     Node
	HasBest  bool
	Canceled bool
}

// Engine runs the search.
type Engine struct {
	opts     Options
	movement *Movement
	frontier *Frontier
	seed     uint64
	logger   *log.Logger

	iterations atomic.Int64
	accepted   atomic.Int64
	replaced   atomic.Int64
	invalid    atomic.Int64
	started    atomic.Int64 // unix nanos

	sinkMu  sync.Mutex
	sunk    float64
	hasSunk bool
	bestLog rate.Sometimes // throttles "new best" log lines
}

// New validates opts and creates an engine. A zero seed is replaced by one
// derived from the clock; Seed reports the value in use.
func New(opts Options) (*Engine, error) {
	if opts.NewSim == nil {
		return nil, errors.New("scattershot: no simulation factory")
	}
	if opts.Target == nil {
		return nil, errors.New("scattershot: no target")
	}
	if opts.Search.Workers < 1 {
		opts.Search.Workers = 1
	}
	if opts.Search.SegmentLength < 1 {
		opts.Search.SegmentLength = 1
	}
	if opts.Search.Policy == "" {
		opts.Search.Policy = config.PolicyKeepFirst
	}
	if opts.Resolver == nil {
		opts.Resolver = stick.DefaultResolver()
	}
	if opts.Base == nil {
		opts.Base = frame.NewRecord()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	seed := opts.Search.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &Engine{
		opts:     opts,
		movement: NewMovement(opts.Weights, opts.Platform),
		frontier: NewFrontier(opts.Search.Policy),
		seed:     seed,
		logger:   logger,
		bestLog:  rate.Sometimes{First: 1, Interval: time.Second},
	}, nil
}

// Seed returns the RNG seed of the run.
func (e *Engine) Seed() uint64 {
	return e.seed
}

// Frontier returns the engine's frontier.
func (e *Engine) Frontier() *Frontier {
	return e.frontier
}

// Progress returns a snapshot of the search. It is safe to call while Run
// is in progress.
func (e *Engine) Progress() Progress {
	p := Progress{
		Iterations: e.iterations.Load(),
		Budget:     e.opts.Search.Iterations,
		Frontier:   e.frontier.Len(),
		Accepted:   e.accepted.Load(),
		Replaced:   e.replaced.Load(),
		Invalid:    e.invalid.Load(),
	}
	if p.Budget > 0 && p.Iterations > p.Budget {
		p.Iterations = p.Budget
	}
	if best, ok := e.frontier.Best(); ok {
		p.HasBest = true
		p.BestFitness = best.Fitness
		p.BestFrame = best.Frame
	} else {
		p.BestFitness = math.Inf(-1)
	}
	if start := e.started.Load(); start != 0 {
		p.Elapsed = time.Since(time.Unix(0, start))
	}
	return p
}

// Run searches until the iteration budget is spent or ctx is canceled.
// Cancellation is not an error; Result.Canceled reports it.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	e.started.Store(time.Now().UnixNano())
	s := e.opts.Search

	root, err := e.prepare()
	if err != nil {
		return Result{}, err
	}
	rs := root.Sim()
	rootNode := e.frontier.Seed(Node{
		Bin:     e.opts.Target.Bin(rs),
		Record:  frame.NewRecord(),
		Frame:   s.StartFrame,
		Fitness: e.opts.Target.Fitness(rs),
		Worker:  -1,
	})

	e.logger.Info("search started",
		"seed", e.seed,
		"workers", s.Workers,
		"budget", s.Iterations,
		"start_frame", s.StartFrame,
		"root", rootNode.Bin)

	rng := NewRNG(e.seed)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.Workers; i++ {
		i := i
		wrng := rng.Split(uint64(i))
		g.Go(func() error {
			c := root
			if i > 0 {
				var err error
				if c, err = e.prepare(); err != nil {
					return err
				}
			}
			return e.work(gctx, i, wrng, c)
		})
	}
	err = g.Wait()

	res := Result{
		Progress: e.Progress(),
		Canceled: ctx.Err() != nil,
	}
	res.Best, res.HasBest = e.frontier.Best()
	if err != nil {
		e.logger.Error("search failed", "error", err)
		return res, err
	}

	e.logger.Info("search finished",
		"iterations", res.Progress.Iterations,
		"frontier", res.Progress.Frontier,
		"best", res.Progress.BestFitness,
		"canceled", res.Canceled,
		"elapsed", res.Progress.Elapsed.Round(time.Millisecond))
	return res, nil
}

// prepare creates a simulation, replays the base inputs up to the start
// frame and wraps it in a controller.
func (e *Engine) prepare() (*frame.Controller, error) {
	s := e.opts.NewSim()
	if s == nil {
		return nil, errors.New("scattershot: simulation factory returned nil")
	}
	for f := int64(0); f < e.opts.Search.StartFrame; f++ {
		s.Stage(e.opts.Base.At(f))
		s.Step()
	}
	c := frame.NewController(s, e.opts.Search.StartFrame)
	c.MaxCheckpoints = e.opts.Search.MaxCheckpoints
	return c, nil
}

// spend consumes one iteration of the budget.
func (e *Engine) spend() bool {
	n := e.iterations.Add(1)
	return e.opts.Search.Iterations <= 0 || n <= e.opts.Search.Iterations
}

func (e *Engine) work(ctx context.Context, id int, r *RNG, c *frame.Controller) error {
	s := e.opts.Search
	target := e.opts.Target
	env := script.NewEnv(c, e.opts.Resolver)
	logger := e.logger.With("worker", id)
	logger.Debug("worker started")

	beyond := func(f int64) bool {
		return s.MaxFrames > 0 && f-s.StartFrame >= s.MaxFrames
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		node, ok := e.frontier.Pick(r)
		if !ok {
			logger.Debug("frontier empty")
			return nil
		}
		if beyond(node.Frame) {
			if !e.spend() {
				return nil
			}
			continue
		}

		if err := c.Seek(node.Record, node.Frame); err != nil {
			return fmt.Errorf("worker %d: seek frame %d: %w", id, node.Frame, err)
		}
		c.Save()

		for i := 0; i < s.SegmentLength; i++ {
			if ctx.Err() != nil {
				return nil
			}
			if !e.spend() {
				logger.Debug("budget spent")
				return nil
			}
			if err := e.movement.Apply(env, r); err != nil {
				return fmt.Errorf("worker %d: frame %d: %w", id, c.Frame(), err)
			}

			sm := c.Sim()
			if !target.Valid(sm) {
				e.invalid.Add(1)
				break
			}
			n := Node{
				Bin:     target.Bin(sm),
				Record:  c.Record(),
				Frame:   c.Frame(),
				Fitness: target.Fitness(sm),
				Worker:  id,
			}
			if err := e.offer(ctx, n); err != nil {
				return err
			}
			if beyond(c.Frame()) {
				break
			}
		}
	}
}

func (e *Engine) offer(ctx context.Context, n Node) error {
	stored, outcome, best := e.frontier.Offer(n)
	switch outcome {
	case Accepted:
		e.accepted.Add(1)
	case Replaced:
		e.replaced.Add(1)
	}
	if outcome != Rejected && e.opts.OnAccept != nil {
		e.opts.OnAccept(stored, outcome)
	}
	if best {
		return e.publish(ctx, stored)
	}
	return nil
}

// publish hands a new best node to the sinks. Nodes that lost a race with a
// fitter one are skipped.
func (e *Engine) publish(ctx context.Context, n Node) error {
	e.sinkMu.Lock()
	defer e.sinkMu.Unlock()

	if e.hasSunk && n.Fitness <= e.sunk {
		return nil
	}
	e.sunk, e.hasSunk = n.Fitness, true

	e.bestLog.Do(func() {
		e.logger.Info("new best",
			"fitness", n.Fitness,
			"frame", n.Frame,
			"worker", n.Worker,
			"bin", n.Bin)
	})
	for _, sink := range e.opts.Sinks {
		if err := sink.WriteBest(ctx, n); err != nil {
			return fmt.Errorf("write best: %w", err)
		}
	}
	return nil
}
