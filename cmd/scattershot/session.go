package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/scattershot/internal/bitfs"
	"github.com/vovakirdan/scattershot/internal/config"
	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/frame"
	"github.com/vovakirdan/scattershot/internal/m64"
	"github.com/vovakirdan/scattershot/internal/maneuver"
	"github.com/vovakirdan/scattershot/internal/platform/tui"
	"github.com/vovakirdan/scattershot/internal/registry"
	"github.com/vovakirdan/scattershot/internal/scattershot"
	"github.com/vovakirdan/scattershot/internal/sim"
	"github.com/vovakirdan/scattershot/internal/storage"
)

// feedSize is the number of recent best nodes kept for dashboards.
const feedSize = 50

// searchFlags are the per-search overrides shared by search and serve.
type searchFlags struct {
	workers    int
	iterations int64
	maxFrames  int64
	startFrame int64
	policy     string
	base       string
	out        string
}

// loadConfig loads the config file, applies the preset and the command-line
// overrides, and validates the result.
func loadConfig(rt core.RuntimeConfig, f searchFlags) (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}

	if flagPreset != "" {
		preset, ok := config.ParsePreset(flagPreset)
		if !ok {
			return config.Config{}, fmt.Errorf("unknown preset %q (want explore, exploit or fixed)", flagPreset)
		}
		config.ApplyPreset(&cfg, preset)
	}

	if rt.Seed != 0 {
		cfg.Search.Seed = uint64(rt.Seed)
	}
	if rt.Workers > 0 {
		cfg.Search.Workers = rt.Workers
	}
	if rt.StartFrame > 0 {
		cfg.Search.StartFrame = rt.StartFrame
	}
	if f.iterations != 0 {
		cfg.Search.Iterations = f.iterations
	}
	if f.maxFrames != 0 {
		cfg.Search.MaxFrames = f.maxFrames
	}
	if f.policy != "" {
		cfg.Search.Policy = config.Policy(f.policy)
	}
	if f.out != "" {
		cfg.Output.M64 = f.out
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// runtimeConfig collects the process-level flags.
func runtimeConfig(f searchFlags) core.RuntimeConfig {
	rt := core.DefaultConfig()
	rt.Seed = flagSeed
	rt.TickRate = flagTick
	rt.Workers = f.workers
	rt.StartFrame = f.startFrame
	return rt
}

// session is one search wired to its sinks and run history.
type session struct {
	cfg    config.Config
	engine *scattershot.Engine
	feed   *tui.Feed
	writer *m64.Writer
	store  *storage.Store
	runID  string
	logger *log.Logger
}

// newSession builds the engine and its sinks. engineLog receives the engine's
// own log lines; logger reports setup problems.
func newSession(cfg config.Config, base string, logger, engineLog *log.Logger) (*session, error) {
	factory, err := registry.Lookup(cfg.Search.Sim)
	if err != nil {
		return nil, err
	}

	baseRec := frame.NewRecord()
	if base != "" {
		if baseRec, err = m64.Load(base); err != nil {
			return nil, err
		}
		if last, ok := baseRec.Last(); !ok || last+1 < cfg.Search.StartFrame {
			logger.Warn("base recording ends before the start frame; missing frames replay as neutral input",
				"base", base, "frames", baseRec.Len(), "start_frame", cfg.Search.StartFrame)
		}
	}

	if cfg.Search.Seed == 0 {
		cfg.Search.Seed = uint64(time.Now().UnixNano())
	}

	s := &session{
		cfg:    cfg,
		feed:   tui.NewFeed(feedSize),
		logger: logger,
	}
	s.openHistory()

	sinks := []scattershot.BestSink{s.feed}
	if cfg.Output.M64 != "" {
		s.writer = m64.NewWriter(cfg.Output.M64, base, cfg.Search.StartFrame)
		sinks = append(sinks, s.writer)
	}
	if s.store != nil {
		sinks = append(sinks, storage.DiscoverySink{
			Store:      s.store,
			RunID:      s.runID,
			StartFrame: cfg.Search.StartFrame,
		})
	}

	if engineLog == nil {
		engineLog = log.New(io.Discard)
	}
	eng, err := scattershot.New(scattershot.Options{
		Search:  cfg.Search,
		Weights: cfg.Weights,
		NewSim:  func() sim.Simulation { return factory() },
		Target:  bitfs.New(cfg.Region),
		Platform: maneuver.Platform{
			Slot:     cfg.Region.PlatformSlot,
			Behavior: sim.Behavior(cfg.Region.PlatformBehavior),
		},
		Base:   baseRec,
		Logger: engineLog,
		Sinks:  sinks,
	})
	if err != nil {
		s.finish(scattershot.Result{}, err)
		return nil, err
	}
	s.engine = eng
	return s, nil
}

// openHistory opens the run database and records the run. Failures are
// logged; the search runs without history.
func (s *session) openHistory() {
	dbPath := flagDBPath
	if s.cfg.Output.DB != "" && !rootCmd.PersistentFlags().Changed("db") {
		dbPath = s.cfg.Output.DB
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		s.logger.Warn("could not open run database", "error", err)
		return
	}

	yamlCfg, _ := config.Marshal(s.cfg)
	runID, err := store.CreateRun(storage.Run{
		SimID:      s.cfg.Search.Sim,
		Seed:       s.cfg.Search.Seed,
		Workers:    s.cfg.Search.Workers,
		Budget:     s.cfg.Search.Iterations,
		Policy:     string(s.cfg.Search.Policy),
		StartFrame: s.cfg.Search.StartFrame,
		Config:     string(yamlCfg),
	})
	if err != nil {
		store.Close()
		s.logger.Warn("could not record run", "error", err)
		return
	}
	s.store = store
	s.runID = runID
}

// finish records the outcome of the run and closes the database.
func (s *session) finish(res scattershot.Result, runErr error) {
	if s.store == nil {
		return
	}
	defer s.store.Close()

	status := storage.StatusFinished
	switch {
	case runErr != nil:
		status = storage.StatusFailed
	case res.Canceled:
		status = storage.StatusCanceled
	}
	err := s.store.FinishRun(s.runID, storage.Summary{
		Status:     status,
		Iterations: res.Progress.Iterations,
		Frontier:   res.Progress.Frontier,
	})
	if err != nil {
		s.logger.Warn("could not record run result", "run", s.runID, "error", err)
	}
}

// report logs the summary of a finished run.
func (s *session) report(res scattershot.Result) {
	kv := []any{
		"seed", s.engine.Seed(),
		"iterations", res.Progress.Iterations,
		"frontier", res.Progress.Frontier,
		"invalid", res.Progress.Invalid,
	}
	if s.runID != "" {
		kv = append(kv, "run", s.runID)
	}
	if res.Canceled {
		kv = append(kv, "canceled", true)
	}
	s.logger.Info("search complete", kv...)

	if !res.HasBest {
		s.logger.Warn("no valid state found")
		return
	}
	best := []any{"fitness", res.Best.Fitness, "frame", res.Best.Frame, "bin", res.Best.Bin}
	if s.writer != nil && s.writer.Written() > 0 {
		best = append(best, "m64", s.writer.Path())
	}
	s.logger.Info("best", best...)
}

// run runs the search and records its outcome.
func (s *session) run(ctx context.Context) (scattershot.Result, error) {
	res, err := s.engine.Run(ctx)
	if err != nil && errors.Is(err, context.Canceled) {
		res.Canceled = true
		err = nil
	}
	s.finish(res, err)
	return res, err
}
