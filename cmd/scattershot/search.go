package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/scattershot/internal/platform/tui"
	"github.com/vovakirdan/scattershot/internal/scattershot"
)

var (
	searchOpts searchFlags
	flagPlain  bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a search",
	Long: `Run a search from the start frame and keep the best recording on disk.

When stdout is a terminal a live dashboard shows progress and the most
recent improvements. Otherwise, or with --plain, progress is logged.

Controls:
  s          - Stop the search (the best recording is kept)
  ?          - Toggle help
  Q/Ctrl+C   - Quit

Presets:
  explore  - Raw random input, keep the first node per bin
  exploit  - Favour scripted maneuvers, replace fitter occupants
  fixed    - No scripts, plain stick and button input only

Examples:
  scattershot search
  scattershot search --iterations 100000 --workers 8 --seed 42
  scattershot search --base run.m64 --start-frame 3200 --out best.m64
  scattershot search --preset exploit --policy replace-better
  scattershot search --config ./my-search.yaml --plain`,
	Run: runSearch,
}

func init() {
	addSearchFlags(searchCmd, &searchOpts)
	searchCmd.Flags().BoolVar(&flagPlain, "plain", false, "Log progress instead of showing the dashboard")
}

// addSearchFlags registers the flags shared by search and serve.
func addSearchFlags(cmd *cobra.Command, f *searchFlags) {
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent workers (0 = from config)")
	cmd.Flags().Int64Var(&f.iterations, "iterations", 0, "Movement budget across all workers (0 = from config, negative = unlimited)")
	cmd.Flags().Int64Var(&f.maxFrames, "max-frames", 0, "Frames past the start frame a node may reach (0 = from config)")
	cmd.Flags().Int64Var(&f.startFrame, "start-frame", 0, "First frame the search may modify")
	cmd.Flags().StringVar(&f.policy, "policy", "", "Frontier policy: keep-first, replace-better")
	cmd.Flags().StringVar(&f.base, "base", "", "Recording replayed up to the start frame")
	cmd.Flags().StringVar(&f.out, "out", "", "Path of the best recording (default from config)")
}

func runSearch(_ *cobra.Command, _ []string) {
	logger := newLogger()

	rt := runtimeConfig(searchOpts)
	cfg, err := loadConfig(rt, searchOpts)
	if err != nil {
		fatal(logger, "invalid configuration", err)
	}

	fd := int(os.Stdout.Fd())
	dashboard := !flagPlain && term.IsTerminal(fd)

	engineLog := logger
	if dashboard {
		// The dashboard owns the screen
		engineLog = newFileLogger(flagLog)
	}

	s, err := newSession(cfg, searchOpts.base, logger, engineLog)
	if err != nil {
		fatal(logger, "cannot start search", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		res    scattershot.Result
		runErr error
	)
	if dashboard {
		res, runErr = runWithDashboard(ctx, cancel, s, rt.TickRate, fd)
	} else {
		res, runErr = s.run(ctx)
	}

	if runErr != nil {
		fatal(logger, "search failed", runErr)
	}
	s.report(res)
}

// runWithDashboard runs the search behind the dashboard and waits for both
// to end. Quitting the dashboard stops the search.
func runWithDashboard(ctx context.Context, cancel context.CancelFunc, s *session, tickRate, fd int) (scattershot.Result, error) {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(fd); err == nil {
		width = w
		height = h
	}

	type outcome struct {
		res scattershot.Result
		err error
	}
	results := make(chan outcome, 1)
	done := make(chan error, 1)
	go func() {
		res, err := s.run(ctx)
		results <- outcome{res, err}
		done <- err
	}()

	uiErr := tui.RunDashboard(s.engine, s.feed, tui.DashboardConfig{
		Title:    fmt.Sprintf("scattershot · %s · seed %d", s.cfg.Search.Sim, s.engine.Seed()),
		TickRate: tickRate,
		Width:    width,
		Height:   height,
		Cancel:   cancel,
	}, done)
	if uiErr != nil {
		cancel()
		s.logger.Error("dashboard failed", "error", uiErr)
	}

	out := <-results
	return out.res, out.err
}
