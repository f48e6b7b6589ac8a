package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/scattershot/internal/platform/tui"
)

var (
	serveOpts       searchFlags
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a search and share its dashboard over SSH",
	Long: `Run a search and start an SSH server that shows its live dashboard.

Every SSH connection gets its own read-only view of the same search.
The search logs to stderr; once it finishes the server keeps serving the
final results until interrupted.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.scattershot/host_key

Examples:
  scattershot serve                           # Listen on :23235 with auto-generated key
  scattershot serve --ssh :2222               # Listen on port 2222
  scattershot serve --workers 8 --iterations -1
  scattershot serve --host-key ./my_host_key  # Use specific host key

Viewers can connect with:
  ssh localhost -p 23235`,
	Run: runServe,
}

func init() {
	addSearchFlags(serveCmd, &serveOpts)
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23235", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) {
	logger := newLogger()

	rt := runtimeConfig(serveOpts)
	cfg, err := loadConfig(rt, serveOpts)
	if err != nil {
		fatal(logger, "invalid configuration", err)
	}

	s, err := newSession(cfg, serveOpts.base, logger, logger)
	if err != nil {
		fatal(logger, "cannot start search", err)
	}

	sshCfg := tui.DefaultSSHServerConfig()
	sshCfg.Address = flagSSHAddr
	sshCfg.HostKeyPath = flagHostKey
	sshCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	sshCfg.TickRate = rt.TickRate
	sshCfg.Title = fmt.Sprintf("scattershot · %s · seed %d", cfg.Search.Sim, s.engine.Seed())

	server, err := tui.NewSSHServer(sshCfg, s.engine, s.feed, logger.WithPrefix("ssh"))
	if err != nil {
		fatal(logger, "cannot create SSH server", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})
	g.Go(func() error {
		res, err := s.run(gctx)
		if err != nil {
			return err
		}
		s.report(res)
		if !res.Canceled {
			logger.Info("still serving results; press Ctrl+C to stop", "address", server.Addr())
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		fatal(logger, "serve failed", err)
	}
}
