// scattershot searches for controller input sequences that drive a
// deterministic simulation toward a target state.
//
// Usage:
//
//	scattershot search             - Run a search with a live dashboard
//	scattershot serve              - Run a search and share its dashboard over SSH
//	scattershot resolve <yaw> <mag> - Find the stick reading for an intended movement
//	scattershot list               - List available simulations
//	scattershot runs               - Browse past runs
//	scattershot best <run>         - Export the best recording of a run
//
// Global flags:
//
//	--seed <value>   - Set RNG seed for a reproducible search
//	--db <path>      - Set database path (default: ~/.scattershot/runs.db)
//	--config <path>  - Use a custom search config YAML
//	--preset <name>  - Apply a search preset: explore, exploit, fixed
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	// Import simulations to register them
	_ "github.com/vovakirdan/scattershot/internal/sim/pyramid"
)

var (
	// Global flags
	flagSeed   int64
	flagDBPath string
	flagConfig string
	flagPreset string
	flagTick   int
	flagLog    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scattershot",
	Short: "Scattershot - randomized input search for deterministic simulations",
	Long: `Scattershot explores the states a deterministic simulation can reach
from a starting frame, keeping one input recording per coarse state bin
and steering toward the fittest state found so far.

Available commands:
  search   - Run a search with a live dashboard
  serve    - Run a search and share its dashboard over SSH
  resolve  - Find the stick reading for an intended movement
  list     - Show all available simulations
  runs     - Browse past runs
  best     - Export the best recording of a run

Examples:
  scattershot search --iterations 50000 --workers 4
  scattershot search --base run.m64 --start-frame 3200 --out best.m64
  scattershot resolve 0x8000 32 --camera 0x4000
  scattershot runs
  scattershot best 3f2a9c1e --out best.m64`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.scattershot/runs.db", "Path to run history database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom search config YAML")
	rootCmd.PersistentFlags().StringVar(&flagPreset, "preset", "", "Search preset: explore, exploit, fixed")
	rootCmd.PersistentFlags().IntVar(&flagTick, "tick", 10, "Dashboard refresh rate (updates per second)")
	rootCmd.PersistentFlags().StringVar(&flagLog, "log-file", "~/.scattershot/scattershot.log", "Log file used while the dashboard is shown")

	// Add subcommands
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(bestCmd)
}

// newLogger returns the command-line logger.
func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "scattershot",
	})
}

// newFileLogger returns a logger writing to a rotated file at path.
func newFileLogger(path string) *log.Logger {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return log.NewWithOptions(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}, log.Options{
		ReportTimestamp: true,
		Prefix:          "scattershot",
		Formatter:       log.LogfmtFormatter,
	})
}

// fatal logs err and exits.
func fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
