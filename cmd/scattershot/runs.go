package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/scattershot/internal/platform/tui"
	"github.com/vovakirdan/scattershot/internal/storage"
)

var (
	flagRunsLimit int
	flagRunsPlain bool
	flagRunsStats bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse past runs",
	Long: `Browse the search runs recorded in the database.

On a terminal an interactive browser shows each run with its best
discovery. Otherwise, or with --plain, the most recent runs are printed.

Examples:
  scattershot runs
  scattershot runs --plain --limit 20
  scattershot runs --stats
  scattershot runs --db ./runs.db`,
	Run: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 10, "Number of runs to print in plain mode")
	runsCmd.Flags().BoolVar(&flagRunsPlain, "plain", false, "Print runs instead of opening the browser")
	runsCmd.Flags().BoolVar(&flagRunsStats, "stats", false, "Print totals per simulation")
}

func runRuns(_ *cobra.Command, _ []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case flagRunsStats:
		err = printStats(store)
	case flagRunsPlain || !term.IsTerminal(int(os.Stdout.Fd())):
		err = printRuns(store, flagRunsLimit)
	default:
		width, height := 80, 24
		if w, h, sizeErr := term.GetSize(int(os.Stdout.Fd())); sizeErr == nil {
			width = w
			height = h
		}
		err = tui.RunRuns(store, width, height)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printRuns(store *storage.Store, limit int) error {
	runs, err := store.RecentRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'scattershot search' to start one.")
		return nil
	}

	// Print header
	fmt.Printf("  %-8s  %-10s  %-9s  %-10s  %-8s  %-12s  %s\n",
		"Run", "Sim", "Status", "Iterations", "Frontier", "Best", "Started")
	fmt.Printf("  %-8s  %-10s  %-9s  %-10s  %-8s  %-12s  %s\n",
		"---", "---", "------", "----------", "--------", "----", "-------")

	for _, r := range runs {
		best := "-"
		if d, err := store.BestDiscovery(r.ID); err == nil && d != nil {
			best = fmt.Sprintf("%.6f", d.Fitness)
		}
		fmt.Printf("  %-8s  %-10s  %-9s  %-10d  %-8d  %-12s  %s\n",
			shortID(r.ID), r.SimID, r.Status, r.Iterations, r.Frontier, best,
			r.StartedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func printStats(store *storage.Store) error {
	stats, err := store.GetAllSimStats()
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("  %-10s  %-5s  %-11s  %-12s  %s\n", "Sim", "Runs", "Discoveries", "Best", "Last run")
	fmt.Printf("  %-10s  %-5s  %-11s  %-12s  %s\n", "---", "----", "-----------", "----", "--------")
	for _, id := range ids {
		s := stats[id]
		fmt.Printf("  %-10s  %-5d  %-11d  %-12.6f  %s\n",
			s.SimID, s.Runs, s.Discoveries, s.BestFitness, s.LastRun.Format("2006-01-02 15:04"))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
