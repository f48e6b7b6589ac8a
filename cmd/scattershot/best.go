package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/scattershot/internal/m64"
	"github.com/vovakirdan/scattershot/internal/scattershot"
	"github.com/vovakirdan/scattershot/internal/storage"
)

var (
	flagBestOut  string
	flagBestBase string
)

var bestCmd = &cobra.Command{
	Use:   "best <run>",
	Short: "Export the best recording of a run",
	Long: `Write the best discovery of a recorded run as an m64 recording.

The run may be given by its full ID or by a unique prefix, as printed by
'scattershot runs'. Discoveries only hold the frames the search wrote;
pass the recording the search started from with --base to keep the
frames before the start frame.

Examples:
  scattershot best 3f2a9c1e
  scattershot best 3f2a9c1e --base run.m64 --out best.m64`,
	Args: cobra.ExactArgs(1),
	Run:  runBest,
}

func init() {
	bestCmd.Flags().StringVar(&flagBestOut, "out", "best.m64", "Output recording path")
	bestCmd.Flags().StringVar(&flagBestBase, "base", "", "Recording the run started from")
}

func runBest(_ *cobra.Command, args []string) {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	run, err := findRun(store, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	d, err := store.BestDiscovery(run.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving discovery: %v\n", err)
		os.Exit(1)
	}
	if d == nil {
		fmt.Fprintf(os.Stderr, "Run %s has no discoveries.\n", shortID(run.ID))
		os.Exit(1)
	}

	w := m64.NewWriter(flagBestOut, flagBestBase, d.StartFrame)
	err = w.WriteBest(context.Background(), scattershot.Node{
		Record:  d.Inputs,
		Frame:   d.Frame,
		Fitness: d.Fitness,
		Worker:  d.Worker,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing recording: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s\n", w.Path())
	fmt.Printf("  run      %s (%s, seed %d)\n", run.ID, run.SimID, run.Seed)
	fmt.Printf("  fitness  %.6f\n", d.Fitness)
	fmt.Printf("  frames   %d..%d\n", d.StartFrame, d.Frame)
	fmt.Printf("  bin      %s\n", d.Bin)
}

// findRun resolves a full run ID or a unique prefix of one.
func findRun(store *storage.Store, id string) (*storage.Run, error) {
	run, err := store.RunByID(id)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}

	runs, err := store.RecentRuns(1000)
	if err != nil {
		return nil, err
	}
	var match *storage.Run
	for i := range runs {
		if !strings.HasPrefix(runs[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run prefix %q is ambiguous", id)
		}
		match = &runs[i]
	}
	if match == nil {
		return nil, fmt.Errorf("unknown run %q", id)
	}
	return match, nil
}
