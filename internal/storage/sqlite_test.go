package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vovakirdan/scattershot/internal/binning"
	"github.com/vovakirdan/scattershot/internal/core"
	"github.com/vovakirdan/scattershot/internal/frame"
	"github.com/vovakirdan/scattershot/internal/scattershot"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)

	id, err := store.CreateRun(Run{
		SimID:   "pyramid",
		Seed:    1<<63 + 5,
		Workers: 4,
		Budget:  20000,
		Policy:  "keep-first",
		Config:  "search:\n  workers: 4\n",
	})
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	if id == "" {
		t.Fatal("CreateRun() returned an empty ID")
	}

	run, err := store.RunByID(id)
	if err != nil {
		t.Fatalf("RunByID() failed: %v", err)
	}
	if run == nil {
		t.Fatal("RunByID() found nothing")
	}
	if run.Status != StatusRunning {
		t.Errorf("Status = %q, want %q", run.Status, StatusRunning)
	}
	if run.Seed != 1<<63+5 {
		t.Errorf("Seed = %d, want %d", run.Seed, uint64(1<<63+5))
	}
	if !run.FinishedAt.IsZero() {
		t.Error("running run has a finish time")
	}

	if err := store.FinishRun(id, Summary{Status: StatusFinished, Iterations: 20000, Frontier: 321}); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}
	run, err = store.RunByID(id)
	if err != nil {
		t.Fatalf("RunByID() failed: %v", err)
	}
	if run.Status != StatusFinished || run.Iterations != 20000 || run.Frontier != 321 {
		t.Errorf("finished run = %+v", run)
	}
	if run.FinishedAt.IsZero() {
		t.Error("finished run has no finish time")
	}

	if err := store.FinishRun("no-such-run", Summary{Status: StatusFailed}); err == nil {
		t.Error("FinishRun() of an unknown run should fail")
	}
	if missing, err := store.RunByID("no-such-run"); err != nil || missing != nil {
		t.Errorf("RunByID(unknown) = %v, %v; want nil, nil", missing, err)
	}
}

func TestRecentRuns(t *testing.T) {
	store := openTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.CreateRun(Run{SimID: "pyramid", Workers: 1, Policy: "keep-first"})
		if err != nil {
			t.Fatalf("CreateRun() failed: %v", err)
		}
		ids = append(ids, id)
	}

	runs, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns(2) returned %d runs", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("RecentRuns() order = %s, %s; want newest first", runs[0].ID, runs[1].ID)
	}
}

func TestDiscoveries(t *testing.T) {
	store := openTestStore(t)
	runID, err := store.CreateRun(Run{SimID: "pyramid", Workers: 1, Policy: "keep-first", StartFrame: 10})
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}

	rec := frame.NewRecord()
	rec.Set(10, core.NewInput(core.ButtonB, 40, -12))
	rec.Set(12, core.NewInput(core.ButtonZ, -3, 64))

	sink := DiscoverySink{Store: store, RunID: runID, StartFrame: 10}
	nodes := []scattershot.Node{
		{Bin: binning.Bin{X: 1}, Record: frame.NewRecord(), Frame: 10, Fitness: 0.1, Worker: 0},
		{Bin: binning.Bin{X: 2, S: 99}, Record: rec, Frame: 13, Fitness: 0.6, Worker: 2},
	}
	for _, n := range nodes {
		if err := sink.WriteBest(context.Background(), n); err != nil {
			t.Fatalf("WriteBest() failed: %v", err)
		}
	}

	all, err := store.Discoveries(runID)
	if err != nil {
		t.Fatalf("Discoveries() failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Discoveries() returned %d, want 2", len(all))
	}

	best, err := store.BestDiscovery(runID)
	if err != nil {
		t.Fatalf("BestDiscovery() failed: %v", err)
	}
	if best == nil {
		t.Fatal("BestDiscovery() found nothing")
	}
	if best.Fitness != 0.6 || best.Frame != 13 || best.Worker != 2 || best.Bin != "2/0/0:99" {
		t.Errorf("best = %+v", best)
	}
	if diff := cmp.Diff(rec.Inputs(10, 13), best.Inputs.Inputs(10, 13)); diff != "" {
		t.Errorf("stored inputs mismatch (-want +got):\n%s", diff)
	}
	if best.Inputs.Len() != 3 {
		t.Errorf("stored %d frames, want 3", best.Inputs.Len())
	}

	none, err := store.BestDiscovery("other-run")
	if err != nil || none != nil {
		t.Errorf("BestDiscovery(unknown) = %v, %v; want nil, nil", none, err)
	}
}

func TestGetAllSimStats(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 2; i++ {
		id, err := store.CreateRun(Run{SimID: "pyramid", Workers: 1, Policy: "keep-first"})
		if err != nil {
			t.Fatalf("CreateRun() failed: %v", err)
		}
		if _, err := store.SaveDiscovery(Discovery{
			RunID:   id,
			Fitness: float64(i) + 0.5,
			Bin:     "0/0/0:0",
			Inputs:  frame.NewRecord(),
		}); err != nil {
			t.Fatalf("SaveDiscovery() failed: %v", err)
		}
	}

	stats, err := store.GetAllSimStats()
	if err != nil {
		t.Fatalf("GetAllSimStats() failed: %v", err)
	}
	st, ok := stats["pyramid"]
	if !ok {
		t.Fatal("no stats for pyramid")
	}
	if st.Runs != 2 || st.Discoveries != 2 || st.BestFitness != 1.5 {
		t.Errorf("stats = %+v", st)
	}
}
