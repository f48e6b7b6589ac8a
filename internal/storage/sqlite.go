// Package storage provides SQLite-based persistence for search runs and the
// best recordings they discover.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/scattershot/internal/frame"
	"github.com/vovakirdan/scattershot/internal/m64"
	"github.com/vovakirdan/scattershot/internal/scattershot"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusCanceled = "canceled"
	StatusFailed   = "failed"
)

// Store manages the SQLite database connection for run history.
type Store struct {
	db *sql.DB
}

// Run is one search invocation.
type Run struct {
	ID         string
	SimID      string
	Seed       uint64
	Workers    int
	Budget     int64
	Policy     string
	StartFrame int64
	Config     string // YAML the run was started with
	Status     string
	Iterations int64
	Frontier   int
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
}

// Summary is the final state recorded by FinishRun.
type Summary struct {
	Status     string
	Iterations int64
	Frontier   int
}

// Discovery is a best node found during a run.
type Discovery struct {
	ID         int64
	RunID      string
	Frame      int64
	StartFrame int64
	Fitness    float64
	Bin        string
	Worker     int
	Inputs     *frame.Record // frames StartFrame up to Frame
	CreatedAt  time.Time
}

// SimStats contains aggregated statistics for one simulation.
type SimStats struct {
	SimID       string
	Runs        int
	Discoveries int
	BestFitness float64
	LastRun     time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// Workers report discoveries concurrently; SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			sim_id TEXT NOT NULL,
			seed TEXT NOT NULL,
			workers INTEGER NOT NULL,
			budget INTEGER NOT NULL,
			policy TEXT NOT NULL,
			start_frame INTEGER NOT NULL DEFAULT 0,
			config TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			iterations INTEGER NOT NULL DEFAULT 0,
			frontier INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			finished_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_runs_sim_id ON runs(sim_id);

		CREATE TABLE IF NOT EXISTS discoveries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			frame INTEGER NOT NULL,
			start_frame INTEGER NOT NULL,
			fitness REAL NOT NULL,
			bin TEXT NOT NULL,
			worker INTEGER NOT NULL,
			inputs BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_discoveries_run ON discoveries(run_id, fitness DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateRun records the start of a run and returns its generated ID.
func (s *Store) CreateRun(r Run) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, sim_id, seed, workers, budget, policy, start_frame, config, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.SimID, strconv.FormatUint(r.Seed, 10), r.Workers, r.Budget, r.Policy, r.StartFrame, r.Config, StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot create run: %w", err)
	}
	return id, nil
}

// FinishRun records the final state of a run.
func (s *Store) FinishRun(id string, sum Summary) error {
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, iterations = ?, frontier = ?, finished_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		sum.Status, sum.Iterations, sum.Frontier, id,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("storage: no run %s", id)
	}
	return nil
}

// SaveDiscovery records a best node. Returns the ID of the inserted record.
func (s *Store) SaveDiscovery(d Discovery) (int64, error) {
	inputs := m64.EncodeSamples(d.Inputs, d.StartFrame, d.Frame)
	if inputs == nil {
		inputs = []byte{}
	}
	result, err := s.db.Exec(
		`INSERT INTO discoveries (run_id, frame, start_frame, fitness, bin, worker, inputs)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.RunID, d.Frame, d.StartFrame, d.Fitness, d.Bin, d.Worker, inputs,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save discovery: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

const runColumns = `id, sim_id, seed, workers, budget, policy, start_frame, config,
	status, iterations, frontier, started_at, finished_at`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var r Run
	var seed string
	var startedAt, finishedAt any
	if err := row.Scan(&r.ID, &r.SimID, &seed, &r.Workers, &r.Budget, &r.Policy, &r.StartFrame,
		&r.Config, &r.Status, &r.Iterations, &r.Frontier, &startedAt, &finishedAt); err != nil {
		return Run{}, err
	}
	r.Seed, _ = strconv.ParseUint(seed, 10, 64)
	r.StartedAt = parseTime(startedAt)
	r.FinishedAt = parseTime(finishedAt)
	return r, nil
}

// RunByID retrieves a run. Returns nil if it does not exist.
func (s *Store) RunByID(id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}
	return &r, nil
}

// RecentRuns retrieves the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return runs, nil
}

const discoveryColumns = `id, run_id, frame, start_frame, fitness, bin, worker, inputs, created_at`

func scanDiscovery(row interface{ Scan(...any) error }) (Discovery, error) {
	var d Discovery
	var inputs []byte
	var createdAt any
	if err := row.Scan(&d.ID, &d.RunID, &d.Frame, &d.StartFrame, &d.Fitness, &d.Bin, &d.Worker,
		&inputs, &createdAt); err != nil {
		return Discovery{}, err
	}
	d.Inputs = m64.DecodeSamples(inputs, d.StartFrame)
	d.CreatedAt = parseTime(createdAt)
	return d, nil
}

// BestDiscovery retrieves the fittest discovery of a run. Returns nil if the
// run has none.
func (s *Store) BestDiscovery(runID string) (*Discovery, error) {
	d, err := scanDiscovery(s.db.QueryRow(
		`SELECT `+discoveryColumns+` FROM discoveries
		 WHERE run_id = ?
		 ORDER BY fitness DESC, id DESC
		 LIMIT 1`,
		runID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query discovery: %w", err)
	}
	return &d, nil
}

// Discoveries retrieves the discoveries of a run in the order they were found.
func (s *Store) Discoveries(runID string) ([]Discovery, error) {
	rows, err := s.db.Query(
		`SELECT `+discoveryColumns+` FROM discoveries WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query discoveries: %w", err)
	}
	defer rows.Close()

	var out []Discovery
	for rows.Next() {
		d, err := scanDiscovery(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// GetAllSimStats retrieves statistics for every simulation that has runs.
func (s *Store) GetAllSimStats() (map[string]*SimStats, error) {
	rows, err := s.db.Query(
		`SELECT r.sim_id, COUNT(DISTINCT r.id), COUNT(d.id), COALESCE(MAX(d.fitness), 0), MAX(r.started_at)
		 FROM runs r LEFT JOIN discoveries d ON d.run_id = r.id
		 GROUP BY r.sim_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get sim stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*SimStats)
	for rows.Next() {
		var st SimStats
		var lastRun any
		if err := rows.Scan(&st.SimID, &st.Runs, &st.Discoveries, &st.BestFitness, &lastRun); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastRun = parseTime(lastRun)
		stats[st.SimID] = &st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

// parseTime handles the time.Time and string forms the driver returns.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// DiscoverySink records every new best node of one run.
// It implements scattershot.BestSink.
type DiscoverySink struct {
	Store      *Store
	RunID      string
	StartFrame int64
}

// WriteBest saves n as a discovery.
func (d DiscoverySink) WriteBest(_ context.Context, n scattershot.Node) error {
	_, err := d.Store.SaveDiscovery(Discovery{
		RunID:      d.RunID,
		Frame:      n.Frame,
		StartFrame: d.StartFrame,
		Fitness:    n.Fitness,
		Bin:        n.Bin.String(),
		Worker:     n.Worker,
		Inputs:     n.Record,
	})
	return err
}

var _ scattershot.BestSink = DiscoverySink{}
