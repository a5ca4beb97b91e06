// Package storage persists scheduling-run telemetry to a local SQLite
// database so operators can inspect recent runs and success trends. It never
// stores calendar events; result persistence belongs to the event-store
// collaborator.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/campusclock/timeblock/pkg/metrics"
)

// RunStore manages the SQLite database of completed scheduling runs
type RunStore struct {
	db   *sql.DB
	path string
}

// NewRunStore opens (or creates) the run-history database at the given path
func NewRunStore(dbPath string) (*RunStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &RunStore{
		db:   db,
		path: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables
func (s *RunStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		task_count INTEGER NOT NULL,
		scheduled_count INTEGER NOT NULL,
		final_status TEXT NOT NULL,
		success_rate REAL NOT NULL,
		total_duration_seconds REAL NOT NULL,
		total_attempts INTEGER NOT NULL,
		attempts_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_final_status ON runs(final_status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun persists one completed scheduling run
func (s *RunStore) SaveRun(m *metrics.RunMetrics) error {
	attemptsJSON, err := json.Marshal(m.Attempts)
	if err != nil {
		return fmt.Errorf("failed to encode attempts: %w", err)
	}

	query := `
	INSERT INTO runs (run_id, task_count, scheduled_count, final_status, success_rate,
	                  total_duration_seconds, total_attempts, attempts_json, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.Exec(query,
		m.RunID, m.TaskCount, m.ScheduledCount, m.FinalStatus, m.SuccessRate,
		m.TotalDurationSeconds, m.TotalAttempts, string(attemptsJSON), m.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", m.RunID, err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first
func (s *RunStore) RecentRuns(limit int) ([]*metrics.RunMetrics, error) {
	query := `
	SELECT run_id, task_count, scheduled_count, final_status, success_rate,
	       total_duration_seconds, total_attempts, attempts_json, created_at
	FROM runs
	ORDER BY created_at DESC, id DESC
	LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*metrics.RunMetrics
	for rows.Next() {
		var run metrics.RunMetrics
		var attemptsJSON string
		err := rows.Scan(&run.RunID, &run.TaskCount, &run.ScheduledCount, &run.FinalStatus,
			&run.SuccessRate, &run.TotalDurationSeconds, &run.TotalAttempts, &attemptsJSON, &run.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(attemptsJSON), &run.Attempts); err != nil {
			return nil, fmt.Errorf("failed to decode attempts for run %s: %w", run.RunID, err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// AggregatedStats summarizes run history over a time window
type AggregatedStats struct {
	TotalRuns       int     `json:"total_runs"`
	OptimalRuns     int     `json:"optimal_runs"`
	FeasibleRuns    int     `json:"feasible_runs"`
	ImpossibleRuns  int     `json:"impossible_runs"`
	AverageRate     float64 `json:"average_success_rate"`
	AverageAttempts float64 `json:"average_attempts"`
}

// Stats aggregates runs recorded since the given time
func (s *RunStore) Stats(since time.Time) (*AggregatedStats, error) {
	query := `
	SELECT final_status, success_rate, total_attempts
	FROM runs
	WHERE created_at >= ?`

	rows, err := s.db.Query(query, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query run stats: %w", err)
	}
	defer rows.Close()

	stats := &AggregatedStats{}
	rateSum := 0.0
	attemptSum := 0

	for rows.Next() {
		var status string
		var rate float64
		var attempts int
		if err := rows.Scan(&status, &rate, &attempts); err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}
		stats.TotalRuns++
		rateSum += rate
		attemptSum += attempts
		switch status {
		case "optimal":
			stats.OptimalRuns++
		case "feasible":
			stats.FeasibleRuns++
		case "impossible":
			stats.ImpossibleRuns++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.TotalRuns > 0 {
		stats.AverageRate = rateSum / float64(stats.TotalRuns)
		stats.AverageAttempts = float64(attemptSum) / float64(stats.TotalRuns)
	}
	return stats, nil
}

// Close closes the underlying database
func (s *RunStore) Close() error {
	return s.db.Close()
}
