// Package store persists finished allocation runs so the server can list,
// fetch, export and delete them later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rhyrak/go-allocate/pkg/model"
)

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("run not found")

// Run status values.
const (
	StatusSuccess = "success"
)

// Run is one stored allocation.
type Run struct {
	ID        string
	Status    string
	Report    string
	Result    model.AllocationResult
	CreatedAt time.Time
}

// RunMeta is the listing view of a run.
type RunMeta struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	Report    string      `json:"report"`
	Stats     model.Stats `json:"stats"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Store keeps runs in a SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the run database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS allocation_run (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			report TEXT NOT NULL,
			data TEXT NOT NULL,
			total INTEGER NOT NULL,
			allocated INTEGER NOT NULL,
			unallocated INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_allocation_run_created ON allocation_run(created_at)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Create stores run, filling in ID and CreatedAt when they are empty.
func (s *Store) Create(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(run.Result.Records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	stats := run.Result.Stats
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO allocation_run (id, status, report, data, total, allocated, unallocated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Status, run.Report, string(data), stats.Total, stats.Allocated, stats.Unallocated, run.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Get loads a run with its records.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var (
		run     Run
		data    string
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, report, data, total, allocated, unallocated, created_at FROM allocation_run WHERE id = ?`, id).
		Scan(&run.ID, &run.Status, &run.Report, &data,
			&run.Result.Stats.Total, &run.Result.Stats.Allocated, &run.Result.Stats.Unallocated, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &run.Result.Records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	run.CreatedAt = time.Unix(0, created).UTC()
	return &run, nil
}

// List returns every run, oldest first, without records.
func (s *Store) List(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, report, total, allocated, unallocated, created_at FROM allocation_run ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunMeta{}
	for rows.Next() {
		var (
			meta    RunMeta
			created int64
		)
		if err := rows.Scan(&meta.ID, &meta.Status, &meta.Report,
			&meta.Stats.Total, &meta.Stats.Allocated, &meta.Stats.Unallocated, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.CreatedAt = time.Unix(0, created).UTC()
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// Delete removes a run.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM allocation_run WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
