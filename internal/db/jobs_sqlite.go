package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jonathan/resume-tailor/internal/jobstore"
	"github.com/jonathan/resume-tailor/internal/types"
)

// SQLiteJobStore keeps jobs in a single-file SQLite database.
// Use ":memory:" for a throwaway store.
type SQLiteJobStore struct {
	db *sql.DB
}

// NewSQLiteJobStore opens (or creates) the database at path.
func NewSQLiteJobStore(ctx context.Context, path string) (*SQLiteJobStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db, "sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteJobStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteJobStore) Close() error {
	return s.db.Close()
}

// Create inserts a new job; an existing id yields jobstore.ErrExists.
func (s *SQLiteJobStore) Create(ctx context.Context, job *types.Job) error {
	doc, err := encodeJob(job)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tailoring_jobs (id, status, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		job.ID, string(job.Status), string(doc), job.CreatedAt.UnixNano(), job.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return jobstore.ErrExists
	}
	return nil
}

// Put replaces the stored document in one statement.
func (s *SQLiteJobStore) Put(ctx context.Context, job *types.Job) error {
	doc, err := encodeJob(job)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tailoring_jobs SET status = ?, document = ?, updated_at = ? WHERE id = ?`,
		string(job.Status), string(doc), job.UpdatedAt.UnixNano(), job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return jobstore.ErrNotFound
	}
	return nil
}

// Get loads a job by id.
func (s *SQLiteJobStore) Get(ctx context.Context, id string) (*types.Job, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM tailoring_jobs WHERE id = ?`, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, jobstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}
	return decodeJob([]byte(doc))
}

// List returns every job, oldest first.
func (s *SQLiteJobStore) List(ctx context.Context) ([]*types.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM tailoring_jobs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*types.Job
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		job, err := decodeJob([]byte(doc))
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return jobs, nil
}
