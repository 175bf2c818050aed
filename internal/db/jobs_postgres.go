package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jonathan/resume-tailor/internal/jobstore"
	"github.com/jonathan/resume-tailor/internal/types"
)

// PostgresJobStore keeps each job as a JSONB document keyed by id
type PostgresJobStore struct {
	db *DB
}

// NewPostgresJobStore migrates the schema and returns a store over db.
func NewPostgresJobStore(ctx context.Context, db *DB) (*PostgresJobStore, error) {
	conn := stdlib.OpenDBFromPool(db.pool)
	defer func() { _ = conn.Close() }()
	if err := RunMigrations(ctx, conn, "postgres"); err != nil {
		return nil, err
	}
	return &PostgresJobStore{db: db}, nil
}

// Create inserts a new job; an existing id yields jobstore.ErrExists.
func (s *PostgresJobStore) Create(ctx context.Context, job *types.Job) error {
	doc, err := encodeJob(job)
	if err != nil {
		return err
	}

	tag, err := s.db.pool.Exec(ctx,
		`INSERT INTO tailoring_jobs (id, status, document, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		job.ID, string(job.Status), doc, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return jobstore.ErrExists
	}
	return nil
}

// Put replaces the stored document in one statement.
func (s *PostgresJobStore) Put(ctx context.Context, job *types.Job) error {
	doc, err := encodeJob(job)
	if err != nil {
		return err
	}

	tag, err := s.db.pool.Exec(ctx,
		`UPDATE tailoring_jobs SET status = $2, document = $3, updated_at = $4 WHERE id = $1`,
		job.ID, string(job.Status), doc, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return jobstore.ErrNotFound
	}
	return nil
}

// Get loads a job by id.
func (s *PostgresJobStore) Get(ctx context.Context, id string) (*types.Job, error) {
	var doc []byte
	err := s.db.pool.QueryRow(ctx,
		`SELECT document FROM tailoring_jobs WHERE id = $1`, id,
	).Scan(&doc)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, jobstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return decodeJob(doc)
}

// List returns every job, oldest first.
func (s *PostgresJobStore) List(ctx context.Context) ([]*types.Job, error) {
	rows, err := s.db.pool.Query(ctx,
		`SELECT document FROM tailoring_jobs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*types.Job
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		job, err := decodeJob(doc)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}
