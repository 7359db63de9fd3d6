package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go sqlite driver
)

const createJobsTable = `CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	status TEXT NOT NULL,
	result TEXT,
	error TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore persists job state so task status survives a restart.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens the database at path and creates the jobs table. Jobs left
// PENDING or STARTED by a previous process are marked FAILURE since no worker owns them.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createJobsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create jobs table: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE status IN (?, ?)`,
		StatusFailure, "interrupted by restart", time.Now().UTC().UnixMilli(), StatusPending, StatusStarted)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("recover interrupted jobs: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, job Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, filename, status, result, error, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.FileName, string(job.Status), nullableJSON(job.Result), job.Error,
		job.CreatedAt.UnixMilli(), job.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Job, error) {
	var (
		job              Job
		status           string
		result           sql.NullString
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, status, result, error, created_at, updated_at FROM jobs WHERE id = ?`, id).
		Scan(&job.ID, &job.FileName, &status, &result, &job.Error, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job %s: %w", id, err)
	}
	job.Status = Status(status)
	if result.Valid && result.String != "" {
		job.Result = []byte(result.String)
	}
	job.CreatedAt = time.UnixMilli(created).UTC()
	job.UpdatedAt = time.UnixMilli(updated).UTC()
	return job, nil
}

func (s *SQLiteStore) Update(ctx context.Context, job Job) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, result = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(job.Status), nullableJSON(job.Result), job.Error, job.UpdatedAt.UnixMilli(), job.ID)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
