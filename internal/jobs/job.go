package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("job not found")
	ErrQueueFull = errors.New("job queue is full")
	ErrShutdown  = errors.New("interrupted by shutdown")
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusStarted Status = "STARTED"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Done reports whether the job reached a terminal state.
func (s Status) Done() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Payload describes an uploaded file waiting to be ingested.
type Payload struct {
	FilePath string `json:"file_path"`
	FileName string `json:"file_name"`
}

type Job struct {
	ID        string          `json:"task_id"`
	FileName  string          `json:"filename"`
	Status    Status          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Handler runs one job. The returned value is stored as the job result.
type Handler func(ctx context.Context, p Payload) (any, error)

type Store interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
	Update(ctx context.Context, job Job) error
	Close() error
}
