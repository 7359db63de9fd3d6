package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type task struct {
	id      string
	payload Payload
}

// Queue hands uploaded files to a fixed pool of workers. Each job is processed by
// exactly one worker; its state is kept in the Store.
type Queue struct {
	store   Store
	handler Handler
	workers int
	tasks   chan task
	now     func() time.Time
}

func NewQueue(store Store, handler Handler, workers, size int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	return &Queue{
		store:   store,
		handler: handler,
		workers: workers,
		tasks:   make(chan task, size),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enqueue records a PENDING job and schedules it. It never blocks; when the buffer is
// full the job is marked FAILURE and ErrQueueFull is returned.
func (q *Queue) Enqueue(ctx context.Context, p Payload) (string, error) {
	now := q.now()
	job := Job{
		ID:        uuid.New().String(),
		FileName:  p.FileName,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.store.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	select {
	case q.tasks <- task{id: job.ID, payload: p}:
		log.Printf("Queued job %s for %s", job.ID, p.FileName)
		return job.ID, nil
	default:
		job.Status = StatusFailure
		job.Error = ErrQueueFull.Error()
		job.UpdatedAt = q.now()
		if err := q.store.Update(ctx, job); err != nil {
			log.Printf("Failed to mark job %s as failed: %v", job.ID, err)
		}
		return job.ID, ErrQueueFull
	}
}

func (q *Queue) Status(ctx context.Context, id string) (Job, error) {
	return q.store.Get(ctx, id)
}

// Run starts the workers and blocks until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < q.workers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case t := <-q.tasks:
					q.process(gctx, t)
				}
			}
		})
	}
	log.Printf("Job queue started with %d workers", q.workers)
	return g.Wait()
}

// Drain fails every job still waiting in the buffer and removes its uploaded file.
// Call it once the workers have stopped; it returns the number of jobs failed.
func (q *Queue) Drain(ctx context.Context) int {
	var n int
	for {
		select {
		case t := <-q.tasks:
			q.abandon(ctx, t)
			n++
		default:
			return n
		}
	}
}

func (q *Queue) abandon(ctx context.Context, t task) {
	if t.payload.FilePath != "" {
		if err := os.Remove(t.payload.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove temp file %s: %v", t.payload.FilePath, err)
		}
	}
	job, err := q.store.Get(ctx, t.id)
	if err != nil {
		log.Printf("Job %s vanished before shutdown: %v", t.id, err)
		return
	}
	job.Status = StatusFailure
	job.Error = ErrShutdown.Error()
	job.UpdatedAt = q.now()
	if err := q.store.Update(ctx, job); err != nil {
		log.Printf("Failed to mark job %s as failed: %v", t.id, err)
	}
}

func (q *Queue) process(ctx context.Context, t task) {
	job, err := q.store.Get(ctx, t.id)
	if err != nil {
		log.Printf("Job %s vanished before processing: %v", t.id, err)
		return
	}

	job.Status = StatusStarted
	job.UpdatedAt = q.now()
	if err := q.store.Update(ctx, job); err != nil {
		log.Printf("Failed to mark job %s as started: %v", t.id, err)
	}

	result, err := q.run(ctx, t.payload)
	job.UpdatedAt = q.now()
	if err == nil {
		job.Result, err = json.Marshal(result)
	}
	if err != nil {
		log.Printf("Job %s failed for file %s: %v", t.id, t.payload.FileName, err)
		job.Status = StatusFailure
		job.Error = err.Error()
		job.Result = nil
	} else {
		log.Printf("Job %s completed for file %s", t.id, t.payload.FileName)
		job.Status = StatusSuccess
	}

	// The final state is written even if ctx was cancelled mid-job.
	if err := q.store.Update(context.WithoutCancel(ctx), job); err != nil {
		log.Printf("Failed to store result of job %s: %v", t.id, err)
	}
}

func (q *Queue) run(ctx context.Context, p Payload) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return q.handler(ctx, p)
}
