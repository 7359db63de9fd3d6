package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/agenthands/docintel/internal/app"
)

const shutdownTimeout = 10 * time.Second

type jobRunner interface {
	Run(ctx context.Context) error
	Drain(ctx context.Context) int
}

// ListenAndServe runs the HTTP API and the ingestion workers until ctx is cancelled.
func ListenAndServe(ctx context.Context, a *app.App) error {
	if err := a.EnsureUploadDir(); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: NewServer(a.Config.Server, a.Retrieval, a.Jobs).SetupRouter(),
	}
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}
	log.Printf("Starting server on port %s", a.Config.Server.Port)
	return serve(ctx, srv, ln, a.Jobs)
}

// serve stops in order: in-flight requests finish first, then the workers, and
// whatever is still queued after that is failed so no job is left PENDING.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, jobs jobRunner) error {
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()
	workersDone := make(chan error, 1)
	go func() { workersDone <- jobs.Run(workerCtx) }()

	stopJobs := func() error {
		stopWorkers()
		err := <-workersDone
		if n := jobs.Drain(context.WithoutCancel(ctx)); n > 0 {
			log.Printf("Failed %d queued jobs on shutdown", n)
		}
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = stopJobs()
			return err
		}
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	workersErr := stopJobs()
	if shutdownErr != nil {
		return fmt.Errorf("server shutdown: %w", shutdownErr)
	}
	return workersErr
}
