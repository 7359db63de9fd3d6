package server

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/docintel/internal/jobs"
)

func TestServe_UploadDuringShutdownIsNotLost(t *testing.T) {
	queue := jobs.NewQueue(jobs.NewMemoryStore(), func(ctx context.Context, p jobs.Payload) (any, error) {
		return nil, os.Remove(p.FilePath)
	}, 1, 4)

	file := filepath.Join(t.TempDir(), "policy.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF"), 0o644))

	entered := make(chan struct{})
	release := make(chan struct{})
	ids := make(chan string, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		id, err := queue.Enqueue(r.Context(), jobs.Payload{FilePath: file, FileName: "policy.pdf"})
		assert.NoError(t, err)
		ids <- id
		w.WriteHeader(http.StatusAccepted)
	})}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln, queue) }()

	status := make(chan int, 1)
	go func() {
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Post("http://"+ln.Addr().String()+"/upload", "application/pdf", nil)
		if !assert.NoError(t, err) {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-entered
	cancel()
	close(release)

	assert.Equal(t, http.StatusAccepted, <-status)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	job, err := queue.Status(context.Background(), <-ids)
	require.NoError(t, err)
	assert.True(t, job.Status.Done(), "job left in %s", job.Status)
	assert.NoFileExists(t, file)
}
