package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLlamaServer(t *testing.T, finalStatus string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/parsing/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer llx-test", r.Header.Get("Authorization"))
		_, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			assert.Equal(t, "policy.pdf", header.Filename)
		}
		_, _ = w.Write([]byte(`{"id":"job-1","status":"PENDING"}`))
	})
	mux.HandleFunc("/api/parsing/job/job-1", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 2 {
			_, _ = w.Write([]byte(`{"id":"job-1","status":"PENDING"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"job-1","status":"` + finalStatus + `","error_message":"bad file"}`))
	})
	mux.HandleFunc("/api/parsing/job/job-1/result/json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pages":[{"page":1,"md":"# Policy"},{"page":2,"md":"","text":"Grace period is 30 days."}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestLlamaParse_Success(t *testing.T) {
	srv, polls := newLlamaServer(t, "SUCCESS")
	c := NewLlamaParseClient("llx-test", srv.URL, time.Millisecond, time.Second)

	doc, err := c.Parse(context.Background(), writeFile(t, "policy.pdf", "%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, "policy.pdf", doc.Name)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "# Policy", doc.Pages[0].Markdown)
	assert.Equal(t, "Grace period is 30 days.", doc.Pages[1].Markdown)
	assert.Equal(t, "# Policy\n\nGrace period is 30 days.", doc.Text())
	assert.GreaterOrEqual(t, atomic.LoadInt32(polls), int32(2))
}

func TestLlamaParse_JobError(t *testing.T) {
	srv, _ := newLlamaServer(t, "ERROR")
	c := NewLlamaParseClient("llx-test", srv.URL, time.Millisecond, time.Second)

	_, err := c.Parse(context.Background(), writeFile(t, "policy.pdf", "%PDF-1.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad file")
}

func TestLlamaParse_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewLlamaParseClient("wrong", srv.URL, time.Millisecond, time.Second)
	_, err := c.Parse(context.Background(), writeFile(t, "policy.pdf", "%PDF-1.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
