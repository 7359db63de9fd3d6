package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultLlamaBaseURL = "https://api.cloud.llamaindex.ai"
	uploadEndpoint      = "/api/parsing/upload"
	jobEndpoint         = "/api/parsing/job/"
)

// LlamaParseClient parses documents with the LlamaParse cloud API and returns
// the markdown rendering of each page.
type LlamaParseClient struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
}

func NewLlamaParseClient(apiKey, baseURL string, pollInterval, timeout time.Duration) *LlamaParseClient {
	if baseURL == "" {
		baseURL = defaultLlamaBaseURL
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &LlamaParseClient{
		APIKey:       apiKey,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		PollInterval: pollInterval,
		Timeout:      timeout,
		HTTPClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

type llamaJob struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error_message,omitempty"`
}

type llamaResult struct {
	Pages []struct {
		Page int    `json:"page"`
		MD   string `json:"md"`
		Text string `json:"text"`
	} `json:"pages"`
}

func (c *LlamaParseClient) Parse(ctx context.Context, path string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	name := filepath.Base(path)
	log.Printf("Parsing %s with LlamaParse...", name)

	job, err := c.upload(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("llamaparse upload %s: %w", name, err)
	}
	if err := c.wait(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("llamaparse job %s: %w", job.ID, err)
	}

	var res llamaResult
	if err := c.getJSON(ctx, jobEndpoint+job.ID+"/result/json", &res); err != nil {
		return nil, fmt.Errorf("llamaparse result %s: %w", job.ID, err)
	}

	doc := &Document{Name: name}
	for i, p := range res.Pages {
		md := p.MD
		if md == "" {
			md = p.Text
		}
		number := p.Page
		if number == 0 {
			number = i + 1
		}
		doc.Pages = append(doc.Pages, Page{Number: number, Markdown: md})
	}
	return doc, nil
}

func (c *LlamaParseClient) upload(ctx context.Context, path string) (*llamaJob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+uploadEndpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var job llamaJob
	if err := c.do(req, &job); err != nil {
		return nil, err
	}
	if job.ID == "" {
		return nil, fmt.Errorf("upload response has no job id")
	}
	return &job, nil
}

func (c *LlamaParseClient) wait(ctx context.Context, id string) error {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		var job llamaJob
		if err := c.getJSON(ctx, jobEndpoint+id, &job); err != nil {
			return err
		}
		switch strings.ToUpper(job.Status) {
		case "SUCCESS":
			return nil
		case "ERROR", "CANCELED", "CANCELLED":
			if job.Error != "" {
				return fmt.Errorf("parsing %s: %s", strings.ToLower(job.Status), job.Error)
			}
			return fmt.Errorf("parsing %s", strings.ToLower(job.Status))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *LlamaParseClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *LlamaParseClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
