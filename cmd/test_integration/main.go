package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Smoke test against a running server: upload a document, wait for ingestion,
// then ask questions about it.

var (
	baseURL = envOr("BASE_URL", "http://localhost:8080")
	token   = os.Getenv("API_TOKEN")
)

const sampleDoc = `# Arogya Sanjeevani Policy

A grace period of thirty days is provided for payment of the premium after the due date
to renew or continue the policy without loss of continuity benefits.

Pre-existing diseases are covered after a waiting period of thirty-six months of
continuous coverage since the inception of the first policy.
`

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	fmt.Println("1. Uploading document...")
	taskID, err := upload()
	if err != nil {
		fmt.Printf("FAILED: Upload: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("PASSED: Upload (task %s)\n", taskID)

	fmt.Println("2. Waiting for ingestion...")
	if err := waitForTask(taskID, 5*time.Minute); err != nil {
		fmt.Printf("FAILED: Ingestion: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("PASSED: Ingestion")

	fmt.Println("3. Asking questions...")
	payload := map[string]interface{}{
		"documents": "sample_policy.md",
		"questions": []string{
			"What is the grace period for premium payment?",
			"What is the capital of France?",
		},
	}
	var resp struct {
		Answers []string `json:"answers"`
	}
	if err := sendRequest("POST", "/hackrx/run", payload, &resp); err != nil {
		fmt.Printf("FAILED: Questions: %v\n", err)
		os.Exit(1)
	}
	for i, a := range resp.Answers {
		fmt.Printf("  [%d] %s\n", i+1, a)
	}
	fmt.Println("PASSED: Questions")
}

func upload() (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "sample_policy.md")
	if err != nil {
		return "", err
	}
	if _, err := fw.Write([]byte(sampleDoc)); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", baseURL+"/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		TaskID string `json:"task_id"`
	}
	if err := do(req, http.StatusAccepted, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

func waitForTask(id string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		var status struct {
			Status string          `json:"status"`
			Result json.RawMessage `json:"result"`
			Error  string          `json:"error"`
		}
		if err := sendRequest("GET", "/tasks/"+id, nil, &status); err != nil {
			return err
		}
		switch status.Status {
		case "SUCCESS":
			fmt.Printf("Result: %s\n", string(status.Result))
			return nil
		case "FAILURE":
			return fmt.Errorf("task failed: %s", status.Error)
		}
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("task %s did not finish within %s", id, timeout)
}

func sendRequest(method, endpoint string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonBytes, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(req, http.StatusOK, out)
}

func do(req *http.Request, want int, out interface{}) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		return fmt.Errorf("request %s failed with status %d: %s", filepath.Base(req.URL.Path), resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
