package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject is returned when an LLM response contains no JSON object at all.
var ErrNoJSONObject = errors.New("no JSON object found in response")

// ExtractJSONObject returns the span between the first '{' and the last '}' of an LLM
// response, dropping markdown fences and chatter around it.
func ExtractJSONObject(response string) (string, error) {
	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSONObject
	}
	return response[start : end+1], nil
}

// ParseJSON cleans and unmarshals a JSON string into a type T.
// It handles common LLM quirks like surrounding markdown or extra text.
func ParseJSON[T any](response string) (T, error) {
	var zero T

	jsonStr, err := ExtractJSONObject(response)
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}

	return result, nil
}

// Truncate shortens s to at most n runes for log lines.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
