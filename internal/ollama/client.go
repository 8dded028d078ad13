// Package ollama is a minimal client for the local Ollama HTTP API.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable marks failures to reach the inference service at all, so the
// boundary can tell the operator to start it rather than report a generic 500.
var ErrUnavailable = errors.New("ollama unavailable")

// Options are the sampling options sent with every generate request
type Options struct {
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	NumPredict  int     `yaml:"num_predict"`
}

// Client talks to an Ollama server's /api/generate and /api/tags endpoints
type Client struct {
	endpoint string
	model    string
	options  Options
	client   *http.Client
}

// New creates a client. An empty endpoint defaults to the local Ollama port.
func New(endpoint, model string, options Options) *Client {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		options:  options,
		client: &http.Client{
			Timeout: 120 * time.Second, // local inference is slow
		},
	}
}

func (c *Client) Model() string { return c.model }

func (c *Client) generateBody(prompt string, stream bool) ([]byte, error) {
	body := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": stream,
		"options": map[string]any{
			"temperature": c.options.Temperature,
			"top_p":       c.options.TopP,
			"num_predict": c.options.NumPredict,
		},
	}
	return json.Marshal(body)
}

// Generate sends a prompt and returns the complete trimmed response
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	jsonBody, err := c.generateBody(prompt, false)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: cannot connect to Ollama at %s, make sure Ollama is running: %v",
			ErrUnavailable, c.endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}
	if result.Response == "" {
		return "", fmt.Errorf("invalid response from Ollama")
	}

	return strings.TrimSpace(result.Response), nil
}

// Stream sends a prompt with stream:true and invokes onChunk for every
// response fragment as it arrives. Returns the accumulated full response.
func (c *Client) Stream(ctx context.Context, prompt string, onChunk func(chunk string)) (string, error) {
	jsonBody, err := c.generateBody(prompt, true)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: cannot connect to Ollama at %s, make sure Ollama is running: %v",
			ErrUnavailable, c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(respBody))
	}

	// Streamed responses are newline-delimited JSON chunks
	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var chunk struct {
			Response string `json:"response"`
			Done     bool   `json:"done"`
		}
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		if chunk.Response != "" {
			full.WriteString(chunk.Response)
			if onChunk != nil {
				onChunk(chunk.Response)
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("stream read failed: %v", err)
	}

	return strings.TrimSpace(full.String()), nil
}

// Status describes Ollama connectivity and the models it has loaded
type Status struct {
	Connected bool     `json:"connected"`
	Models    []string `json:"models,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Check pings /api/tags to see whether Ollama is reachable
func (c *Client) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+"/api/tags", nil)
	if err != nil {
		return Status{Error: err.Error()}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Status{Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{Error: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return Status{Error: err.Error()}
	}

	models := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		models[i] = m.Name
	}
	return Status{Connected: true, Models: models}
}
