// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
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

// =============================================================================
// CLIENT CONSTANTS
// =============================================================================

const (
	// DefaultTimeout is the timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// DefaultTemperature is used for every completion request.
	DefaultTemperature = 0.7

	// MaxResponseSize is the maximum allowed non-streaming response body.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

var (
	// Shared HTTP client with connection pooling for regular requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient has no timeout; streaming request lifetime is
	// controlled through the context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
)

// Error variables for common client errors.
var (
	// ErrEmptyResponse indicates the server returned a response with no choices.
	ErrEmptyResponse = errors.New("empty response from server")

	// ErrNoModels indicates the server reported no available models.
	ErrNoModels = errors.New("no models available")
)

// APIError represents an error response from the inference server.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client communicates with an OpenAI-compatible inference server.
//
// The zero value is not usable; create one with NewClient. The client is
// stateless apart from the base URL and safe for concurrent use.
type Client struct {
	baseURL string
}

// NewClient creates a client for the server at baseURL.
// Trailing slashes are stripped so endpoint paths join cleanly.
func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/")}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TitlePrompt is the instruction sent for automatic title generation.
const TitlePrompt = "Generate a short title (4-6 words) for this chat. No quotes."

// =============================================================================
// MODEL LISTING
// =============================================================================

// ListModels retrieves the available model IDs from the server.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var mr modelsResponse
	if err := json.Unmarshal(body, &mr); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}

	ids := make([]string, 0, len(mr.Data))
	for _, m := range mr.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// =============================================================================
// CHAT COMPLETIONS
// =============================================================================

// ChatCompletion sends a chat completion request and returns the raw HTTP
// response. For streaming requests the caller owns the body and feeds it
// to DecodeStream; for non-streaming requests prefer Complete.
//
// Error status codes are converted to APIError and the body is closed.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*http.Response, error) {
	if req.Temperature == 0 {
		req.Temperature = DefaultTemperature
	}

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := sharedHTTPClient
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("Cache-Control", "no-cache")
		client = sharedStreamingClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		resp.Body.Close()
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	return resp, nil
}

// Complete performs a non-streaming chat completion and parses the result.
func (c *Client) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Stream = false

	resp, err := c.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return &chatResp, nil
}

// =============================================================================
// TITLE GENERATION
// =============================================================================

// GenerateTitle asks the model for a short chat title based on the first
// user message. The returned title is trimmed of whitespace and any
// surrounding quotes the model adds despite instructions.
func (c *Client) GenerateTitle(ctx context.Context, modelID, firstMessage string) (string, error) {
	req := ChatRequest{
		Model: modelID,
		Messages: []ChatMessage{
			{Role: "user", Content: firstMessage},
			{Role: "user", Content: TitlePrompt},
		},
		Stream:      false,
		Temperature: DefaultTemperature,
	}

	resp, err := c.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(resp.GetContent())
	title = strings.Trim(title, `"'`)
	if title == "" {
		return "", ErrEmptyResponse
	}
	return title, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to APIError.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}
	}
	return &APIError{
		Message: strings.TrimSpace(string(body)),
		Status:  statusCode,
	}
}
