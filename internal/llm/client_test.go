// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:8080///")
	if c.BaseURL() != "http://localhost:8080" {
		t.Errorf("expected trimmed base URL, got %q", c.BaseURL())
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"llama-3.2-3b"},{"id":"qwen2.5-coder"}]}`))
	}))
	defer server.Close()

	models, err := NewClient(server.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0] != "llama-3.2-3b" {
		t.Errorf("unexpected model ID: %q", models[0])
	}
}

func TestListModelsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"overloaded","message":"model loading"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).ListModels(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("unexpected status: %d", apiErr.Status)
	}
	if apiErr.Message != "model loading" {
		t.Errorf("unexpected message: %q", apiErr.Message)
	}
}

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Stream {
			t.Error("Complete must send stream=false")
		}
		if req.Temperature != DefaultTemperature {
			t.Errorf("expected temperature %v, got %v", DefaultTemperature, req.Temperature)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id":"chatcmpl-1","model":"llama-3.2",
			"choices":[{"message":{"role":"assistant","content":"Hello!"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":12,"completion_tokens":2,"total_tokens":14}
		}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Complete(context.Background(), ChatRequest{
		Model:    "llama-3.2",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.GetContent() != "Hello!" {
		t.Errorf("unexpected content: %q", resp.GetContent())
	}

	m := resp.Metrics()
	if m == nil || m.Usage == nil || *m.Usage.TotalTokens != 14 {
		t.Error("expected usage metrics on response")
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Complete(context.Background(), ChatRequest{Model: "m"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != TitlePrompt {
			t.Error("title request must end with the title instruction")
		}

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"\"Go Channel Questions\"\n"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	title, err := NewClient(server.URL).GenerateTitle(context.Background(), "llama-3.2", "How do Go channels work?")
	if err != nil {
		t.Fatalf("GenerateTitle failed: %v", err)
	}
	if title != "Go Channel Questions" {
		t.Errorf("expected quotes and whitespace stripped, got %q", title)
	}
}

func TestChatCompletionStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if !req.Stream {
			t.Error("expected stream=true")
		}
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("missing SSE accept header, got %q", r.Header.Get("Accept"))
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseBody(
			deltaChunk("Hi"),
			deltaChunk(" there"),
			"[DONE]",
		)))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).ChatCompletion(context.Background(), ChatRequest{
		Model:    "llama-3.2",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
		Stream:   true,
	})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	defer resp.Body.Close()

	result, err := DecodeStream(resp.Body, nil, nil)
	if err != nil {
		t.Fatalf("DecodeStream failed: %v", err)
	}
	if result.Content != "Hi there" {
		t.Errorf("unexpected content: %q", result.Content)
	}
}

func TestChatCompletionErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"message":"model not found"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).ChatCompletion(context.Background(), ChatRequest{Model: "missing", Stream: true})
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Errorf("expected APIError with 404, got %v", err)
	}
}
