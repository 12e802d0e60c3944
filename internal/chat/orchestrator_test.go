// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/llamachat-tui/internal/docs"
	"github.com/jeranaias/llamachat-tui/internal/llm"
	"github.com/jeranaias/llamachat-tui/internal/model"
	"github.com/jeranaias/llamachat-tui/internal/store"
)

const testPrompt = "You are a helpful assistant."

type testEnv struct {
	orch     *Orchestrator
	sessions *store.SessionStore
	settings *store.SettingsStore
	docs     *docs.Service
}

func newTestEnv(t *testing.T, serverURL string, streaming bool) *testEnv {
	t.Helper()

	kv, err := store.OpenKV(filepath.Join(t.TempDir(), "llamachat.db"))
	if err != nil {
		t.Fatalf("OpenKV failed: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	settings := store.NewSettingsStore(kv)
	cfg := model.DefaultSettings()
	cfg.BaseURL = serverURL
	cfg.StreamEnabled = streaming
	if err := settings.Save(cfg); err != nil {
		t.Fatalf("settings save failed: %v", err)
	}

	sessions := store.NewSessionStore(kv, testPrompt)
	svc := docs.NewService(kv)

	return &testEnv{
		orch:     New(sessions, settings, docs.NewBuilder(svc)),
		sessions: sessions,
		settings: settings,
		docs:     svc,
	}
}

func sseChunk(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"delta": map[string]string{"content": content}}},
	})
	return "data: " + string(b) + "\n\n"
}

// streamHandler answers streaming requests with the given deltas and
// title requests with the given title.
func streamHandler(t *testing.T, title string, deltas ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			return
		}

		if !req.Stream {
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + title + `"},"finish_reason":"stop"}]}`))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range deltas {
			w.Write([]byte(sseChunk(d)))
		}
		w.Write([]byte(`data: {"choices":[{"delta":{},"finish_reason":"stop"}],"usage":{"total_tokens":9}}` + "\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}
}

func TestSendStreamingEndToEnd(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, "Greeting Chat", "Hi", " there"))
	defer server.Close()

	env := newTestEnv(t, server.URL, true)

	// Record the assistant message as each publish lands.
	var assistantStates []string
	env.sessions.Subscribe(func() {
		active := env.sessions.Active()
		if last := active.LastMessage(); last != nil && last.Role == model.RoleAssistant {
			assistantStates = append(assistantStates, last.Content)
		}
	})

	if err := env.orch.Send("Hello!"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	env.orch.Wait()

	active := env.sessions.Active()
	if got := active.MessageCount(); got != 2 {
		t.Fatalf("expected user + assistant messages, got %d", got)
	}
	assistant := active.LastMessage()
	if assistant.Content != "Hi there" {
		t.Errorf("unexpected assistant content: %q", assistant.Content)
	}
	if assistant.Metrics == nil || *assistant.Metrics.Usage.TotalTokens != 9 {
		t.Error("metrics from final chunk not attached")
	}

	// Each delta publishes individually: "" (placeholder), "Hi", "Hi there".
	joined := strings.Join(assistantStates, "|")
	if !strings.Contains(joined, "Hi|Hi there") {
		t.Errorf("expected per-delta publishes, saw %q", joined)
	}

	if env.orch.State() != StateIdle {
		t.Errorf("expected idle after send, got %v", env.orch.State())
	}
}

func TestSendPublishesUserMessageBeforeNetwork(t *testing.T) {
	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
		streamHandler(t, "T", "ok")(w, r)
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, true)

	var userSeenBeforeRequest bool
	env.sessions.Subscribe(func() {
		active := env.sessions.Active()
		if last := active.LastMessage(); last != nil && last.Role == model.RoleUser && !requested {
			userSeenBeforeRequest = true
		}
	})

	if err := env.orch.Send("optimism"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	env.orch.Wait()

	if !userSeenBeforeRequest {
		t.Error("user message must be published before the request goes out")
	}
}

func TestSendTransportErrorBecomesSystemMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Guaranteed connection refusal.

	env := newTestEnv(t, server.URL, true)

	if err := env.orch.Send("hello?"); err != nil {
		t.Fatalf("transport failures must not fail Send: %v", err)
	}
	env.orch.Wait()

	active := env.sessions.Active()
	last := active.LastMessage()
	if last.Role != model.RoleSystem {
		t.Fatalf("expected system error message, got role %q", last.Role)
	}
	if !strings.HasPrefix(last.Content, "Error: ") {
		t.Errorf("unexpected error message: %q", last.Content)
	}
	if env.orch.State() != StateIdle {
		t.Errorf("expected idle after failure, got %v", env.orch.State())
	}
}

func TestSendNonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("expected non-streaming request")
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"full answer"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, false)
	// Pre-title the session so the title request does not hit the stub.
	env.sessions.UpdateTitle(env.sessions.ActiveID(), "titled")

	if err := env.orch.Send("question"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	env.orch.Wait()

	assistant := env.sessions.Active().LastMessage()
	if assistant.Role != model.RoleAssistant || assistant.Content != "full answer" {
		t.Errorf("unexpected assistant message: %+v", assistant)
	}
	if assistant.Metrics == nil || *assistant.Metrics.Usage.TotalTokens != 5 {
		t.Error("metrics not attached to non-streaming response")
	}
}

func TestCancelNonStreamingDiscardsResult(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
	}))
	defer server.Close()
	defer close(release)

	env := newTestEnv(t, server.URL, false)

	done := make(chan error, 1)
	go func() { done <- env.orch.Send("never answered") }()

	// Wait for the request to be in flight, then cancel.
	deadline := time.After(5 * time.Second)
	for env.orch.State() != StateAwaitingFullResponse {
		select {
		case <-deadline:
			t.Fatal("orchestrator never reached awaiting state")
		case <-time.After(5 * time.Millisecond):
		}
	}
	env.orch.Cancel()

	if err := <-done; err != nil {
		t.Fatalf("canceled Send returned error: %v", err)
	}

	active := env.sessions.Active()
	last := active.LastMessage()
	if last.Role != model.RoleUser {
		t.Errorf("canceled non-streaming exchange must leave only the user message, got %q: %q", last.Role, last.Content)
	}
}

func TestCancelStreamingKeepsPartial(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, "T", "kept", " dropped"))
	defer server.Close()

	env := newTestEnv(t, server.URL, true)

	// Cancel as soon as the first delta lands. The flag is checked at the
	// next chunk boundary, so the second delta never makes it in.
	env.sessions.Subscribe(func() {
		if last := env.sessions.Active().LastMessage(); last != nil &&
			last.Role == model.RoleAssistant && last.Content == "kept" {
			env.orch.Cancel()
		}
	})

	if err := env.orch.Send("go"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	env.orch.Wait()

	assistant := env.sessions.Active().LastMessage()
	if assistant.Role != model.RoleAssistant || assistant.Content != "kept" {
		t.Errorf("partial response not kept: %+v", assistant)
	}

	// Canceled exchanges skip title derivation.
	if !env.sessions.Active().HasPlaceholderTitle() {
		t.Error("canceled exchange must not settle the title")
	}
}

func TestTitleDerivedFromModel(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, "Channel Questions", "answer"))
	defer server.Close()

	env := newTestEnv(t, server.URL, true)

	if err := env.orch.Send("How do channels work?"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	env.orch.Wait()

	if got := env.sessions.Active().Title; got != "Channel Questions" {
		t.Errorf("expected model-derived title, got %q", got)
	}
}

func TestTitleFallsBackToHeuristic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			// Title request fails; the heuristic takes over.
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseChunk("ok") + "data: [DONE]\n\n"))
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, true)

	first := "What is the meaning of defer?\nAsking for a friend."
	if err := env.orch.Send(first); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	env.orch.Wait()

	if got := env.sessions.Active().Title; got != "What is the meaning of defer?" {
		t.Errorf("expected first-line heuristic title, got %q", got)
	}
}

func TestTitleNeverOverwritesSettledTitle(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, "Should Not Apply", "ok"))
	defer server.Close()

	env := newTestEnv(t, server.URL, true)
	env.sessions.UpdateTitle(env.sessions.ActiveID(), "User Chose This")

	if err := env.orch.Send("hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	env.orch.Wait()

	if got := env.sessions.Active().Title; got != "User Chose This" {
		t.Errorf("settled title was overwritten: %q", got)
	}
}

func TestEditAtBranchesConversation(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, "T", "rewritten answer"))
	defer server.Close()

	env := newTestEnv(t, server.URL, true)
	id := env.sessions.ActiveID()
	env.sessions.UpdateTitle(id, "titled")

	// Seed a two-exchange transcript by hand.
	msgs := []model.Message{
		model.NewSystemMessage(testPrompt),
		model.NewUserMessage("first question"),
		{Role: model.RoleAssistant, Content: "first answer"},
		model.NewUserMessage("second question"),
		{Role: model.RoleAssistant, Content: "second answer"},
	}
	env.sessions.UpdateMessages(id, msgs)

	if err := env.orch.EditAt(1, "better question"); err != nil {
		t.Fatalf("EditAt failed: %v", err)
	}
	env.orch.Wait()

	got := env.sessions.Active().Messages
	if len(got) != 3 {
		t.Fatalf("expected system + edited user + new assistant, got %d messages", len(got))
	}
	if got[1].Content != "better question" {
		t.Errorf("edited message content: %q", got[1].Content)
	}
	if got[2].Content != "rewritten answer" {
		t.Errorf("new assistant content: %q", got[2].Content)
	}
}

func TestEditAtNeverPublishesWithoutEditedMessage(t *testing.T) {
	server := httptest.NewServer(streamHandler(t, "T", "ok"))
	defer server.Close()

	env := newTestEnv(t, server.URL, true)
	id := env.sessions.ActiveID()
	env.sessions.UpdateTitle(id, "titled")

	env.sessions.UpdateMessages(id, []model.Message{
		model.NewSystemMessage(testPrompt),
		model.NewUserMessage("first question"),
		{Role: model.RoleAssistant, Content: "first answer"},
	})

	// Every transcript published during the edit must still carry the
	// user message at the edit point; the rewrite happens in one step.
	var mu sync.Mutex
	var badPublish string
	env.sessions.Subscribe(func() {
		sess := env.sessions.Get(id)
		mu.Lock()
		defer mu.Unlock()
		if sess == nil || badPublish != "" {
			return
		}
		if len(sess.Messages) < 2 {
			badPublish = "transcript published without the edited message"
			return
		}
		if sess.Messages[1].Content != "better question" {
			badPublish = "edit point published with stale content: " + sess.Messages[1].Content
		}
	})

	if err := env.orch.EditAt(1, "better question"); err != nil {
		t.Fatalf("EditAt failed: %v", err)
	}
	env.orch.Wait()

	mu.Lock()
	defer mu.Unlock()
	if badPublish != "" {
		t.Error(badPublish)
	}
}

func TestEditAtRejectsNonUserMessages(t *testing.T) {
	env := newTestEnv(t, "http://localhost:0", true)

	if err := env.orch.EditAt(0, "x"); !errors.Is(err, ErrNotEditable) {
		t.Errorf("editing the system message should fail, got %v", err)
	}
	if err := env.orch.EditAt(99, "x"); !errors.Is(err, ErrNotEditable) {
		t.Errorf("out of range index should fail, got %v", err)
	}
}

func TestSendRejectsEmptyAndBusy(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, false)

	if err := env.orch.Send("   "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- env.orch.Send("long request") }()

	deadline := time.After(5 * time.Second)
	for env.orch.State() != StateAwaitingFullResponse {
		select {
		case <-deadline:
			t.Fatal("orchestrator never became busy")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := env.orch.Send("again"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	env.orch.Cancel()
	close(release)
	<-done
}

func TestSendManualContextSplitsCopies(t *testing.T) {
	var wirePrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req llm.ChatRequest
		json.Unmarshal(body, &req)
		if req.Stream {
			wirePrompt = req.Messages[len(req.Messages)-1].Content
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		streamHandler(t, "T", "noted")(w, r)
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL, true)
	doc, err := env.docs.Add("notes.txt", "Release slipped to Friday.")
	if err != nil {
		t.Fatalf("doc add failed: %v", err)
	}

	if err := env.orch.Send("Summarize @" + doc.ID); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	env.orch.Wait()

	// Transcript shows the compact marker.
	var userMsg string
	for _, m := range env.sessions.Active().Messages {
		if m.Role == model.RoleUser {
			userMsg = m.Content
		}
	}
	if userMsg != "Summarize [Document: notes.txt]" {
		t.Errorf("display copy wrong: %q", userMsg)
	}

	// The wire carried the full document.
	if !strings.Contains(wirePrompt, "Document context:") || !strings.Contains(wirePrompt, "Release slipped to Friday.") {
		t.Errorf("prompt copy missing document content:\n%s", wirePrompt)
	}
}
