// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jeranaias/llamachat-tui/internal/docs"
	"github.com/jeranaias/llamachat-tui/internal/llm"
	"github.com/jeranaias/llamachat-tui/internal/model"
	"github.com/jeranaias/llamachat-tui/internal/store"
)

// Error variables for orchestrator misuse.
var (
	// ErrBusy indicates an exchange is already in flight.
	ErrBusy = errors.New("a request is already in flight")

	// ErrEmptyInput indicates the message was blank.
	ErrEmptyInput = errors.New("message is empty")

	// ErrNoSession indicates there is no active session to send into.
	ErrNoSession = errors.New("no active session")
)

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator runs completion exchanges against the active session.
type Orchestrator struct {
	sessions *store.SessionStore
	settings *store.SettingsStore
	builder  *docs.Builder

	mu     sync.Mutex
	state  State
	cancel atomic.Bool

	// cancelHTTP aborts an in-flight non-streaming request. Streaming
	// requests are not aborted at the transport level; the decoder stops
	// at the next chunk boundary so the partial response survives.
	cancelHTTP context.CancelFunc

	// background tracks title derivation goroutines.
	background sync.WaitGroup

	// onState, if set, is called after every state transition.
	onState func(State)
}

// New creates an orchestrator over the given stores.
func New(sessions *store.SessionStore, settings *store.SettingsStore, builder *docs.Builder) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		settings: settings,
		builder:  builder,
		state:    StateIdle,
	}
}

// OnStateChange registers a callback invoked after state transitions.
// Must be set before the first Send.
func (o *Orchestrator) OnStateChange(fn func(State)) {
	o.onState = fn
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	fn := o.onState
	o.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// Cancel requests cancellation of the exchange in flight. For streaming
// exchanges the partial response is kept; for non-streaming ones the
// request is aborted and its result discarded. Calling Cancel when idle
// does nothing.
func (o *Orchestrator) Cancel() {
	o.cancel.Store(true)

	o.mu.Lock()
	cancelHTTP := o.cancelHTTP
	state := o.state
	o.mu.Unlock()

	if state == StateAwaitingFullResponse && cancelHTTP != nil {
		cancelHTTP()
	}
}

// Wait blocks until background work (title derivation) finishes.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

// =============================================================================
// SEND
// =============================================================================

// Send runs one full exchange: publish the user message, request a
// completion, fold the response into the transcript, and settle the
// session title. It blocks until the response is complete or canceled.
//
// Transport and server errors do not fail Send; they are appended to the
// transcript as system messages. Send only returns an error for misuse:
// blank input, no active session, or a send while one is in flight.
func (o *Orchestrator) Send(input string) error {
	return o.exchange(input, -1)
}

// exchange is the shared send path. With editIndex < 0 the input becomes
// a fresh user message appended to the transcript; otherwise the message
// at editIndex is rewritten in place and everything after it dropped, so
// the published transcript always ends with the message being sent.
func (o *Orchestrator) exchange(input string, editIndex int) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return ErrEmptyInput
	}

	o.mu.Lock()
	if o.state.Busy() {
		o.mu.Unlock()
		return ErrBusy
	}
	o.state = StateSending
	o.cancel.Store(false)
	o.mu.Unlock()
	if o.onState != nil {
		o.onState(StateSending)
	}
	defer o.setState(StateIdle)

	session := o.sessions.Active()
	if session == nil {
		return ErrNoSession
	}
	if editIndex >= 0 {
		if editIndex >= len(session.Messages) {
			return ErrNotEditable
		}
		if session.Messages[editIndex].Role != model.RoleUser {
			return ErrNotEditable
		}
	}

	settings := o.settings.Load()

	// Resolve document context. The display copy goes into the
	// transcript; the prompt copy rides to the model.
	aug := o.builder.Build(input, settings.ContextMode)

	// Optimistic publish: the user sees their message before the
	// network is touched.
	var msgs []model.Message
	if editIndex >= 0 {
		msgs = model.CloneMessages(session.Messages[:editIndex+1])
		msgs[editIndex] = model.NewUserMessage(aug.Display)
	} else {
		msgs = append(model.CloneMessages(session.Messages), model.NewUserMessage(aug.Display))
	}
	o.sessions.UpdateMessages(session.ID, msgs)

	// The wire transcript carries the prompt copy in place of the
	// display copy for the message just sent.
	wire := llm.WireMessages(msgs)
	wire[len(wire)-1].Content = aug.Prompt

	client := llm.NewClient(settings.BaseURL)
	req := llm.ChatRequest{
		Model:       settings.SelectedModel,
		Messages:    wire,
		Stream:      settings.StreamEnabled,
		Temperature: llm.DefaultTemperature,
	}

	if settings.StreamEnabled {
		msgs = o.runStreaming(client, session.ID, req, msgs)
	} else {
		msgs = o.runBlocking(client, session.ID, req, msgs)
	}

	// A canceled exchange skips finalization; the placeholder title can
	// settle on the next completed exchange.
	if o.cancel.Load() {
		return nil
	}

	o.setState(StateFinalizing)
	o.settleTitle(client, session.ID, settings.SelectedModel, aug.Display, msgs)
	return nil
}

// runStreaming performs a streaming exchange. Every delta is published
// individually; the growing assistant message is visible as it arrives.
func (o *Orchestrator) runStreaming(client *llm.Client, sessionID string, req llm.ChatRequest, msgs []model.Message) []model.Message {
	o.setState(StateStreaming)

	resp, err := client.ChatCompletion(context.Background(), req)
	if err != nil {
		return o.appendError(sessionID, msgs, err)
	}
	defer resp.Body.Close()

	msgs = append(msgs, model.NewAssistantMessage())
	last := len(msgs) - 1
	o.sessions.UpdateMessages(sessionID, msgs)

	result, streamErr := llm.DecodeStream(resp.Body, &o.cancel, func(delta string) {
		msgs[last].Content += delta
		o.sessions.UpdateMessages(sessionID, msgs)
	})

	msgs[last].Content = result.Content
	if result.Metrics != nil {
		msgs[last].Metrics = result.Metrics
	}
	o.sessions.UpdateMessages(sessionID, msgs)

	if result.Canceled {
		// Partial response stays in the transcript.
		o.setState(StateAborted)
		return msgs
	}
	if streamErr != nil {
		return o.appendError(sessionID, msgs, streamErr)
	}
	return msgs
}

// runBlocking performs a non-streaming exchange. A cancellation that
// lands before the response does discards the result entirely.
func (o *Orchestrator) runBlocking(client *llm.Client, sessionID string, req llm.ChatRequest, msgs []model.Message) []model.Message {
	o.setState(StateAwaitingFullResponse)

	ctx, cancelHTTP := context.WithCancel(context.Background())
	defer cancelHTTP()
	o.mu.Lock()
	o.cancelHTTP = cancelHTTP
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.cancelHTTP = nil
		o.mu.Unlock()
	}()

	resp, err := client.Complete(ctx, req)

	if o.cancel.Load() {
		// Nothing was shown, nothing is kept.
		return msgs
	}
	if err != nil {
		return o.appendError(sessionID, msgs, err)
	}

	assistant := model.NewAssistantMessage()
	assistant.Content = resp.GetContent()
	assistant.Metrics = resp.Metrics()
	msgs = append(msgs, assistant)
	o.sessions.UpdateMessages(sessionID, msgs)
	return msgs
}

// appendError publishes a transport failure as a system message.
func (o *Orchestrator) appendError(sessionID string, msgs []model.Message, err error) []model.Message {
	msgs = append(msgs, model.NewSystemMessage(fmt.Sprintf("Error: %v", err)))
	o.sessions.UpdateMessages(sessionID, msgs)
	return msgs
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// settleTitle derives a title for sessions still carrying the
// placeholder. The model is asked first, in the background; if that
// fails the first-line heuristic applies. Either path goes through
// SetTitleIfPlaceholder so a settled title is never overwritten.
func (o *Orchestrator) settleTitle(client *llm.Client, sessionID, modelID, firstMessage string, msgs []model.Message) {
	session := o.sessions.Get(sessionID)
	if session == nil || !session.HasPlaceholderTitle() {
		return
	}
	// Nothing to title until an exchange actually produced content.
	if len(msgs) == 0 {
		return
	}

	o.background.Add(1)
	go func() {
		defer o.background.Done()

		title, err := client.GenerateTitle(context.Background(), modelID, firstMessage)
		if err != nil || title == "" {
			title = model.DeriveTitle(firstMessage)
		}
		o.sessions.SetTitleIfPlaceholder(sessionID, title)
	}()
}
