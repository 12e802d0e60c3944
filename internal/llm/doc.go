// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm implements the client for OpenAI-compatible inference servers.
//
// The client targets locally hosted servers such as llama.cpp's llama-server
// and Ollama's OpenAI compatibility endpoint. It covers the three operations
// the app needs: listing models, chat completions (streaming and not), and
// one-shot title generation.
//
// Streaming responses are decoded by DecodeStream, which parses the SSE
// data lines, invokes a callback per content delta, and collects response
// metrics from wherever the server chooses to put them. Malformed lines are
// dropped rather than failing the stream; local servers are not always
// well behaved mid-generation.
package llm
