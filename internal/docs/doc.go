// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package docs provides the document context system for chat prompts.
//
// Documents are ingested from files, split into overlapping chunks, and
// persisted in the key-value store. The Builder turns user input into two
// copies of each message: the display copy shown in the transcript and
// the prompt copy actually sent to the model. In manual mode users pull
// documents in with @ mentions; in RAG mode every ingested document is
// attached to every prompt.
//
// A Watcher can mirror a directory into the document set, so dropping a
// file into ~/.llamachat/documents makes it mentionable without touching
// the UI.
package docs
