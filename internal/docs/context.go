// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jeranaias/llamachat-tui/internal/model"
)

// =============================================================================
// CONTEXT BUILDING
// =============================================================================

const (
	manualContextHeader = "Document context:\n\n"
	ragContextHeader    = "Relevant documents:\n\n"
)

// mentionPattern matches @<document-id> references in user input.
var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9-]+)`)

// Augmented holds the two copies of a user message after context
// processing. Display goes into the transcript the user sees; Prompt is
// what gets sent to the model.
//
// In manual mode the copies differ: the display copy shows compact
// [Document: name] markers while the prompt copy carries the full
// document text. In RAG mode the full document set is baked into both.
type Augmented struct {
	Display   string
	Prompt    string
	Mentioned []*Document
}

// Builder turns raw user input into augmented messages.
type Builder struct {
	svc *Service
}

// NewBuilder creates a context builder over the document service.
func NewBuilder(svc *Service) *Builder {
	return &Builder{svc: svc}
}

// Build processes input according to the given context mode.
func (b *Builder) Build(input string, mode model.ContextMode) Augmented {
	if mode == model.ContextModeRAG {
		return b.buildRAG(input)
	}
	return b.buildManual(input)
}

// buildManual resolves @<id> mentions. Mentions that match a known
// document are replaced with [Document: name] in both copies, and the
// prompt copy is prefixed with the full document contents. Mentions that
// resolve to nothing are left untouched.
func (b *Builder) buildManual(input string) Augmented {
	var mentioned []*Document
	seen := make(map[string]bool)

	replaced := mentionPattern.ReplaceAllStringFunc(input, func(raw string) string {
		id := raw[1:]
		doc, ok := b.svc.Get(id)
		if !ok {
			return raw
		}
		if !seen[doc.ID] {
			seen[doc.ID] = true
			mentioned = append(mentioned, doc)
		}
		return fmt.Sprintf("[Document: %s]", doc.Name)
	})

	if len(mentioned) == 0 {
		return Augmented{Display: input, Prompt: input}
	}

	var sb strings.Builder
	sb.WriteString(manualContextHeader)
	for _, doc := range mentioned {
		sb.WriteString(formatDocBlock(doc, doc.Content))
	}
	sb.WriteString(replaced)

	return Augmented{
		Display:   replaced,
		Prompt:    sb.String(),
		Mentioned: mentioned,
	}
}

// buildRAG bakes every ingested document into both message copies. The
// context block is built regardless of how the input relates to the
// documents; relevance filtering is not part of this mode.
func (b *Builder) buildRAG(input string) Augmented {
	docs := b.svc.List()
	if len(docs) == 0 {
		return Augmented{Display: input, Prompt: input}
	}

	var sb strings.Builder
	sb.WriteString(ragContextHeader)
	for _, doc := range docs {
		sb.WriteString(formatDocBlock(doc, doc.Content))
	}
	sb.WriteString(input)

	full := sb.String()
	return Augmented{
		Display:   full,
		Prompt:    full,
		Mentioned: docs,
	}
}

// formatDocBlock renders one document as a context block.
func formatDocBlock(doc *Document, content string) string {
	return fmt.Sprintf("=== Document: %s (Type: %s, Chunks: %d) ===\n%s\n\n",
		doc.Name, doc.Type, len(doc.Chunks), content)
}

