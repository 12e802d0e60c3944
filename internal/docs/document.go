// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package docs

import (
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// CHUNKING CONSTANTS
// =============================================================================

const (
	// ChunkSize is the target chunk length in runes.
	ChunkSize = 1000

	// ChunkOverlap is how many runes consecutive chunks share.
	ChunkOverlap = 200
)

// =============================================================================
// DOCUMENT TYPE
// =============================================================================

// Document is an ingested document available for prompt context.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Chunks    []string  `json:"chunks"`
	Tokens    int       `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`
}

// DetectType classifies a document by its file extension.
func DetectType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return "Markdown"
	case ".go", ".rs", ".py", ".js", ".ts", ".c", ".h", ".cpp", ".java", ".sh":
		return "Code"
	case ".json", ".yaml", ".yml", ".toml", ".xml", ".csv":
		return "Data"
	default:
		return "Text"
	}
}

// SplitChunks splits content into overlapping chunks of ChunkSize runes.
// The final chunk may be shorter. Empty content yields no chunks.
func SplitChunks(content string) []string {
	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= ChunkSize {
		return []string{content}
	}

	var chunks []string
	step := ChunkSize - ChunkOverlap
	for start := 0; start < len(runes); start += step {
		end := start + ChunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// EstimateTokens approximates the token count by whitespace-separated
// words. Good enough for display; nothing downstream depends on accuracy.
func EstimateTokens(content string) int {
	return len(strings.Fields(content))
}
