package services

import (
	"context"
	"fmt"
	"strings"

	"jobpilot/models"
)

const (
	// DefaultChunkSize is the largest prompt sent in one message.
	DefaultChunkSize = 3500
	// DefaultChunkOverlap is carried between consecutive chunks to soften
	// truncation artifacts at the boundary.
	DefaultChunkOverlap = 200
)

// PromptRunner is one live dialogue the segmenter can drive: send a prompt,
// wait for the response to finish, read it back.
type PromptRunner interface {
	Send(ctx context.Context, text string) error
	Await(ctx context.Context) (models.CompletionResult, error)
	Read(ctx context.Context) (string, error)
}

// ChunkText normalizes whitespace and slices the text into overlapping
// windows advancing by maxChars-overlap. The final chunk always ends exactly
// at the end of the text and no chunk exceeds maxChars.
func ChunkText(text string, maxChars, overlap int) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}

	runes := []rune(normalized)
	if len(runes) <= maxChars {
		return []string{normalized}
	}

	step := maxChars - overlap
	chunks := []string{}
	for start := 0; start < len(runes); start += step {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// SplitAndChain sends the text through the runner chunk by chunk,
// sequentially so the remote side keeps its conversational context, and
// concatenates the non-empty responses with newlines. Overlapping regions in
// the output are not de-duplicated.
func SplitAndChain(ctx context.Context, runner PromptRunner, text string, maxChars, overlap int) (string, error) {
	chunks := ChunkText(text, maxChars, overlap)
	if len(chunks) == 0 {
		return "", nil
	}

	var responses []string
	for i, chunk := range chunks {
		if err := runner.Send(ctx, chunk); err != nil {
			return strings.Join(responses, "\n"), fmt.Errorf("sending chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if _, err := runner.Await(ctx); err != nil {
			return strings.Join(responses, "\n"), fmt.Errorf("awaiting chunk %d/%d: %w", i+1, len(chunks), err)
		}
		response, err := runner.Read(ctx)
		if err != nil {
			return strings.Join(responses, "\n"), fmt.Errorf("reading chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if trimmed := strings.TrimSpace(response); trimmed != "" {
			responses = append(responses, trimmed)
		}
	}
	return strings.Join(responses, "\n"), nil
}
