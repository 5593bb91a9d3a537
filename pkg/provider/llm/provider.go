// Package llm defines the Generator interface for response generation
// backends.
//
// The orchestrator already assembles the full system prompt (persona, facts,
// conversation context, retrieved records), so the generator contract is a
// single-turn completion: one system prompt, one user message, one text
// answer. Tool calling, streaming and multi-turn message lists are
// intentionally absent; sentence-length voice answers gain nothing from them.
package llm

import "context"

// Request is one generation request.
type Request struct {
	// SystemPrompt is the complete assembled instruction block.
	SystemPrompt string

	// UserText is the user's (normalized) question.
	UserText string

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int

	// Temperature controls sampling. Zero means provider default.
	Temperature float64
}

// Generator produces a response text for one request.
//
// Implementations must be safe for concurrent use.
type Generator interface {
	// Generate returns the completion text for req. The caller does not
	// retry: implementations own whatever fallback behavior they need, and a
	// returned error means the answer path has failed for this utterance.
	Generate(ctx context.Context, req Request) (string, error)

	// Ready reports whether the backend is reachable and configured.
	Ready() bool
}
