// Package llm provides text generation and embedding clients for the
// analysis, chat and review pipelines. Providers are thin wrappers over
// their HTTP APIs, selected by a factory from configuration.
package llm

import "context"

// Request is a single completion request. System carries the
// instruction prompt, Prompt the user content.
type Request struct {
	// System is the system instruction (optional).
	System string
	// Prompt is the user content.
	Prompt string
	// MaxTokens caps the completion length. Zero uses the provider
	// default.
	MaxTokens int
	// JSONOutput asks the provider for a JSON object response.
	JSONOutput bool
}

// Client generates text completions.
type Client interface {
	// Complete returns the model's text for the request.
	Complete(ctx context.Context, req Request) (string, error)

	// Provider returns the provider name (e.g., "openai", "gemini").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}

// Embedder produces vector embeddings for text chunks.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
