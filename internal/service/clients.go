package service

import "context"

// EmbeddingClient generates embedding vectors for text.
// Implemented by provider-specific clients (e.g. OpenAI).
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// CompletionClient generates text from a system and user prompt with bounded
// length and fixed sampling temperature.
type CompletionClient interface {
	CreateCompletion(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}
