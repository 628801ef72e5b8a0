package domain

import "context"

// PromptMessage is one entry of a model-ready prompt.
type PromptMessage struct {
	Role    Role
	Content string
}

// LLMStreamChunk carries one incremental fragment of a generation. No
// granularity is guaranteed: a chunk may be a word, a sub-word, or an
// arbitrary slice of bytes.
type LLMStreamChunk struct {
	Content string
}

// StreamingLLMClient sends a prompt to the model backend and delivers the
// answer incrementally. The chunk channel is closed on a clean end of
// stream; a mid-stream failure is delivered on the error channel instead.
// Cancelling ctx abandons the generation.
type StreamingLLMClient interface {
	GenerateStream(ctx context.Context, messages []PromptMessage) (<-chan LLMStreamChunk, <-chan error, error)
	Version() string
}
