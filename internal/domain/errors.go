package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrConversationNotFound signals a missing or empty conversation.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrMessageNotFound signals a missing message.
	ErrMessageNotFound = errors.New("message not found")
	// ErrEmbeddingProvider signals an embedding provider failure.
	// Not retried internally; the caller may retry the whole operation.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrDimensionMismatch signals a vector whose length disagrees with the
	// rest of the index. Fatal for index construction: it means the provider
	// is misconfigured, not that one item is bad.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrCompletionProvider signals an LLM completion provider failure.
	ErrCompletionProvider = errors.New("completion provider error")
	// ErrMalformedCompletion signals an LLM response that could not be parsed.
	ErrMalformedCompletion = errors.New("malformed completion response")
)
