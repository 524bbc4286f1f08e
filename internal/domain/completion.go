package domain

import "context"

// Completer is the shared LLM chat completion contract between layers.
// All analysis use cases talk to the model through this interface only.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// CompletionRequest describes a single-shot chat completion call.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	// JSONMode asks the provider to force a JSON object response.
	JSONMode bool
}

// CompletionResult carries the model output and token usage.
type CompletionResult struct {
	Content      string
	PromptTokens int
	TotalTokens  int
}
