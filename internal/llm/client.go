// Package llm wraps the generative-model backends behind a single
// submit-a-prompt contract. Providers are addressed by a
// "provider:name" model string.
package llm

import "context"

// Request is one model invocation.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Response carries the raw model text plus rough token accounting.
// Token counts are a chars/4 estimate when the backend does not report
// usage.
type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// ModelClient submits prompts and returns raw text; structured-output
// recovery happens downstream.
type ModelClient interface {
	Name() string
	Submit(ctx context.Context, req Request) (*Response, error)
}

// estimateTokens approximates token usage from text length. Four
// characters per token is the usual rule of thumb for code-heavy text.
func estimateTokens(text string) int {
	return len(text) / 4
}
