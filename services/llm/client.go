package llm

import "context"

// Message is a provider-neutral chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams carries optional sampling parameters. Nil fields
// use the provider default.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// Usage reports token consumption for a single completion call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Completion is the result of one completion call.
type Completion struct {
	// Content is the raw text returned by the model.
	Content string `json:"content"`

	// Model is the concrete model id that served the request.
	Model string `json:"model"`

	// Usage is the token usage reported by the provider.
	Usage Usage `json:"usage"`

	// CostUSD is the provider-reported cost for this call, when the
	// provider exposes one. Zero means "not reported"; callers price
	// the call from Usage and their own price table instead.
	CostUSD float64 `json:"cost_usd"`
}

// Client defines the standard interface for any LLM backend.
type Client interface {
	// Complete sends a chat completion request and returns the result.
	// Failures are classified with the sentinel errors in this package
	// (ErrRateLimited, ErrAuthFailure, ErrTimeout, ErrEmptyContent,
	// ErrRefused) so callers can branch on errors.Is.
	Complete(ctx context.Context, messages []Message, params GenerationParams) (*Completion, error)

	// Model returns the model id this client targets.
	Model() string
}
