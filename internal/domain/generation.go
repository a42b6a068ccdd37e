package domain

import "context"

// Generator produces a completion for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationRequest is a single-turn prompt with an optional system instruction.
type GenerationRequest struct {
	System string
	Prompt string
}

// GenerationResult carries the completion text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
