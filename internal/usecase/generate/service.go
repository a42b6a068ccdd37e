// Package generate answers questions from retrieved context.
package generate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

// DefaultSystemPrompt is used when no system prompt is configured.
const DefaultSystemPrompt = "The assistant will act like a helpful research assistant."

const contextSeparator = "\n---\n"

// Answer is a generated reply together with the passages it was grounded on.
type Answer struct {
	Text    string
	Context []string
}

// Service runs retrieve-then-generate.
type Service struct {
	retriever Retriever
	generator Generator
	system    string
	logger    *zap.Logger
}

// New creates a generation service. An empty system prompt falls back to DefaultSystemPrompt.
func New(r Retriever, g Generator, systemPrompt string, logger *zap.Logger) *Service {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &Service{retriever: r, generator: g, system: systemPrompt, logger: logger}
}

// Generate retrieves context for question and asks the generator to answer from it.
// Retrieval and generation failures are returned as-is (wrapped).
func (s *Service) Generate(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("%w: question is required", domain.ErrInvalidRequest)
	}

	passages, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve context: %w", err)
	}

	res, err := s.generator.Generate(ctx, domain.GenerationRequest{
		System: s.system,
		Prompt: BuildPrompt(question, passages),
	})
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	s.logger.Debug("Answer generated",
		zap.Int("passages", len(passages)),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("completion_tokens", res.CompletionTokens),
	)

	return Answer{Text: res.Text, Context: passages}, nil
}

// BuildPrompt places the passages, separated by "---" lines, ahead of the question.
func BuildPrompt(question string, passages []string) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the context below. ")
	b.WriteString("If the context does not contain the answer, say so.\n\n")
	b.WriteString("CONTEXT:\n")
	b.WriteString(strings.Join(passages, contextSeparator))
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(question)
	return b.String()
}
