package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

type stubRetriever struct {
	passages []string
	err      error
	query    string
}

func (r *stubRetriever) Retrieve(_ context.Context, query string) ([]string, error) {
	r.query = query
	return r.passages, r.err
}

type stubGenerator struct {
	text  string
	err   error
	req   domain.GenerationRequest
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	g.calls++
	g.req = req
	if g.err != nil {
		return domain.GenerationResult{}, g.err
	}
	return domain.GenerationResult{Text: g.text}, nil
}

func TestGenerate(t *testing.T) {
	r := &stubRetriever{passages: []string{"first passage", "second passage"}}
	g := &stubGenerator{text: "the answer"}
	svc := New(r, g, "", zap.NewNop())

	ans, err := svc.Generate(context.Background(), "  what is RAG?  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "the answer" {
		t.Errorf("Text = %q", ans.Text)
	}
	if len(ans.Context) != 2 {
		t.Errorf("expected 2 context passages, got %d", len(ans.Context))
	}
	if r.query != "what is RAG?" {
		t.Errorf("retriever got %q", r.query)
	}
	if g.req.System != DefaultSystemPrompt {
		t.Errorf("System = %q", g.req.System)
	}
	if !strings.Contains(g.req.Prompt, "first passage\n---\nsecond passage") {
		t.Errorf("prompt does not join passages with separator: %q", g.req.Prompt)
	}
	if !strings.HasSuffix(g.req.Prompt, "what is RAG?") {
		t.Errorf("prompt should end with the question: %q", g.req.Prompt)
	}
}

func TestGenerate_CustomSystemPrompt(t *testing.T) {
	g := &stubGenerator{}
	svc := New(&stubRetriever{}, g, "be terse", zap.NewNop())

	if _, err := svc.Generate(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.req.System != "be terse" {
		t.Errorf("System = %q", g.req.System)
	}
}

func TestGenerate_EmptyQuestion(t *testing.T) {
	g := &stubGenerator{}
	svc := New(&stubRetriever{}, g, "", zap.NewNop())

	_, err := svc.Generate(context.Background(), "   ")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if g.calls != 0 {
		t.Error("generator should not be called")
	}
}

func TestGenerate_RetrievalErrorPropagates(t *testing.T) {
	r := &stubRetriever{err: fmt.Errorf("embed: %w", domain.ErrEmbeddingProviderError)}
	g := &stubGenerator{}
	svc := New(r, g, "", zap.NewNop())

	_, err := svc.Generate(context.Background(), "q")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if g.calls != 0 {
		t.Error("generator should not be called after retrieval failure")
	}
}

func TestGenerate_GenerationErrorPropagates(t *testing.T) {
	g := &stubGenerator{err: domain.ErrGenerationProviderError}
	svc := New(&stubRetriever{passages: []string{"p"}}, g, "", zap.NewNop())

	_, err := svc.Generate(context.Background(), "q")
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected ErrGenerationProviderError, got %v", err)
	}
}

func TestBuildPrompt_NoPassages(t *testing.T) {
	p := BuildPrompt("why?", nil)
	if !strings.Contains(p, "CONTEXT:\n\n\nQUESTION:\nwhy?") {
		t.Errorf("unexpected prompt: %q", p)
	}
}
