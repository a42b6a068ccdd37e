package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/bookrag/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
		})
	}))
}

func TestGenerator_Generate(t *testing.T) {
	var req chatRequest
	server := chatServer(t, "  forty-two \n", &req)
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{Config: Config{APIKey: "k", BaseURL: server.URL, Model: "test-model"}})

	res, err := gen.Generate(context.Background(), domain.GenerationRequest{System: "be helpful", Prompt: "what?"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "forty-two" {
		t.Errorf("Text = %q, want trimmed completion", res.Text)
	}
	if res.PromptTokens != 12 || res.CompletionTokens != 3 {
		t.Errorf("usage = %d/%d, want 12/3", res.PromptTokens, res.CompletionTokens)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "what?" {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}
	if req.Model != "test-model" {
		t.Errorf("model = %q", req.Model)
	}
}

func TestGenerator_NoSystemMessage(t *testing.T) {
	var req chatRequest
	server := chatServer(t, "ok", &req)
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{Config: Config{APIKey: "k", BaseURL: server.URL, Model: "m"}})
	if _, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Errorf("expected single user message, got %+v", req.Messages)
	}
}

func TestGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"model crashed","type":"server_error"}}`))
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{Config: Config{APIKey: "k", BaseURL: server.URL, Model: "m"}})
	_, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected ErrGenerationProviderError, got %v", err)
	}
}

func TestGenerator_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{Config: Config{APIKey: "k", BaseURL: server.URL, Model: "m"}})
	_, err := gen.Generate(context.Background(), domain.GenerationRequest{Prompt: "hi"})
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected ErrGenerationProviderError, got %v", err)
	}
}
