package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func ollamaTestServer(t *testing.T, models []string, reply string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		type model struct {
			Name string `json:"name"`
		}
		var out struct {
			Models []model `json:"models"`
		}
		for _, m := range models {
			out.Models = append(out.Models, model{Name: m})
		}
		json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": reply},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaGenerate(t *testing.T) {
	srv := ollamaTestServer(t, []string{"qwen2.5:7b"}, "hello from the model")
	p := NewOllamaProvider("qwen2.5:7b", srv.URL)

	got, err := p.Generate(context.Background(), "say hello", 64)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "hello from the model" {
		t.Errorf("unexpected response %q", got)
	}
}

func TestOllamaIsConfigured(t *testing.T) {
	srv := ollamaTestServer(t, []string{"qwen2.5:7b", "llama3:8b"}, "")
	p := NewOllamaProvider("qwen2.5:7b", srv.URL)
	if !p.IsConfigured() {
		t.Error("expected configured when model is present")
	}

	p = NewOllamaProvider("mistral:7b", srv.URL)
	if p.IsConfigured() {
		t.Error("expected not configured when model is missing")
	}
}

func TestOllamaIsConfiguredUnreachable(t *testing.T) {
	p := NewOllamaProvider("qwen2.5:7b", "http://127.0.0.1:1")
	if p.IsConfigured() {
		t.Error("expected not configured for unreachable server")
	}
}

func TestOllamaGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOllamaProvider("qwen2.5:7b", srv.URL)
	if _, err := p.Generate(context.Background(), "prompt", 64); err == nil {
		t.Error("expected error on 500 response")
	}
}

func TestOpenAIIsConfigured(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "")
	p := NewOpenAIProvider("gpt-4o-mini", "TEST_OPENAI_KEY")
	if p.IsConfigured() {
		t.Error("expected not configured without API key")
	}

	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	p = NewOpenAIProvider("gpt-4o-mini", "TEST_OPENAI_KEY")
	if !p.IsConfigured() {
		t.Error("expected configured with API key set")
	}
}

func TestCreateProviderNoneAvailable(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "")
	p := CreateProvider("ollama", "qwen2.5:7b", "http://127.0.0.1:1", "gpt-4o-mini", "TEST_OPENAI_KEY")
	if p != nil {
		t.Error("expected nil provider when nothing is available")
	}
}

func TestCreateProviderOllama(t *testing.T) {
	srv := ollamaTestServer(t, []string{"qwen2.5:7b"}, "")
	p := CreateProvider("ollama", "qwen2.5:7b", srv.URL, "gpt-4o-mini", "TEST_OPENAI_KEY")
	if _, ok := p.(*OllamaProvider); !ok {
		t.Errorf("expected OllamaProvider, got %T", p)
	}
}
