package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newProvider(t *testing.T, baseURL string) *OpenAIProvider {
	t.Helper()
	t.Setenv("SBOMRAG_TEST_KEY", "sk-test")
	p, err := NewOpenAIProvider(OpenAIConfig{
		BaseURL:    baseURL,
		APIKeyEnv:  "SBOMRAG_TEST_KEY",
		Model:      "gpt-4o-mini",
		MaxRetries: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestOpenAIProviderComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header = %q", got)
		}
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Error(err)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", body.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "the answer"}},
			},
		})
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	got, err := p.Complete(context.Background(), "a prompt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "the answer" {
		t.Errorf("Complete = %q", got)
	}
}

func TestOpenAIProviderRetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "after retry"}},
			},
		})
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	got, err := p.Complete(context.Background(), "a prompt")
	if err != nil {
		t.Fatal(err)
	}
	if got != "after retry" {
		t.Errorf("Complete = %q", got)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("server called %d times, want 2", calls)
	}
}

func TestOpenAIProviderClientErrorIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	if _, err := p.Complete(context.Background(), "a prompt"); err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("client errors must not be retried, got %d calls", calls)
	}
}

func TestOpenAIProviderNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	p := newProvider(t, srv.URL)
	if _, err := p.Complete(context.Background(), "a prompt"); err == nil {
		t.Fatal("expected an error for an empty choices list")
	}
}
