package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompleteNotConfigured(t *testing.T) {
	client := NewClient(Options{})
	if client.Configured() {
		t.Fatal("client with no keys must not report configured")
	}
	_, err := client.Complete(context.Background(), "hello", false)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestCompletePrefersJSONModeBackend(t *testing.T) {
	var gotPath string
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "{\"ok\": true}"}}],
			"usage": {"prompt_tokens": 11, "completion_tokens": 7}
		}`))
	}))
	defer server.Close()

	// Both keys set: the JSON-mode backend wins.
	client := NewClient(Options{
		OpenAIAPIKey:    "test-openai",
		AnthropicAPIKey: "test-anthropic",
		BaseURL:         server.URL,
	})
	got, err := client.Complete(context.Background(), "classify these", true)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != `{"ok": true}` {
		t.Fatalf("Complete = %q, want raw body", got)
	}
	if !strings.Contains(gotPath, "chat/completions") {
		t.Fatalf("expected chat completions endpoint, got %s", gotPath)
	}
	if !strings.Contains(gotBody, "json_object") {
		t.Fatalf("expected JSON response format declared in request, body=%s", gotBody)
	}
	usage := client.Usage()
	if usage.InputTokens != 11 || usage.OutputTokens != 7 {
		t.Fatalf("usage = %+v, want tokens from the response", usage)
	}
	if usage.TotalTokens() != 18 {
		t.Fatalf("TotalTokens() = %d, want 18", usage.TotalTokens())
	}
}

func TestCompleteRawBackendStripsFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"content": [{"type": "text", "text": "` + "```json\\n{\\\"a\\\": 1}\\n```" + `"}],
			"model": "claude-sonnet-4-5-20250929",
			"usage": {"input_tokens": 3, "output_tokens": 4}
		}`))
	}))
	defer server.Close()

	client := NewClient(Options{
		AnthropicAPIKey: "test-anthropic",
		BaseURL:         server.URL,
	})
	got, err := client.Complete(context.Background(), "discover themes", true)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != `{"a": 1}` {
		t.Fatalf("Complete = %q, want fence-stripped JSON", got)
	}
}

func TestCompleteTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Options{OpenAIAPIKey: "test-openai", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), "hello", false)
	if err == nil {
		t.Fatal("expected error from failing backend")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %T (%v)", err, err)
	}
	if reqErr.Backend != "openai" {
		t.Fatalf("RequestError.Backend = %q, want openai", reqErr.Backend)
	}
}
