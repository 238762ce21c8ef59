package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestTransientStatus(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{status: 400, want: false},
		{status: 401, want: false},
		{status: 404, want: false},
		{status: 408, want: true},
		{status: 429, want: true},
		{status: 500, want: true},
		{status: 503, want: true},
		{status: 529, want: true},
	}
	for _, tc := range cases {
		if got := transientStatus(tc.status); got != tc.want {
			t.Fatalf("transientStatus(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestAnthropicCompleteHappyPath(t *testing.T) {
	var gotVersion, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.MaxTokens <= 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "<html>"},
				{"type": "text", "text": "</html>"},
			},
		})
	}))
	defer srv.Close()

	client, err := NewAnthropicClient(AnthropicOptions{APIKey: "ak", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewAnthropicClient returned error: %v", err)
	}
	text, err := client.Complete(context.Background(), Request{Prompt: "clone this"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if text != "<html></html>" {
		t.Fatalf("text = %q, want concatenated blocks", text)
	}
	if gotVersion != anthropicAPIVersion || gotKey != "ak" {
		t.Fatalf("headers version=%q key=%q", gotVersion, gotKey)
	}
}

func TestAnthropicStatusClassification(t *testing.T) {
	cases := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{name: "auth failure permanent", status: 401, wantTransient: false},
		{name: "rate limit transient", status: 429, wantTransient: true},
		{name: "overloaded transient", status: 529, wantTransient: true},
		{name: "bad request permanent", status: 400, wantTransient: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			client, err := NewAnthropicClient(AnthropicOptions{APIKey: "ak", BaseURL: srv.URL})
			if err != nil {
				t.Fatalf("NewAnthropicClient returned error: %v", err)
			}
			_, err = client.Complete(context.Background(), Request{Prompt: "x"})
			if err == nil {
				t.Fatal("Complete succeeded on error status")
			}
			if IsTransient(err) != tc.wantTransient {
				t.Fatalf("IsTransient = %v, want %v (err=%v)", IsTransient(err), tc.wantTransient, err)
			}
		})
	}
}

func TestAnthropicNetworkErrorIsTransient(t *testing.T) {
	client, err := NewAnthropicClient(AnthropicOptions{
		APIKey: "ak",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset")
		})},
	})
	if err != nil {
		t.Fatalf("NewAnthropicClient returned error: %v", err)
	}
	_, err = client.Complete(context.Background(), Request{Prompt: "x"})
	if !IsTransient(err) {
		t.Fatalf("network error not transient: %v", err)
	}
}

func TestOpenAICompleteHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req openAIChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "<html>clone</html>"}},
			},
		})
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(OpenAIOptions{APIKey: "ok", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}
	text, err := client.Complete(context.Background(), Request{System: "be a cloner", Prompt: "clone"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if text != "<html>clone</html>" {
		t.Fatalf("text = %q", text)
	}
}

func TestOpenAIEmptyChoicesIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	client, err := NewOpenAIClient(OpenAIOptions{APIKey: "ok", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewOpenAIClient returned error: %v", err)
	}
	_, err = client.Complete(context.Background(), Request{Prompt: "clone"})
	if err == nil {
		t.Fatal("Complete succeeded with no choices")
	}
	if IsTransient(err) {
		t.Fatalf("empty choices classified transient: %v", err)
	}
}

func TestNewClientsRequireAPIKey(t *testing.T) {
	if _, err := NewAnthropicClient(AnthropicOptions{}); err == nil {
		t.Fatal("NewAnthropicClient accepted empty key")
	}
	if _, err := NewOpenAIClient(OpenAIOptions{}); err == nil {
		t.Fatal("NewOpenAIClient accepted empty key")
	}
}
