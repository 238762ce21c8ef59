package browser

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newFakeService(t *testing.T) (*httptest.Server, *fakeState) {
	t.Helper()
	state := &fakeState{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		state.created++
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "sess-1"})
	})
	mux.HandleFunc("POST /v1/sessions/sess-1/navigate", func(w http.ResponseWriter, r *http.Request) {
		var req navigateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		state.navigated = req
		_ = json.NewEncoder(w).Encode(NavigateResult{
			StatusCode: 200,
			FinalURL:   req.URL,
			Redirects:  state.redirects,
			Title:      "Example",
			HTML:       "<html><body>hi</body></html>",
		})
	})
	mux.HandleFunc("DELETE /v1/sessions/sess-1", func(w http.ResponseWriter, r *http.Request) {
		state.closed++
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, state
}

type fakeState struct {
	created   int
	closed    int
	redirects int
	navigated navigateRequest
}

func TestClientSessionLifecycle(t *testing.T) {
	srv, state := newFakeService(t)
	client, err := NewClient(ClientOptions{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx := context.Background()
	sess, err := client.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	res, err := sess.Navigate(ctx, "https://example.com/", 5*time.Second, 5)
	if err != nil {
		t.Fatalf("Navigate returned error: %v", err)
	}
	if res.StatusCode != 200 || res.Title != "Example" {
		t.Fatalf("unexpected navigate result: %+v", res)
	}
	if state.navigated.WaitUntil != "networkidle" {
		t.Fatalf("wait_until = %q, want networkidle", state.navigated.WaitUntil)
	}
	if state.navigated.TimeoutMS != 5000 {
		t.Fatalf("timeout_ms = %d, want 5000", state.navigated.TimeoutMS)
	}
	if state.navigated.MaxRedirects != 5 {
		t.Fatalf("max_redirects = %d, want 5", state.navigated.MaxRedirects)
	}

	if err := sess.Close(ctx); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if state.created != 1 || state.closed != 1 {
		t.Fatalf("created=%d closed=%d, want 1/1", state.created, state.closed)
	}
}

func TestClientRedirectCapExceeded(t *testing.T) {
	srv, state := newFakeService(t)
	state.redirects = 9

	client, err := NewClient(ClientOptions{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	sess, err := client.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	_, err = sess.Navigate(context.Background(), "https://example.com/", time.Second, 5)
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Fatalf("Navigate error = %v, want ErrTooManyRedirects", err)
	}
}

func TestClientAuthFailure(t *testing.T) {
	srv, _ := newFakeService(t)
	client, err := NewClient(ClientOptions{BaseURL: srv.URL, APIKey: "wrong"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.CreateSession(context.Background()); err == nil {
		t.Fatal("CreateSession succeeded with bad credentials")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientOptions{}); err == nil {
		t.Fatal("NewClient accepted empty base url")
	}
}
