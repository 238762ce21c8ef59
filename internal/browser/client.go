// Package browser speaks the REST API of the external headless-browser
// automation service. A session is a single isolated browser context; callers
// create one per fetch and must release it on every exit path.
package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NavigateResult is the rendered outcome of loading a URL in a session.
type NavigateResult struct {
	StatusCode int    `json:"status_code"`
	FinalURL   string `json:"final_url"`
	Redirects  int    `json:"redirects"`
	Title      string `json:"title"`
	HTML       string `json:"html"`
}

// ErrTooManyRedirects is returned when the automation service reports that
// navigation exceeded the requested redirect cap.
var ErrTooManyRedirects = errors.New("browser: too many redirects")

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client drives browser sessions over the automation service's REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

const clientDefaultTimeout = 60 * time.Second

// NewClient validates options and builds a session client.
func NewClient(opts ClientOptions) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("browser: base url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: clientDefaultTimeout}
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(opts.APIKey),
		client:  client,
	}, nil
}

// Session is one browser context held open on the automation service.
type Session struct {
	ID     string
	client *Client
}

// CreateSession allocates an isolated browser context.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", nil, &out); err != nil {
		return nil, fmt.Errorf("browser: create session: %w", err)
	}
	if out.ID == "" {
		return nil, errors.New("browser: create session: empty session id")
	}
	return &Session{ID: out.ID, client: c}, nil
}

type navigateRequest struct {
	URL          string `json:"url"`
	WaitUntil    string `json:"wait_until"`
	TimeoutMS    int64  `json:"timeout_ms"`
	MaxRedirects int    `json:"max_redirects"`
}

// Navigate loads the URL in the session, waits for a network-idle render
// bounded by timeout, and returns the serialized document. The redirect cap
// is enforced by the service; exceeding it reports ErrTooManyRedirects.
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration, maxRedirects int) (*NavigateResult, error) {
	req := navigateRequest{
		URL:          url,
		WaitUntil:    "networkidle",
		TimeoutMS:    timeout.Milliseconds(),
		MaxRedirects: maxRedirects,
	}
	var out NavigateResult
	path := fmt.Sprintf("/v1/sessions/%s/navigate", s.ID)
	if err := s.client.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, fmt.Errorf("browser: navigate: %w", err)
	}
	if maxRedirects > 0 && out.Redirects > maxRedirects {
		return nil, ErrTooManyRedirects
	}
	return &out, nil
}

// Close releases the browser context. It is safe to call on a session whose
// navigation failed; release errors are returned so callers can log them.
func (s *Session) Close(ctx context.Context) error {
	path := fmt.Sprintf("/v1/sessions/%s", s.ID)
	if err := s.client.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("browser: close session: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
