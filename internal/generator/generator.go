// Package generator turns a fetched page into a generated reproduction by
// prompting an external completion service.
package generator

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"siteclone/internal/domain"
	"siteclone/internal/providers/completion"
)

// Options configures a Generator.
type Options struct {
	Completer      completion.Completer
	ProviderName   string
	Logger         zerolog.Logger
	Timeout        time.Duration
	MaxPromptBytes int
	// MaxAttempts bounds completion calls on transient transport errors.
	MaxAttempts int
	// InitialBackoff shortens the first retry delay in tests.
	InitialBackoff time.Duration
}

// Generator builds a bounded prompt and asks the completion service for a
// single self-contained document. Transient transport errors are retried with
// exponential backoff; malformed output fails immediately.
type Generator struct {
	completer      completion.Completer
	provider       string
	logger         zerolog.Logger
	timeout        time.Duration
	maxPromptBytes int
	maxAttempts    int
	initialBackoff time.Duration

	mu    sync.Mutex
	cache map[string]string
}

// cacheMaxEntries bounds the completion cache; generated documents run
// tens of kilobytes each.
const cacheMaxEntries = 128

// New builds a Generator.
func New(opts Options) *Generator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	initial := opts.InitialBackoff
	if initial <= 0 {
		initial = 2 * time.Second
	}
	return &Generator{
		completer:      opts.Completer,
		provider:       opts.ProviderName,
		logger:         opts.Logger,
		timeout:        timeout,
		maxPromptBytes: opts.MaxPromptBytes,
		maxAttempts:    attempts,
		initialBackoff: initial,
		cache:          make(map[string]string),
	}
}

// Generate produces the reproduction for a fetched page. An empty or
// non-HTML-looking completion maps to domain.ErrGenerationFailed and is never
// persisted or retried.
func (g *Generator) Generate(ctx context.Context, page *domain.FetchedPage) (*domain.GeneratedSite, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := completion.Request{
		System: systemPrompt,
		Prompt: buildPrompt(page, g.maxPromptBytes),
	}

	key := cacheKey(g.provider, req.Prompt)
	if html, ok := g.cached(key); ok {
		g.logger.Debug().Str("source_url", page.URL).Msg("completion served from cache")
		return g.site(page, html), nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.initialBackoff
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(g.maxAttempts-1)), ctx)

	attempt := 0
	raw, err := backoff.RetryWithData(func() (string, error) {
		attempt++
		text, cerr := g.completer.Complete(ctx, req)
		if cerr != nil {
			if completion.IsTransient(cerr) {
				g.logger.Warn().Err(cerr).Int("attempt", attempt).Msg("transient completion error, retrying")
				return "", cerr
			}
			return "", backoff.Permanent(cerr)
		}
		return text, nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	html := stripCodeFence(raw)
	if strings.TrimSpace(html) == "" {
		return nil, fmt.Errorf("%w: completion returned empty output", domain.ErrGenerationFailed)
	}
	if !looksLikeHTML(html) {
		return nil, fmt.Errorf("%w: completion output is not an html document", domain.ErrGenerationFailed)
	}

	g.store(key, html)
	return g.site(page, html), nil
}

func (g *Generator) site(page *domain.FetchedPage, html string) *domain.GeneratedSite {
	return &domain.GeneratedSite{
		SourceURL: page.URL,
		HTML:      html,
		CSS:       combineStyles(page.Styles, g.styleBudget()),
		Provider:  g.provider,
	}
}

// cacheKey fingerprints a provider+prompt pair. Only validated documents
// are cached, so a hit skips the completion call entirely.
func cacheKey(provider, prompt string) string {
	sum := md5.Sum([]byte(provider + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

func (g *Generator) cached(key string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	html, ok := g.cache[key]
	return html, ok
}

func (g *Generator) store(key, html string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.cache) >= cacheMaxEntries {
		for k := range g.cache {
			delete(g.cache, k)
			break
		}
	}
	g.cache[key] = html
}

func (g *Generator) styleBudget() int {
	if g.maxPromptBytes > 0 {
		return g.maxPromptBytes * 3 / 10
	}
	return 120 * 1024 * 3 / 10
}

// stripCodeFence unwraps a completion that arrived inside a Markdown code
// block.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	for _, prefix := range []string{"```html", "```HTML", "```"} {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = strings.TrimPrefix(trimmed, prefix)
			break
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// looksLikeHTML rejects completions that are prose rather than a document.
// The parser inserts html/body wrappers around anything, so bare text is
// detected by the absence of element children in the parsed body.
func looksLikeHTML(text string) bool {
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return false
	}
	return doc.Find("body").Children().Length() > 0
}
