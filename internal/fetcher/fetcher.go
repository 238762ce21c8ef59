// Package fetcher turns a validated URL into a FetchedPage by driving one
// browser session per call and extracting the rendered markup and styles.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"siteclone/internal/browser"
	"siteclone/internal/domain"
)

// maxStylesheetBytes caps how much of a single linked stylesheet is read.
const maxStylesheetBytes = 256 * 1024

// Options configures a Fetcher.
type Options struct {
	Client         *browser.Client
	Pool           *browser.Pool
	Logger         zerolog.Logger
	Timeout        time.Duration
	MaxRedirects   int
	MaxStylesheets int
	// StyleClient downloads linked stylesheets. Defaults to a client with
	// the navigation timeout.
	StyleClient *http.Client
}

// Fetcher renders pages through the browser automation service. Every call
// acquires a pool slot, opens a fresh session, and releases both on all exit
// paths.
type Fetcher struct {
	client         *browser.Client
	pool           *browser.Pool
	logger         zerolog.Logger
	timeout        time.Duration
	maxRedirects   int
	maxStylesheets int
	styleClient    *http.Client
}

// New builds a Fetcher.
func New(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	styleClient := opts.StyleClient
	if styleClient == nil {
		styleClient = &http.Client{Timeout: timeout}
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	return &Fetcher{
		client:         opts.Client,
		pool:           opts.Pool,
		logger:         opts.Logger,
		timeout:        timeout,
		maxRedirects:   maxRedirects,
		maxStylesheets: opts.MaxStylesheets,
		styleClient:    styleClient,
	}
}

// ValidateURL checks that raw is a well-formed absolute http/https URL and
// returns its parsed form. It allocates no resources, so callers can reject
// bad input before any browser work happens.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty url", domain.ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q is not http or https", domain.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", domain.ErrInvalidURL)
	}
	return u, nil
}

// Fetch renders the URL and returns the serialized document plus associated
// style content. Navigation timeout, transport errors, non-2xx responses, and
// pool exhaustion all map to domain.ErrFetchFailed; partial content is never
// returned as success.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.FetchedPage, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := f.pool.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer f.pool.Release()

	sess, err := f.client.CreateSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer func() {
		// Session teardown must survive a cancelled request context.
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if cerr := sess.Close(closeCtx); cerr != nil {
			f.logger.Warn().Err(cerr).Str("session_id", sess.ID).Msg("browser session release failed")
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	res, err := sess.Navigate(navCtx, target.String(), f.timeout, f.maxRedirects)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: target responded with status %d", domain.ErrFetchFailed, res.StatusCode)
	}
	if strings.TrimSpace(res.HTML) == "" {
		return nil, fmt.Errorf("%w: empty rendered document", domain.ErrFetchFailed)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		return nil, fmt.Errorf("%w: parse rendered document: %v", domain.ErrFetchFailed, err)
	}

	finalURL := res.FinalURL
	if finalURL == "" {
		finalURL = target.String()
	}
	base, err := url.Parse(finalURL)
	if err != nil {
		base = target
	}

	ex := extractPage(doc, base)
	title := res.Title
	if title == "" {
		title = ex.Title
	}

	page := &domain.FetchedPage{
		URL:      target.String(),
		FinalURL: finalURL,
		Title:    title,
		HTML:     res.HTML,
		Text:     ex.Text,
	}
	for _, css := range ex.InlineStyles {
		page.Styles = append(page.Styles, domain.Stylesheet{Content: css})
	}
	page.Styles = append(page.Styles, f.downloadStylesheets(ctx, ex.StylesheetHrefs)...)

	return page, nil
}

// downloadStylesheets fetches up to maxStylesheets linked sheets. Individual
// failures are logged and skipped; style content is best-effort, the document
// itself is not.
func (f *Fetcher) downloadStylesheets(ctx context.Context, hrefs []string) []domain.Stylesheet {
	var sheets []domain.Stylesheet
	for _, href := range hrefs {
		if f.maxStylesheets > 0 && len(sheets) >= f.maxStylesheets {
			break
		}
		content, err := f.downloadStylesheet(ctx, href)
		if err != nil {
			f.logger.Debug().Err(err).Str("href", href).Msg("skipping stylesheet")
			continue
		}
		if content == "" {
			continue
		}
		sheets = append(sheets, domain.Stylesheet{Href: href, Content: content})
	}
	return sheets
}

func (f *Fetcher) downloadStylesheet(ctx context.Context, href string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return "", fmt.Errorf("build stylesheet request: %w", err)
	}
	resp, err := f.styleClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download stylesheet: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stylesheet status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxStylesheetBytes))
	if err != nil {
		return "", fmt.Errorf("read stylesheet: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
