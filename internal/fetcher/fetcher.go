// Package fetcher retrieves and sanitizes company web pages. Failures never
// escape as anything other than an explicit unavailable result: callers see
// either a populated Page or an error meaning the page could not be fetched.
package fetcher

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/reka-labs/salesbot/internal/resilience"
)

// maxBodyBytes caps how much of a response body is read before parsing.
const maxBodyBytes = 512 * 1024

// userAgents is the fixed pool rotated per request. Basic header rotation is
// the extent of anti-bot handling here.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:89.0) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36 Edg/91.0.864.59",
}

// Page is a fetched and sanitized web page.
type Page struct {
	URL     string
	Title   string
	Text    string // visible text, whitespace collapsed, capped at maxLen
	RawHTML string // original markup, for email scanning
}

// Fetcher retrieves pages over HTTP with a rotated user-agent pool.
type Fetcher struct {
	client *http.Client
	maxLen int
}

// Option configures the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		f.client = hc
	}
}

// WithMaxContentLen overrides the sanitized-text length cap.
func WithMaxContentLen(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxLen = n
		}
	}
}

// New creates a Fetcher with the given per-request timeout.
func New(timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: timeout},
		maxLen: 2000,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch retrieves a URL and returns its sanitized text. Any failure (timeout,
// non-2xx status, parse error) is reported as an error; the caller records
// the page as unavailable and moves on.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	if !strings.HasPrefix(targetURL, "http://") && !strings.HasPrefix(targetURL, "https://") {
		targetURL = "https://" + targetURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "fetcher: get"), 0)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := eris.Errorf("fetcher: status %d for %s", resp.StatusCode, targetURL)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "fetcher: read body"), 0)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse html")
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	// Drop non-visible content before extracting text.
	doc.Find("script, style, noscript").Remove()

	text := collapseWhitespace(doc.Find("body").Text())
	if text == "" {
		text = collapseWhitespace(doc.Text())
	}
	if len(text) > f.maxLen {
		text = text[:f.maxLen]
	}

	return &Page{
		URL:     targetURL,
		Title:   title,
		Text:    text,
		RawHTML: string(body),
	}, nil
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
