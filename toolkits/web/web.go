// Package web provides a page-fetching tool that returns pages as Markdown.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"

	"github.com/skosovsky/inlinecall"
)

const (
	// DefaultMaxBytes caps how much of a response body is read.
	DefaultMaxBytes = 2 << 20
	// DefaultMaxChars caps the Markdown returned to the model.
	DefaultMaxChars = 8000
)

type config struct {
	client   *http.Client
	maxBytes int64
	maxChars int
}

// Option configures the fetch tool.
type Option func(*config)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.client = c
		}
	}
}

// WithMaxChars caps the Markdown returned to the model.
func WithMaxChars(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxChars = n
		}
	}
}

type fetchArgs struct {
	URL string `json:"url" jsonschema:"Absolute http or https URL of the page"`
}

// NewFetchTool returns fetch_page, which downloads a page and converts it to Markdown.
// Links in the Markdown are absolute.
func NewFetchTool(opts ...Option) (inlinecall.Tool, error) {
	cfg := config{
		client:   &http.Client{Timeout: 20 * time.Second},
		maxBytes: DefaultMaxBytes,
		maxChars: DefaultMaxChars,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return inlinecall.NewTool("fetch_page", "Fetch a web page and return its content as Markdown",
		func(ctx context.Context, a fetchArgs) (string, error) {
			return fetch(ctx, cfg, a.URL)
		})
}

func fetch(ctx context.Context, cfg config, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &inlinecall.ClientError{Reason: fmt.Sprintf("not an absolute http(s) URL: %q", raw)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	resp, err := cfg.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("fetch %s: status %d", u.Host, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, cfg.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", u.Host, err)
	}
	md, err := htmltomarkdown.ConvertString(string(body), converter.WithDomain(u.Scheme+"://"+u.Host))
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", u.Host, err)
	}
	return truncate(md, cfg.maxChars), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "\n[truncated]"
}
