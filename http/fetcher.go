// Package http provides an HTTP-based implementation of propsheet.Fetcher
// for listing pages that don't require JavaScript rendering, plus binary
// and JSON retrieval for images and structured endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/propsheet/propsheet"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxBodyBytes is the largest response body accepted. Larger bodies
// are rejected rather than cut short.
const DefaultMaxBodyBytes = 20 << 20

// UserAgent is sent with every request. Several listing sources reject
// requests without a desktop browser signature.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Ensure Fetcher implements propsheet.Fetcher at compile time.
var (
	_ propsheet.Fetcher     = (*Fetcher)(nil)
	_ propsheet.BlobFetcher = (*Fetcher)(nil)
)

// Fetcher retrieves content from URLs using plain HTTP GET requests.
// Unlike rod.Fetcher, this does not execute JavaScript.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBodyBytes caps the number of body bytes read per response.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the body at url as text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	body, _, err := f.get(ctx, url, "text/html,application/xhtml+xml,*/*")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchJSON retrieves url and decodes the JSON body into v.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, v any) error {
	body, _, err := f.get(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding JSON from %s: %w", url, err)
	}
	return nil
}

// FetchBlob retrieves url as binary content with its media type.
func (f *Fetcher) FetchBlob(ctx context.Context, url string) (*propsheet.Blob, error) {
	body, contentType, err := f.get(ctx, url, "image/*,*/*")
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return &propsheet.Blob{Data: body, ContentType: contentType}, nil
}

func (f *Fetcher) get(ctx context.Context, url, accept string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", propsheet.Errorf(propsheet.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &propsheet.FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(body)) > f.maxBytes {
		return nil, "", propsheet.Errorf(propsheet.ETOOLARGE, "response from %s exceeds %d bytes", url, f.maxBytes)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}
