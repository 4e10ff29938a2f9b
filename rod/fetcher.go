// Package rod renders JavaScript-driven listing pages with a headless
// Chrome browser.
package rod

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/propsheet/propsheet"
)

// DefaultRenderTimeout bounds how long a page may take to settle.
const DefaultRenderTimeout = 60 * time.Second

// DefaultIdleWindow is how long the network must stay quiet before the page
// counts as rendered.
const DefaultIdleWindow = 500 * time.Millisecond

// UserAgent is reported by the rendering browser.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Ensure Fetcher implements propsheet.Fetcher at compile time.
var _ propsheet.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Every Fetch runs in its own browser process which is torn down before
// Fetch returns, so no state leaks between pages.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	timeout time.Duration
	idle    time.Duration
	bin     string
	closed  atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRenderTimeout sets the maximum time a page may take to settle.
// Defaults to DefaultRenderTimeout (60s) if not specified.
func WithRenderTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithIdleWindow sets how long the network must be idle before the HTML is
// captured.
func WithIdleWindow(d time.Duration) Option {
	return func(f *Fetcher) {
		f.idle = d
	}
}

// WithBrowserBin uses the Chrome binary at path instead of letting the
// launcher locate or download one.
func WithBrowserBin(path string) Option {
	return func(f *Fetcher) {
		f.bin = path
	}
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultRenderTimeout,
		idle:    DefaultIdleWindow,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch launches an isolated headless browser, navigates to url, waits for
// network quiescence and returns the rendered document. Browser resources
// are released on every return path.
func (f *Fetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	if f.closed.Load() {
		return "", propsheet.Errorf(propsheet.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	renderCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// A render that overran its own deadline, as opposed to the caller
	// cancelling, is reported as a timeout.
	defer func() {
		if err != nil && ctx.Err() == nil && errors.Is(renderCtx.Err(), context.DeadlineExceeded) {
			err = &propsheet.RenderTimeoutError{URL: url, Timeout: f.timeout}
		}
	}()

	l := launcher.New().
		Context(renderCtx).
		Headless(true).
		NoSandbox(true).
		Leakless(true)
	if f.bin != "" {
		l = l.Bin(f.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("launching browser: %w", err)
	}
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(renderCtx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connecting to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: UserAgent}); err != nil {
		return "", fmt.Errorf("setting user agent: %w", err)
	}

	waitIdle := page.WaitRequestIdle(f.idle, nil, nil, nil)
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigating to %s: %w", url, err)
	}
	waitIdle()
	if err := renderCtx.Err(); err != nil {
		return "", err
	}

	html, err = page.HTML()
	if err != nil {
		return "", fmt.Errorf("reading rendered HTML: %w", err)
	}

	return html, nil
}

// Close marks the fetcher closed. Browsers are per call, so there is
// nothing long-lived to release. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.closed.Store(true)
	return nil
}
