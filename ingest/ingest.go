// Package ingest copies listing images into object storage.
//
// Each image is an isolated unit of work: it is fetched, optionally sent
// through a watermark cleaner, uploaded under the listing's destination key
// and made public. A failing unit is reported and dropped without affecting
// the others.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propsheet/propsheet"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxImages caps how many images one request may ingest.
	DefaultMaxImages = 5

	// DefaultConcurrency bounds the images processed at the same time.
	DefaultConcurrency = 4

	// CacheControl is set on every uploaded object.
	CacheControl = "no-cache"
)

var _ propsheet.ImageIngester = (*Pipeline)(nil)

// Pipeline fetches, cleans and re-hosts gallery images.
type Pipeline struct {
	Fetcher propsheet.BlobFetcher
	Storage propsheet.ObjectStorage

	// Cleaner is optional. When nil, images are uploaded as fetched.
	Cleaner propsheet.ImageCleaner

	// Limiter is optional and throttles fetches per image host.
	Limiter propsheet.HostLimiter

	MaxImages   int
	Concurrency int

	// RetryDelays are the waits between fetch attempts of one image.
	// Only transient failures are retried. Nil means a single attempt.
	RetryDelays []time.Duration

	Logger *slog.Logger
}

// Result is the outcome for one input image.
type Result struct {
	SourceURL string
	URL       string
	Err       error
}

// Ingest returns the public URLs of the images that were processed
// successfully, in input order. Failed images are logged and omitted.
func (p *Pipeline) Ingest(ctx context.Context, imageURLs []string, destinationKey string) ([]string, error) {
	results, err := p.IngestDetailed(ctx, imageURLs, destinationKey)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			urls = append(urls, r.URL)
		}
	}
	return urls, nil
}

// IngestDetailed processes imageURLs and reports one Result per non-empty
// input, in input order. Per-image failures carry an
// *propsheet.ImageProcessingError; only request-level problems (too many
// images, missing key, cancellation) are returned as an error.
func (p *Pipeline) IngestDetailed(ctx context.Context, imageURLs []string, destinationKey string) ([]Result, error) {
	maxImages := p.MaxImages
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	if len(imageURLs) > maxImages {
		return nil, &propsheet.GalleryTooLargeError{Count: len(imageURLs), Max: maxImages}
	}
	destinationKey = strings.Trim(strings.TrimSpace(destinationKey), "/")
	if destinationKey == "" {
		return nil, propsheet.Errorf(propsheet.EINVALID, "destination key required")
	}
	if p.Fetcher == nil || p.Storage == nil {
		return nil, propsheet.Errorf(propsheet.EINTERNAL, "image pipeline is missing a fetcher or storage")
	}

	var work []string
	for _, u := range imageURLs {
		if !propsheet.IsMissing(u) {
			work = append(work, strings.TrimSpace(u))
		}
	}

	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]Result, len(work))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, src := range work {
		g.Go(func() error {
			hosted, err := p.process(gctx, src, destinationKey)
			results[i] = Result{SourceURL: src, URL: hosted, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := p.logger()
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("image dropped", "url", r.SourceURL, "key", destinationKey, "err", r.Err)
		}
	}
	return results, nil
}

func (p *Pipeline) process(ctx context.Context, src, key string) (string, error) {
	fail := func(stage string, err error) (string, error) {
		return "", &propsheet.ImageProcessingError{URL: src, Stage: stage, Err: err}
	}

	blob, err := p.fetch(ctx, src)
	if err != nil {
		return fail(propsheet.StageFetch, err)
	}

	if p.Cleaner != nil {
		if err := ctx.Err(); err != nil {
			return fail(propsheet.StageClean, err)
		}
		if blob, err = p.Cleaner.Clean(ctx, blob); err != nil {
			return fail(propsheet.StageClean, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return fail(propsheet.StageUpload, err)
	}
	path := key + "/" + uuid.NewString() + "." + propsheet.ImageExtension(blob.ContentType)
	obj, err := p.Storage.Upload(ctx, path, blob, propsheet.UploadOptions{CacheControl: CacheControl})
	if err != nil {
		return fail(propsheet.StageUpload, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(propsheet.StagePublic, err)
	}
	hosted, err := p.Storage.MakePublic(ctx, obj)
	if err != nil {
		return fail(propsheet.StagePublic, err)
	}
	return hosted, nil
}

// fetch retrieves one image, waiting on the host limiter before every
// attempt and backing off between transient failures.
func (p *Pipeline) fetch(ctx context.Context, src string) (*propsheet.Blob, error) {
	var lastErr error
	for attempt := 0; attempt <= len(p.RetryDelays); attempt++ {
		if attempt > 0 {
			p.logger().Debug("retrying image fetch", "url", src, "attempt", attempt+1, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.RetryDelays[attempt-1]):
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx, host(src)); err != nil {
				return nil, err
			}
		}

		blob, err := p.Fetcher.FetchBlob(ctx, src)
		if err == nil {
			return blob, nil
		}
		lastErr = err
		if !transient(err) {
			break
		}
	}
	return nil, lastErr
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// transient reports whether a fetch failure is worth another attempt.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var fe *propsheet.FetchError
	if errors.As(err, &fe) {
		return fe.Status >= http.StatusInternalServerError || fe.Status == http.StatusTooManyRequests
	}
	switch propsheet.ErrorCode(err) {
	case propsheet.EINVALID, propsheet.ETOOLARGE:
		return false
	}
	return true
}

func host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Host
}
