// Package slog provides decorators that log calls to propsheet services
// with log/slog.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/propsheet/propsheet"
)

// Ensure LoggingFetcher implements propsheet.Fetcher.
var _ propsheet.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   propsheet.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next propsheet.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the operation.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch",
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// Ensure LoggingBlobFetcher implements propsheet.BlobFetcher.
var _ propsheet.BlobFetcher = (*LoggingBlobFetcher)(nil)

// LoggingBlobFetcher wraps a BlobFetcher with debug logging.
type LoggingBlobFetcher struct {
	next   propsheet.BlobFetcher
	logger *slog.Logger
}

// NewLoggingBlobFetcher creates a new LoggingBlobFetcher.
func NewLoggingBlobFetcher(next propsheet.BlobFetcher, logger *slog.Logger) *LoggingBlobFetcher {
	return &LoggingBlobFetcher{next: next, logger: logger}
}

// FetchBlob delegates to the wrapped fetcher and logs the operation.
func (f *LoggingBlobFetcher) FetchBlob(ctx context.Context, url string) (blob *propsheet.Blob, err error) {
	defer func(begin time.Time) {
		var n int
		var contentType string
		if blob != nil {
			n, contentType = len(blob.Data), blob.ContentType
		}
		f.logger.Debug("fetch image",
			"url", url,
			"bytes", n,
			"content_type", contentType,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.FetchBlob(ctx, url)
}
