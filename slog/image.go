package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/propsheet/propsheet"
)

var _ propsheet.ImageCleaner = (*LoggingImageCleaner)(nil)

// LoggingImageCleaner wraps an ImageCleaner with logging.
type LoggingImageCleaner struct {
	next   propsheet.ImageCleaner
	logger *slog.Logger
}

// NewLoggingImageCleaner creates a new LoggingImageCleaner.
func NewLoggingImageCleaner(next propsheet.ImageCleaner, logger *slog.Logger) *LoggingImageCleaner {
	return &LoggingImageCleaner{next: next, logger: logger}
}

// Clean delegates to the wrapped cleaner and logs input and output sizes.
func (c *LoggingImageCleaner) Clean(ctx context.Context, img *propsheet.Blob) (out *propsheet.Blob, err error) {
	defer func(begin time.Time) {
		var in, n int
		if img != nil {
			in = len(img.Data)
		}
		if out != nil {
			n = len(out.Data)
		}
		c.logger.Info("watermark removal",
			"bytes_in", in,
			"bytes_out", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Clean(ctx, img)
}

var _ propsheet.ObjectStorage = (*LoggingObjectStorage)(nil)

// LoggingObjectStorage wraps an ObjectStorage with logging.
type LoggingObjectStorage struct {
	next   propsheet.ObjectStorage
	logger *slog.Logger
}

// NewLoggingObjectStorage creates a new LoggingObjectStorage.
func NewLoggingObjectStorage(next propsheet.ObjectStorage, logger *slog.Logger) *LoggingObjectStorage {
	return &LoggingObjectStorage{next: next, logger: logger}
}

// Upload delegates to the wrapped storage and logs the object written.
func (s *LoggingObjectStorage) Upload(ctx context.Context, path string, blob *propsheet.Blob, opts propsheet.UploadOptions) (obj *propsheet.Object, err error) {
	defer func(begin time.Time) {
		var n int
		if blob != nil {
			n = len(blob.Data)
		}
		s.logger.Info("upload",
			"path", path,
			"bytes", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Upload(ctx, path, blob, opts)
}

// MakePublic delegates to the wrapped storage and logs the public URL.
func (s *LoggingObjectStorage) MakePublic(ctx context.Context, obj *propsheet.Object) (url string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("publish",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.MakePublic(ctx, obj)
}
