package mock

import (
	"context"

	"github.com/propsheet/propsheet"
)

var _ propsheet.ObjectStorage = (*ObjectStorage)(nil)

// ObjectStorage is a mock implementation of propsheet.ObjectStorage.
type ObjectStorage struct {
	UploadFn     func(ctx context.Context, path string, blob *propsheet.Blob, opts propsheet.UploadOptions) (*propsheet.Object, error)
	MakePublicFn func(ctx context.Context, obj *propsheet.Object) (string, error)
}

func (s *ObjectStorage) Upload(ctx context.Context, path string, blob *propsheet.Blob, opts propsheet.UploadOptions) (*propsheet.Object, error) {
	return s.UploadFn(ctx, path, blob, opts)
}

func (s *ObjectStorage) MakePublic(ctx context.Context, obj *propsheet.Object) (string, error) {
	return s.MakePublicFn(ctx, obj)
}

var _ propsheet.ImageCleaner = (*ImageCleaner)(nil)

// ImageCleaner is a mock implementation of propsheet.ImageCleaner.
type ImageCleaner struct {
	CleanFn func(ctx context.Context, img *propsheet.Blob) (*propsheet.Blob, error)
}

func (c *ImageCleaner) Clean(ctx context.Context, img *propsheet.Blob) (*propsheet.Blob, error) {
	return c.CleanFn(ctx, img)
}

var _ propsheet.ImageIngester = (*ImageIngester)(nil)

// ImageIngester is a mock implementation of propsheet.ImageIngester.
type ImageIngester struct {
	IngestFn func(ctx context.Context, imageURLs []string, destinationKey string) ([]string, error)
}

func (i *ImageIngester) Ingest(ctx context.Context, imageURLs []string, destinationKey string) ([]string, error) {
	return i.IngestFn(ctx, imageURLs, destinationKey)
}

var _ propsheet.HostLimiter = (*HostLimiter)(nil)

// HostLimiter is a mock implementation of propsheet.HostLimiter.
type HostLimiter struct {
	WaitFn func(ctx context.Context, host string) error
}

func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	return l.WaitFn(ctx, host)
}
