package mock

import (
	"context"

	"github.com/propsheet/propsheet"
)

var _ propsheet.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of propsheet.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

var _ propsheet.BlobFetcher = (*BlobFetcher)(nil)

// BlobFetcher is a mock implementation of propsheet.BlobFetcher.
type BlobFetcher struct {
	FetchBlobFn func(ctx context.Context, url string) (*propsheet.Blob, error)
}

func (f *BlobFetcher) FetchBlob(ctx context.Context, url string) (*propsheet.Blob, error) {
	return f.FetchBlobFn(ctx, url)
}
