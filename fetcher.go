package propsheet

import "context"

// Fetcher retrieves the content of a URL as text.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch returns the document body at url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (string, error)

	// Close releases resources held by the fetcher.
	Close() error
}

// Blob is binary content with its media type.
type Blob struct {
	Data        []byte
	ContentType string
}

// BlobFetcher retrieves binary content such as images.
type BlobFetcher interface {
	FetchBlob(ctx context.Context, url string) (*Blob, error)
}
