package propsheet

import (
	"context"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// UploadOptions carries object metadata for an upload.
type UploadOptions struct {
	CacheControl string
}

// Object identifies a stored object.
type Object struct {
	Bucket string
	Path   string
}

// ObjectStorage stores blobs and exposes them at public URLs.
type ObjectStorage interface {
	// Upload writes blob at path.
	Upload(ctx context.Context, path string, blob *Blob, opts UploadOptions) (*Object, error)

	// MakePublic grants public read access and returns the public URL.
	MakePublic(ctx context.Context, obj *Object) (string, error)
}

// ImageCleaner removes watermarks from an image.
type ImageCleaner interface {
	Clean(ctx context.Context, img *Blob) (*Blob, error)
}

// ImageIngester turns source image URLs into hosted image URLs.
type ImageIngester interface {
	// Ingest fetches, optionally cleans, and uploads each image under
	// destinationKey. Images that fail are omitted; the output keeps the
	// relative order of the inputs that succeeded.
	Ingest(ctx context.Context, imageURLs []string, destinationKey string) ([]string, error)
}

// HostLimiter throttles outbound requests per host.
type HostLimiter interface {
	// Wait blocks until a request to host is allowed.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, host string) error
}

// DestinationKey returns the storage prefix for a listing's images:
// the owner id followed by a stable hash of the source URL.
func DestinationKey(ownerID, sourceURL string) string {
	return ownerID + "/" + strconv.FormatUint(xxhash.Sum64String(sourceURL), 16)
}

// ImageExtension maps a media type to the file extension used for uploads.
func ImageExtension(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return "jpg"
	}
}
