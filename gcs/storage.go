// Package gcs stores listing images in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/propsheet/propsheet"
	"google.golang.org/api/googleapi"
)

// Ensure Storage implements propsheet.ObjectStorage at compile time.
var _ propsheet.ObjectStorage = (*Storage)(nil)

// Storage implements propsheet.ObjectStorage on one bucket.
type Storage struct {
	client *storage.Client
	bucket string
}

// NewStorage creates a Storage writing to bucket through client.
func NewStorage(client *storage.Client, bucket string) *Storage {
	return &Storage{client: client, bucket: bucket}
}

// Open creates a client using application default credentials.
func Open(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// Upload writes blob to path with the blob's content type and the given
// cache policy.
func (s *Storage) Upload(ctx context.Context, path string, blob *propsheet.Blob, opts propsheet.UploadOptions) (*propsheet.Object, error) {
	if s.bucket == "" {
		return nil, propsheet.Errorf(propsheet.EINVALID, "storage bucket not configured")
	}
	path = strings.TrimPrefix(strings.TrimSpace(path), "/")
	if path == "" {
		return nil, propsheet.Errorf(propsheet.EINVALID, "object path required")
	}
	if blob == nil {
		return nil, propsheet.Errorf(propsheet.EINVALID, "blob required")
	}

	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = blob.ContentType
	w.CacheControl = opts.CacheControl

	if _, err := w.Write(blob.Data); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, path, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, path, err)
	}

	return &propsheet.Object{Bucket: s.bucket, Path: path}, nil
}

// MakePublic grants read access to all users and returns the object's
// public URL.
func (s *Storage) MakePublic(ctx context.Context, obj *propsheet.Object) (string, error) {
	if obj == nil {
		return "", propsheet.Errorf(propsheet.EINVALID, "object required")
	}
	acl := s.client.Bucket(obj.Bucket).Object(obj.Path).ACL()
	if err := acl.Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		if notExist(err) {
			return "", propsheet.Errorf(propsheet.ENOTFOUND, "object gs://%s/%s not found", obj.Bucket, obj.Path)
		}
		return "", fmt.Errorf("failed to make gs://%s/%s public: %w", obj.Bucket, obj.Path, err)
	}
	return PublicURL(obj.Bucket, obj.Path), nil
}

func notExist(err error) bool {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return true
	}
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// PublicURL returns the address an object with public read access is
// served at. Path segments are escaped individually.
func PublicURL(bucket, path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "https://storage.googleapis.com/" + bucket + "/" + strings.Join(segments, "/")
}
