// Package fs provides local-disk object storage, used for development and
// for serving images from a directory behind a static file server.
package fs

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/propsheet/propsheet"
)

// Ensure Storage implements propsheet.ObjectStorage at compile time.
var _ propsheet.ObjectStorage = (*Storage)(nil)

// Storage stores objects as files under a base directory.
// Objects are written to a temporary file and renamed into place, so
// readers never observe a partial image.
type Storage struct {
	baseDir   string
	publicURL string
}

// NewStorage creates a Storage rooted at baseDir. Public URLs are formed by
// joining publicURL and the object path; when publicURL is empty they are
// file:// URLs.
func NewStorage(baseDir, publicURL string) *Storage {
	return &Storage{
		baseDir:   baseDir,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Upload writes blob to objectPath below the base directory.
func (s *Storage) Upload(ctx context.Context, objectPath string, blob *propsheet.Blob, opts propsheet.UploadOptions) (*propsheet.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanPath(objectPath)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, propsheet.Errorf(propsheet.EINVALID, "blob required")
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(clean))

	// Create parent directories
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob.Data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return nil, err
	}

	return &propsheet.Object{Bucket: s.baseDir, Path: clean}, nil
}

// MakePublic returns the URL the object is served at. Files on disk carry no
// ACL, so nothing is changed.
func (s *Storage) MakePublic(ctx context.Context, obj *propsheet.Object) (string, error) {
	if obj == nil {
		return "", propsheet.Errorf(propsheet.EINVALID, "object required")
	}
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(obj.Path))
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return "", propsheet.Errorf(propsheet.ENOTFOUND, "object %s not found", obj.Path)
	} else if err != nil {
		return "", err
	}

	if s.publicURL == "" {
		abs, err := filepath.Abs(fullPath)
		if err != nil {
			return "", err
		}
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
	}
	return s.publicURL + "/" + obj.Path, nil
}

// cleanPath rejects absolute paths and paths escaping the base directory.
func cleanPath(p string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(p))
	if clean == "/" || strings.Contains(p, "..") {
		return "", propsheet.Errorf(propsheet.EINVALID, "invalid object path %q", p)
	}
	return strings.TrimPrefix(clean, "/"), nil
}
