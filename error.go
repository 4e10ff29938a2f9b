package propsheet

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Application error codes.
const (
	EINTERNAL     = "internal"
	EINVALID      = "invalid"
	ENOTFOUND     = "not_found"
	EUNAUTHORIZED = "unauthorized"
	EUNSUPPORTED  = "unsupported_source"
	EFETCH        = "fetch_failed"
	ETIMEOUT      = "render_timeout"
	ETOOLARGE     = "gallery_too_large"
	ENOCREDITS    = "insufficient_credits"
)

// NoCreditsAvailable is the machine-readable code clients match on when an
// account has run out of credits.
const NoCreditsAvailable = "NO_CREDITS_AVAILABLE"

// Error represents an application-specific error.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("propsheet error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// coder is implemented by the typed errors below.
type coder interface {
	ErrorCode() string
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	var c coder
	if errors.As(err, &c) {
		return err.Error()
	}
	return "Internal error."
}

// UnsupportedSourceError is returned when no registered extractor matches a URL.
type UnsupportedSourceError struct {
	URL    string
	Labels []string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("no extractor for URL %s; available: %s", e.URL, strings.Join(e.Labels, ", "))
}

func (e *UnsupportedSourceError) ErrorCode() string { return EUNSUPPORTED }

// FetchError is returned when a remote fetch completes with a non-success status.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.Status, e.URL)
}

func (e *FetchError) ErrorCode() string { return EFETCH }

// RenderTimeoutError is returned when a rendered page never reaches network quiescence.
type RenderTimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *RenderTimeoutError) Error() string {
	return fmt.Sprintf("rendering %s did not settle within %s", e.URL, e.Timeout)
}

func (e *RenderTimeoutError) ErrorCode() string { return ETIMEOUT }

// GalleryTooLargeError is returned when an image set exceeds the ingestion limit.
type GalleryTooLargeError struct {
	Count int
	Max   int
}

func (e *GalleryTooLargeError) Error() string {
	return fmt.Sprintf("gallery has %d images, at most %d allowed", e.Count, e.Max)
}

func (e *GalleryTooLargeError) ErrorCode() string { return ETOOLARGE }

// InsufficientCreditsError is returned when an account has no credit to spend.
type InsufficientCreditsError struct {
	AccountID string
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("%s: account %s has no credits available", NoCreditsAvailable, e.AccountID)
}

func (e *InsufficientCreditsError) ErrorCode() string { return ENOCREDITS }

// Code returns the stable client-facing code.
func (e *InsufficientCreditsError) Code() string { return NoCreditsAvailable }

// Image processing stages reported by ImageProcessingError.
const (
	StageFetch  = "fetch"
	StageClean  = "clean"
	StageUpload = "upload"
	StagePublic = "publish"
)

// ImageProcessingError describes why a single gallery image was dropped.
type ImageProcessingError struct {
	URL   string
	Stage string
	Err   error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image %s failed at %s: %v", e.URL, e.Stage, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

func (e *ImageProcessingError) ErrorCode() string { return EINTERNAL }
