// Package dewatermark removes agency watermarks from listing photos through
// a remote inpainting service.
package dewatermark

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/propsheet/propsheet"
)

// DefaultTimeout bounds one attempt against the service.
const DefaultTimeout = 60 * time.Second

// maxResponseBytes guards against oversized responses.
const maxResponseBytes = 32 << 20

var _ propsheet.ImageCleaner = (*Client)(nil)

// Client calls the watermark-removal API.
type Client struct {
	apiURL string
	apiKey string
	http   *retryablehttp.Client
}

// Option configures a Client.
type Option func(*retryablehttp.Client)

// WithRetries sets how many times a failed call is retried and the backoff
// bounds between attempts.
func WithRetries(max int, waitMin, waitMax time.Duration) Option {
	return func(rc *retryablehttp.Client) {
		rc.RetryMax = max
		rc.RetryWaitMin = waitMin
		rc.RetryWaitMax = waitMax
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(rc *retryablehttp.Client) {
		rc.HTTPClient.Timeout = d
	}
}

// WithLogger routes retry diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rc *retryablehttp.Client) {
		rc.Logger = logger
	}
}

// NewClient creates a Client posting to apiURL with apiKey.
func NewClient(apiURL, apiKey string, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 4 * time.Second
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = DefaultTimeout
	rc.Logger = nil
	for _, opt := range opts {
		opt(rc)
	}

	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		http:   rc,
	}
}

type response struct {
	EditedImage struct {
		Image string `json:"image"`
	} `json:"edited_image"`
}

// Clean uploads img and returns the service's edited image.
func (c *Client) Clean(ctx context.Context, img *propsheet.Blob) (*propsheet.Blob, error) {
	if c.apiKey == "" {
		return nil, propsheet.Errorf(propsheet.EINVALID, "watermark removal API key missing")
	}
	if img == nil || len(img.Data) == 0 {
		return nil, propsheet.Errorf(propsheet.EINVALID, "image required")
	}

	body, contentType, err := buildForm(img.Data)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, body)
	if err != nil {
		return nil, propsheet.Errorf(propsheet.EINVALID, "invalid watermark removal URL: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watermark removal request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("watermark removal API error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding watermark removal response: %w", err)
	}
	if out.EditedImage.Image == "" {
		return nil, fmt.Errorf("watermark removal response has no edited image")
	}
	data, err := base64.StdEncoding.DecodeString(out.EditedImage.Image)
	if err != nil {
		return nil, fmt.Errorf("decoding edited image: %w", err)
	}

	cleaned := &propsheet.Blob{Data: data, ContentType: img.ContentType}
	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		cleaned.ContentType = detected
	}
	return cleaned, nil
}

// buildForm encodes the multipart request the service expects.
func buildForm(image []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="original_preview_image"; filename="original_preview_image.jpeg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("remove_text", "true"); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("predict_mode", "3.0"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
