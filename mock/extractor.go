package mock

import (
	"context"

	"github.com/propsheet/propsheet"
)

var _ propsheet.SourceExtractor = (*SourceExtractor)(nil)

// SourceExtractor is a mock implementation of propsheet.SourceExtractor.
type SourceExtractor struct {
	NameFn    func() string
	FetchFn   func(ctx context.Context, url string) (string, error)
	ExtractFn func(raw, sourceURL string) propsheet.Extraction
}

func (e *SourceExtractor) Name() string {
	return e.NameFn()
}

func (e *SourceExtractor) Fetch(ctx context.Context, url string) (string, error) {
	return e.FetchFn(ctx, url)
}

func (e *SourceExtractor) Extract(raw, sourceURL string) propsheet.Extraction {
	return e.ExtractFn(raw, sourceURL)
}

var _ propsheet.SourceRegistry = (*SourceRegistry)(nil)

// SourceRegistry is a mock implementation of propsheet.SourceRegistry.
type SourceRegistry struct {
	SelectFn   func(url string) (propsheet.SourceExtractor, error)
	RegisterFn func(pattern string, ex propsheet.SourceExtractor, label string) error
	LabelsFn   func() []string
}

func (r *SourceRegistry) Select(url string) (propsheet.SourceExtractor, error) {
	return r.SelectFn(url)
}

func (r *SourceRegistry) Register(pattern string, ex propsheet.SourceExtractor, label string) error {
	return r.RegisterFn(pattern, ex, label)
}

func (r *SourceRegistry) Labels() []string {
	return r.LabelsFn()
}

var _ propsheet.RecordCache = (*RecordCache)(nil)

// RecordCache is a mock implementation of propsheet.RecordCache.
type RecordCache struct {
	GetFn func(ctx context.Context, url string) (*propsheet.Record, bool, error)
	SetFn func(ctx context.Context, url string, rec propsheet.Record) error
}

func (c *RecordCache) Get(ctx context.Context, url string) (*propsheet.Record, bool, error) {
	return c.GetFn(ctx, url)
}

func (c *RecordCache) Set(ctx context.Context, url string, rec propsheet.Record) error {
	return c.SetFn(ctx, url, rec)
}
