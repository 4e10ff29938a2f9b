package propsheet

import "context"

// Extraction is the result of running a SourceExtractor over fetched
// content. It is either extracted, carrying a populated record, or
// degraded, carrying the fully sentineled record and the cause.
type Extraction struct {
	Record Record
	Cause  error
}

// Extracted returns a successful extraction of r. The record is normalized.
func Extracted(r Record) Extraction {
	r.Normalize()
	return Extraction{Record: r}
}

// Degraded returns an extraction that failed with cause.
func Degraded(cause error) Extraction {
	return Extraction{Record: MissingRecord(), Cause: cause}
}

// Degraded reports whether the extraction fell back to the missing record.
func (e Extraction) Degraded() bool {
	return e.Cause != nil
}

// SourceExtractor turns a listing page from one known source into a Record.
type SourceExtractor interface {
	// Name returns the human-readable source label.
	Name() string

	// Fetch retrieves the raw page content using the strategy the source
	// needs (static request or rendered browser).
	Fetch(ctx context.Context, url string) (string, error)

	// Extract parses raw content. It never fails: structural surprises
	// produce a degraded extraction.
	Extract(raw, sourceURL string) Extraction
}

// SourceRegistry selects the SourceExtractor responsible for a URL.
type SourceRegistry interface {
	// Select returns the first extractor whose pattern matches url.
	// Returns an *UnsupportedSourceError when none does.
	Select(url string) (SourceExtractor, error)

	// Register appends an extractor under a case-insensitive URL pattern.
	// Returns EINVALID if the pattern does not compile or ex is nil.
	Register(pattern string, ex SourceExtractor, label string) error

	// Labels returns registered labels in registration order.
	Labels() []string
}

// RecordCache stores successful extractions keyed by source URL.
type RecordCache interface {
	// Get returns the cached record for url. ok is false on a miss.
	Get(ctx context.Context, url string) (rec *Record, ok bool, err error)

	// Set stores rec for url.
	Set(ctx context.Context, url string, rec Record) error
}
