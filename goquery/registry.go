package goquery

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/propsheet/propsheet"
)

var _ propsheet.SourceRegistry = (*Registry)(nil)

type registration struct {
	pattern   *regexp.Regexp
	extractor propsheet.SourceExtractor
	label     string
}

// Registry maps listing URLs to source extractors. Patterns are tested in
// registration order and the first match wins, so more specific patterns
// must be registered before broader ones.
type Registry struct {
	mu      sync.RWMutex
	entries []registration
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends ex under a case-insensitive URL pattern.
func (r *Registry) Register(pattern string, ex propsheet.SourceExtractor, label string) error {
	if ex == nil {
		return propsheet.Errorf(propsheet.EINVALID, "extractor for %q is nil", label)
	}
	if strings.TrimSpace(pattern) == "" {
		return propsheet.Errorf(propsheet.EINVALID, "pattern for %q is empty", label)
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return propsheet.Errorf(propsheet.EINVALID, "invalid pattern %q for %q: %v", pattern, label, err)
	}
	if label == "" {
		label = ex.Name()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, registration{pattern: re, extractor: ex, label: label})
	return nil
}

// Select returns the first registered extractor whose pattern matches url.
func (r *Registry) Select(url string) (propsheet.SourceExtractor, error) {
	if strings.TrimSpace(url) == "" {
		return nil, propsheet.Errorf(propsheet.EINVALID, "URL required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.pattern.MatchString(url) {
			return e.extractor, nil
		}
	}
	return nil, &propsheet.UnsupportedSourceError{URL: url, Labels: r.labels()}
}

// Labels returns registered labels in registration order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.labels()
}

func (r *Registry) labels() []string {
	labels := make([]string, len(r.entries))
	for i, e := range r.entries {
		labels[i] = e.label
	}
	return labels
}

// Fetchers supplies the two fetch strategies the built-in sources need.
type Fetchers struct {
	Static   propsheet.Fetcher
	Rendered propsheet.Fetcher
}

// RegisterDefaults registers every built-in source in priority order.
func RegisterDefaults(r propsheet.SourceRegistry, f Fetchers, logger *slog.Logger) error {
	defaults := []struct {
		pattern string
		ex      propsheet.SourceExtractor
	}{
		{`foxterciaimobiliaria\.com\.br`, NewFoxterExtractor(f.Static, logger)},
		{`imoveisrealiza\.com`, NewRealizaExtractor(f.Static, logger)},
		{`auxiliadorapredial\.com\.br`, NewAuxiliadoraExtractor(f.Static, logger)},
		{`creditoreal\.com\.br`, NewCreditoRealExtractor(f.Static, logger)},
		{`bridgeimoveis\.com\.br`, NewBridgeExtractor(f.Static, logger)},
		{`multiimob\.com\.br`, NewMultimobExtractor(f.Static, logger)},
		{`colnaghi\.com\.br`, NewColnaghiExtractor(f.Rendered, logger)},
	}
	for _, d := range defaults {
		if err := r.Register(d.pattern, d.ex, d.ex.Name()); err != nil {
			return err
		}
	}
	return nil
}
