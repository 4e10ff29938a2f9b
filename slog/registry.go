package slog

import (
	"log/slog"
	"time"

	"github.com/propsheet/propsheet"
)

// Ensure LoggingRegistry implements propsheet.SourceRegistry.
var _ propsheet.SourceRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps a SourceRegistry and logs which extractor each URL
// resolves to.
type LoggingRegistry struct {
	next   propsheet.SourceRegistry
	logger *slog.Logger
}

// NewLoggingRegistry creates a new LoggingRegistry.
func NewLoggingRegistry(next propsheet.SourceRegistry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

// Select delegates to the wrapped registry and logs the chosen source.
func (r *LoggingRegistry) Select(url string) (ex propsheet.SourceExtractor, err error) {
	defer func(begin time.Time) {
		label := "(none)"
		if ex != nil {
			label = ex.Name()
		}
		r.logger.Info("source selection",
			"url", url,
			"source", label,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Select(url)
}

// Register delegates to the wrapped registry.
func (r *LoggingRegistry) Register(pattern string, ex propsheet.SourceExtractor, label string) error {
	return r.next.Register(pattern, ex, label)
}

// Labels delegates to the wrapped registry.
func (r *LoggingRegistry) Labels() []string {
	return r.next.Labels()
}
