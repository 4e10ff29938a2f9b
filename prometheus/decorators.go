package prometheus

import (
	"context"
	"time"

	"github.com/propsheet/propsheet"
)

var _ propsheet.Fetcher = (*Fetcher)(nil)

// Fetcher records fetch latency for a named strategy.
type Fetcher struct {
	next     propsheet.Fetcher
	strategy string
	metrics  *Metrics
}

// NewFetcher wraps next. strategy labels the samples, e.g. "static" or "rendered".
func NewFetcher(next propsheet.Fetcher, strategy string, m *Metrics) *Fetcher {
	return &Fetcher{next: next, strategy: strategy, metrics: m}
}

// Fetch delegates to the wrapped fetcher and observes its latency by outcome.
func (f *Fetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.metrics.FetchLatency.WithLabelValues(f.strategy, outcome(err)).Observe(time.Since(begin).Seconds())
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close closes the wrapped fetcher.
func (f *Fetcher) Close() error {
	return f.next.Close()
}

var _ propsheet.RecordCache = (*RecordCache)(nil)

// RecordCache counts cache hits, misses, writes and errors.
type RecordCache struct {
	next    propsheet.RecordCache
	metrics *Metrics
}

// NewRecordCache wraps next.
func NewRecordCache(next propsheet.RecordCache, m *Metrics) *RecordCache {
	return &RecordCache{next: next, metrics: m}
}

// Get delegates to the wrapped cache and counts a hit, miss or error.
func (c *RecordCache) Get(ctx context.Context, url string) (*propsheet.Record, bool, error) {
	rec, ok, err := c.next.Get(ctx, url)
	switch {
	case err != nil:
		c.metrics.CacheEvents.WithLabelValues("error").Inc()
	case ok:
		c.metrics.CacheEvents.WithLabelValues("hit").Inc()
	default:
		c.metrics.CacheEvents.WithLabelValues("miss").Inc()
	}
	return rec, ok, err
}

// Set delegates to the wrapped cache and counts the write or its error.
func (c *RecordCache) Set(ctx context.Context, url string, rec propsheet.Record) error {
	err := c.next.Set(ctx, url, rec)
	if err != nil {
		c.metrics.CacheEvents.WithLabelValues("error").Inc()
		return err
	}
	c.metrics.CacheEvents.WithLabelValues("set").Inc()
	return nil
}

var _ propsheet.ImageIngester = (*ImageIngester)(nil)

// ImageIngester counts requested and hosted gallery images.
type ImageIngester struct {
	next    propsheet.ImageIngester
	metrics *Metrics
}

// NewImageIngester wraps next.
func NewImageIngester(next propsheet.ImageIngester, m *Metrics) *ImageIngester {
	return &ImageIngester{next: next, metrics: m}
}

// Ingest delegates to the wrapped ingester. Counts are only recorded when
// the batch as a whole succeeds.
func (i *ImageIngester) Ingest(ctx context.Context, imageURLs []string, destinationKey string) ([]string, error) {
	urls, err := i.next.Ingest(ctx, imageURLs, destinationKey)
	if err != nil {
		return urls, err
	}
	i.metrics.Images.WithLabelValues("requested").Add(float64(len(imageURLs)))
	i.metrics.Images.WithLabelValues("hosted").Add(float64(len(urls)))
	return urls, nil
}

var _ propsheet.CreditLedger = (*CreditLedger)(nil)

// CreditLedger counts debits by outcome.
type CreditLedger struct {
	next    propsheet.CreditLedger
	metrics *Metrics
}

// NewCreditLedger wraps next.
func NewCreditLedger(next propsheet.CreditLedger, m *Metrics) *CreditLedger {
	return &CreditLedger{next: next, metrics: m}
}

// AssertSpendable delegates to the wrapped ledger.
func (l *CreditLedger) AssertSpendable(account *propsheet.Account) error {
	return l.next.AssertSpendable(account)
}

// Debit delegates to the wrapped ledger and counts the outcome.
func (l *CreditLedger) Debit(ctx context.Context, account *propsheet.Account) error {
	err := l.next.Debit(ctx, account)
	l.metrics.Debits.WithLabelValues(outcome(err)).Inc()
	return err
}
