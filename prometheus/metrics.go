// Package prometheus exports propsheet metrics and provides decorators
// that record them around the core services.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/propsheet/propsheet"
)

const namespace = "propsheet"

// Metrics holds every collector exported by the service.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
	FetchLatency *prometheus.HistogramVec
	CacheEvents  *prometheus.CounterVec
	Images       *prometheus.CounterVec
	Debits       *prometheus.CounterVec
	Extractions  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
			[]string{"route", "method", "status"},
		),
		HTTPLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Name: "http_request_duration_seconds",
				Help:    "HTTP request duration seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		FetchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace, Name: "fetch_duration_seconds",
				Help:    "Listing page fetch duration seconds.",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"strategy", "outcome"},
		),
		CacheEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Record cache hits/misses/sets/errors."},
			[]string{"event"},
		),
		Images: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "images_total", Help: "Gallery images requested and hosted."},
			[]string{"result"}, // requested|hosted
		),
		Debits: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "credit_debits_total", Help: "Credit debits by outcome."},
			[]string{"outcome"},
		),
		Extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "extractions_total", Help: "Extractions by source and result."},
			[]string{"source", "result"},
		),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPLatency, m.FetchLatency, m.CacheEvents, m.Images, m.Debits, m.Extractions)
	return m
}

// Handler serves the metrics gathered by reg.
func Handler(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, dur time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveExtraction records the result of one extraction.
func (m *Metrics) ObserveExtraction(source string, degraded bool) {
	result := "ok"
	if degraded {
		result = "degraded"
	}
	m.Extractions.WithLabelValues(source, result).Inc()
}

// outcome labels an error by its application code.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return propsheet.ErrorCode(err)
}
