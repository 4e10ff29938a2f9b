// Package chi exposes the listing workflows over HTTP.
package chi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/propsheet/propsheet"
	"github.com/propsheet/propsheet/prometheus"
	"github.com/propsheet/propsheet/scrape"
)

// Defaults for NewServer.
const (
	DefaultAccountHeader = "X-Account-ID"
	DefaultRateLimit     = 100
	DefaultTimeout       = 90 * time.Second
)

// Server routes HTTP requests to a scrape.Service.
type Server struct {
	service *scrape.Service

	accountHeader string
	rateLimit     int
	timeout       time.Duration
	metrics       *prometheus.Metrics
	gatherer      promclient.Gatherer
	logger        *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAccountHeader sets the header carrying the verified account id.
func WithAccountHeader(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.accountHeader = name
		}
	}
}

// WithRateLimit sets the per-IP request limit per minute. Zero disables it.
func WithRateLimit(n int) Option {
	return func(s *Server) {
		s.rateLimit = n
	}
}

// WithTimeout bounds the time spent on a single request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithMetrics records request metrics in m and serves g at /metrics.
func WithMetrics(m *prometheus.Metrics, g promclient.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a Server for svc.
func NewServer(svc *scrape.Service, opts ...Option) *Server {
	s := &Server{
		service:       svc,
		accountHeader: DefaultAccountHeader,
		rateLimit:     DefaultRateLimit,
		timeout:       DefaultTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.observe)
	if s.rateLimit > 0 {
		r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
	}
	if s.timeout > 0 {
		r.Use(chimw.Timeout(s.timeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{"ok": true})
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", prometheus.Handler(s.gatherer))
	}

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/sources", s.handleSources)
		r.Get("/listings/{id}", s.handleGetListing)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAccount)
			r.Post("/extract", s.handleExtract)
			r.Post("/images", s.handleUploadImages)
			r.Post("/listings", s.handleCreateListing)
			r.Get("/listings", s.handleListListings)
			r.Patch("/listings/{id}/config", s.handleUpdateConfig)
			r.Post("/accounts", s.handleOnboard)
			r.Get("/accounts/me", s.handleMe)
		})
	})
	return r
}

type ctxKey int

const accountIDKey ctxKey = iota

// AccountIDFromContext returns the account id set by the account middleware.
func AccountIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(accountIDKey).(string)
	return id
}

func (s *Server) requireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(s.accountHeader))
		if id == "" {
			s.Error(w, r, propsheet.Errorf(propsheet.EUNAUTHORIZED, "missing %s header", s.accountHeader))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountIDKey, id)))
	})
}

// observe logs each request and records it in metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, r.Method, status, time.Since(begin))
		}
		s.logger.Info("http request",
			"route", route,
			"method", r.Method,
			"status", status,
			"duration", time.Since(begin),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}
