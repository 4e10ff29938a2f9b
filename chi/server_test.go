package chi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/propsheet/propsheet"
	pschi "github.com/propsheet/propsheet/chi"
	"github.com/propsheet/propsheet/mock"
	psprom "github.com/propsheet/propsheet/prometheus"
	"github.com/propsheet/propsheet/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foxterURL = "https://www.foxterciaimobiliaria.com.br/imovel/123"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord() propsheet.Record {
	rec := propsheet.MissingRecord()
	rec.Brand.Name = "Foxter"
	rec.Property.Resume = "Casa 4 dormitórios"
	rec.Property.Gallery = []string{"https://cdn.example.com/1.jpg"}
	rec.Normalize()
	return rec
}

// newService returns a service whose collaborators succeed by default.
func newService() *scrape.Service {
	account := &propsheet.Account{ID: "acc-1", Name: "Ana", PlanName: propsheet.PlanFree, Credits: 1}
	ex := &mock.SourceExtractor{
		NameFn: func() string { return "Foxter" },
		FetchFn: func(_ context.Context, _ string) (string, error) {
			return "<html></html>", nil
		},
		ExtractFn: func(_, _ string) propsheet.Extraction {
			return propsheet.Extracted(sampleRecord())
		},
	}
	return &scrape.Service{
		Registry: &mock.SourceRegistry{
			SelectFn: func(url string) (propsheet.SourceExtractor, error) {
				if !strings.Contains(url, "foxter") {
					return nil, &propsheet.UnsupportedSourceError{URL: url, Labels: []string{"Foxter"}}
				}
				return ex, nil
			},
			LabelsFn: func() []string { return []string{"Foxter", "Realiza"} },
		},
		Accounts: &mock.AccountService{
			FindAccountByIDFn: func(_ context.Context, id string) (*propsheet.Account, error) {
				if id != account.ID {
					return nil, propsheet.Errorf(propsheet.ENOTFOUND, "account not found")
				}
				return account, nil
			},
			CreateAccountFn: func(_ context.Context, a *propsheet.Account) error {
				a.PlanName = propsheet.PlanFree
				a.Credits = 1
				return nil
			},
		},
		Ledger: &mock.CreditLedger{
			AssertSpendableFn: func(a *propsheet.Account) error {
				if a.Credits <= 0 {
					return &propsheet.InsufficientCreditsError{AccountID: a.ID}
				}
				return nil
			},
			DebitFn: func(_ context.Context, a *propsheet.Account) error {
				a.Credits--
				return nil
			},
		},
		Ingester: &mock.ImageIngester{
			IngestFn: func(_ context.Context, urls []string, key string) ([]string, error) {
				if len(urls) > 5 {
					return nil, &propsheet.GalleryTooLargeError{Count: len(urls), Max: 5}
				}
				out := make([]string, len(urls))
				for i := range urls {
					out[i] = "https://storage.googleapis.com/bucket/" + key + "/img.jpg"
				}
				return out, nil
			},
		},
		Listings: &mock.ListingService{
			CreateListingFn: func(_ context.Context, l *propsheet.Listing) error {
				l.ID = "lst-1"
				return nil
			},
			FindListingByIDFn: func(_ context.Context, id string) (*propsheet.Listing, error) {
				if id != "lst-1" {
					return nil, propsheet.Errorf(propsheet.ENOTFOUND, "listing not found")
				}
				return &propsheet.Listing{ID: id, OwnerID: "acc-1", Record: sampleRecord()}, nil
			},
			FindListingsFn: func(_ context.Context, _ propsheet.ListingFilter) ([]*propsheet.Listing, error) {
				return []*propsheet.Listing{{ID: "lst-2"}, {ID: "lst-1"}}, nil
			},
			UpdateListingConfigFn: func(_ context.Context, id string, config map[string]any) (*propsheet.Listing, error) {
				return &propsheet.Listing{ID: id, OwnerID: "acc-1", Config: config}, nil
			},
		},
		Logger: discardLogger(),
	}
}

func do(t *testing.T, h http.Handler, method, path, account, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if account != "" {
		req.Header.Set(pschi.DefaultAccountHeader, account)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 && strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr, out
}

func handler(svc *scrape.Service, opts ...pschi.Option) http.Handler {
	opts = append([]pschi.Option{pschi.WithLogger(discardLogger())}, opts...)
	return pschi.NewServer(svc, opts...).Handler()
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	rr, body := do(t, handler(newService()), http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["ok"])
}

func TestServer_Sources(t *testing.T) {
	t.Parallel()

	rr, body := do(t, handler(newService()), http.MethodGet, "/sources", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{"Foxter", "Realiza"}, body["sources"])
}

func TestServer_Extract(t *testing.T) {
	t.Parallel()

	t.Run("returns record", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodPost, "/extract", "acc-1", `{"url":"`+foxterURL+`"}`)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Foxter", body["source"])
		assert.Equal(t, false, body["degraded"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "Foxter", data["brand"].(map[string]any)["name"])
	})

	t.Run("requires account header", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodPost, "/extract", "", `{"url":"`+foxterURL+`"}`)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, propsheet.EUNAUTHORIZED, body["code"])
	})

	t.Run("honors custom account header", func(t *testing.T) {
		t.Parallel()

		h := handler(newService(), pschi.WithAccountHeader("X-User"))
		req := httptest.NewRequest(http.MethodPost, "/extract", strings.NewReader(`{"url":"`+foxterURL+`"}`))
		req.Header.Set("X-User", "acc-1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("maps unsupported source to 400", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodPost, "/extract", "acc-1", `{"url":"https://example.com/casa"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, propsheet.EUNSUPPORTED, body["code"])
		assert.Contains(t, body["error"], "Foxter")
	})

	t.Run("maps fetch failure to 500", func(t *testing.T) {
		t.Parallel()

		svc := newService()
		svc.Registry = &mock.SourceRegistry{
			SelectFn: func(url string) (propsheet.SourceExtractor, error) {
				return &mock.SourceExtractor{
					NameFn: func() string { return "Foxter" },
					FetchFn: func(_ context.Context, url string) (string, error) {
						return "", &propsheet.FetchError{URL: url, Status: 502}
					},
				}, nil
			},
		}

		rr, body := do(t, handler(svc), http.MethodPost, "/extract", "acc-1", `{"url":"`+foxterURL+`"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, propsheet.EFETCH, body["code"])
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodPost, "/extract", "acc-1", `{"url":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, propsheet.EINVALID, body["code"])
	})
}

func TestServer_CreateListing(t *testing.T) {
	t.Parallel()

	t.Run("creates listing from url", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodPost, "/listings", "acc-1", `{"url":"`+foxterURL+`"}`)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "lst-1", body["id"])
		listing := body["listing"].(map[string]any)
		assert.Equal(t, foxterURL, listing["sourceUrl"])
	})

	t.Run("saves client-edited record", func(t *testing.T) {
		t.Parallel()

		rec, err := json.Marshal(sampleRecord())
		require.NoError(t, err)

		rr, body := do(t, handler(newService()), http.MethodPost, "/listings", "acc-1",
			`{"sourceUrl":"`+foxterURL+`","record":`+string(rec)+`}`)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "lst-1", body["id"])
	})

	t.Run("reports exhausted credits with stable code", func(t *testing.T) {
		t.Parallel()

		svc := newService()
		h := handler(svc)

		first, _ := do(t, h, http.MethodPost, "/listings", "acc-1", `{"url":"`+foxterURL+`"}`)
		require.Equal(t, http.StatusCreated, first.Code)

		rr, body := do(t, h, http.MethodPost, "/listings", "acc-1", `{"url":"`+foxterURL+`"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, propsheet.NoCreditsAvailable, body["code"])
	})

	t.Run("requires url or record", func(t *testing.T) {
		t.Parallel()

		rr, _ := do(t, handler(newService()), http.MethodPost, "/listings", "acc-1", `{}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("reports unknown account as not found", func(t *testing.T) {
		t.Parallel()

		rr, _ := do(t, handler(newService()), http.MethodPost, "/listings", "ghost", `{"url":"`+foxterURL+`"}`)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestServer_UploadImages(t *testing.T) {
	t.Parallel()

	t.Run("hosts images under the caller namespace", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodPost, "/images", "acc-1",
			`{"imageUrls":["https://cdn.example.com/1.jpg"],"destinationKey":"abc"}`)

		require.Equal(t, http.StatusOK, rr.Code)
		urls := body["urls"].([]any)
		require.Len(t, urls, 1)
		assert.Contains(t, urls[0], "/acc-1/abc/")
	})

	t.Run("maps too large gallery to 400", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodPost, "/images", "acc-1",
			`{"imageUrls":["a","b","c","d","e","f"],"destinationKey":"abc"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, propsheet.ETOOLARGE, body["code"])
	})

	t.Run("rejects traversal in destination key", func(t *testing.T) {
		t.Parallel()

		rr, _ := do(t, handler(newService()), http.MethodPost, "/images", "acc-1",
			`{"imageUrls":["a"],"destinationKey":"../acc-2"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("requires image urls", func(t *testing.T) {
		t.Parallel()

		rr, _ := do(t, handler(newService()), http.MethodPost, "/images", "acc-1", `{"imageUrls":[],"destinationKey":"abc"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestServer_Listings(t *testing.T) {
	t.Parallel()

	t.Run("get strips owner", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodGet, "/listings/lst-1", "", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "lst-1", body["id"])
		assert.NotContains(t, body, "ownerId")
	})

	t.Run("get unknown listing is 404", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodGet, "/listings/nope", "", "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, propsheet.ENOTFOUND, body["code"])
	})

	t.Run("list returns listings with total", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodGet, "/listings", "acc-1", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, float64(2), body["total"])
		assert.Len(t, body["listings"], 2)
	})

	t.Run("patch config", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodPatch, "/listings/lst-1/config", "acc-1", `{"theme":"dark"}`)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "dark", body["config"].(map[string]any)["theme"])
	})

	t.Run("patch config of foreign listing is 404", func(t *testing.T) {
		t.Parallel()

		rr, _ := do(t, handler(newService()), http.MethodPatch, "/listings/lst-1/config", "acc-2", `{"theme":"dark"}`)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestServer_Accounts(t *testing.T) {
	t.Parallel()

	t.Run("onboards caller", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodPost, "/accounts", "acc-9",
			`{"name":"Bia","email":"bia@example.com","phone":"51999990000"}`)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "acc-9", body["id"])
		assert.Equal(t, propsheet.PlanFree, body["planName"])
		assert.Equal(t, float64(1), body["credits"])
	})

	t.Run("returns current account", func(t *testing.T) {
		t.Parallel()

		rr, body := do(t, handler(newService()), http.MethodGet, "/accounts/me", "acc-1", "")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Ana", body["name"])
	})
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := psprom.NewMetrics(reg)
	h := handler(newService(), pschi.WithMetrics(m, reg))

	extract, _ := do(t, h, http.MethodPost, "/extract", "acc-1", `{"url":"`+foxterURL+`"}`)
	require.Equal(t, http.StatusOK, extract.Code)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	out := rr.Body.String()
	assert.Contains(t, out, `propsheet_http_requests_total{method="POST",route="/extract",status="200"} 1`)
	assert.Contains(t, out, `propsheet_extractions_total{result="ok",source="Foxter"} 1`)
}

func TestServer_RateLimit(t *testing.T) {
	t.Parallel()

	h := handler(newService(), pschi.WithRateLimit(2))

	var last int
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/health", bytes.NewReader(nil))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		last = rr.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestErrorStatusCode(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		propsheet.EINVALID:      http.StatusBadRequest,
		propsheet.EUNSUPPORTED:  http.StatusBadRequest,
		propsheet.ETOOLARGE:     http.StatusBadRequest,
		propsheet.ENOCREDITS:    http.StatusBadRequest,
		propsheet.EUNAUTHORIZED: http.StatusUnauthorized,
		propsheet.ENOTFOUND:     http.StatusNotFound,
		propsheet.EFETCH:        http.StatusInternalServerError,
		propsheet.ETIMEOUT:      http.StatusInternalServerError,
		"something-else":        http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, pschi.ErrorStatusCode(code), code)
	}
}
