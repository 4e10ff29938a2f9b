package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/propsheet/propsheet"
	main "github.com/propsheet/propsheet/cmd/propsheet"
	"github.com/propsheet/propsheet/mock"
	"github.com/propsheet/propsheet/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeps(svc *scrape.Service) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if svc.Logger == nil {
		svc.Logger = logger
	}
	return &main.Dependencies{
		Ctx:     context.Background(),
		Stdout:  stdout,
		Stderr:  stderr,
		Logger:  logger,
		Service: svc,
	}, stdout, stderr
}

func registryReturning(extraction propsheet.Extraction) *mock.SourceRegistry {
	ex := &mock.SourceExtractor{
		NameFn: func() string { return "Realiza" },
		FetchFn: func(_ context.Context, _ string) (string, error) {
			return "<html></html>", nil
		},
		ExtractFn: func(_, _ string) propsheet.Extraction {
			return extraction
		},
	}
	return &mock.SourceRegistry{
		SelectFn: func(url string) (propsheet.SourceExtractor, error) {
			return ex, nil
		},
	}
}

func TestExtractCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints record as JSON", func(t *testing.T) {
		t.Parallel()

		rec := propsheet.MissingRecord()
		rec.Brand.Name = "Realiza"
		rec.Property.Price = "R$ 850.000,00"
		deps, stdout, stderr := testDeps(&scrape.Service{Registry: registryReturning(propsheet.Extracted(rec))})

		err := (&main.ExtractCmd{URL: "https://www.imoveisrealiza.com/imovel/1"}).Run(deps)

		require.NoError(t, err)
		assert.Empty(t, stderr.String())
		var out map[string]any
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
		assert.Equal(t, "Realiza", out["source"])
		property := out["data"].(map[string]any)["property"].(map[string]any)
		assert.Equal(t, "R$ 850.000,00", property["price"])
	})

	t.Run("warns on degraded extraction", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(&scrape.Service{Registry: registryReturning(propsheet.Degraded(errors.New("layout changed")))})

		err := (&main.ExtractCmd{URL: "https://www.imoveisrealiza.com/imovel/1"}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stderr.String(), "warning")
		assert.Contains(t, stdout.String(), `"degraded": true`)
	})

	t.Run("reports unsupported source", func(t *testing.T) {
		t.Parallel()

		deps, stdout, stderr := testDeps(&scrape.Service{
			Registry: &mock.SourceRegistry{
				SelectFn: func(url string) (propsheet.SourceExtractor, error) {
					return nil, &propsheet.UnsupportedSourceError{URL: url, Labels: []string{"Foxter"}}
				},
			},
		})

		err := (&main.ExtractCmd{URL: "https://example.com"}).Run(deps)

		require.Error(t, err)
		assert.Equal(t, propsheet.EUNSUPPORTED, propsheet.ErrorCode(err))
		assert.Contains(t, stderr.String(), "no extractor for URL")
		assert.Empty(t, stdout.String())
	})
}

func TestSourcesCmd_Run(t *testing.T) {
	t.Parallel()

	deps, stdout, _ := testDeps(&scrape.Service{
		Registry: &mock.SourceRegistry{
			LabelsFn: func() []string { return []string{"Foxter", "Realiza"} },
		},
	})

	err := (&main.SourcesCmd{}).Run(deps)

	require.NoError(t, err)
	assert.Equal(t, "Foxter\nRealiza\n", stdout.String())
}
