package slog_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/propsheet/propsheet"
	"github.com/propsheet/propsheet/mock"
	pslog "github.com/propsheet/propsheet/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRegistry_Select(t *testing.T) {
	t.Parallel()

	t.Run("logs selected source with duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		ex := &mock.SourceExtractor{NameFn: func() string { return "Foxter" }}
		inner := &mock.SourceRegistry{
			SelectFn: func(url string) (propsheet.SourceExtractor, error) {
				return ex, nil
			},
		}

		registry := pslog.NewLoggingRegistry(inner, logger)
		got, err := registry.Select("https://www.foxterciaimobiliaria.com.br/imovel/1")

		require.NoError(t, err)
		assert.Equal(t, ex, got)
		output := buf.String()
		assert.Contains(t, output, "source selection")
		assert.Contains(t, output, "source=Foxter")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs unsupported source", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.SourceRegistry{
			SelectFn: func(url string) (propsheet.SourceExtractor, error) {
				return nil, &propsheet.UnsupportedSourceError{URL: url}
			},
		}

		registry := pslog.NewLoggingRegistry(inner, logger)
		_, err := registry.Select("https://example.com")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "source=(none)")
		assert.Contains(t, output, "err=")
	})
}

func TestLoggingRegistry_Delegates(t *testing.T) {
	t.Parallel()

	t.Run("register and labels pass through", func(t *testing.T) {
		t.Parallel()

		var registered string
		inner := &mock.SourceRegistry{
			RegisterFn: func(pattern string, ex propsheet.SourceExtractor, label string) error {
				registered = label
				return nil
			},
			LabelsFn: func() []string {
				return []string{"Foxter", "Realiza"}
			},
		}

		registry := pslog.NewLoggingRegistry(inner, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

		require.NoError(t, registry.Register(`foxter`, &mock.SourceExtractor{}, "Foxter"))
		assert.Equal(t, "Foxter", registered)
		assert.Equal(t, []string{"Foxter", "Realiza"}, registry.Labels())
	})
}
