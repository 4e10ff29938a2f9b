package goquery

import (
	"io"
	"log/slog"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/propsheet/propsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_ExtractRecoversPanics(t *testing.T) {
	t.Parallel()

	s := newSource("Test", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got := s.extract("<html><body><h1>Casa</h1></body></html>", "https://x.test/1", func(*goquery.Document) (propsheet.Record, error) {
		var features []string
		_ = features[3]
		return propsheet.Record{}, nil
	})

	assert.True(t, got.Degraded())
	require.Error(t, got.Cause)
	assert.Contains(t, got.Cause.Error(), "unexpected page structure")
	assert.Equal(t, propsheet.MissingRecord(), got.Record)
}
