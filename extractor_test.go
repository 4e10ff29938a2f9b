package propsheet_test

import (
	"errors"
	"testing"

	"github.com/propsheet/propsheet"
	"github.com/stretchr/testify/assert"
)

func TestExtraction(t *testing.T) {
	t.Parallel()

	t.Run("degraded carries the missing record and cause", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("payload missing")
		e := propsheet.Degraded(cause)

		assert.True(t, e.Degraded())
		assert.Equal(t, cause, e.Cause)
		assert.Equal(t, propsheet.MissingRecord(), e.Record)
	})

	t.Run("extracted normalizes the record", func(t *testing.T) {
		t.Parallel()

		var r propsheet.Record
		r.Brand.Name = "Realiza"
		r.Property.Gallery = []string{"1.jpg", "1.jpg", "2.jpg"}

		e := propsheet.Extracted(r)

		assert.False(t, e.Degraded())
		assert.Equal(t, "1.jpg", e.Record.Property.MainImage)
		assert.Equal(t, []string{"2.jpg"}, e.Record.Property.SideImages)
		assert.Equal(t, propsheet.Missing, e.Record.Property.Price)
	})
}
