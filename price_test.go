package propsheet_test

import (
	"testing"

	"github.com/propsheet/propsheet"
	"github.com/stretchr/testify/assert"
)

func TestPricePerArea(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		price string
		area  string
		want  string
	}{
		{"divides and rounds to cents", "R$ 1.234.567,89", "100", "R$ 12.345,68/área"},
		{"accepts unit suffix on area", "R$ 500.000,00", "125 m²", "R$ 4.000,00/área"},
		{"accepts comma decimal area", "R$ 100.000,00", "62,5", "R$ 1.600,00/área"},
		{"missing price", propsheet.Missing, "100", propsheet.Missing},
		{"missing area", "R$ 100,00", propsheet.Missing, propsheet.Missing},
		{"zero area", "R$ 100,00", "0", propsheet.Missing},
		{"unparseable price", "Sob consulta", "100", propsheet.Missing},
		{"unparseable area", "R$ 100,00", "grande", propsheet.Missing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, propsheet.PricePerArea(tt.price, tt.area))
		})
	}
}

func TestParseArea(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"120", 120, true},
		{"85,5 m²", 85.5, true},
		{"1.250,75 m²", 1250.75, true},
		{"1.250 m²", 1.25, true},
		{"1.250.000", 1250000, true},
		{"72.5", 72.5, true},
		{"grande", 0, false},
		{propsheet.Missing, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, ok := propsheet.ParseArea(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFormatPrice(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "R$ 1.234.567,89", propsheet.FormatPrice(1234567.89))
	assert.Equal(t, "R$ 0,50", propsheet.FormatPrice(0.5))
	assert.Equal(t, "R$ 999,00", propsheet.FormatPrice(999))
	assert.Equal(t, "R$ 1.000,00", propsheet.FormatPrice(999.999))
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	v, ok := propsheet.ParsePrice("R$ 1.234.567,89")
	assert.True(t, ok)
	assert.InDelta(t, 1234567.89, v, 0.001)

	_, ok = propsheet.ParsePrice(propsheet.Missing)
	assert.False(t, ok)
}

func TestFormatPriceString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "R$ 850.000,00", propsheet.FormatPriceString("850.000"))
	assert.Equal(t, propsheet.Missing, propsheet.FormatPriceString(""))
}
