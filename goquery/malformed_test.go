package goquery_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/propsheet/propsheet"
	"github.com/propsheet/propsheet/goquery"
	"github.com/stretchr/testify/assert"
)

func allExtractors() []propsheet.SourceExtractor {
	logger := discardLogger()
	return []propsheet.SourceExtractor{
		goquery.NewFoxterExtractor(nil, logger),
		goquery.NewRealizaExtractor(nil, logger),
		goquery.NewAuxiliadoraExtractor(nil, logger),
		goquery.NewCreditoRealExtractor(nil, logger),
		goquery.NewBridgeExtractor(nil, logger),
		goquery.NewMultimobExtractor(nil, logger),
		goquery.NewColnaghiExtractor(nil, logger),
	}
}

// crowdedPage fills every list selector the sources read with more items
// than a record may carry.
func crowdedPage() string {
	var items, features, photos []string
	for i := range 15 {
		items = append(items, fmt.Sprintf("<li class=\"feature\">Item %d</li>", i))
		features = append(features, fmt.Sprintf("%q", fmt.Sprintf("Feature %d", i)))
		photos = append(photos, fmt.Sprintf("%q", fmt.Sprintf("https://img.test/%d.jpg", i)))
	}
	list := strings.Join(items, "")
	payload := fmt.Sprintf(`{"props":{"pageProps":{"product":{"features":[%[1]s],"developmentFeatures":[%[1]s],"photos":[%[2]s]},"imovel":{"characteristics":[%[1]s],"photos":[%[2]s]}}}}`,
		strings.Join(features, ","), strings.Join(photos, ","))
	return `<html><head><title>Casa</title><meta property="og:title" content="Casa"></head><body>` +
		`<h1>Casa</h1>` +
		`<div class="features"><ul>` + list + `</ul></div>` +
		`<div class="infrastructures"><ul>` + list + `</ul></div>` +
		`<ul class="caracteristicas">` + list + `</ul>` +
		`<h3>Características</h3><ul>` + list + `</ul>` +
		`<script id="__NEXT_DATA__" type="application/json">` + payload + `</script>` +
		`</body></html>`
}

func TestExtractors_MalformedInput(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"empty":             "",
		"whitespace":        " \n\t ",
		"plain text":        "imóvel vendido",
		"invalid utf-8":     "\xff\xfe<html><body>\xc3\x28</body></html>",
		"unclosed markup":   "<html><body><div><ul><li>Sala",
		"broken state json": `<script id="__NEXT_DATA__">{"props":</script><script type="application/ld+json">[1,</script>`,
		"wrong node types":  `<script id="__NEXT_DATA__">{"props":{"pageProps":{"product":"x","imovel":[1,2]}}}</script><script type="application/ld+json">"x"</script>`,
		"wrong field types": `<script id="__NEXT_DATA__">{"props":{"pageProps":{"product":{"features":42,"photos":"x","price":{"a":1}},"imovel":{"characteristics":{"a":1},"photos":7}}}}</script>`,
		"crowded lists":     crowdedPage(),
	}

	for _, ex := range allExtractors() {
		for name, raw := range inputs {
			t.Run(ex.Name()+"/"+name, func(t *testing.T) {
				t.Parallel()

				var got propsheet.Extraction
				assert.NotPanics(t, func() {
					got = ex.Extract(raw, "https://x.test/imovel/cl1")
				})
				assertRecordShape(t, got.Record)
				if got.Degraded() {
					assert.Equal(t, propsheet.MissingRecord(), got.Record)
				}
			})
		}
	}
}

func TestExtractors_EmptyContentDegrades(t *testing.T) {
	t.Parallel()

	for _, ex := range allExtractors() {
		t.Run(ex.Name(), func(t *testing.T) {
			t.Parallel()

			got := ex.Extract("", "https://x.test/1")

			assert.True(t, got.Degraded())
			assert.Equal(t, propsheet.MissingRecord(), got.Record)
		})
	}
}

func assertRecordShape(t *testing.T, r propsheet.Record) {
	t.Helper()

	scalars := map[string]string{
		"brand.name":        r.Brand.Name,
		"brand.location":    r.Brand.Location,
		"brand.description": r.Brand.Description,
		"resume":            r.Property.Resume,
		"description":       r.Property.Description,
		"reference":         r.Property.Reference,
		"mainImage":         r.Property.MainImage,
		"area":              r.Property.Area,
		"bedrooms":          r.Property.Bedrooms,
		"bathrooms":         r.Property.Bathrooms,
		"condominium":       r.Property.Condominium,
		"parking":           r.Property.Parking,
		"iptu":              r.Property.IPTU,
		"price":             r.Property.Price,
		"pricePerArea":      r.Property.PricePerArea,
	}
	for field, v := range scalars {
		assert.NotEmpty(t, strings.TrimSpace(v), field)
	}

	assert.NotNil(t, r.Property.SideImages)
	assert.NotNil(t, r.Property.Gallery)
	assert.NotNil(t, r.Property.Features)
	assert.NotNil(t, r.Property.Infrastructures)
	assert.LessOrEqual(t, len(r.Property.SideImages), propsheet.MaxSideImages)
	assert.LessOrEqual(t, len(r.Property.Features), propsheet.MaxFeatures)
	assert.LessOrEqual(t, len(r.Property.Infrastructures), propsheet.MaxInfrastructures)
}
