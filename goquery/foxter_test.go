package goquery_test

import (
	"testing"

	"github.com/propsheet/propsheet"
	"github.com/propsheet/propsheet/goquery"
	"github.com/stretchr/testify/assert"
)

const foxterPage = `<html><head>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"product":{
"h1":"Apartamento 3 dormitórios - Porto Alegre",
"description":"Apartamento de frente com sacada.",
"code":12345,
"developmentName":"Residencial Sol",
"images":{"data":[{"etag":"abc"},{"etag":"def"},{"etag":"abc"},{"etag":""}]},
"features":["Sacada","Churrasqueira"],
"developmentFeatures":["Piscina"],
"areaPrivate":"100",
"bedrooms":"3 dormitórios, 2 vagas",
"saleValue":"1.234.567,89",
"condominiumAmountValue":"850,00",
"iptu":"1.200,00"
}}}}</script>
</head><body></body></html>`

func TestFoxterExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("maps the page-state product", func(t *testing.T) {
		t.Parallel()

		got := goquery.NewFoxterExtractor(nil, discardLogger()).Extract(foxterPage, "https://www.foxterciaimobiliaria.com.br/imovel/12345")

		assert.False(t, got.Degraded())
		r := got.Record
		assert.Equal(t, "Residencial Sol", r.Brand.Name)
		assert.Equal(t, "Porto Alegre", r.Brand.Location)
		assert.Equal(t, "Apartamento 3 dormitórios - Porto Alegre", r.Property.Resume)
		assert.Equal(t, "12345", r.Property.Reference)
		assert.Equal(t, []string{
			goquery.DefaultFoxterImageBase + "1024/1/foxter/wm/abc",
			goquery.DefaultFoxterImageBase + "1024/1/foxter/wm/def",
		}, r.Property.Gallery)
		assert.Equal(t, r.Property.Gallery[0], r.Property.MainImage)
		assert.Equal(t, r.Property.Gallery[1:], r.Property.SideImages)
		assert.Equal(t, []string{"Sacada", "Churrasqueira"}, r.Property.Features)
		assert.Equal(t, []string{"Piscina"}, r.Property.Infrastructures)
		assert.Equal(t, "100", r.Property.Area)
		assert.Equal(t, "3", r.Property.Bedrooms)
		assert.Equal(t, "2", r.Property.Parking)
		assert.Equal(t, propsheet.Missing, r.Property.Bathrooms)
		assert.Equal(t, "R$ 1.234.567,89", r.Property.Price)
		assert.Equal(t, "R$ 12.345,68/área", r.Property.PricePerArea)
		assert.Equal(t, "R$ 850,00", r.Property.Condominium)
		assert.Equal(t, "R$ 1.200,00", r.Property.IPTU)
	})

	t.Run("degrades on malformed payload", func(t *testing.T) {
		t.Parallel()

		page := `<script id="__NEXT_DATA__" type="application/json">{"props":</script>`

		got := goquery.NewFoxterExtractor(nil, discardLogger()).Extract(page, "https://www.foxterciaimobiliaria.com.br/imovel/1")

		assert.True(t, got.Degraded())
		assert.Equal(t, propsheet.MissingRecord(), got.Record)
	})

	t.Run("degrades when product is absent", func(t *testing.T) {
		t.Parallel()

		page := `<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{}}}</script>`

		got := goquery.NewFoxterExtractor(nil, discardLogger()).Extract(page, "https://www.foxterciaimobiliaria.com.br/imovel/1")

		assert.True(t, got.Degraded())
	})
}
