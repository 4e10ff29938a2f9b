package goquery_test

import (
	"testing"

	"github.com/propsheet/propsheet/goquery"
	"github.com/stretchr/testify/assert"
)

const realizaPage = `<html><head>
<meta property="og:site_name" content="Realiza Imóveis">
<meta name="description" content="Apartamento reformado no Centro Histórico.">
</head><body>
<ul class="brands"><li>Início</li><li>Venda</li><li>Porto Alegre</li><li>Código 4321</li></ul>
<h1>Apartamento no Centro</h1>
<ul class="thumbs">
<li><figure><a href="https://img.realiza.test/1.jpg"></a></figure></li>
<li><figure><a href="/relative.jpg"></a></figure></li>
<li><figure><a href="https://img.realiza.test/2.jpg"></a></figure></li>
</ul>
<ul class="va-itens"><li>80m²</li><li>2 quartos</li><li>1 banheiro</li><li>1 vaga</li><li>R$ 400.000,00</li></ul>
<div class="features"><ul><li>Sacada</li><li>Elevador</li></ul></div>
<ul class="lazer"><li>Piscina</li></ul>
<p>Condomínio: R$ 500,00</p>
<p>IPTU: R$ 90,00</p>
</body></html>`

func TestRealizaExtractor_Extract(t *testing.T) {
	t.Parallel()

	got := goquery.NewRealizaExtractor(nil, discardLogger()).Extract(realizaPage, "https://www.imoveisrealiza.com.br/imovel/4321")

	assert.False(t, got.Degraded())
	r := got.Record
	assert.Equal(t, "Realiza Imóveis", r.Brand.Name)
	assert.Equal(t, "Porto Alegre", r.Brand.Location)
	assert.Equal(t, "Apartamento no Centro", r.Property.Resume)
	assert.Equal(t, "Apartamento reformado no Centro Histórico.", r.Property.Description)
	assert.Equal(t, "4321", r.Property.Reference)
	assert.Equal(t, []string{"https://img.realiza.test/1.jpg", "https://img.realiza.test/2.jpg"}, r.Property.Gallery)
	assert.Equal(t, []string{"Sacada", "Elevador"}, r.Property.Features)
	assert.Equal(t, []string{"Piscina"}, r.Property.Infrastructures)
	assert.Equal(t, "80", r.Property.Area)
	assert.Equal(t, "2", r.Property.Bedrooms)
	assert.Equal(t, "1", r.Property.Bathrooms)
	assert.Equal(t, "1", r.Property.Parking)
	assert.Equal(t, "R$ 400.000,00", r.Property.Price)
	assert.Equal(t, "R$ 5.000,00/área", r.Property.PricePerArea)
	assert.Equal(t, "R$ 500,00", r.Property.Condominium)
	assert.Equal(t, "R$ 90,00", r.Property.IPTU)
}

func TestRealizaExtractor_FallsBackToDataCode(t *testing.T) {
	t.Parallel()

	page := `<html><body><h1>Casa</h1><div data-codigo="777"></div></body></html>`

	got := goquery.NewRealizaExtractor(nil, discardLogger()).Extract(page, "https://www.imoveisrealiza.com.br/imovel/777")

	assert.Equal(t, "777", got.Record.Property.Reference)
	assert.Equal(t, "Realiza Imóveis", got.Record.Brand.Name)
}
