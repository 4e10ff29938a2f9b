package goquery

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/propsheet/propsheet"
)

var (
	realizaCode        = regexp.MustCompile(`(?i)Código\s+(\d+)`)
	realizaArea        = regexp.MustCompile(`(?i)(\d+)\s*m²`)
	realizaBedrooms    = regexp.MustCompile(`(?i)(\d+)\s*quarto`)
	realizaBathrooms   = regexp.MustCompile(`(?i)(\d+)\s*banheiro`)
	realizaParking     = regexp.MustCompile(`(?i)(\d+)\s*vaga`)
	realizaPrice       = regexp.MustCompile(`(?i)R\$\s*([\d.,]+)`)
	realizaCondominium = regexp.MustCompile(`(?i)condom[ií]nio[:\s]*R\$\s*([\d.,]+)`)
	realizaIPTU        = regexp.MustCompile(`(?i)IPTU[:\s]*R\$\s*([\d.,]+)`)
)

var _ propsheet.SourceExtractor = (*RealizaExtractor)(nil)

// RealizaExtractor scrapes Realiza Imóveis listing pages.
type RealizaExtractor struct {
	source
}

// NewRealizaExtractor creates a RealizaExtractor fetching with fetcher.
func NewRealizaExtractor(fetcher propsheet.Fetcher, logger *slog.Logger) *RealizaExtractor {
	return &RealizaExtractor{source: newSource("Realiza", fetcher, logger)}
}

// Extract reads the breadcrumb, gallery thumbs and the value items list.
func (e *RealizaExtractor) Extract(raw, sourceURL string) propsheet.Extraction {
	return e.extract(raw, sourceURL, func(doc *goquery.Document) (propsheet.Record, error) {
		resume := text(doc.Find("h1").First())

		var r propsheet.Record
		r.Brand.Name = attr(doc, `meta[property="og:site_name"]`, "content")
		if r.Brand.Name == "" {
			r.Brand.Name = "Realiza Imóveis"
		}
		r.Brand.Location = realizaLocation(doc)
		r.Brand.Description = resume

		r.Property.Resume = resume
		r.Property.Description = attr(doc, `meta[name="description"]`, "content")
		r.Property.Reference = scan(doc.Find(".brands li"), realizaCode)
		if r.Property.Reference == "" {
			r.Property.Reference = attr(doc, "[data-codigo]", "data-codigo")
		}

		doc.Find(".thumbs li figure a").Each(func(_ int, s *goquery.Selection) {
			if href, _ := s.Attr("href"); strings.HasPrefix(href, "http") {
				r.Property.Gallery = append(r.Property.Gallery, href)
			}
		})

		r.Property.Features = texts(doc.Find(".infra ul li, .features ul li, .caracteristicas li"))
		r.Property.Infrastructures = texts(doc.Find(".infrastructures ul li, .amenidades li, .lazer li"))

		items := doc.Find(".va-itens li")
		r.Property.Area = scan(items, realizaArea)
		r.Property.Bedrooms = scan(items, realizaBedrooms)
		r.Property.Bathrooms = scan(items, realizaBathrooms)
		r.Property.Parking = scan(items, realizaParking)
		r.Property.Price = money(scan(items, realizaPrice))

		blocks := doc.Find("li, p, span, div")
		r.Property.Condominium = money(scan(blocks, realizaCondominium))
		r.Property.IPTU = money(scan(blocks, realizaIPTU))
		return r, nil
	})
}

// realizaLocation reads the city from the third or fourth breadcrumb.
func realizaLocation(doc *goquery.Document) string {
	var location string
	doc.Find(".brands li").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i != 2 && i != 3 {
			return true
		}
		t := text(s)
		if t != "" && t != "Venda" && t != "Início" {
			location = t
			return false
		}
		return true
	})
	return location
}
