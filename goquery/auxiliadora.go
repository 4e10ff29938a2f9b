package goquery

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/propsheet/propsheet"
)

var (
	auxReference   = regexp.MustCompile(`(?i)ref[:\s]*(\d+)`)
	auxPrice       = regexp.MustCompile(`^R\$\s*([\d.,]+)$`)
	auxArea        = regexp.MustCompile(`(?i)^(\d+)\s*m²$`)
	auxBedrooms    = regexp.MustCompile(`(?i)^(\d+)\s*Dormitórios?$`)
	auxBathrooms   = regexp.MustCompile(`(?i)^(\d+)\s*Banheiros?$`)
	auxParking     = regexp.MustCompile(`(?i)^(\d+)\s*Vagas?$`)
	auxCondominium = regexp.MustCompile(`(?i)Condomínio\s*\*?\s*R\$\s*([\d.,]+/mês)`)
	auxIPTU        = regexp.MustCompile(`(?i)IPTU\s*\*?\s*R\$\s*([\d.,]+/ano)`)
	auxLocation    = regexp.MustCompile(`(?i)em\s+([^.]+)`)
	auxImage       = regexp.MustCompile(`(?i)https?://[^"'\s]*auxiliadorapredial[^"'\s]*\.(?:jpg|jpeg|png|webp)`)
	auxCamelJoin   = regexp.MustCompile(`[A-Z][a-z]+[A-Z]`)
)

var _ propsheet.SourceExtractor = (*AuxiliadoraExtractor)(nil)

// AuxiliadoraExtractor scrapes Auxiliadora Predial listings. The pages carry
// no structured payload, so values are recognized by their label text.
type AuxiliadoraExtractor struct {
	source
}

// NewAuxiliadoraExtractor creates an AuxiliadoraExtractor fetching with fetcher.
func NewAuxiliadoraExtractor(fetcher propsheet.Fetcher, logger *slog.Logger) *AuxiliadoraExtractor {
	return &AuxiliadoraExtractor{source: newSource("Auxiliadora Predial", fetcher, logger)}
}

// Extract scans element texts for label/value patterns.
func (e *AuxiliadoraExtractor) Extract(raw, sourceURL string) propsheet.Extraction {
	return e.extract(raw, sourceURL, func(doc *goquery.Document) (propsheet.Record, error) {
		title := text(doc.Find("title").First())
		if title == "" {
			title = text(doc.Find("h1").First())
		}
		all := doc.Find("*")

		var r propsheet.Record
		r.Brand.Name = e.Name()
		r.Brand.Location = submatch(auxLocation, title)
		r.Brand.Description = title

		r.Property.Resume = title
		r.Property.Description = auxDescription(doc)
		r.Property.Reference = scan(all, auxReference)
		r.Property.Gallery = auxGallery(doc, raw)
		r.Property.Features = auxFeatures(all)
		r.Property.Infrastructures = []string{}

		all.EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := submatch(auxPrice, text(s)); len(m) > 3 {
				r.Property.Price = money(m)
				return false
			}
			return true
		})
		r.Property.Area = scan(all, auxArea)
		r.Property.Bedrooms = scan(all, auxBedrooms)
		r.Property.Bathrooms = scan(all, auxBathrooms)
		r.Property.Parking = scan(all, auxParking)
		r.Property.Condominium = money(scan(all, auxCondominium))
		r.Property.IPTU = money(scan(all, auxIPTU))
		return r, nil
	})
}

func auxDescription(doc *goquery.Document) string {
	if d := text(doc.Find("#descricao .half-text-hidden")); d != "" {
		return d
	}
	var out string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := text(s)
		if utf8.RuneCountInString(t) > 100 && (strings.Contains(t, "Exclusividade") || strings.Contains(t, "Imóvel")) {
			out = t
			return false
		}
		return true
	})
	return out
}

// auxFeatures collects short items between the "Sobre o lugar" heading and
// the "Entre em contato" block.
func auxFeatures(all *goquery.Selection) []string {
	var features []string
	inSection := false
	all.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := text(s)
		switch {
		case t == "Sobre o lugar":
			inSection = true
			return true
		case t == "Entre em contato":
			return false
		}
		n := utf8.RuneCountInString(t)
		if inSection && n > 2 && n < 30 && !auxCamelJoin.MatchString(t) {
			features = append(features, t)
		}
		return true
	})
	return propsheet.Dedupe(features)
}

// auxGallery prefers the 1920px renditions referenced anywhere in the page,
// including inline scripts, and skips "_p.jpg" previews.
func auxGallery(doc *goquery.Document, raw string) []string {
	var gallery []string
	for _, u := range auxImage.FindAllString(raw, -1) {
		if strings.Contains(u, "thumb/1920") && !strings.Contains(u, "_p.jpg") {
			gallery = append(gallery, u)
		}
	}
	if len(gallery) > 0 {
		return gallery
	}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if strings.Contains(src, "auxiliadorapredial.com.br") && !strings.Contains(src, "_p.jpg") {
			gallery = append(gallery, src)
		}
	})
	return gallery
}
