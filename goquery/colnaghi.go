package goquery

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/propsheet/propsheet"
)

const colnaghiSuffix = "- Colnaghi Imóveis"

var (
	colnaghiArea   = regexp.MustCompile(`(\d+)\s*m²`)
	colnaghiCode   = regexp.MustCompile(`(?i)cl\d+`)
	colnaghiNumber = regexp.MustCompile(`\d+`)
)

var _ propsheet.SourceExtractor = (*ColnaghiExtractor)(nil)

// ColnaghiExtractor scrapes Colnaghi listings. Their pages are rendered
// client-side, so it is registered with a browser-backed fetcher.
type ColnaghiExtractor struct {
	source
}

// NewColnaghiExtractor creates a ColnaghiExtractor fetching with fetcher.
func NewColnaghiExtractor(fetcher propsheet.Fetcher, logger *slog.Logger) *ColnaghiExtractor {
	return &ColnaghiExtractor{source: newSource("Colnaghi", fetcher, logger)}
}

// Extract reads Open Graph metadata, the breadcrumb and the feature blocks.
func (e *ColnaghiExtractor) Extract(raw, sourceURL string) propsheet.Extraction {
	return e.extract(raw, sourceURL, func(doc *goquery.Document) (propsheet.Record, error) {
		title := strings.TrimSpace(strings.Replace(attr(doc, `meta[property="og:title"]`, "content"), " "+colnaghiSuffix, "", 1))
		if title == "" {
			title = strings.TrimSpace(strings.Split(text(doc.Find("title").First()), "-")[0])
		}
		meta := attr(doc, `meta[name="description"]`, "content")

		var r propsheet.Record
		r.Brand.Name = strings.TrimSpace(strings.Replace(text(doc.Find(".header-section h1")), colnaghiSuffix, "", 1))
		if r.Brand.Name == "" {
			r.Brand.Name = e.Name()
		}
		r.Brand.Location = colnaghiLocation(doc)
		r.Brand.Description = title

		r.Property.Resume = title
		r.Property.Description = text(doc.Find(".imovel-descricao"))
		if r.Property.Description == "" {
			r.Property.Description = meta
		}
		r.Property.Reference = colnaghiCode.FindString(sourceURL)

		r.Property.Gallery = []string{attr(doc, `meta[property="og:image"]`, "content")}
		doc.Find(".main-photo img").Each(func(_ int, s *goquery.Selection) {
			src, _ := s.Attr("src")
			r.Property.Gallery = append(r.Property.Gallery, resolve(sourceURL, src))
		})

		features := texts(doc.Find(".features .feature"))
		if len(features) > 0 {
			// The first block is the section heading.
			features = features[1:]
		}
		r.Property.Features = features
		r.Property.Infrastructures = []string{}

		r.Property.Area = submatch(colnaghiArea, meta)
		r.Property.Bedrooms = sumNumbers(text(doc.Find(".imovel-caracteristicas .caracteristica--dorm .info")))
		r.Property.Parking = colnaghiNumber.FindString(text(doc.Find(".caracteristica--vagas .content .info")))

		prices := texts(doc.Find(".imovel-price .value"))
		if len(prices) > 0 {
			r.Property.Price = prices[len(prices)-1]
		}
		return r, nil
	})
}

// colnaghiLocation joins the neighborhood (third crumb) and city (first crumb).
func colnaghiLocation(doc *goquery.Document) string {
	city := text(doc.Find(".breadcrumbs ol li:nth-child(1)"))
	neighborhood := text(doc.Find(".breadcrumbs ol li:nth-child(3)"))
	switch {
	case city != "" && neighborhood != "":
		return neighborhood + ", " + city
	case city != "":
		return city
	default:
		return neighborhood
	}
}

// sumNumbers adds every integer in s, e.g. "3 dorms, 1 suíte" yields "4".
func sumNumbers(s string) string {
	nums := colnaghiNumber.FindAllString(s, -1)
	if len(nums) == 0 {
		return ""
	}
	total := 0
	for _, n := range nums {
		v, _ := strconv.Atoi(n)
		total += v
	}
	return strconv.Itoa(total)
}
