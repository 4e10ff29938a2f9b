package goquery

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/propsheet/propsheet"
)

// DefaultFoxterImageBase is used when the payload omits its image host.
const DefaultFoxterImageBase = "https://images.foxter.com.br/rest/image/outer/"

var (
	foxterParking  = regexp.MustCompile(`(?i)(\d+)\s*vaga`)
	foxterBedrooms = regexp.MustCompile(`(?i)(\d+)\s*(?:dormit|quarto|su[ií]te)`)
)

var _ propsheet.SourceExtractor = (*FoxterExtractor)(nil)

// FoxterExtractor reads Foxter listings from their embedded page-state JSON.
type FoxterExtractor struct {
	source
}

// NewFoxterExtractor creates a FoxterExtractor fetching with fetcher.
func NewFoxterExtractor(fetcher propsheet.Fetcher, logger *slog.Logger) *FoxterExtractor {
	return &FoxterExtractor{source: newSource("Foxter", fetcher, logger)}
}

// Extract maps props.pageProps.product onto a record.
func (e *FoxterExtractor) Extract(raw, sourceURL string) propsheet.Extraction {
	return e.extract(raw, sourceURL, func(doc *goquery.Document) (propsheet.Record, error) {
		data, err := nextData(doc)
		if err != nil {
			return propsheet.Record{}, err
		}
		product, ok := dig(data, "props", "pageProps", "product").(map[string]any)
		if !ok {
			return propsheet.Record{}, fmt.Errorf("product missing from page-state payload")
		}

		title := str(product["h1"])
		if title == "" {
			title = str(product["title"])
		}

		var r propsheet.Record
		r.Brand.Name = str(product["developmentName"])
		if r.Brand.Name == "" {
			r.Brand.Name = e.Name()
		}
		r.Brand.Location = foxterCity(title)
		r.Brand.Description = title

		r.Property.Resume = title
		r.Property.Description = str(product["description"])
		r.Property.Reference = str(product["code"])
		r.Property.Gallery = foxterGallery(product)
		r.Property.Features = strList(product["features"])
		r.Property.Infrastructures = strList(product["developmentFeatures"])

		r.Property.Area = str(product["areaPrivate"])
		if r.Property.Area == "" {
			r.Property.Area = str(product["areaTotal"])
		}

		rooms := str(product["bedrooms"])
		r.Property.Bedrooms = submatch(foxterBedrooms, rooms)
		r.Property.Parking = submatch(foxterParking, rooms)
		if r.Property.Parking == "" {
			r.Property.Parking = str(product["parkingSpaces"])
		}
		r.Property.Bathrooms = str(product["bathrooms"])

		r.Property.Condominium = amount(product["condominiumAmountValue"])
		r.Property.IPTU = amount(product["iptu"])
		r.Property.Price = amount(product["saleValue"])
		return r, nil
	})
}

func foxterGallery(product map[string]any) []string {
	base := str(dig(product, "images", "baseUrl"))
	if base == "" {
		base = DefaultFoxterImageBase
	}
	items, _ := dig(product, "images", "data").([]any)
	gallery := make([]string, 0, len(items))
	for _, item := range items {
		etag := str(dig(item, "etag"))
		if etag == "" {
			continue
		}
		gallery = append(gallery, base+"1024/1/foxter/wm/"+etag)
	}
	return gallery
}

// foxterCity takes the part of "Apartamento - Porto Alegre" after the dash.
func foxterCity(title string) string {
	parts := strings.Split(title, "-")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// amount formats a JSON price that may be a number or a pt-BR string.
func amount(v any) string {
	switch t := v.(type) {
	case float64:
		if t == 0 {
			return ""
		}
		return propsheet.FormatPrice(t)
	case string:
		if strings.TrimSpace(t) == "" {
			return ""
		}
		return propsheet.FormatPriceString(t)
	default:
		return ""
	}
}
