package goquery

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/propsheet/propsheet"
)

var _ propsheet.SourceExtractor = (*CreditoRealExtractor)(nil)

// CreditoRealExtractor reads Credito Real listings from their embedded
// page-state JSON.
type CreditoRealExtractor struct {
	source
}

// NewCreditoRealExtractor creates a CreditoRealExtractor fetching with fetcher.
func NewCreditoRealExtractor(fetcher propsheet.Fetcher, logger *slog.Logger) *CreditoRealExtractor {
	return &CreditoRealExtractor{source: newSource("Credito Real", fetcher, logger)}
}

// Extract maps props.pageProps.imovel onto a record.
func (e *CreditoRealExtractor) Extract(raw, sourceURL string) propsheet.Extraction {
	return e.extract(raw, sourceURL, func(doc *goquery.Document) (propsheet.Record, error) {
		data, err := nextData(doc)
		if err != nil {
			return propsheet.Record{}, err
		}
		imovel, ok := dig(data, "props", "pageProps", "imovel").(map[string]any)
		if !ok {
			return propsheet.Record{}, fmt.Errorf("imovel missing from page-state payload")
		}

		kind := str(dig(imovel, "sobreImovel", "type"))
		if kind == "" {
			kind = "Imóvel"
		}
		var parts []string
		for _, key := range []string{"neighborhood", "city", "state"} {
			if v := str(dig(imovel, "location", key)); v != "" {
				parts = append(parts, v)
			}
		}
		location := strings.Join(parts, ", ")

		var r propsheet.Record
		r.Brand.Name = e.Name()
		r.Brand.Location = location
		r.Brand.Description = kind

		if location != "" {
			r.Property.Resume = kind + " em " + location
		} else {
			r.Property.Resume = kind
		}
		r.Property.Description = str(dig(imovel, "sobreImovel", "description"))
		r.Property.Reference = str(dig(imovel, "sobreImovel", "code"))
		r.Property.Features = strList(imovel["characteristics"])
		r.Property.Infrastructures = []string{}

		images, _ := imovel["images"].([]any)
		for _, img := range images {
			src := str(dig(img, "src"))
			if src == "" {
				src = str(dig(img, "url"))
			}
			r.Property.Gallery = append(r.Property.Gallery, resolve(sourceURL, src))
		}

		r.Property.Area = str(dig(imovel, "features", "area"))
		r.Property.Bedrooms = str(dig(imovel, "features", "rooms"))
		r.Property.Bathrooms = str(dig(imovel, "features", "bathrooms"))
		r.Property.Parking = str(dig(imovel, "features", "parking"))
		if v, ok := num(dig(imovel, "values", "value")); ok {
			r.Property.Price = propsheet.FormatPrice(v)
		}
		return r, nil
	})
}
