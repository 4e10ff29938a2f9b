package goquery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/propsheet/propsheet"
)

var (
	bridgeExpandify   = regexp.MustCompile(`window\.expandifyResponse\s*=\s*`)
	bridgeTitleLoc    = regexp.MustCompile(`(?i)([^,]+),\s*([^/\-]+)/([A-Z]{2})`)
	bridgeReference   = regexp.MustCompile(`imovel/(\d+)/`)
	bridgeArea        = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*m²`)
	bridgeBedrooms    = regexp.MustCompile(`(?i)(\d+)\s*dorm`)
	bridgeBathrooms   = regexp.MustCompile(`(?i)(\d+)\s*banh`)
	bridgeSuites      = regexp.MustCompile(`(?i)(\d+)\s*su[ií]te`)
	bridgeParking     = regexp.MustCompile(`(?i)(\d+)\s*vaga`)
	bridgeIPTU        = regexp.MustCompile(`(?i)IPTU:\s*R\$\s*([\d.,]+)`)
	bridgeCondominium = regexp.MustCompile(`(?i)Condomínio:\s*R\$\s*([\d.,]+)`)
)

var _ propsheet.SourceExtractor = (*BridgeExtractor)(nil)

// BridgeExtractor reads Bridge Imóveis listings from their JSON-LD block,
// enriched with the location state the page assigns to
// window.expandifyResponse.
type BridgeExtractor struct {
	source
}

// NewBridgeExtractor creates a BridgeExtractor fetching with fetcher.
func NewBridgeExtractor(fetcher propsheet.Fetcher, logger *slog.Logger) *BridgeExtractor {
	return &BridgeExtractor{source: newSource("Bridge Imóveis", fetcher, logger)}
}

// Extract maps the JSON-LD listing and the visible stats onto a record.
func (e *BridgeExtractor) Extract(raw, sourceURL string) propsheet.Extraction {
	return e.extract(raw, sourceURL, func(doc *goquery.Document) (propsheet.Record, error) {
		ld := jsonLD(doc)
		if ld == nil {
			return propsheet.Record{}, fmt.Errorf("JSON-LD payload not found")
		}
		property, _ := dig(e.state(doc), "property").(map[string]any)
		body := text(doc.Find("body"))
		name := str(ld["name"])

		var r propsheet.Record
		r.Brand.Name = name
		r.Brand.Location = bridgeLocation(property, text(doc.Find("title").First()))
		r.Brand.Description = name

		r.Property.Resume = name
		r.Property.Description = str(ld["description"])
		r.Property.Reference = str(dig(property, "publicId"))
		if r.Property.Reference == "" {
			r.Property.Reference = submatch(bridgeReference, sourceURL)
		}
		if r.Property.Reference == "" {
			r.Property.Reference = submatch(bridgeReference, raw)
		}

		r.Property.Gallery = append(ldImages(ld["image"]), bridgeGallery(doc)...)
		r.Property.Features = strList(ld["additionalProperty"])
		r.Property.Infrastructures = bridgeInfrastructure(doc)

		r.Property.Area = submatch(bridgeArea, body)
		r.Property.Bedrooms = submatch(bridgeBedrooms, body)
		r.Property.Bathrooms = submatch(bridgeBathrooms, body)
		if r.Property.Bathrooms == "" {
			r.Property.Bathrooms = submatch(bridgeSuites, body)
		}
		r.Property.Parking = submatch(bridgeParking, body)
		r.Property.IPTU = money(submatch(bridgeIPTU, body))
		r.Property.Condominium = money(submatch(bridgeCondominium, body))
		if v, ok := num(dig(ld, "offers", "price")); ok {
			r.Property.Price = propsheet.FormatPrice(v)
		}
		return r, nil
	})
}

// jsonLD returns the first JSON-LD object on the page that carries a name.
func jsonLD(doc *goquery.Document) map[string]any {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return true
		}
		candidates := []any{v}
		if arr, ok := v.([]any); ok {
			candidates = arr
		} else if graph, ok := dig(v, "@graph").([]any); ok {
			candidates = graph
		}
		for _, c := range candidates {
			if m, ok := c.(map[string]any); ok && str(m["name"]) != "" {
				found = m
				return false
			}
		}
		return true
	})
	return found
}

func ldImages(v any) []string {
	if s := str(v); s != "" {
		return []string{s}
	}
	return strList(v)
}

// state decodes the object assigned to window.expandifyResponse. Only the
// first JSON value after the assignment is read, so nested objects and
// trailing statements are handled.
func (e *BridgeExtractor) state(doc *goquery.Document) map[string]any {
	var state map[string]any
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		script := s.Text()
		loc := bridgeExpandify.FindStringIndex(script)
		if loc == nil {
			return true
		}
		if err := json.NewDecoder(strings.NewReader(script[loc[1]:])).Decode(&state); err != nil {
			e.logger.Debug("page state not decoded", "source", e.name, "err", err)
			state = nil
		}
		return false
	})
	return state
}

func bridgeLocation(property map[string]any, title string) string {
	var parts []string
	for _, key := range []string{"neighborhood", "city", "state"} {
		if v := str(property[key]); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if m := bridgeTitleLoc.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1]) + ", " + strings.TrimSpace(m[2]) + ", " + m[3]
	}
	return ""
}

// bridgeGallery keeps listing photos served from the agency's CDN folder.
func bridgeGallery(doc *goquery.Document) []string {
	var primary, fallback []string
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		lower := strings.ToLower(src)
		if strings.Contains(lower, "icon") || strings.Contains(lower, "logo") {
			return
		}
		if strings.Contains(src, "cdn.vistahost.com.br") && strings.Contains(src, "bridgeco") {
			primary = append(primary, src)
			return
		}
		if (strings.Contains(src, "bridgeimoveis") || strings.Contains(src, "imobi")) &&
			!strings.Contains(src, "/static/") &&
			imageExt.MatchString(src) {
			fallback = append(fallback, src)
		}
	})
	if len(primary) > 0 {
		return primary
	}
	return fallback
}

var imageExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp)`)

func bridgeInfrastructure(doc *goquery.Document) []string {
	out := []string{}
	doc.Find("h1, h2, h3, h4, h5, strong, p, span, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.HasPrefix(text(s), "Infraestrutura do Condomínio") || s.Find("ul").Length() > 0 {
			return true
		}
		list := s.NextAllFiltered("ul").First()
		if list.Length() == 0 {
			list = s.Parent().Find("ul").First()
		}
		out = texts(list.Find("li"))
		return false
	})
	return out
}
