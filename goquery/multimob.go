package goquery

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/propsheet/propsheet"
)

var (
	multimobCode        = regexp.MustCompile(`(?i)CÓD[.:\s]*(\d+)`)
	multimobPrice       = regexp.MustCompile(`R\$\s*[\d.]+`)
	multimobPriceAmount = regexp.MustCompile(`R\$\s*([\d.]+)`)
	multimobIPTU        = regexp.MustCompile(`(?i)IPTU[:\s]*R\$\s*([\d.]+)`)
	multimobCondominium = regexp.MustCompile(`(?i)CONDOMÍNIO[:\s]*R\$\s*([\d.]+)`)
	multimobPreview     = regexp.MustCompile(`_p\.jpg$`)
)

var multimobBathroomKinds = []string{"banheiro social", "lavabo", "wc de empregada", "banheiro auxiliar"}

var _ propsheet.SourceExtractor = (*MultimobExtractor)(nil)

// MultimobExtractor scrapes Multi imob listing pages.
type MultimobExtractor struct {
	source
}

// NewMultimobExtractor creates a MultimobExtractor fetching with fetcher.
func NewMultimobExtractor(fetcher propsheet.Fetcher, logger *slog.Logger) *MultimobExtractor {
	return &MultimobExtractor{source: newSource("Multi imob", fetcher, logger)}
}

// Extract reads the stats list, the detail sections and the fancybox gallery.
func (e *MultimobExtractor) Extract(raw, sourceURL string) propsheet.Extraction {
	return e.extract(raw, sourceURL, func(doc *goquery.Document) (propsheet.Record, error) {
		title := text(doc.Find("h1").First())
		body := text(doc.Find("body"))

		var r propsheet.Record
		r.Brand.Name = e.Name()
		r.Brand.Location = multimobLocation(doc)
		r.Brand.Description = title

		r.Property.Resume = title
		r.Property.Description = multimobDescription(doc)
		r.Property.Reference = submatch(multimobCode, body)
		r.Property.Gallery = multimobGallery(doc)
		r.Property.Features = multimobFeatures(doc)
		r.Property.Infrastructures = []string{}

		multimobStats(doc, &r.Property)
		r.Property.Price = multimobPriceText(doc, body)

		details := doc.Find(".col-12.cts li, .item-detalhe-valor, li")
		r.Property.IPTU = money(scan(details, multimobIPTU))
		r.Property.Condominium = money(scan(details, multimobCondominium))
		return r, nil
	})
}

func multimobPriceText(doc *goquery.Document, body string) string {
	price := text(doc.Find("li.valor span, span.valor span").First())
	if price == "" {
		price = money(submatch(multimobPriceAmount, body))
	}
	// Some pages render the amount twice in one node.
	if m := multimobPrice.FindString(price); m != "" {
		return "R$ " + strings.TrimSpace(strings.TrimPrefix(m, "R$"))
	}
	return price
}

// multimobLocation takes the last comma-separated part of the address.
func multimobLocation(doc *goquery.Document) string {
	address := text(doc.Find(".endereco-imovel"))
	if address == "" {
		address = strings.TrimSpace(strings.Split(doc.Find("h1").First().Next().Text(), "\n")[0])
	}
	parts := strings.Split(address, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

func multimobDescription(doc *goquery.Document) string {
	var out string
	doc.Find(".col-12 div, .col-12 p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := text(s)
		if utf8.RuneCountInString(t) > 100 &&
			(strings.Contains(t, "área privativa") || strings.Contains(t, "dormitórios") || strings.Contains(t, "localizada")) {
			out = t
			return false
		}
		return true
	})
	if out == "" {
		out = text(doc.Find(".descricao-imovel"))
	}
	return out
}

// multimobStats reads the "ul.is" label/value pairs. Bathrooms count suites
// plus every listed auxiliary bathroom.
func multimobStats(doc *goquery.Document, p *propsheet.Property) {
	suites := 0
	doc.Find("ul.is li").Each(func(_ int, s *goquery.Selection) {
		label := strings.ToUpper(text(s.Find("small")))
		value := text(s.Find("span"))
		switch {
		case strings.Contains(label, "ÁREA") || strings.Contains(label, "M²"):
			p.Area = value
		case strings.Contains(label, "DORM"):
			p.Bedrooms = value
		case strings.Contains(label, "SUÍTE"):
			suites, _ = strconv.Atoi(leadingDigits(value))
		case strings.Contains(label, "VAGA"):
			p.Parking = value
		}
	})

	if p.Area == "" || p.Bedrooms == "" || p.Parking == "" {
		doc.Find("small").Each(func(_ int, s *goquery.Selection) {
			label := strings.ToUpper(text(s))
			value := text(s.Closest("li").Find("span"))
			if value == "" {
				value = text(s.NextAllFiltered("span").First())
			}
			switch {
			case strings.Contains(label, "ÁREA") || strings.Contains(label, "M²"):
				if p.Area == "" {
					p.Area = value
				}
			case strings.Contains(label, "DORM"):
				if p.Bedrooms == "" {
					p.Bedrooms = value
				}
			case strings.Contains(label, "VAGA"):
				if p.Parking == "" {
					p.Parking = value
				}
			}
		})
	}

	extra := 0
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		t := strings.ToLower(text(s))
		for _, kind := range multimobBathroomKinds {
			if strings.Contains(t, kind) {
				extra++
				return
			}
		}
	})
	if n := suites + extra; n > 0 {
		p.Bathrooms = strconv.Itoa(n)
	}
}

func multimobFeatures(doc *goquery.Document) []string {
	var features []string
	doc.Find(".col-12.cts").Each(func(_ int, s *goquery.Selection) {
		heading := strings.ToLower(text(s.Find("h2, h3")))
		if strings.Contains(heading, "características") || strings.Contains(heading, "infraestrutura") {
			features = append(features, texts(s.Find("li"))...)
		}
	})
	if len(features) == 0 {
		features = texts(doc.Find(".caracteristicas-imovel li, [class*='caracteristica'] li"))
	}
	return features
}

// multimobGallery swaps "_p.jpg" previews for their full-size originals.
func multimobGallery(doc *goquery.Document) []string {
	var gallery []string
	collect := func(sel *goquery.Selection, name string) {
		sel.Each(func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(name)
			if strings.Contains(v, "cdn.vistahost.com.br") {
				gallery = append(gallery, multimobPreview.ReplaceAllString(v, ".jpg"))
			}
		})
	}
	collect(doc.Find(`a[data-fancybox="gallery"]`), "href")
	if len(gallery) == 0 {
		collect(doc.Find("img"), "src")
	}
	return gallery
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
