package goquery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/propsheet/propsheet"
)

// source carries what every extractor shares: the fetch strategy and a logger.
type source struct {
	name    string
	fetcher propsheet.Fetcher
	logger  *slog.Logger
}

func newSource(name string, fetcher propsheet.Fetcher, logger *slog.Logger) source {
	if logger == nil {
		logger = slog.Default()
	}
	return source{name: name, fetcher: fetcher, logger: logger}
}

// Name returns the source label.
func (s source) Name() string {
	return s.name
}

// Fetch retrieves raw page content with the source's fetch strategy.
func (s source) Fetch(ctx context.Context, url string) (string, error) {
	if s.fetcher == nil {
		return "", propsheet.Errorf(propsheet.EINTERNAL, "%s: no fetcher configured", s.name)
	}
	return s.fetcher.Fetch(ctx, url)
}

// extract parses raw into a document and runs parse, converting any error
// or panic into a degraded extraction.
func (s source) extract(raw, sourceURL string, parse func(doc *goquery.Document) (propsheet.Record, error)) (ex propsheet.Extraction) {
	defer func() {
		if r := recover(); r != nil {
			ex = propsheet.Degraded(fmt.Errorf("%s: unexpected page structure: %v", s.name, r))
		}
		if ex.Degraded() {
			s.logger.Warn("extraction degraded", "source", s.name, "url", sourceURL, "err", ex.Cause)
		}
	}()

	if strings.TrimSpace(raw) == "" {
		return propsheet.Degraded(fmt.Errorf("%s: empty page", s.name))
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return propsheet.Degraded(fmt.Errorf("%s: parsing HTML: %w", s.name, err))
	}
	rec, err := parse(doc)
	if err != nil {
		return propsheet.Degraded(fmt.Errorf("%s: %w", s.name, err))
	}
	if rec.Property.PricePerArea == "" {
		rec.Property.PricePerArea = propsheet.PricePerArea(rec.Property.Price, rec.Property.Area)
	}
	return propsheet.Extracted(rec)
}

// nextData decodes the page-state JSON that Next.js embeds in
// <script id="__NEXT_DATA__">.
func nextData(doc *goquery.Document) (map[string]any, error) {
	script := doc.Find(`script#__NEXT_DATA__`).First()
	if script.Length() == 0 {
		return nil, fmt.Errorf("page-state payload not found")
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(script.Text()), &data); err != nil {
		return nil, fmt.Errorf("decoding page-state payload: %w", err)
	}
	return data, nil
}

// dig walks nested JSON objects along path and returns nil when any step is
// absent or not an object.
func dig(v any, path ...string) any {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

// str renders a JSON scalar as a string. Zero-like values yield "".
func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return ""
	default:
		return ""
	}
}

// num reads a JSON number or numeric string.
func num(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, t != 0
	case string:
		return propsheet.ParsePrice(t)
	default:
		return 0, false
	}
}

// strList flattens a JSON array of strings or of objects carrying a name,
// title or description.
func strList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := str(item)
		if s == "" {
			for _, key := range []string{"name", "title", "description", "label"} {
				if s = str(dig(item, key)); s != "" {
					break
				}
			}
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

var whitespace = regexp.MustCompile(`\s+`)

// text returns the selection's text with whitespace collapsed.
func text(sel *goquery.Selection) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(sel.Text(), " "))
}

// attr returns a trimmed attribute of the first matched element.
func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

// submatch returns the first capture group of re in s, or "".
func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// scan returns the first capture of re across the texts of the matched
// elements, in document order.
func scan(sel *goquery.Selection, re *regexp.Regexp) string {
	var out string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = submatch(re, text(s))
		return out == ""
	})
	return out
}

// texts collects non-empty texts of the matched elements.
func texts(sel *goquery.Selection) []string {
	out := []string{}
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := text(s); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// resolve makes href absolute against base. Unparseable input yields "".
func resolve(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return ref.String()
	}
	return b.ResolveReference(ref).String()
}

// money prefixes a bare amount with the currency symbol.
func money(amount string) string {
	if amount == "" {
		return ""
	}
	return "R$ " + amount
}
