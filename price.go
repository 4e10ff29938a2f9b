package propsheet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// AreaSuffix is appended to every formatted price-per-area value.
const AreaSuffix = "/área"

var leadingNumber = regexp.MustCompile(`^\s*(\d[\d.,]*)`)

// ParsePrice parses a Brazilian-formatted amount such as "R$ 1.234.567,89".
// The currency symbol and thousands separators are stripped and the decimal
// comma is converted before parsing.
func ParsePrice(s string) (float64, bool) {
	if IsMissing(s) {
		return 0, false
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "R$", ""))
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseArea parses the leading number of an area string such as "120",
// "85,5 m²" or "1.250,75 m²". A lone dot is a decimal point, so "1.250"
// reads as 1.25; dots count as thousands separators only next to a comma
// or when repeated ("1.250.000").
func ParseArea(s string) (float64, bool) {
	if IsMissing(s) {
		return 0, false
	}
	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n := m[1]
	if strings.Contains(n, ",") {
		n = strings.ReplaceAll(n, ".", "")
		n = strings.Replace(n, ",", ".", 1)
	} else if strings.Count(n, ".") > 1 {
		n = strings.ReplaceAll(n, ".", "")
	}
	n = strings.TrimRight(n, ".,")
	v, err := strconv.ParseFloat(n, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatPrice renders v as "R$ 1.234.567,89": two decimals rounded half
// away from zero, "." for thousands and "," for decimals.
func FormatPrice(v float64) string {
	return "R$ " + formatDecimal(v)
}

// FormatPriceString normalizes a raw amount string into FormatPrice form.
// Values that do not parse are returned as Missing.
func FormatPriceString(s string) string {
	v, ok := ParsePrice(s)
	if !ok {
		return Missing
	}
	return FormatPrice(v)
}

// PricePerArea divides price by area and formats the result as
// "R$ 12.345,68/área". It returns Missing when either side is missing,
// fails to parse, or the area is zero.
func PricePerArea(price, area string) string {
	p, ok := ParsePrice(price)
	if !ok {
		return Missing
	}
	a, ok := ParseArea(area)
	if !ok || a == 0 {
		return Missing
	}
	return FormatPrice(p/a) + AreaSuffix
}

func formatDecimal(v float64) string {
	neg := v < 0
	cents := int64(math.Round(math.Abs(v) * 100))
	whole := strconv.FormatInt(cents/100, 10)
	frac := cents % 100

	var b strings.Builder
	if neg && cents != 0 {
		b.WriteByte('-')
	}
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	b.WriteByte(',')
	if frac < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(frac, 10))
	return b.String()
}
