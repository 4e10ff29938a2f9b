package propsheet

import "strings"

// Missing is the single sentinel used for every scalar a source did not provide.
const Missing = "N/D"

// Record limits.
const (
	MaxFeatures        = 10
	MaxInfrastructures = 10
	MaxSideImages      = 2
)

// Brand identifies the agency that published a listing.
type Brand struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Property holds the normalized attributes of a listed property.
type Property struct {
	Resume          string   `json:"resume"`
	Description     string   `json:"description"`
	Reference       string   `json:"reference"`
	MainImage       string   `json:"mainImage"`
	SideImages      []string `json:"sideImages"`
	Gallery         []string `json:"gallery"`
	Features        []string `json:"features"`
	Infrastructures []string `json:"infrastructures"`
	Area            string   `json:"area"`
	Bedrooms        string   `json:"bedrooms"`
	Bathrooms       string   `json:"bathrooms"`
	Condominium     string   `json:"condominium"`
	Parking         string   `json:"parking"`
	IPTU            string   `json:"iptu"`
	Price           string   `json:"price"`
	PricePerArea    string   `json:"pricePerArea"`
}

// Record is the canonical, source-independent description of a listing.
type Record struct {
	Brand    Brand    `json:"brand"`
	Property Property `json:"property"`
}

// MissingRecord returns a record where every scalar is Missing and every
// list is empty.
func MissingRecord() Record {
	return Record{
		Brand: Brand{
			Name:        Missing,
			Location:    Missing,
			Description: Missing,
		},
		Property: Property{
			Resume:          Missing,
			Description:     Missing,
			Reference:       Missing,
			MainImage:       Missing,
			SideImages:      []string{},
			Gallery:         []string{},
			Features:        []string{},
			Infrastructures: []string{},
			Area:            Missing,
			Bedrooms:        Missing,
			Bathrooms:       Missing,
			Condominium:     Missing,
			Parking:         Missing,
			IPTU:            Missing,
			Price:           Missing,
			PricePerArea:    Missing,
		},
	}
}

// Normalize enforces the record invariants in place: blank scalars become
// Missing, lists are trimmed and capped, the gallery is deduplicated and
// the main and side images are derived from it.
func (r *Record) Normalize() {
	for _, s := range []*string{
		&r.Brand.Name, &r.Brand.Location, &r.Brand.Description,
		&r.Property.Resume, &r.Property.Description, &r.Property.Reference,
		&r.Property.Area, &r.Property.Bedrooms, &r.Property.Bathrooms,
		&r.Property.Condominium, &r.Property.Parking, &r.Property.IPTU,
		&r.Property.Price, &r.Property.PricePerArea,
	} {
		*s = OrMissing(*s)
	}

	r.Property.Features = Capped(cleanList(r.Property.Features), MaxFeatures)
	r.Property.Infrastructures = Capped(cleanList(r.Property.Infrastructures), MaxInfrastructures)
	r.setGallery(r.Property.Gallery)
}

// WithGallery returns a copy of r whose gallery is replaced by urls. The
// main and side images are recomputed; r itself is left untouched.
func (r Record) WithGallery(urls []string) Record {
	out := r
	out.Property.Features = append([]string{}, r.Property.Features...)
	out.Property.Infrastructures = append([]string{}, r.Property.Infrastructures...)
	out.setGallery(urls)
	return out
}

func (r *Record) setGallery(urls []string) {
	gallery := Dedupe(urls)
	r.Property.Gallery = gallery
	r.Property.MainImage = Missing
	r.Property.SideImages = []string{}
	if len(gallery) == 0 {
		return
	}
	r.Property.MainImage = gallery[0]
	end := min(len(gallery), 1+MaxSideImages)
	r.Property.SideImages = append([]string{}, gallery[1:end]...)
}

// OrMissing returns the trimmed value, or Missing when it is blank.
func OrMissing(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Missing
	}
	return s
}

// IsMissing reports whether s carries no value.
func IsMissing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == Missing
}

// Dedupe drops blank and sentinel entries and repeated values, keeping the
// first occurrence order. It never returns nil.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if IsMissing(v) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Capped returns at most n leading values. It never returns nil.
func Capped(values []string, n int) []string {
	if values == nil {
		return []string{}
	}
	if len(values) > n {
		return values[:n]
	}
	return values
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
