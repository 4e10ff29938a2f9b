package mock

import "github.com/propsheet/propsheet"

var _ propsheet.Converter = (*Converter)(nil)

// Converter is a mock implementation of propsheet.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
