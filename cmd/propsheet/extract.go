package main

import (
	"encoding/json"
	"fmt"

	"github.com/propsheet/propsheet"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	res, err := deps.Service.Extract(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propsheet.ErrorMessage(err))
		return err
	}
	if res.Degraded {
		fmt.Fprintf(deps.Stderr, "warning: could not read listing data from %s (%s layout may have changed)\n", c.URL, res.Source)
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}
