package main

import (
	"fmt"

	"github.com/propsheet/propsheet"
)

// Run executes the ingest command.
func (c *IngestCmd) Run(deps *Dependencies) error {
	urls, err := deps.Service.UploadImages(deps.Ctx, c.URLs, c.Key)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propsheet.ErrorMessage(err))
		return err
	}

	for _, u := range urls {
		fmt.Fprintln(deps.Stdout, u)
	}
	if skipped := countPresent(c.URLs) - len(urls); skipped > 0 {
		fmt.Fprintf(deps.Stderr, "%d image(s) could not be processed\n", skipped)
	}
	return nil
}

func countPresent(urls []string) int {
	var n int
	for _, u := range urls {
		if !propsheet.IsMissing(u) {
			n++
		}
	}
	return n
}
