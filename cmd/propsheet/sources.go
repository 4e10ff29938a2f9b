package main

import "fmt"

// Run executes the sources command.
func (c *SourcesCmd) Run(deps *Dependencies) error {
	for _, label := range deps.Service.Registry.Labels() {
		fmt.Fprintln(deps.Stdout, label)
	}
	return nil
}
