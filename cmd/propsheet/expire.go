package main

import (
	"fmt"
	"time"

	"github.com/propsheet/propsheet"
)

// Run executes the expire command.
func (c *ExpireCmd) Run(deps *Dependencies) error {
	now := time.Now().UTC()

	if c.DryRun {
		accounts, err := deps.Service.Accounts.FindExpiredAccounts(deps.Ctx, now)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", propsheet.ErrorMessage(err))
			return err
		}
		for _, a := range accounts {
			fmt.Fprintf(deps.Stdout, "%s  %s  expired %s\n", a.ID, a.PlanName, a.PlanExpiresAt.Format(time.DateOnly))
		}
		fmt.Fprintf(deps.Stdout, "%d account(s) would be downgraded\n", len(accounts))
		return nil
	}

	n, err := deps.Service.DowngradeExpiredPlans(deps.Ctx, now)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", propsheet.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Downgraded %d account(s) to the %s plan\n", n, propsheet.PlanFree)
	return nil
}
