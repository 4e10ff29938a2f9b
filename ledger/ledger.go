// Package ledger gates listing creation on the account's credit balance.
package ledger

import (
	"context"
	"fmt"

	"github.com/propsheet/propsheet"
)

// Mode selects how a credit is debited.
type Mode int

const (
	// Atomic debits with a single conditional decrement in the store.
	Atomic Mode = iota

	// CheckThenDebit checks the in-memory balance and then writes
	// balance-1 back. Two concurrent requests against the same account can
	// both pass the check and consume one credit between them.
	CheckThenDebit
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case Atomic:
		return "atomic"
	case CheckThenDebit:
		return "check-then-debit"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name as produced by String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "atomic":
		return Atomic, nil
	case "check-then-debit":
		return CheckThenDebit, nil
	default:
		return 0, propsheet.Errorf(propsheet.EINVALID, "unknown ledger mode %q", s)
	}
}

var _ propsheet.CreditLedger = (*Gate)(nil)

// Gate implements propsheet.CreditLedger on top of an AccountService.
type Gate struct {
	accounts propsheet.AccountService
	mode     Mode
}

// NewGate creates a Gate debiting through accounts with the given mode.
func NewGate(accounts propsheet.AccountService, mode Mode) *Gate {
	return &Gate{accounts: accounts, mode: mode}
}

// Mode returns the debit strategy in use.
func (g *Gate) Mode() Mode {
	return g.mode
}

// AssertSpendable returns *propsheet.InsufficientCreditsError when the
// account has no credit left.
func (g *Gate) AssertSpendable(account *propsheet.Account) error {
	if account == nil {
		return propsheet.Errorf(propsheet.EINVALID, "account required")
	}
	if account.Credits <= 0 {
		return &propsheet.InsufficientCreditsError{AccountID: account.ID}
	}
	return nil
}

// Debit consumes one credit and updates account.Credits to the new balance.
func (g *Gate) Debit(ctx context.Context, account *propsheet.Account) error {
	if err := g.AssertSpendable(account); err != nil {
		return err
	}

	switch g.mode {
	case CheckThenDebit:
		if err := g.accounts.SetCredits(ctx, account.ID, account.Credits-1); err != nil {
			return fmt.Errorf("debit credit: %w", err)
		}
		account.Credits--
		return nil
	default:
		remaining, err := g.accounts.DebitCredit(ctx, account.ID)
		if err != nil {
			return err
		}
		account.Credits = remaining
		return nil
	}
}
