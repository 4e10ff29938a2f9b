package propsheet

import (
	"context"
	"regexp"
	"time"
)

// Plan names.
const (
	PlanFree        = "gratuito"
	PlanBasic       = "basico"
	PlanPremium     = "premium"
	PlanPremiumPlus = "premium_plus"
)

// PlanCredits maps each plan to the credits granted per billing period.
var PlanCredits = map[string]int{
	PlanFree:        1,
	PlanBasic:       10,
	PlanPremium:     20,
	PlanPremiumPlus: 40,
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Account is a user of the system with a consumable credit balance.
type Account struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone"`
	PlanName             string    `json:"planName"`
	Credits              int       `json:"credits"`
	PlanExpiresAt        time.Time `json:"planExpiresAt"`
	StripeCustomerID     string    `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string    `json:"stripeSubscriptionId,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Validate returns an error if the account contains invalid fields.
func (a *Account) Validate() error {
	if a.ID == "" {
		return Errorf(EINVALID, "account id required")
	}
	if a.Name == "" {
		return Errorf(EINVALID, "account name required")
	}
	if !emailPattern.MatchString(a.Email) {
		return Errorf(EINVALID, "account email %q is invalid", a.Email)
	}
	if a.Phone == "" {
		return Errorf(EINVALID, "account phone required")
	}
	if a.Credits < 0 {
		return Errorf(EINVALID, "account credits cannot be negative")
	}
	return nil
}

// ApplyPlan switches the account to plan and resets its credits to the
// plan's allowance. Returns EINVALID for unknown plans.
func (a *Account) ApplyPlan(plan string, expiresAt time.Time) error {
	credits, ok := PlanCredits[plan]
	if !ok {
		return Errorf(EINVALID, "unknown plan %q", plan)
	}
	a.PlanName = plan
	a.Credits = credits
	a.PlanExpiresAt = expiresAt
	return nil
}

// AccountService represents a service for managing accounts.
type AccountService interface {
	// CreateAccount stores a new account on the free plan. If an account
	// with the same id exists it is returned unchanged.
	CreateAccount(ctx context.Context, account *Account) error

	// FindAccountByID retrieves an account by ID.
	// Returns ENOTFOUND if the account does not exist.
	FindAccountByID(ctx context.Context, id string) (*Account, error)

	// FindExpiredAccounts returns paid accounts whose plan expired before now.
	FindExpiredAccounts(ctx context.Context, now time.Time) ([]*Account, error)

	// UpdatePlan persists plan name, credits, expiry and billing references.
	// Returns ENOTFOUND if the account does not exist.
	UpdatePlan(ctx context.Context, account *Account) error

	// SetCredits overwrites the credit balance.
	// Returns ENOTFOUND if the account does not exist.
	SetCredits(ctx context.Context, id string, credits int) error

	// DebitCredit atomically decrements the balance by one when it is
	// positive and returns the new balance. Returns an
	// *InsufficientCreditsError when the balance is zero.
	DebitCredit(ctx context.Context, id string) (int, error)
}

// CreditLedger gates credit consumption.
type CreditLedger interface {
	// AssertSpendable fails with *InsufficientCreditsError when the account
	// has no credit.
	AssertSpendable(account *Account) error

	// Debit consumes one credit from account.
	Debit(ctx context.Context, account *Account) error
}
