package mock

import (
	"context"
	"time"

	"github.com/propsheet/propsheet"
)

var _ propsheet.AccountService = (*AccountService)(nil)

// AccountService is a mock implementation of propsheet.AccountService.
type AccountService struct {
	CreateAccountFn       func(ctx context.Context, account *propsheet.Account) error
	FindAccountByIDFn     func(ctx context.Context, id string) (*propsheet.Account, error)
	FindExpiredAccountsFn func(ctx context.Context, now time.Time) ([]*propsheet.Account, error)
	UpdatePlanFn          func(ctx context.Context, account *propsheet.Account) error
	SetCreditsFn          func(ctx context.Context, id string, credits int) error
	DebitCreditFn         func(ctx context.Context, id string) (int, error)
}

func (s *AccountService) CreateAccount(ctx context.Context, account *propsheet.Account) error {
	return s.CreateAccountFn(ctx, account)
}

func (s *AccountService) FindAccountByID(ctx context.Context, id string) (*propsheet.Account, error) {
	return s.FindAccountByIDFn(ctx, id)
}

func (s *AccountService) FindExpiredAccounts(ctx context.Context, now time.Time) ([]*propsheet.Account, error) {
	return s.FindExpiredAccountsFn(ctx, now)
}

func (s *AccountService) UpdatePlan(ctx context.Context, account *propsheet.Account) error {
	return s.UpdatePlanFn(ctx, account)
}

func (s *AccountService) SetCredits(ctx context.Context, id string, credits int) error {
	return s.SetCreditsFn(ctx, id, credits)
}

func (s *AccountService) DebitCredit(ctx context.Context, id string) (int, error) {
	return s.DebitCreditFn(ctx, id)
}

var _ propsheet.CreditLedger = (*CreditLedger)(nil)

// CreditLedger is a mock implementation of propsheet.CreditLedger.
type CreditLedger struct {
	AssertSpendableFn func(account *propsheet.Account) error
	DebitFn           func(ctx context.Context, account *propsheet.Account) error
}

func (l *CreditLedger) AssertSpendable(account *propsheet.Account) error {
	return l.AssertSpendableFn(account)
}

func (l *CreditLedger) Debit(ctx context.Context, account *propsheet.Account) error {
	return l.DebitFn(ctx, account)
}
