package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/propsheet/propsheet"
)

// Compile-time interface verification.
var _ propsheet.AccountService = (*AccountService)(nil)

// AccountService implements propsheet.AccountService using SQLite.
type AccountService struct {
	db *DB
}

// NewAccountService creates a new AccountService.
func NewAccountService(db *DB) *AccountService {
	return &AccountService{db: db}
}

const accountColumns = `id, name, email, phone, plan_name, credits, plan_expires_at,
	stripe_customer_id, stripe_subscription_id, created_at, updated_at`

// CreateAccount stores account on the free plan unless a plan is set.
// When the id already exists, account is overwritten with the stored
// values and no error is returned.
func (s *AccountService) CreateAccount(ctx context.Context, account *propsheet.Account) error {
	if account.PlanName == "" {
		account.PlanName = propsheet.PlanFree
		account.Credits = propsheet.PlanCredits[propsheet.PlanFree]
	}
	if err := account.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, account.ID, account.Name, account.Email, account.Phone, account.PlanName, account.Credits,
		formatTime(account.PlanExpiresAt), account.StripeCustomerID, account.StripeSubscriptionID,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return err
	}

	stored, err := s.FindAccountByID(ctx, account.ID)
	if err != nil {
		return err
	}
	*account = *stored
	return nil
}

// FindAccountByID retrieves an account by ID.
func (s *AccountService) FindAccountByID(ctx context.Context, id string) (*propsheet.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, propsheet.Errorf(propsheet.ENOTFOUND, "account not found")
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// FindExpiredAccounts returns paid accounts whose plan expired before now,
// oldest expiry first.
func (s *AccountService) FindExpiredAccounts(ctx context.Context, now time.Time) ([]*propsheet.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE plan_name != ? AND plan_expires_at != '' AND plan_expires_at < ?
		ORDER BY plan_expires_at
	`, propsheet.PlanFree, formatTime(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*propsheet.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// UpdatePlan persists the plan, credits, expiry and billing references.
func (s *AccountService) UpdatePlan(ctx context.Context, account *propsheet.Account) error {
	if account.Credits < 0 {
		return propsheet.Errorf(propsheet.EINVALID, "account credits cannot be negative")
	}
	if _, ok := propsheet.PlanCredits[account.PlanName]; !ok {
		return propsheet.Errorf(propsheet.EINVALID, "unknown plan %q", account.PlanName)
	}

	account.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET plan_name = ?, credits = ?, plan_expires_at = ?,
			stripe_customer_id = ?, stripe_subscription_id = ?, updated_at = ?
		WHERE id = ?
	`, account.PlanName, account.Credits, formatTime(account.PlanExpiresAt),
		account.StripeCustomerID, account.StripeSubscriptionID,
		account.UpdatedAt.Format(time.RFC3339), account.ID)
	if err != nil {
		return err
	}
	return requireAffected(result, "account not found")
}

// SetCredits overwrites the credit balance.
func (s *AccountService) SetCredits(ctx context.Context, id string, credits int) error {
	if credits < 0 {
		return propsheet.Errorf(propsheet.EINVALID, "account credits cannot be negative")
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET credits = ?, updated_at = ? WHERE id = ?
	`, credits, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	return requireAffected(result, "account not found")
}

// DebitCredit decrements the balance in a single conditional statement, so
// concurrent debits can never take it below zero.
func (s *AccountService) DebitCredit(ctx context.Context, id string) (int, error) {
	var credits int
	err := s.db.QueryRowContext(ctx, `
		UPDATE accounts
		SET credits = credits - 1, updated_at = ?
		WHERE id = ? AND credits > 0
		RETURNING credits
	`, time.Now().UTC().Format(time.RFC3339), id).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		if _, findErr := s.FindAccountByID(ctx, id); findErr != nil {
			return 0, findErr
		}
		return 0, &propsheet.InsufficientCreditsError{AccountID: id}
	}
	if err != nil {
		return 0, err
	}
	return credits, nil
}

func scanAccount(row scanner) (*propsheet.Account, error) {
	var account propsheet.Account
	var expiresAt, createdAt, updatedAt string

	if err := row.Scan(&account.ID, &account.Name, &account.Email, &account.Phone,
		&account.PlanName, &account.Credits, &expiresAt,
		&account.StripeCustomerID, &account.StripeSubscriptionID,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if account.PlanExpiresAt, err = parseOptionalRFC3339(expiresAt, "plan_expires_at"); err != nil {
		return nil, err
	}
	if account.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if account.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}
	return &account, nil
}

// requireAffected returns ENOTFOUND with msg when result touched no rows.
func requireAffected(result sql.Result, msg string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return propsheet.Errorf(propsheet.ENOTFOUND, "%s", msg)
	}
	return nil
}
