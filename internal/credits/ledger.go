package credits

import (
	"context"
	"fmt"
)

const DefaultMaxDataSources = 20

type InsufficientCreditsError struct {
	Needed    float64
	Available float64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: needed %.4f, available %.4f", e.Needed, e.Available)
}

type SourceLimitError struct {
	Limit int
}

func (e *SourceLimitError) Error() string {
	return fmt.Sprintf("maximum data sources limit reached (%d)", e.Limit)
}

// Account is the billing view of a user.
type Account struct {
	UserID           string  `json:"user_id"`
	Credits          float64 `json:"credits"`
	DataSourcesCount int     `json:"data_sources_count"`
}

// Accounts persists per-user balances. Deduct must be a single atomic
// decrement; the ledger's check/settle pair around it is deliberately not.
type Accounts interface {
	Get(ctx context.Context, userID string) (*Account, error)
	Deduct(ctx context.Context, userID string, amount float64) (float64, error)
	AddSource(ctx context.Context, userID string) error
	RemoveSource(ctx context.Context, userID string) error
}

// Ledger enforces the two-phase billing contract: a pre-flight affordability
// check before expensive work, and a settle of the actual cost afterwards.
//
// The check and the settle are not one atomic transaction: two concurrent
// requests from the same user can both pass Authorize before either settles,
// driving the balance negative. The balance is never clamped, so the audit
// trail stays accurate.
type Ledger struct {
	accounts       Accounts
	maxDataSources int
}

func NewLedger(accounts Accounts, maxDataSources int) *Ledger {
	if maxDataSources <= 0 {
		maxDataSources = DefaultMaxDataSources
	}
	return &Ledger{accounts: accounts, maxDataSources: maxDataSources}
}

// Authorize rejects the request if the user cannot afford the estimated cost.
func (l *Ledger) Authorize(ctx context.Context, userID string, estimated float64) error {
	acc, err := l.accounts.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetching account: %w", err)
	}
	if acc.Credits < estimated {
		return &InsufficientCreditsError{Needed: estimated, Available: acc.Credits}
	}
	return nil
}

// AuthorizeIngest additionally enforces the data-source cap, which applies
// regardless of balance and is checked first.
func (l *Ledger) AuthorizeIngest(ctx context.Context, userID string, estimated float64) error {
	acc, err := l.accounts.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetching account: %w", err)
	}
	if acc.DataSourcesCount >= l.maxDataSources {
		return &SourceLimitError{Limit: l.maxDataSources}
	}
	if acc.Credits < estimated {
		return &InsufficientCreditsError{Needed: estimated, Available: acc.Credits}
	}
	return nil
}

// Settle deducts the actual cost after the work succeeded and returns the
// new balance.
func (l *Ledger) Settle(ctx context.Context, userID string, actual float64) (float64, error) {
	return l.accounts.Deduct(ctx, userID, actual)
}

func (l *Ledger) AddSource(ctx context.Context, userID string) error {
	return l.accounts.AddSource(ctx, userID)
}

func (l *Ledger) RemoveSource(ctx context.Context, userID string) error {
	return l.accounts.RemoveSource(ctx, userID)
}
