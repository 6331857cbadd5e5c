// Package store holds the persistence collaborators of the analytics core.
// Components depend on these interfaces, not on the Postgres implementation,
// so they can be exercised against the in-memory store or gomock mocks.
package store

//go:generate mockgen -destination=mock_store.go -package=store finhub-analytics-backend/internal/store TransactionStore,AccountStore

import (
	"context"
	"fmt"
	"time"

	"finhub-analytics-backend/internal/domain"
)

// TransactionQuery selects a user's transactions in [From, To], both ends
// inclusive. A nil AccountIDs means every account; a non-nil slice restricts
// the result to those accounts.
type TransactionQuery struct {
	UserID     string
	From       time.Time
	To         time.Time
	AccountIDs []string
}

// AccountQuery selects a user's accounts. BankName matches as a
// case-insensitive substring; AccountID matches exactly. Empty fields do not
// filter.
type AccountQuery struct {
	UserID    string
	BankName  string
	AccountID string
}

// TransactionStore is read by every analytics computation.
type TransactionStore interface {
	FindTransactions(ctx context.Context, q TransactionQuery) ([]domain.Transaction, error)
}

// AccountStore resolves bank/account filters into account sets.
type AccountStore interface {
	FindAccounts(ctx context.Context, q AccountQuery) ([]domain.Account, error)
}

// UserStore owns user records and their latest classification.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	UpdateUserAnalysis(ctx context.Context, userID string, personality domain.Personality, creditScore int, analyzedAt time.Time) error
}

// InsightStore keeps historical FinancialInsight snapshots.
type InsightStore interface {
	SaveInsight(ctx context.Context, insight *domain.FinancialInsight) error
	ListInsights(ctx context.Context, userID string, limit int) ([]domain.FinancialInsight, error)
}

// LedgerWriter records accounts and transactions.
type LedgerWriter interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
}

// QueryError wraps a driver failure. It unwraps to both
// domain.ErrUpstreamUnavailable and the driver error.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() []error {
	return []error{domain.ErrUpstreamUnavailable, e.Err}
}

func queryError(op string, err error) error {
	return &QueryError{Op: op, Err: err}
}
