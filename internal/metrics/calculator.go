package metrics

import (
	"context"
	"strings"
	"time"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/store"
)

// Filter narrows a computation to accounts at a bank (case-insensitive
// substring of the bank name) and/or a single account. The zero value
// covers every account.
type Filter struct {
	Bank    string
	Account string
}

// IsZero reports whether the filter restricts nothing.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Bank) == "" && strings.TrimSpace(f.Account) == ""
}

// Calculator composes the primitives into FinancialMetrics for a user. It
// holds no state between calls besides its collaborators.
type Calculator struct {
	transactions store.TransactionStore
	accounts     store.AccountStore
	now          func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock replaces time.Now, which fixes the window end in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

func NewCalculator(transactions store.TransactionStore, accounts store.AccountStore, opts ...Option) *Calculator {
	c := &Calculator{
		transactions: transactions,
		accounts:     accounts,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the calculator's current time.
func (c *Calculator) Now() time.Time {
	return c.now()
}

// Window returns [now - windowDays*24h, now]. Days are fixed 24h spans, so
// the window length does not depend on the clock's location or DST.
func (c *Calculator) Window(windowDays int) (from, to time.Time) {
	to = c.now()
	return to.Add(-time.Duration(windowDays) * 24 * time.Hour), to
}

// Compute builds the metrics for userID over the trailing window. A filter
// that resolves to no account yields domain.EmptyMetrics; store failures are
// returned unchanged.
func (c *Calculator) Compute(ctx context.Context, userID string, windowDays int, f Filter) (domain.FinancialMetrics, error) {
	txs, err := c.Transactions(ctx, userID, windowDays, f)
	if err != nil {
		return domain.FinancialMetrics{}, err
	}
	return Aggregate(txs, windowDays), nil
}

// Transactions returns the raw transactions Compute would aggregate.
func (c *Calculator) Transactions(ctx context.Context, userID string, windowDays int, f Filter) ([]domain.Transaction, error) {
	if err := ValidateRequest(userID, windowDays); err != nil {
		return nil, err
	}

	from, to := c.Window(windowDays)
	q := store.TransactionQuery{UserID: userID, From: from, To: to}

	if !f.IsZero() {
		ids, err := c.resolveAccounts(ctx, userID, f)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []domain.Transaction{}, nil
		}
		q.AccountIDs = ids
	}

	return c.transactions.FindTransactions(ctx, q)
}

func (c *Calculator) resolveAccounts(ctx context.Context, userID string, f Filter) ([]string, error) {
	accounts, err := c.accounts.FindAccounts(ctx, store.AccountQuery{
		UserID:    userID,
		BankName:  strings.TrimSpace(f.Bank),
		AccountID: strings.TrimSpace(f.Account),
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.AccountID)
	}
	return ids, nil
}

// ValidateRequest rejects a blank user id or a non-positive window.
func ValidateRequest(userID string, windowDays int) error {
	if strings.TrimSpace(userID) == "" {
		return domain.NewValidationError("userId", "user id is required")
	}
	if windowDays <= 0 {
		return domain.NewValidationError("days", "window must be a positive number of days")
	}
	return nil
}

// Aggregate derives FinancialMetrics from transactions already restricted
// to the window. An empty slice gives domain.EmptyMetrics.
func Aggregate(txs []domain.Transaction, windowDays int) domain.FinancialMetrics {
	if len(txs) == 0 {
		return domain.EmptyMetrics()
	}

	income := SumByType(txs, domain.Credit).InexactFloat64()
	spending := SumByType(txs, domain.Debit).InexactFloat64()
	savings := income - spending

	ratio := 0.0
	if income > 0 {
		ratio = savings / income * 100
	}

	byCategory := make(map[domain.Category]float64)
	for cat, sum := range GroupSpendingByCategory(txs) {
		byCategory[cat] = sum.InexactFloat64()
	}

	balances := BalanceStats(txs)
	salary := SalaryDeposits(txs)

	return domain.FinancialMetrics{
		TotalIncome:        income,
		TotalSpending:      spending,
		SavingsAmount:      savings,
		SavingsRatio:       ratio,
		SpendingByCategory: byCategory,
		AverageBalance:     balances.Average.InexactFloat64(),
		MinBalance:         balances.Min.InexactFloat64(),
		MaxBalance:         balances.Max.InexactFloat64(),
		Overdrafts:         CountByCategory(txs, domain.CategoryOverdraft),
		LateFees:           CountByCategory(txs, domain.CategoryFees),
		RegularDeposits:    len(salary),
		IrregularDeposits:  CountIrregularDeposits(txs),
		ConsistencyScore:   ConsistencyScore(salary, windowDays),
		TransactionCount:   len(txs),
	}
}
