// Package financetest builds deterministic transaction histories for tests.
//
//	ledger := financetest.NewLedger("user-1", now).
//		Account("acc-1", "GTBank").
//		Credit(domain.CategorySalary, 5000, 10).
//		Debit(domain.CategoryFood, 1000, 5, financetest.Balance(4000))
//
// Dates are expressed in days before now so a test's window arithmetic
// stays obvious.
package financetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/store"
)

// Ledger accumulates accounts and transactions for one user.
type Ledger struct {
	userID   string
	now      time.Time
	current  string
	accounts []domain.Account
	txs      []domain.Transaction
}

// TxOption adjusts a transaction before it is recorded.
type TxOption func(*domain.Transaction)

// Balance attaches a balance snapshot.
func Balance(amount float64) TxOption {
	return func(t *domain.Transaction) {
		b := decimal.NewFromFloat(amount)
		t.Balance = &b
	}
}

// Merchant sets the merchant name.
func Merchant(name string) TxOption {
	return func(t *domain.Transaction) { t.Merchant = name }
}

// Description sets the free-text description.
func Description(text string) TxOption {
	return func(t *domain.Transaction) { t.Description = text }
}

// At pins the transaction to an absolute time, ignoring daysAgo.
func At(date time.Time) TxOption {
	return func(t *domain.Transaction) { t.Date = date }
}

func NewLedger(userID string, now time.Time) *Ledger {
	return &Ledger{userID: userID, now: now}
}

// Now is the reference time every daysAgo offset is taken from.
func (l *Ledger) Now() time.Time { return l.now }

// Clock returns a fixed clock at Now.
func (l *Ledger) Clock() func() time.Time {
	return func() time.Time { return l.now }
}

// Account registers an account and makes it the target of subsequent
// Credit/Debit calls.
func (l *Ledger) Account(accountID, bankName string) *Ledger {
	l.accounts = append(l.accounts, domain.Account{
		AccountID:   accountID,
		UserID:      l.userID,
		AccountName: fmt.Sprintf("%s %s", bankName, accountID),
		BankName:    bankName,
		AccountType: domain.AccountTypeSavings,
		Balance:     decimal.Zero,
		Currency:    "NGN",
		IsActive:    true,
		ConnectedAt: l.now,
	})
	l.current = accountID
	return l
}

// AccountBalance sets the current balance of the most recent account.
func (l *Ledger) AccountBalance(amount float64) *Ledger {
	if n := len(l.accounts); n > 0 {
		l.accounts[n-1].Balance = decimal.NewFromFloat(amount)
	}
	return l
}

func (l *Ledger) Credit(cat domain.Category, amount float64, daysAgo int, opts ...TxOption) *Ledger {
	return l.add(domain.Credit, cat, amount, daysAgo, opts)
}

func (l *Ledger) Debit(cat domain.Category, amount float64, daysAgo int, opts ...TxOption) *Ledger {
	return l.add(domain.Debit, cat, amount, daysAgo, opts)
}

func (l *Ledger) add(typ domain.TransactionType, cat domain.Category, amount float64, daysAgo int, opts []TxOption) *Ledger {
	t := domain.Transaction{
		ID:        int64(len(l.txs) + 1),
		UserID:    l.userID,
		AccountID: l.current,
		Amount:    decimal.NewFromFloat(amount),
		Type:      typ,
		Category:  cat,
		Date:      l.now.AddDate(0, 0, -daysAgo),
	}
	for _, opt := range opts {
		opt(&t)
	}
	l.txs = append(l.txs, t)
	return l
}

// Transactions returns a copy of the recorded transactions in insertion order.
func (l *Ledger) Transactions() []domain.Transaction {
	return append([]domain.Transaction(nil), l.txs...)
}

// Accounts returns a copy of the registered accounts.
func (l *Ledger) Accounts() []domain.Account {
	return append([]domain.Account(nil), l.accounts...)
}

// Store loads the ledger into a fresh in-memory store. The user record is
// created too so insight and snapshot paths can update it.
func (l *Ledger) Store(t testing.TB) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	if err := m.CreateUser(ctx, &domain.User{ID: l.userID, Email: l.userID + "@example.com", FirstName: "Ada"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for i := range l.accounts {
		a := l.accounts[i]
		if err := m.CreateAccount(ctx, &a); err != nil {
			t.Fatalf("seed account %s: %v", a.AccountID, err)
		}
	}
	for i := range l.txs {
		tx := l.txs[i]
		if err := m.CreateTransaction(ctx, &tx); err != nil {
			t.Fatalf("seed transaction: %v", err)
		}
	}
	return m
}
