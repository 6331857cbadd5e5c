package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finhub-analytics-backend/internal/domain"
)

// financial_insights.user_id carries no foreign key: snapshots are also
// taken for ids that have no user row.
const schemaSQL = `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		money_personality VARCHAR(20) NOT NULL DEFAULT 'Unknown',
		credit_score INTEGER CHECK (credit_score BETWEEN 300 AND 850),
		last_analyzed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS accounts (
		account_id VARCHAR(64) PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		account_name VARCHAR(255) NOT NULL,
		account_number VARCHAR(20),
		bank_name VARCHAR(100) NOT NULL,
		bank_code VARCHAR(10),
		account_type VARCHAR(20) NOT NULL DEFAULT 'savings',
		balance NUMERIC(15,2) NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'NGN',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		connected_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_user_bank ON accounts(user_id, bank_name);

	CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		account_id VARCHAR(64) NOT NULL REFERENCES accounts(account_id) ON DELETE CASCADE,
		amount NUMERIC(15,2) NOT NULL CHECK (amount >= 0),
		type VARCHAR(10) NOT NULL CHECK (type IN ('credit', 'debit')),
		category VARCHAR(30) NOT NULL DEFAULT 'other',
		date TIMESTAMPTZ NOT NULL,
		balance NUMERIC(15,2),
		merchant VARCHAR(255),
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions(account_id, date DESC);

	CREATE TABLE IF NOT EXISTS financial_insights (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		period VARCHAR(20) NOT NULL,
		metrics JSONB NOT NULL,
		money_personality VARCHAR(20) NOT NULL,
		emotional_insight TEXT NOT NULL,
		credit_score INTEGER NOT NULL,
		credit_score_factors JSONB NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_financial_insights_user_generated ON financial_insights(user_id, generated_at DESC);
`

func ensureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const demoUserID = "6f1c2a4e-0b7d-4c53-9a8e-3d2f5b1e7c90"

// demoLedger describes the demo user's accounts and about 90 days of
// activity ending at now. The same now always yields the same rows.
func demoLedger(now time.Time) (domain.User, []domain.Account, []domain.Transaction) {
	user := domain.User{
		ID:        demoUserID,
		Email:     "demo@finhub.ng",
		FirstName: "Ada",
		LastName:  "Okafor",
	}

	accounts := []domain.Account{
		{AccountID: "demo-gtb-current", AccountName: "GTBank Current", AccountNumber: "0123456789", BankName: "GTBank", BankCode: "058", AccountType: domain.AccountTypeCurrent},
		{AccountID: "demo-gtb-savings", AccountName: "GTBank Savings", AccountNumber: "0123456790", BankName: "GTBank", BankCode: "058", AccountType: domain.AccountTypeSavings},
		{AccountID: "demo-access-savings", AccountName: "Access Bank Savings", AccountNumber: "0690000031", BankName: "Access Bank", BankCode: "044", AccountType: domain.AccountTypeSavings},
	}
	balances := map[string]decimal.Decimal{
		"demo-gtb-current":    decimal.NewFromInt(180000),
		"demo-gtb-savings":    decimal.NewFromInt(350000),
		"demo-access-savings": decimal.NewFromInt(95000),
	}

	at := now.UTC().Truncate(time.Minute)
	var txs []domain.Transaction
	post := func(accountID string, typ domain.TransactionType, cat domain.Category, amount int64, daysAgo int, merchant, description string) {
		amt := decimal.NewFromInt(amount)
		if typ == domain.Credit {
			balances[accountID] = balances[accountID].Add(amt)
		} else {
			balances[accountID] = balances[accountID].Sub(amt)
		}
		balance := balances[accountID]
		txs = append(txs, domain.Transaction{
			UserID:      demoUserID,
			AccountID:   accountID,
			Amount:      amt,
			Type:        typ,
			Category:    cat,
			Date:        at.AddDate(0, 0, -daysAgo),
			Balance:     &balance,
			Merchant:    merchant,
			Description: description,
		})
	}

	// Oldest first so running balances accumulate forward in time.
	for daysAgo := 89; daysAgo >= 0; daysAgo-- {
		switch {
		case daysAgo%30 == 27:
			post("demo-gtb-current", domain.Credit, domain.CategorySalary, 450000, daysAgo, "Paystack Ltd", "Monthly salary")
			post("demo-gtb-current", domain.Debit, domain.CategoryTransferOut, 60000, daysAgo, "", "Transfer to savings")
			post("demo-gtb-savings", domain.Credit, domain.CategoryTransferIn, 60000, daysAgo, "", "Transfer from current")
		case daysAgo%30 == 20:
			post("demo-gtb-current", domain.Debit, domain.CategoryUtilities, 18500, daysAgo, "Ikeja Electric", "Prepaid electricity")
		case daysAgo%30 == 12:
			post("demo-access-savings", domain.Credit, domain.CategoryTransferIn, 35000, daysAgo, "", "Freelance payout")
		case daysAgo%30 == 5:
			post("demo-access-savings", domain.Debit, domain.CategoryEntertainment, 14000, daysAgo, "Filmhouse Cinemas", "Movie night")
			post("demo-access-savings", domain.Debit, domain.CategoryEntertainment, 9500, daysAgo, "Terra Kulture", "Dinner and show")
		}
		if daysAgo%7 == 3 {
			post("demo-gtb-current", domain.Debit, domain.CategoryFood, 12500, daysAgo, "Shoprite", "Groceries")
		}
		if daysAgo%7 == 1 {
			post("demo-gtb-current", domain.Debit, domain.CategoryTransport, 4200, daysAgo, "Bolt", "Rides")
		}
		if daysAgo%15 == 9 {
			post("demo-access-savings", domain.Debit, domain.CategoryShopping, 22000, daysAgo, "Jumia", "Online order")
		}
	}

	for i := range accounts {
		accounts[i].UserID = demoUserID
		accounts[i].Currency = "NGN"
		accounts[i].IsActive = true
		accounts[i].Balance = balances[accounts[i].AccountID]
	}
	return user, accounts, txs
}

// seedDemoData inserts the demo user once. Later runs find the user and do
// nothing.
func seedDemoData(ctx context.Context, db *sql.DB, now time.Time) error {
	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, demoUserID).Scan(&exists); err != nil {
		return fmt.Errorf("checking demo user: %w", err)
	}
	if exists {
		return nil
	}

	user, accounts, txs := demoLedger(now)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Email, user.FirstName, user.LastName,
	); err != nil {
		return fmt.Errorf("seeding demo user: %w", err)
	}

	for _, a := range accounts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (account_id, user_id, account_name, account_number, bank_name, bank_code,
			                      account_type, balance, currency, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			a.AccountID, a.UserID, a.AccountName, a.AccountNumber, a.BankName, a.BankCode,
			a.AccountType, a.Balance, a.Currency, a.IsActive,
		); err != nil {
			return fmt.Errorf("seeding demo account %s: %w", a.AccountID, err)
		}
	}

	for _, t := range txs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, account_id, amount, type, category, date, balance, merchant, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''))`,
			t.UserID, t.AccountID, t.Amount, string(t.Type), string(t.Category), t.Date, *t.Balance,
			t.Merchant, t.Description,
		); err != nil {
			return fmt.Errorf("seeding demo transactions: %w", err)
		}
	}

	return tx.Commit()
}
