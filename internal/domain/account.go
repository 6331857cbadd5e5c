package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a connected bank account. Analytics only reads BankName and
// AccountID to build filters; the remaining fields are reported back as-is.
type Account struct {
	AccountID     string          `json:"accountId"`
	UserID        string          `json:"userId"`
	AccountName   string          `json:"accountName"`
	AccountNumber string          `json:"accountNumber,omitempty"`
	BankName      string          `json:"bankName"`
	BankCode      string          `json:"bankCode,omitempty"`
	AccountType   string          `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	IsActive      bool            `json:"isActive"`
	ConnectedAt   time.Time       `json:"connectedAt"`
}

// Account types accepted on registration.
const (
	AccountTypeSavings      = "savings"
	AccountTypeCurrent      = "current"
	AccountTypeFixedDeposit = "fixed_deposit"
	AccountTypeCredit       = "credit"
)

// User is the owner of accounts and the subject of every analytics call.
type User struct {
	ID               string      `json:"id"`
	Email            string      `json:"email"`
	FirstName        string      `json:"firstName"`
	LastName         string      `json:"lastName"`
	MoneyPersonality Personality `json:"moneyPersonality"`
	CreditScore      *int        `json:"creditScore,omitempty"`
	LastAnalyzedAt   *time.Time  `json:"lastAnalyzedAt,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
}
