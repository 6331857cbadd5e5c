package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tells money in (credit) from money out (debit).
type TransactionType string

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

// ParseTransactionType accepts "credit" or "debit" in any casing.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case Credit, Debit:
		return t, nil
	default:
		return "", NewValidationError("type", fmt.Sprintf("unknown transaction type %q", s))
	}
}

// Category tags the purpose of a transaction.
type Category string

const (
	CategorySalary        Category = "salary"
	CategoryTransferIn    Category = "transfer_in"
	CategoryTransferOut   Category = "transfer_out"
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryUtilities     Category = "utilities"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryHealthcare    Category = "healthcare"
	CategoryEducation     Category = "education"
	CategorySavings       Category = "savings"
	CategoryInvestment    Category = "investment"
	CategoryFees          Category = "fees"
	CategoryOverdraft     Category = "overdraft"
	CategoryOther         Category = "other"
)

// Categories lists every known category in declaration order.
var Categories = []Category{
	CategorySalary, CategoryTransferIn, CategoryTransferOut, CategoryFood, CategoryTransport,
	CategoryUtilities, CategoryEntertainment, CategoryShopping, CategoryHealthcare, CategoryEducation,
	CategorySavings, CategoryInvestment, CategoryFees, CategoryOverdraft, CategoryOther,
}

// ParseCategory maps a raw string onto a known category. Blank input means "other".
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryOther, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", NewValidationError("category", fmt.Sprintf("unknown category %q", s))
}

// Transaction is a single synced bank movement. Amount is never negative;
// the direction lives in Type.
type Transaction struct {
	ID          int64            `json:"id,omitempty"`
	UserID      string           `json:"userId"`
	AccountID   string           `json:"accountId"`
	Amount      decimal.Decimal  `json:"amount"`
	Type        TransactionType  `json:"type"`
	Category    Category         `json:"category"`
	Date        time.Time        `json:"date"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	Merchant    string           `json:"merchant,omitempty"`
	Description string           `json:"description,omitempty"`
}

// IsCredit reports whether the transaction moved money into the account.
func (t Transaction) IsCredit() bool { return t.Type == Credit }

// IsDebit reports whether the transaction moved money out of the account.
func (t Transaction) IsDebit() bool { return t.Type == Debit }
