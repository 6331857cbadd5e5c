package main

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finhub-analytics-backend/internal/analytics"
	"finhub-analytics-backend/internal/bankanalytics"
	"finhub-analytics-backend/internal/domain"
)

// CreateUserRequest registers a user. The id is generated server-side.
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=255"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
}

// CreateAccountRequest connects a bank account to an existing user.
// String limits follow the accounts table columns.
type CreateAccountRequest struct {
	UserID        string          `json:"userId" binding:"required"`
	AccountID     string          `json:"accountId" binding:"max=64"`
	AccountName   string          `json:"accountName" binding:"required,max=255"`
	AccountNumber string          `json:"accountNumber" binding:"max=20"`
	BankName      string          `json:"bankName" binding:"required,max=100"`
	BankCode      string          `json:"bankCode" binding:"max=10"`
	AccountType   string          `json:"accountType" binding:"max=20"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency" binding:"max=3"`
}

// CreateTransactionRequest records one movement on an account.
type CreateTransactionRequest struct {
	UserID      string           `json:"userId" binding:"required"`
	AccountID   string           `json:"accountId" binding:"required,max=64"`
	Amount      decimal.Decimal  `json:"amount"`
	Type        string           `json:"type" binding:"required"`
	Category    string           `json:"category"`
	Date        *time.Time       `json:"date"`
	Balance     *decimal.Decimal `json:"balance"`
	Merchant    string           `json:"merchant" binding:"max=255"`
	Description string           `json:"description"`
}

// maxMoney is the smallest magnitude a NUMERIC(15,2) column cannot store.
var maxMoney = decimal.New(1, 13)

// checkMoney rejects amounts that would overflow the money columns once
// rounded to kobo.
func checkMoney(field string, d decimal.Decimal) error {
	if d.Round(2).Abs().GreaterThanOrEqual(maxMoney) {
		return domain.NewValidationError(field, field+" must be below 10000000000000")
	}
	return nil
}

// SavingsGoalRequest is the body of POST /api/advanced/savings-goal.
// TargetDate accepts YYYY-MM-DD or RFC 3339.
type SavingsGoalRequest struct {
	TargetAmount *float64 `json:"targetAmount"`
	TargetDate   string   `json:"targetDate"`
}

func (r SavingsGoalRequest) goal() (analytics.GoalRequest, error) {
	if r.TargetAmount == nil {
		return analytics.GoalRequest{}, domain.NewValidationError("targetAmount", "targetAmount and targetDate are required")
	}
	raw := strings.TrimSpace(r.TargetDate)
	if raw == "" {
		return analytics.GoalRequest{}, domain.NewValidationError("targetDate", "targetAmount and targetDate are required")
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		if date, err = time.Parse(time.RFC3339, raw); err != nil {
			return analytics.GoalRequest{}, domain.NewValidationError("targetDate", "targetDate must be YYYY-MM-DD or RFC 3339")
		}
	}
	return analytics.GoalRequest{TargetAmount: *r.TargetAmount, TargetDate: date}, nil
}

// Response is the envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CategoryInfo describes a transaction category for clients.
type CategoryInfo struct {
	Name  domain.Category `json:"name"`
	Type  string          `json:"type"`
	Color string          `json:"color"`
}

var categoryStyles = map[domain.Category]struct{ kind, color string }{
	domain.CategorySalary:        {"income", "#27ae60"},
	domain.CategoryTransferIn:    {"income", "#16a085"},
	domain.CategoryTransferOut:   {"transfer", "#7f8c8d"},
	domain.CategoryFood:          {"expense", "#e74c3c"},
	domain.CategoryTransport:     {"expense", "#3498db"},
	domain.CategoryUtilities:     {"expense", "#f39c12"},
	domain.CategoryEntertainment: {"expense", "#9b59b6"},
	domain.CategoryShopping:      {"expense", "#e67e22"},
	domain.CategoryHealthcare:    {"expense", "#1abc9c"},
	domain.CategoryEducation:     {"expense", "#2980b9"},
	domain.CategorySavings:       {"transfer", "#2ecc71"},
	domain.CategoryInvestment:    {"transfer", "#8e44ad"},
	domain.CategoryFees:          {"expense", "#c0392b"},
	domain.CategoryOverdraft:     {"expense", "#d35400"},
}

// categoryCatalog lists every category in declaration order.
func categoryCatalog() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		style, ok := categoryStyles[c]
		if !ok {
			style.kind, style.color = "expense", "#667eea"
		}
		out = append(out, CategoryInfo{Name: c, Type: style.kind, Color: style.color})
	}
	return out
}

// FilterEcho reports the filters a bank insight was computed with.
type FilterEcho struct {
	Bank    *string `json:"bank"`
	Account *string `json:"account"`
	Days    int     `json:"days"`
}

type BankInsightsResponse struct {
	Metrics domain.FinancialMetrics `json:"metrics"`
	Filters FilterEcho              `json:"filters"`
}

type SpendingResponse struct {
	SpendingByCategory map[domain.Category]float64 `json:"spendingByCategory"`
	TotalSpending      float64                     `json:"totalSpending"`
	TotalIncome        float64                     `json:"totalIncome"`
}

type TransactionsResponse struct {
	Count        int                  `json:"count"`
	Transactions []domain.Transaction `json:"transactions"`
}

type CashflowResponse struct {
	analytics.CashflowForecast
	Warning string `json:"warning,omitempty"`
}

type SavingsResponse struct {
	analytics.SavingsPlan
	Suggestion string `json:"suggestion"`
}

type SavingsGoalResponse struct {
	analytics.GoalAssessment
	Motivation string `json:"motivation"`
}

type EventSpendingResponse struct {
	analytics.EventReport
	Insight string `json:"insight"`
}

type SpendingPatternsResponse struct {
	bankanalytics.SpendingPatterns
	Insights []string `json:"insights"`
}
