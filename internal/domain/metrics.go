package domain

import (
	"time"

	"github.com/google/uuid"
)

// FinancialMetrics is derived from a user's transactions over a trailing
// window. It has no identity and is recomputed on every request.
type FinancialMetrics struct {
	TotalIncome        float64              `json:"totalIncome"`
	TotalSpending      float64              `json:"totalSpending"`
	SavingsAmount      float64              `json:"savingsAmount"`
	SavingsRatio       float64              `json:"savingsRatio"`
	SpendingByCategory map[Category]float64 `json:"spendingByCategory"`
	AverageBalance     float64              `json:"averageBalance"`
	MinBalance         float64              `json:"minBalance"`
	MaxBalance         float64              `json:"maxBalance"`
	Overdrafts         int                  `json:"overdrafts"`
	LateFees           int                  `json:"lateFees"`
	RegularDeposits    int                  `json:"regularDeposits"`
	IrregularDeposits  int                  `json:"irregularDeposits"`
	ConsistencyScore   float64              `json:"consistencyScore"`
	TransactionCount   int                  `json:"transactionCount"`
}

// EmptyMetrics is the canonical all-zero value returned when there is
// nothing to aggregate.
func EmptyMetrics() FinancialMetrics {
	return FinancialMetrics{SpendingByCategory: map[Category]float64{}}
}

// Personality is the rule-based money personality label.
type Personality string

const (
	Planner    Personality = "Planner"
	Spender    Personality = "Spender"
	Minimalist Personality = "Minimalist"
	Balancer   Personality = "Balancer"
	// PersonalityUnknown marks users that were never analyzed.
	PersonalityUnknown Personality = "Unknown"
)

// CreditScoreFactors records the inputs that drove a credit score.
type CreditScoreFactors struct {
	SavingsBehavior     float64 `json:"savingsBehavior"`
	SpendingConsistency float64 `json:"spendingConsistency"`
	OverdraftRisk       float64 `json:"overdraftRisk"`
	IncomeStability     float64 `json:"incomeStability"`
}

// InsightPeriod buckets stored snapshots.
type InsightPeriod string

const (
	PeriodWeekly    InsightPeriod = "weekly"
	PeriodMonthly   InsightPeriod = "monthly"
	PeriodQuarterly InsightPeriod = "quarterly"
)

// FinancialInsight is a historical snapshot of metrics and their
// classification, written by the insights endpoint and the nightly job.
type FinancialInsight struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             string             `json:"userId"`
	Period             InsightPeriod      `json:"period"`
	Metrics            FinancialMetrics   `json:"metrics"`
	MoneyPersonality   Personality        `json:"moneyPersonality"`
	EmotionalInsight   string             `json:"emotionalInsight"`
	CreditScore        int                `json:"creditScore"`
	CreditScoreFactors CreditScoreFactors `json:"creditScoreFactors"`
	GeneratedAt        time.Time          `json:"generatedAt"`
}
