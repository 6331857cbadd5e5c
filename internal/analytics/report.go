package analytics

import (
	"context"

	"finhub-analytics-backend/internal/classify"
	"finhub-analytics-backend/internal/metrics"
)

// FullReport bundles every analytics section for one window.
type FullReport struct {
	Health   HealthReport     `json:"healthScore"`
	Cashflow CashflowForecast `json:"cashflow"`
	Savings  SavingsPlan      `json:"savings"`
	Events   EventReport      `json:"events"`
	Summary  ReportSummary    `json:"summary"`
}

type ReportSummary struct {
	TotalIncome    float64 `json:"totalIncome"`
	TotalSpending  float64 `json:"totalSpending"`
	SavingsRatio   float64 `json:"savingsRatio"`
	AverageBalance float64 `json:"averageBalance"`
	CreditScore    int     `json:"creditScore"`
}

// FullReport reads the window once and derives every section from that
// single set of transactions.
func (s *Service) FullReport(ctx context.Context, userID string, windowDays int) (FullReport, error) {
	txs, err := s.calc.Transactions(ctx, userID, windowDays, metrics.Filter{})
	if err != nil {
		return FullReport{}, err
	}
	m := metrics.Aggregate(txs, windowDays)

	return FullReport{
		Health:   Health(m),
		Cashflow: Cashflow(m, windowDays, s.calc.Now()),
		Savings:  Savings(m, windowDays),
		Events:   DetectEvents(txs),
		Summary: ReportSummary{
			TotalIncome:    m.TotalIncome,
			TotalSpending:  m.TotalSpending,
			SavingsRatio:   m.SavingsRatio,
			AverageBalance: m.AverageBalance,
			CreditScore:    classify.CreditScore(m),
		},
	}, nil
}
