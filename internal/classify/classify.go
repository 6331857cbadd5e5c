// Package classify labels and scores FinancialMetrics. Both functions are
// pure and total.
package classify

import (
	"math"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/metrics"
)

const (
	minCreditScore = 300
	maxCreditScore = 850
)

// DetectPersonality evaluates an ordered decision list; the first rule that
// matches wins.
func DetectPersonality(m domain.FinancialMetrics) domain.Personality {
	switch {
	case m.SavingsRatio > 20 && m.ConsistencyScore > 70:
		return domain.Planner
	case EntertainmentShare(m) > 20 || m.Overdrafts > 2:
		return domain.Spender
	case m.TotalSpending < 0.6*m.TotalIncome:
		return domain.Minimalist
	default:
		return domain.Balancer
	}
}

// EntertainmentShare is entertainment spend as a percentage of total spend,
// 0 when nothing was spent.
func EntertainmentShare(m domain.FinancialMetrics) float64 {
	if m.TotalSpending == 0 {
		return 0
	}
	return m.SpendingByCategory[domain.CategoryEntertainment] / m.TotalSpending * 100
}

// CreditScore returns a score in [300, 850].
func CreditScore(m domain.FinancialMetrics) int {
	score := float64(minCreditScore)

	score += math.Min(200, m.SavingsRatio*4)
	score += math.Min(150, m.ConsistencyScore*1.5)
	score -= math.Min(100, float64(m.Overdrafts)*25)
	score -= math.Min(50, float64(m.LateFees)*10)

	if m.TotalIncome > 0 {
		// balance measured against one twelfth of window income
		balanceRatio := m.AverageBalance / (m.TotalIncome / 12)
		score += math.Min(100, balanceRatio*50)
	}

	score += math.Min(100, m.ConsistencyScore)

	rounded := metrics.Round(score)
	return int(math.Max(minCreditScore, math.Min(maxCreditScore, rounded)))
}

// CreditFactors breaks a score into the inputs stored with each snapshot.
func CreditFactors(m domain.FinancialMetrics) domain.CreditScoreFactors {
	stability := 0.0
	if deposits := m.RegularDeposits + m.IrregularDeposits; deposits > 0 {
		stability = float64(m.RegularDeposits) / float64(deposits) * 100
	}
	return domain.CreditScoreFactors{
		SavingsBehavior:     m.SavingsRatio,
		SpendingConsistency: m.ConsistencyScore,
		OverdraftRisk:       math.Max(0, 100-float64(m.Overdrafts)*20),
		IncomeStability:     stability,
	}
}
