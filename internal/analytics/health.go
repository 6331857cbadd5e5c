package analytics

import (
	"fmt"
	"math"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/metrics"
)

const maxHealthInsights = 3

// HealthReport scores overall financial health on 0-100.
type HealthReport struct {
	Score    int           `json:"healthScore"`
	Level    string        `json:"scoreLevel"`
	Insights []string      `json:"insights"`
	Metrics  HealthFactors `json:"metrics"`
}

// HealthFactors echoes the metrics the score was built from.
type HealthFactors struct {
	SavingsRatio     float64 `json:"savingsRatio"`
	ConsistencyScore float64 `json:"consistencyScore"`
	AverageBalance   float64 `json:"averageBalance"`
	Overdrafts       int     `json:"overdrafts"`
	LateFees         int     `json:"lateFees"`
}

// Health computes the health score and its tips from metrics.
func Health(m domain.FinancialMetrics) HealthReport {
	score := savingsPoints(m.SavingsRatio)
	score += math.Min(25, m.ConsistencyScore*0.25)
	score -= math.Min(20, float64(m.Overdrafts)*5)
	score -= math.Min(10, float64(m.LateFees)*2)
	score += balancePoints(m.AverageBalance, m.TotalIncome)
	score += depositPoints(m.RegularDeposits)

	final := int(math.Max(0, math.Min(100, metrics.Round(score))))

	return HealthReport{
		Score:    final,
		Level:    healthLevel(final),
		Insights: healthInsights(m),
		Metrics: HealthFactors{
			SavingsRatio:     m.SavingsRatio,
			ConsistencyScore: m.ConsistencyScore,
			AverageBalance:   m.AverageBalance,
			Overdrafts:       m.Overdrafts,
			LateFees:         m.LateFees,
		},
	}
}

func savingsPoints(ratio float64) float64 {
	switch {
	case ratio >= 20:
		return 40
	case ratio >= 15:
		return 30
	case ratio >= 10:
		return 20
	case ratio >= 5:
		return 10
	default:
		return 0
	}
}

// balancePoints compares the average balance against window income.
func balancePoints(avgBalance, income float64) float64 {
	switch {
	case avgBalance > income*0.5:
		return 25
	case avgBalance > income*0.3:
		return 20
	case avgBalance > income*0.1:
		return 15
	case avgBalance > 0:
		return 10
	default:
		return 0
	}
}

func depositPoints(regular int) float64 {
	switch {
	case regular >= 3:
		return 10
	case regular >= 2:
		return 7
	case regular >= 1:
		return 5
	default:
		return 0
	}
}

func healthLevel(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Needs Work"
	}
}

func healthInsights(m domain.FinancialMetrics) []string {
	insights := make([]string, 0, maxHealthInsights)
	if m.SavingsRatio < 20 {
		insights = append(insights, fmt.Sprintf("Try to save at least 20%% of your income. You're currently saving %.1f%%.", m.SavingsRatio))
	}
	if m.Overdrafts > 0 {
		insights = append(insights, fmt.Sprintf("Avoid overdrafts by setting up balance alerts. You had %d overdrafts recently.", m.Overdrafts))
	}
	if m.ConsistencyScore < 70 {
		insights = append(insights, "Build more consistent income patterns for better financial stability.")
	}
	if len(insights) == 0 {
		insights = append(insights, "Great job! Keep maintaining your excellent financial habits.")
	}
	if len(insights) > maxHealthInsights {
		insights = insights[:maxHealthInsights]
	}
	return insights
}
