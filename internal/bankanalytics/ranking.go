package bankanalytics

import (
	"context"
	"math"
	"sort"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/metrics"
)

type RankingMetrics struct {
	SavingsRatio     float64 `json:"savingsRatio"`
	TransactionCount int     `json:"transactionCount"`
	AverageBalance   float64 `json:"averageBalance"`
	Fees             int     `json:"fees"`
}

type BankRank struct {
	BankName         string         `json:"bankName"`
	PerformanceScore int            `json:"performanceScore"`
	Metrics          RankingMetrics `json:"metrics"`
	AccountCount     int            `json:"accountCount"`
}

type Ranking struct {
	Rankings           []BankRank `json:"rankings"`
	BestPerformingBank string     `json:"bestPerformingBank"`
	AverageScore       int        `json:"averageScore"`
}

// PerformanceScore weighs savings, activity, balance stability and fees;
// each part is capped so the total stays within 0-100 for sane inputs.
func PerformanceScore(m domain.FinancialMetrics) int {
	score := math.Min(40, m.SavingsRatio)
	score += math.Min(20, float64(m.TransactionCount)/10)
	if m.AverageBalance > 0 {
		score += math.Min(20, m.MinBalance/m.AverageBalance*20)
	}
	score += math.Max(0, 20-float64(m.LateFees)*2)
	return int(metrics.Round(score))
}

// Ranking orders banks by performance score, highest first, ties by name.
func (s *Service) Ranking(ctx context.Context, userID string, windowDays int) (Ranking, error) {
	cmp, err := s.Comparison(ctx, userID, windowDays)
	if err != nil {
		return Ranking{}, err
	}
	return rank(cmp.Banks), nil
}

func rank(banks []BankMetrics) Ranking {
	rankings := make([]BankRank, 0, len(banks))
	for _, b := range banks {
		rankings = append(rankings, BankRank{
			BankName:         b.BankName,
			PerformanceScore: PerformanceScore(b.Metrics),
			Metrics: RankingMetrics{
				SavingsRatio:     b.Metrics.SavingsRatio,
				TransactionCount: b.Metrics.TransactionCount,
				AverageBalance:   b.Metrics.AverageBalance,
				Fees:             b.Metrics.LateFees,
			},
			AccountCount: b.AccountCount,
		})
	}
	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].PerformanceScore != rankings[j].PerformanceScore {
			return rankings[i].PerformanceScore > rankings[j].PerformanceScore
		}
		return rankings[i].BankName < rankings[j].BankName
	})

	out := Ranking{Rankings: rankings}
	if len(rankings) > 0 {
		out.BestPerformingBank = rankings[0].BankName
		sum := 0
		for _, r := range rankings {
			sum += r.PerformanceScore
		}
		out.AverageScore = int(metrics.Round(float64(sum) / float64(len(rankings))))
	}
	return out
}
