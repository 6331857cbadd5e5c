package bankanalytics

import (
	"context"
	"sort"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/metrics"
)

// NoCategory marks a bank without any spending.
const NoCategory domain.Category = "none"

type SpendingPattern struct {
	BankName            string                      `json:"bankName"`
	TotalSpending       float64                     `json:"totalSpending"`
	SpendingByCategory  map[domain.Category]float64 `json:"spendingByCategory"`
	SpendingPercentages map[domain.Category]int     `json:"spendingPercentages"`
	TopSpendingCategory domain.Category             `json:"topSpendingCategory"`
	TopSpendingAmount   float64                     `json:"topSpendingAmount"`
}

// CrossBankFacts backs the two narrative lines of the pattern report.
// HasTopCategory is false when no bank recorded any spending by category.
type CrossBankFacts struct {
	HighestSpendingBank   string          `json:"highestSpendingBank"`
	HighestSpendingAmount float64         `json:"highestSpendingAmount"`
	HasTopCategory        bool            `json:"-"`
	TopCategory           domain.Category `json:"topCategory,omitempty"`
	TopCategoryAmount     float64         `json:"topCategoryAmount,omitempty"`
}

type SpendingPatterns struct {
	Patterns []SpendingPattern `json:"patterns"`
	Facts    *CrossBankFacts   `json:"facts,omitempty"`
}

// SpendingPatterns reports each bank's category mix in the comparison's
// order (highest spending first).
func (s *Service) SpendingPatterns(ctx context.Context, userID string, windowDays int) (SpendingPatterns, error) {
	cmp, err := s.Comparison(ctx, userID, windowDays)
	if err != nil {
		return SpendingPatterns{}, err
	}
	return patterns(cmp.Banks), nil
}

func patterns(banks []BankMetrics) SpendingPatterns {
	out := SpendingPatterns{Patterns: make([]SpendingPattern, 0, len(banks))}
	for _, b := range banks {
		spending := b.Metrics.SpendingByCategory
		total := b.Metrics.TotalSpending

		pct := make(map[domain.Category]int, len(spending))
		for cat, amount := range spending {
			if total > 0 {
				pct[cat] = int(metrics.Round(amount / total * 100))
			} else {
				pct[cat] = 0
			}
		}

		top, topAmount := topCategory(spending)
		out.Patterns = append(out.Patterns, SpendingPattern{
			BankName:            b.BankName,
			TotalSpending:       total,
			SpendingByCategory:  spending,
			SpendingPercentages: pct,
			TopSpendingCategory: top,
			TopSpendingAmount:   topAmount,
		})
	}
	if len(out.Patterns) > 0 {
		out.Facts = crossBankFacts(out.Patterns)
	}
	return out
}

// topCategory picks the largest amount; equal amounts resolve to the
// lexically smallest category.
func topCategory(spending map[domain.Category]float64) (domain.Category, float64) {
	if len(spending) == 0 {
		return NoCategory, 0
	}
	cats := make([]domain.Category, 0, len(spending))
	for cat := range spending {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	best := cats[0]
	for _, cat := range cats[1:] {
		if spending[cat] > spending[best] {
			best = cat
		}
	}
	return best, spending[best]
}

func crossBankFacts(ps []SpendingPattern) *CrossBankFacts {
	highest := ps[0]
	for _, p := range ps[1:] {
		if p.TotalSpending > highest.TotalSpending {
			highest = p
		}
	}
	facts := &CrossBankFacts{
		HighestSpendingBank:   highest.BankName,
		HighestSpendingAmount: highest.TotalSpending,
	}

	overall := make(map[domain.Category]float64)
	for _, p := range ps {
		for cat, amount := range p.SpendingByCategory {
			overall[cat] += amount
		}
	}
	if len(overall) > 0 {
		facts.HasTopCategory = true
		facts.TopCategory, facts.TopCategoryAmount = topCategory(overall)
	}
	return facts
}
