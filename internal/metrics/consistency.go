package metrics

import (
	"math"

	"finhub-analytics-backend/internal/domain"
)

// daysPerExpectedDeposit assumes one salary payment per 30-day period.
const daysPerExpectedDeposit = 30

// ConsistencyScore rates salary regularity on 0-100 by averaging a timing
// score and a frequency score.
//
// The timing score is 100 minus the population variance of the deposits'
// day-of-month (UTC), floored at 0. Variance above 100 is common for
// deposits that straddle a month boundary (e.g. the 1st and the 30th); the
// floor absorbs it.
func ConsistencyScore(salaryDeposits []domain.Transaction, windowDays int) float64 {
	if len(salaryDeposits) == 0 {
		return 0
	}

	expected := windowDays / daysPerExpectedDeposit
	actual := len(salaryDeposits)

	timing := math.Max(0, 100-dayOfMonthVariance(salaryDeposits))
	frequency := math.Min(100, float64(actual)/float64(max(1, expected))*100)

	return (timing + frequency) / 2
}

func dayOfMonthVariance(txs []domain.Transaction) float64 {
	n := float64(len(txs))
	mean := 0.0
	for _, t := range txs {
		mean += float64(t.Date.UTC().Day())
	}
	mean /= n

	variance := 0.0
	for _, t := range txs {
		d := float64(t.Date.UTC().Day()) - mean
		variance += d * d
	}
	return variance / n
}
