// Package metrics turns a user's transaction history into FinancialMetrics.
//
// The primitives in this file are pure functions over an ordered slice of
// transactions; money is summed in decimal and only converted to float64
// once the aggregate is built.
package metrics

import (
	"math"

	"github.com/shopspring/decimal"

	"finhub-analytics-backend/internal/domain"
)

// SumByType adds up the amount of every transaction of the given type.
func SumByType(txs []domain.Transaction, typ domain.TransactionType) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		if t.Type == typ {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}

// GroupSpendingByCategory sums debit amounts per category. Categories with no
// debits are absent from the result.
func GroupSpendingByCategory(txs []domain.Transaction) map[domain.Category]decimal.Decimal {
	out := make(map[domain.Category]decimal.Decimal)
	for _, t := range txs {
		if !t.IsDebit() {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// BalanceSummary holds statistics over balance snapshots.
type BalanceSummary struct {
	Average decimal.Decimal
	Min     decimal.Decimal
	Max     decimal.Decimal
	Samples int
}

// BalanceStats computes average/min/max over transactions that carry a
// balance snapshot. With no snapshots every field is zero.
func BalanceStats(txs []domain.Transaction) BalanceSummary {
	var s BalanceSummary
	sum := decimal.Zero
	for _, t := range txs {
		if t.Balance == nil {
			continue
		}
		b := *t.Balance
		if s.Samples == 0 || b.LessThan(s.Min) {
			s.Min = b
		}
		if s.Samples == 0 || b.GreaterThan(s.Max) {
			s.Max = b
		}
		sum = sum.Add(b)
		s.Samples++
	}
	if s.Samples > 0 {
		s.Average = sum.Div(decimal.NewFromInt(int64(s.Samples)))
	}
	return s
}

// CountByCategory counts transactions in category regardless of type.
func CountByCategory(txs []domain.Transaction, cat domain.Category) int {
	n := 0
	for _, t := range txs {
		if t.Category == cat {
			n++
		}
	}
	return n
}

// SalaryDeposits returns the credit transactions tagged salary.
func SalaryDeposits(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0)
	for _, t := range txs {
		if t.IsCredit() && t.Category == domain.CategorySalary {
			out = append(out, t)
		}
	}
	return out
}

// CountIrregularDeposits counts credits that are not salary.
func CountIrregularDeposits(txs []domain.Transaction) int {
	n := 0
	for _, t := range txs {
		if t.IsCredit() && t.Category != domain.CategorySalary {
			n++
		}
	}
	return n
}

// Round rounds half toward positive infinity, so -2.5 becomes -2.
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}
