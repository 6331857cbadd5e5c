package metrics

import (
	"math"
	"testing"
	"time"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/financetest"
)

var refNow = time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC)

func TestSumByType(t *testing.T) {
	txs := financetest.NewLedger("u1", refNow).Account("a1", "GTBank").
		Credit(domain.CategorySalary, 5000, 1).
		Credit(domain.CategoryTransferIn, 250.5, 2).
		Debit(domain.CategoryFood, 1000, 3).
		Transactions()

	if got := SumByType(txs, domain.Credit).InexactFloat64(); got != 5250.5 {
		t.Errorf("credit sum = %v, want 5250.5", got)
	}
	if got := SumByType(txs, domain.Debit).InexactFloat64(); got != 1000 {
		t.Errorf("debit sum = %v, want 1000", got)
	}
	if got := SumByType(nil, domain.Debit); !got.IsZero() {
		t.Errorf("sum of nothing = %v, want 0", got)
	}
}

func TestGroupSpendingByCategory(t *testing.T) {
	txs := financetest.NewLedger("u1", refNow).Account("a1", "GTBank").
		Credit(domain.CategorySalary, 5000, 1).
		Debit(domain.CategoryFood, 1000, 2).
		Debit(domain.CategoryFood, 0.1, 2).
		Debit(domain.CategoryFood, 0.2, 2).
		Debit(domain.CategoryUtilities, 300, 3).
		Transactions()

	got := GroupSpendingByCategory(txs)
	if len(got) != 2 {
		t.Fatalf("categories = %v, want food and utilities only", got)
	}
	if _, ok := got[domain.CategorySalary]; ok {
		t.Error("credit category must not appear in spending")
	}
	if s := got[domain.CategoryFood].String(); s != "1000.3" {
		t.Errorf("food = %s, want exact 1000.3", s)
	}

	total := SumByType(txs, domain.Debit)
	sum := got[domain.CategoryFood].Add(got[domain.CategoryUtilities])
	if !sum.Equal(total) {
		t.Errorf("category sum %s != total spending %s", sum, total)
	}
}

func TestBalanceStats(t *testing.T) {
	t.Run("no snapshots", func(t *testing.T) {
		txs := financetest.NewLedger("u1", refNow).Account("a1", "GTBank").
			Debit(domain.CategoryFood, 10, 1).
			Transactions()
		s := BalanceStats(txs)
		if !s.Average.IsZero() || !s.Min.IsZero() || !s.Max.IsZero() || s.Samples != 0 {
			t.Errorf("stats = %+v, want all zero", s)
		}
	})

	t.Run("mixed", func(t *testing.T) {
		txs := financetest.NewLedger("u1", refNow).Account("a1", "GTBank").
			Debit(domain.CategoryFood, 10, 1, financetest.Balance(-50)).
			Debit(domain.CategoryFood, 10, 2).
			Credit(domain.CategorySalary, 10, 3, financetest.Balance(200)).
			Debit(domain.CategoryFood, 10, 4, financetest.Balance(150)).
			Transactions()
		s := BalanceStats(txs)
		if s.Samples != 3 {
			t.Fatalf("samples = %d, want 3", s.Samples)
		}
		if got := s.Average.InexactFloat64(); math.Abs(got-100) > 1e-9 {
			t.Errorf("average = %v, want 100", got)
		}
		if got := s.Min.InexactFloat64(); got != -50 {
			t.Errorf("min = %v, want -50", got)
		}
		if got := s.Max.InexactFloat64(); got != 200 {
			t.Errorf("max = %v, want 200", got)
		}
	})
}

func TestCountByCategory(t *testing.T) {
	txs := financetest.NewLedger("u1", refNow).Account("a1", "GTBank").
		Debit(domain.CategoryOverdraft, 10, 1).
		Debit(domain.CategoryOverdraft, 10, 2).
		Debit(domain.CategoryFees, 10, 3).
		Credit(domain.CategoryOverdraft, 10, 4).
		Transactions()

	if got := CountByCategory(txs, domain.CategoryOverdraft); got != 3 {
		t.Errorf("overdrafts = %d, want 3", got)
	}
	if got := CountByCategory(txs, domain.CategoryFees); got != 1 {
		t.Errorf("fees = %d, want 1", got)
	}
	if got := CountByCategory(txs, domain.CategoryFood); got != 0 {
		t.Errorf("food = %d, want 0", got)
	}
}

func TestConsistencyScore(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, time.January, d, 9, 0, 0, 0, time.UTC) }
	salary := func(days ...int) []domain.Transaction {
		out := make([]domain.Transaction, 0, len(days))
		for _, d := range days {
			out = append(out, domain.Transaction{Type: domain.Credit, Category: domain.CategorySalary, Date: day(d)})
		}
		return out
	}

	tests := []struct {
		name       string
		deposits   []domain.Transaction
		windowDays int
		want       float64
	}{
		{name: "no deposits", deposits: nil, windowDays: 90, want: 0},
		{name: "single deposit over 90 days", deposits: salary(1), windowDays: 90, want: (100 + 100.0/3) / 2},
		{name: "three on the same day", deposits: salary(25, 25, 25), windowDays: 90, want: 100},
		{name: "window shorter than a month", deposits: salary(5), windowDays: 10, want: 100},
		// days 1 and 30: variance 210.25 floors timing at 0
		{name: "variance above 100", deposits: salary(1, 30), windowDays: 60, want: 50},
		{name: "frequency capped", deposits: salary(10, 10, 10, 10), windowDays: 30, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConsistencyScore(tt.deposits, tt.windowDays)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConsistencyScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{2.5, 3},
		{2.49, 2},
		{-2.5, -2},
		{-2.51, -3},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
