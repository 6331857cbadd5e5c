// Package bankanalytics compares a user's banks and accounts against each
// other. Per-bank and per-account metrics are computed concurrently; every
// result is sorted with an explicit tie-break so completion order never
// shows through.
package bankanalytics

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/metrics"
	"finhub-analytics-backend/internal/store"
)

// maxParallelQueries bounds the store fan-out of one request.
const maxParallelQueries = 8

type Service struct {
	calc     *metrics.Calculator
	accounts store.AccountStore
}

func NewService(calc *metrics.Calculator, accounts store.AccountStore) *Service {
	return &Service{calc: calc, accounts: accounts}
}

// AccountSummary is the part of an account reported next to bank metrics.
type AccountSummary struct {
	AccountID   string  `json:"accountId"`
	AccountName string  `json:"accountName"`
	AccountType string  `json:"accountType"`
	Balance     float64 `json:"balance"`
}

type BankMetrics struct {
	BankName     string                  `json:"bankName"`
	AccountCount int                     `json:"accountCount"`
	Accounts     []AccountSummary        `json:"accounts"`
	Metrics      domain.FinancialMetrics `json:"metrics"`
}

type ComparisonSummary struct {
	TotalBanks     int     `json:"totalBanks"`
	TotalAccounts  int     `json:"totalAccounts"`
	MostActiveBank string  `json:"mostActiveBank"`
	TotalBalance   float64 `json:"totalBalance"`
}

// Comparison lists banks by total spending, highest first.
type Comparison struct {
	Banks   []BankMetrics     `json:"banks"`
	Summary ComparisonSummary `json:"summary"`
}

// Comparison computes metrics for every bank the user holds accounts at.
// Each bank's figures come from one Compute call filtered by its name.
func (s *Service) Comparison(ctx context.Context, userID string, windowDays int) (Comparison, error) {
	if err := metrics.ValidateRequest(userID, windowDays); err != nil {
		return Comparison{}, err
	}
	accounts, err := s.accounts.FindAccounts(ctx, store.AccountQuery{UserID: userID})
	if err != nil {
		return Comparison{}, err
	}

	// A blank bank name cannot be used as a filter: it would match every
	// account. Such accounts stay out of the per-bank figures.
	byBank := make(map[string][]domain.Account)
	for _, a := range accounts {
		if strings.TrimSpace(a.BankName) == "" {
			continue
		}
		byBank[a.BankName] = append(byBank[a.BankName], a)
	}
	names := make([]string, 0, len(byBank))
	for name := range byBank {
		names = append(names, name)
	}
	sort.Strings(names)

	banks := make([]BankMetrics, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQueries)
	for i, name := range names {
		g.Go(func() error {
			m, err := s.calc.Compute(gctx, userID, windowDays, metrics.Filter{Bank: name})
			if err != nil {
				return err
			}
			banks[i] = BankMetrics{
				BankName:     name,
				AccountCount: len(byBank[name]),
				Accounts:     summarize(byBank[name]),
				Metrics:      m,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Comparison{}, err
	}

	// names are already ascending, so a stable sort keeps ties alphabetical
	sort.SliceStable(banks, func(i, j int) bool {
		return banks[i].Metrics.TotalSpending > banks[j].Metrics.TotalSpending
	})

	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	summary := ComparisonSummary{
		TotalBanks:    len(banks),
		TotalAccounts: len(accounts),
		TotalBalance:  total.InexactFloat64(),
	}
	if len(banks) > 0 {
		summary.MostActiveBank = banks[0].BankName
	}
	return Comparison{Banks: banks, Summary: summary}, nil
}

func summarize(accounts []domain.Account) []AccountSummary {
	out := make([]AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountSummary{
			AccountID:   a.AccountID,
			AccountName: a.AccountName,
			AccountType: a.AccountType,
			Balance:     a.Balance.InexactFloat64(),
		})
	}
	return out
}

// ListBanks returns the distinct bank names of the user's accounts, sorted.
func (s *Service) ListBanks(ctx context.Context, userID string) ([]string, error) {
	if err := metrics.ValidateRequest(userID, 1); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.FindAccounts(ctx, store.AccountQuery{UserID: userID})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, a := range accounts {
		if strings.TrimSpace(a.BankName) == "" {
			continue
		}
		if !seen[a.BankName] {
			seen[a.BankName] = true
			names = append(names, a.BankName)
		}
	}
	sort.Strings(names)
	return names, nil
}
