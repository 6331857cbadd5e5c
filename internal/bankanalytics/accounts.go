package bankanalytics

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/metrics"
	"finhub-analytics-backend/internal/store"
)

type AccountMetrics struct {
	AccountID      string                  `json:"accountId"`
	AccountName    string                  `json:"accountName"`
	BankName       string                  `json:"bankName"`
	AccountType    string                  `json:"accountType"`
	CurrentBalance float64                 `json:"currentBalance"`
	Metrics        domain.FinancialMetrics `json:"metrics"`
}

type AccountReport struct {
	Accounts []AccountMetrics     `json:"accounts"`
	Summary  AccountReportSummary `json:"summary"`
}

type AccountReportSummary struct {
	TotalAccounts     int    `json:"totalAccounts"`
	MostActiveAccount string `json:"mostActiveAccount"`
	TotalTransactions int    `json:"totalTransactions"`
}

// AccountAnalytics computes metrics per account, most transactions first;
// ties fall back to account id.
func (s *Service) AccountAnalytics(ctx context.Context, userID string, windowDays int) (AccountReport, error) {
	if err := metrics.ValidateRequest(userID, windowDays); err != nil {
		return AccountReport{}, err
	}
	accounts, err := s.accounts.FindAccounts(ctx, store.AccountQuery{UserID: userID})
	if err != nil {
		return AccountReport{}, err
	}

	out := make([]AccountMetrics, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelQueries)
	for i, a := range accounts {
		g.Go(func() error {
			m, err := s.calc.Compute(gctx, userID, windowDays, metrics.Filter{Account: a.AccountID})
			if err != nil {
				return err
			}
			out[i] = AccountMetrics{
				AccountID:      a.AccountID,
				AccountName:    a.AccountName,
				BankName:       a.BankName,
				AccountType:    a.AccountType,
				CurrentBalance: a.Balance.InexactFloat64(),
				Metrics:        m,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AccountReport{}, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Metrics.TransactionCount != out[j].Metrics.TransactionCount {
			return out[i].Metrics.TransactionCount > out[j].Metrics.TransactionCount
		}
		return out[i].AccountID < out[j].AccountID
	})

	summary := AccountReportSummary{TotalAccounts: len(out)}
	for _, a := range out {
		summary.TotalTransactions += a.Metrics.TransactionCount
	}
	if len(out) > 0 {
		summary.MostActiveAccount = out[0].AccountName
	}
	return AccountReport{Accounts: out, Summary: summary}, nil
}
