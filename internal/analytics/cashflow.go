package analytics

import (
	"math"
	"time"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/metrics"
)

// RiskLevel grades the short-term cashflow outlook.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

const billLeadTime = 7 * 24 * time.Hour

// CashflowForecast predicts the balance a week out.
type CashflowForecast struct {
	RiskLevel           RiskLevel `json:"riskLevel"`
	PredictedBalance    float64   `json:"predictedBalance"`
	DaysUntilLowBalance *int      `json:"daysUntilLowBalance"`
	UpcomingBills       []Bill    `json:"upcomingBills"`
}

// Bill is an expected recurring payment.
type Bill struct {
	Merchant    string    `json:"merchant"`
	Amount      float64   `json:"amount"`
	NextDueDate time.Time `json:"nextDueDate"`
}

// Cashflow subtracts a week of average spending from the average balance and
// grades the result against monthly income.
func Cashflow(m domain.FinancialMetrics, windowDays int, now time.Time) CashflowForecast {
	monthlyIncome := monthly(m.TotalIncome, windowDays)
	monthlySpending := monthly(m.TotalSpending, windowDays)

	predicted := m.AverageBalance - monthlySpending/4

	level := RiskHigh
	switch {
	case predicted > monthlyIncome*0.15:
		level = RiskLow
	case predicted > monthlyIncome*0.10:
		level = RiskMedium
	}

	var daysUntilLow *int
	// without spending the balance never drains
	if predicted < monthlyIncome*0.10 && monthlySpending > 0 {
		days := int(math.Max(1, math.Floor((m.AverageBalance-monthlyIncome*0.10)/(monthlySpending/daysPerMonth))))
		daysUntilLow = &days
	}

	return CashflowForecast{
		RiskLevel:           level,
		PredictedBalance:    metrics.Round(predicted),
		DaysUntilLowBalance: daysUntilLow,
		UpcomingBills:       upcomingBills(m, now),
	}
}

func upcomingBills(m domain.FinancialMetrics, now time.Time) []Bill {
	bills := make([]Bill, 0, 1)
	if utilities := m.SpendingByCategory[domain.CategoryUtilities]; utilities > 0 {
		bills = append(bills, Bill{
			Merchant:    "Power Company",
			Amount:      metrics.Round(utilities / 3),
			NextDueDate: now.Add(billLeadTime).UTC(),
		})
	}
	return bills
}
