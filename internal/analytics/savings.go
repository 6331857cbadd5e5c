package analytics

import (
	"math"
	"time"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/metrics"
)

// savingsShare of income left after fixed expenses is suggested for saving.
const savingsShare = 0.5

// goalHeadroom caps a goal at this share of the monthly surplus.
const goalHeadroom = 0.8

// SavingsPlan suggests how much to put aside.
type SavingsPlan struct {
	Daily     float64          `json:"dailySavings"`
	Weekly    float64          `json:"weeklySavings"`
	Monthly   float64          `json:"monthlySavings"`
	Breakdown SavingsBreakdown `json:"breakdown"`

	// CurrentRatio is the savings ratio of the window the plan was built from.
	CurrentRatio float64 `json:"currentSavingsRatio"`
}

type SavingsBreakdown struct {
	FixedExpenses        map[string]float64 `json:"fixedExpenses"`
	SavingsTarget        float64            `json:"savingsTarget"`
	RemainingForFlexible float64            `json:"remainingForFlexible"`
}

// Savings treats utilities as the only fixed expense and suggests saving
// half of what remains of monthly income.
func Savings(m domain.FinancialMetrics, windowDays int) SavingsPlan {
	monthlyIncome := monthly(m.TotalIncome, windowDays)

	fixed := make(map[string]float64)
	if utilities := m.SpendingByCategory[domain.CategoryUtilities]; utilities > 0 {
		fixed[string(domain.CategoryUtilities)] = metrics.Round(monthly(utilities, windowDays))
	}
	totalFixed := 0.0
	for _, v := range fixed {
		totalFixed += v
	}

	available := monthlyIncome - totalFixed
	monthlySavings := metrics.Round(available * savingsShare)

	return SavingsPlan{
		Daily:   metrics.Round(monthlySavings / daysPerMonth),
		Weekly:  metrics.Round(monthlySavings / 4),
		Monthly: monthlySavings,
		Breakdown: SavingsBreakdown{
			FixedExpenses:        fixed,
			SavingsTarget:        monthlySavings,
			RemainingForFlexible: metrics.Round(available - monthlySavings),
		},
		CurrentRatio: m.SavingsRatio,
	}
}

// GoalRequest is a target amount to reach by a date.
type GoalRequest struct {
	TargetAmount float64
	TargetDate   time.Time
}

func (g GoalRequest) daysRemaining(now time.Time) (int, error) {
	if math.IsNaN(g.TargetAmount) || math.IsInf(g.TargetAmount, 0) || g.TargetAmount <= 0 {
		return 0, domain.NewValidationError("targetAmount", "target amount must be a positive number")
	}
	if g.TargetDate.IsZero() {
		return 0, domain.NewValidationError("targetDate", "target date is required")
	}
	days := int(math.Ceil(float64(g.TargetDate.Sub(now)) / float64(24*time.Hour)))
	if days <= 0 {
		return 0, domain.NewValidationError("targetDate", "target date must be in the future")
	}
	return days, nil
}

// GoalAssessment reports the contribution a goal needs and whether the
// current surplus can carry it.
type GoalAssessment struct {
	TargetAmount    float64 `json:"targetAmount"`
	TargetDate      string  `json:"targetDate"`
	DaysRemaining   int     `json:"daysRemaining"`
	DailyRequired   float64 `json:"dailyRequired"`
	WeeklyRequired  float64 `json:"weeklyRequired"`
	MonthlyRequired float64 `json:"monthlyRequired"`
	Achievable      bool    `json:"isAchievable"`
}

// AssessGoal validates goal against now and evaluates it on m.
func AssessGoal(m domain.FinancialMetrics, windowDays int, goal GoalRequest, now time.Time) (GoalAssessment, error) {
	days, err := goal.daysRemaining(now)
	if err != nil {
		return GoalAssessment{}, err
	}
	return assessGoal(m, windowDays, goal, days), nil
}

func assessGoal(m domain.FinancialMetrics, windowDays int, goal GoalRequest, daysRemaining int) GoalAssessment {
	surplus := monthly(m.TotalIncome, windowDays) - monthly(m.TotalSpending, windowDays)

	daily := goal.TargetAmount / float64(daysRemaining)
	weekly := daily * 7
	monthlyRequired := daily * daysPerMonth

	return GoalAssessment{
		TargetAmount:    goal.TargetAmount,
		TargetDate:      goal.TargetDate.UTC().Format(time.DateOnly),
		DaysRemaining:   daysRemaining,
		DailyRequired:   metrics.Round(daily),
		WeeklyRequired:  metrics.Round(weekly),
		MonthlyRequired: metrics.Round(monthlyRequired),
		Achievable:      monthlyRequired <= surplus*goalHeadroom,
	}
}
