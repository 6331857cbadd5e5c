// Package analytics builds health, cashflow, savings and event reports on
// top of metrics.Calculator. Each report has a pure function taking
// already-computed metrics and a Service method that fetches them first.
package analytics

import (
	"context"

	"finhub-analytics-backend/internal/metrics"
)

// daysPerMonth scales window totals to a monthly figure.
const daysPerMonth = 30.0

type Service struct {
	calc *metrics.Calculator
}

func NewService(calc *metrics.Calculator) *Service {
	return &Service{calc: calc}
}

func (s *Service) HealthScore(ctx context.Context, userID string, windowDays int) (HealthReport, error) {
	m, err := s.calc.Compute(ctx, userID, windowDays, metrics.Filter{})
	if err != nil {
		return HealthReport{}, err
	}
	return Health(m), nil
}

func (s *Service) CashflowRisk(ctx context.Context, userID string, windowDays int) (CashflowForecast, error) {
	m, err := s.calc.Compute(ctx, userID, windowDays, metrics.Filter{})
	if err != nil {
		return CashflowForecast{}, err
	}
	return Cashflow(m, windowDays, s.calc.Now()), nil
}

func (s *Service) SavingsSuggestion(ctx context.Context, userID string, windowDays int) (SavingsPlan, error) {
	m, err := s.calc.Compute(ctx, userID, windowDays, metrics.Filter{})
	if err != nil {
		return SavingsPlan{}, err
	}
	return Savings(m, windowDays), nil
}

// SavingsGoal validates the goal before touching the store.
func (s *Service) SavingsGoal(ctx context.Context, userID string, goal GoalRequest, windowDays int) (GoalAssessment, error) {
	if err := metrics.ValidateRequest(userID, windowDays); err != nil {
		return GoalAssessment{}, err
	}
	daysRemaining, err := goal.daysRemaining(s.calc.Now())
	if err != nil {
		return GoalAssessment{}, err
	}
	m, err := s.calc.Compute(ctx, userID, windowDays, metrics.Filter{})
	if err != nil {
		return GoalAssessment{}, err
	}
	return assessGoal(m, windowDays, goal, daysRemaining), nil
}

func (s *Service) EventSpending(ctx context.Context, userID string, windowDays int) (EventReport, error) {
	txs, err := s.calc.Transactions(ctx, userID, windowDays, metrics.Filter{})
	if err != nil {
		return EventReport{}, err
	}
	return DetectEvents(txs), nil
}

func monthly(total float64, windowDays int) float64 {
	return total / (float64(windowDays) / daysPerMonth)
}
