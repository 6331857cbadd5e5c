// Package jobs persists FinancialInsight snapshots, on demand and on a
// nightly cron schedule.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finhub-analytics-backend/internal/classify"
	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/insight"
	"finhub-analytics-backend/internal/metrics"
	"finhub-analytics-backend/internal/store"
)

// Snapshot is what one analysis run produced and stored.
type Snapshot struct {
	Metrics          domain.FinancialMetrics   `json:"metrics"`
	Personality      domain.Personality        `json:"personality"`
	CreditScore      int                       `json:"creditScore"`
	Factors          domain.CreditScoreFactors `json:"creditScoreFactors"`
	EmotionalInsight string                    `json:"emotionalInsight"`
	CreditStory      string                    `json:"creditStory"`
	InsightID        uuid.UUID                 `json:"insight"`
}

// Snapshotter classifies a user's metrics and records the result.
type Snapshotter struct {
	calc     *metrics.Calculator
	users    store.UserStore
	insights store.InsightStore
	logger   *slog.Logger
	timeout  time.Duration
}

func NewSnapshotter(calc *metrics.Calculator, users store.UserStore, insights store.InsightStore, logger *slog.Logger, perUserTimeout time.Duration) *Snapshotter {
	return &Snapshotter{
		calc:     calc,
		users:    users,
		insights: insights,
		logger:   logger,
		timeout:  perUserTimeout,
	}
}

// SnapshotUser computes, classifies and stores one insight. An unknown user
// still gets a snapshot, addressed by the default name, but no profile update.
func (s *Snapshotter) SnapshotUser(ctx context.Context, userID string, windowDays int, f metrics.Filter) (Snapshot, error) {
	m, err := s.calc.Compute(ctx, userID, windowDays, f)
	if err != nil {
		return Snapshot{}, err
	}

	name := insight.DefaultName
	known := true
	user, err := s.users.GetUser(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		known = false
	case err != nil:
		return Snapshot{}, err
	case user.FirstName != "":
		name = user.FirstName
	}

	personality := classify.DetectPersonality(m)
	snap := Snapshot{
		Metrics:          m,
		Personality:      personality,
		CreditScore:      classify.CreditScore(m),
		Factors:          classify.CreditFactors(m),
		EmotionalInsight: insight.Emotional(personality, m, name),
		CreditStory:      insight.CreditStory(m, personality),
		InsightID:        uuid.New(),
	}

	now := s.calc.Now().UTC()
	record := &domain.FinancialInsight{
		ID:                 snap.InsightID,
		UserID:             userID,
		Period:             domain.PeriodMonthly,
		Metrics:            m,
		MoneyPersonality:   personality,
		EmotionalInsight:   snap.EmotionalInsight,
		CreditScore:        snap.CreditScore,
		CreditScoreFactors: snap.Factors,
		GeneratedAt:        now,
	}
	if err := s.insights.SaveInsight(ctx, record); err != nil {
		return Snapshot{}, err
	}
	if known {
		if err := s.users.UpdateUserAnalysis(ctx, userID, personality, snap.CreditScore, now); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// RunNightly snapshots every user over windowDays. A failing user is
// logged and skipped; a cancelled ctx ends the run before the next user.
func (s *Snapshotter) RunNightly(ctx context.Context, windowDays int) {
	s.logger.Info("starting nightly insight snapshot job", "window_days", windowDays)

	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list users for snapshot job", "error", err)
		return
	}

	var done, failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			s.logger.Warn("nightly insight snapshot job cancelled", "users", len(ids), "done", done, "failed", failed)
			return
		}
		userCtx, cancel := context.WithTimeout(ctx, s.timeout)
		_, err := s.SnapshotUser(userCtx, id, windowDays, metrics.Filter{})
		cancel()
		done++
		if err != nil {
			failed++
			s.logger.Error("failed to snapshot user insights", "user_id", id, "error", err)
		}
	}

	s.logger.Info("nightly insight snapshot job finished", "users", len(ids), "failed", failed)
}
