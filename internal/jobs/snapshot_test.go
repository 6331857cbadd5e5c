package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/financetest"
	"finhub-analytics-backend/internal/metrics"
	"finhub-analytics-backend/internal/store"
)

var refNow = time.Date(2025, time.June, 15, 3, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingInsights rejects snapshots for one user.
type failingInsights struct {
	*store.Memory
	failFor string
}

func (f *failingInsights) SaveInsight(ctx context.Context, in *domain.FinancialInsight) error {
	if in.UserID == f.failFor {
		return errors.New("disk full")
	}
	return f.Memory.SaveInsight(ctx, in)
}

func plannerLedger(userID string) *financetest.Ledger {
	l := financetest.NewLedger(userID, refNow).Account(userID+"-acc", "GTBank")
	for month := 0; month < 3; month++ {
		l.Credit(domain.CategorySalary, 400000, 5+month*30, financetest.Balance(900000))
		l.Debit(domain.CategoryFood, 100000, 3+month*30, financetest.Balance(800000))
	}
	return l
}

func TestSnapshotUser_PersistsAndUpdatesUser(t *testing.T) {
	ledger := plannerLedger("u1")
	mem := ledger.Store(t)
	calc := metrics.NewCalculator(mem, mem, metrics.WithClock(ledger.Clock()))
	snap := NewSnapshotter(calc, mem, mem, discardLogger(), time.Second)

	got, err := snap.SnapshotUser(context.Background(), "u1", 90, metrics.Filter{})
	if err != nil {
		t.Fatalf("SnapshotUser returned error: %v", err)
	}
	if got.Personality != domain.Planner {
		t.Errorf("expected Planner, got %s", got.Personality)
	}
	if got.CreditScore < 300 || got.CreditScore > 850 {
		t.Errorf("credit score out of range: %d", got.CreditScore)
	}

	history, err := mem.ListInsights(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("ListInsights: %v", err)
	}
	if len(history) != 1 || history[0].ID != got.InsightID || history[0].Period != domain.PeriodMonthly {
		t.Fatalf("unexpected history %+v", history)
	}

	user, err := mem.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.MoneyPersonality != domain.Planner || user.CreditScore == nil || *user.CreditScore != got.CreditScore {
		t.Errorf("user profile not updated: %+v", user)
	}
	if user.LastAnalyzedAt == nil || !user.LastAnalyzedAt.Equal(refNow) {
		t.Errorf("expected lastAnalyzedAt %v, got %v", refNow, user.LastAnalyzedAt)
	}
}

func TestSnapshotUser_UnknownUserUsesDefaultName(t *testing.T) {
	mem := store.NewMemory()
	calc := metrics.NewCalculator(mem, mem, metrics.WithClock(func() time.Time { return refNow }))
	snap := NewSnapshotter(calc, mem, mem, discardLogger(), time.Second)

	got, err := snap.SnapshotUser(context.Background(), "ghost", 90, metrics.Filter{})
	if err != nil {
		t.Fatalf("SnapshotUser returned error: %v", err)
	}
	if got.Personality != domain.Balancer {
		t.Errorf("expected Balancer for an empty history, got %s", got.Personality)
	}
	if got.EmotionalInsight[:len("Friend")] != "Friend" {
		t.Errorf("expected default name, got %q", got.EmotionalInsight)
	}
}

func TestRunNightly_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	mem := plannerLedger("u1").Store(t)
	for _, id := range []string{"u2", "u3"} {
		if err := mem.CreateUser(ctx, &domain.User{ID: id, Email: id + "@example.com"}); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	insights := &failingInsights{Memory: mem, failFor: "u2"}

	calc := metrics.NewCalculator(mem, mem, metrics.WithClock(func() time.Time { return refNow }))
	NewSnapshotter(calc, mem, insights, discardLogger(), time.Second).RunNightly(ctx, 90)

	for id, want := range map[string]int{"u1": 1, "u2": 0, "u3": 1} {
		history, err := mem.ListInsights(ctx, id, 10)
		if err != nil {
			t.Fatalf("ListInsights(%s): %v", id, err)
		}
		if len(history) != want {
			t.Errorf("expected %d snapshots for %s, got %d", want, id, len(history))
		}
	}
}

// cancellingInsights cancels the run once the first snapshot is stored.
type cancellingInsights struct {
	*store.Memory
	cancel context.CancelFunc
}

func (c *cancellingInsights) SaveInsight(ctx context.Context, in *domain.FinancialInsight) error {
	defer c.cancel()
	return c.Memory.SaveInsight(ctx, in)
}

func TestRunNightly_StopsWhenCancelled(t *testing.T) {
	mem := plannerLedger("u1").Store(t)
	for _, id := range []string{"u2", "u3"} {
		if err := mem.CreateUser(context.Background(), &domain.User{ID: id, Email: id + "@example.com"}); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	insights := &cancellingInsights{Memory: mem, cancel: cancel}

	calc := metrics.NewCalculator(mem, mem, metrics.WithClock(func() time.Time { return refNow }))
	NewSnapshotter(calc, mem, insights, discardLogger(), time.Second).RunNightly(ctx, 90)

	for id, want := range map[string]int{"u1": 1, "u2": 0, "u3": 0} {
		history, err := mem.ListInsights(context.Background(), id, 10)
		if err != nil {
			t.Fatalf("ListInsights(%s): %v", id, err)
		}
		if len(history) != want {
			t.Errorf("expected %d snapshots for %s after cancel, got %d", want, id, len(history))
		}
	}
}

func TestScheduler_StopCancelsRuns(t *testing.T) {
	mem := store.NewMemory()
	calc := metrics.NewCalculator(mem, mem)
	s := NewScheduler(NewSnapshotter(calc, mem, mem, discardLogger(), time.Second), discardLogger(), 90)

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("Stop did not finish")
	}
	if s.ctx.Err() == nil {
		t.Error("expected the run context to be cancelled by Stop")
	}
}

func TestScheduler_RejectsInvalidSchedule(t *testing.T) {
	mem := store.NewMemory()
	calc := metrics.NewCalculator(mem, mem)
	s := NewScheduler(NewSnapshotter(calc, mem, mem, discardLogger(), time.Second), discardLogger(), 90)

	if err := s.Start("every tuesday-ish"); err == nil {
		t.Fatal("expected an invalid schedule to be rejected")
	}
}
