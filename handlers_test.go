package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finhub-analytics-backend/internal/config"
	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/financetest"
	"finhub-analytics-backend/internal/metrics"
	"finhub-analytics-backend/internal/ratelimit"
	"finhub-analytics-backend/internal/store"
)

const testUserID = "3b241101-e2bb-4255-8caf-4136c566a962"

var refNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultWindowDays:   90,
		MaxWindowDays:       730,
		StoreTimeoutSeconds: 5,
		CORSAllowedOrigins:  "*",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, backend Backend, limiter ratelimit.Consumer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := NewServer(testConfig(), discardLogger(), backend, nil, limiter,
		metrics.WithClock(func() time.Time { return refNow }))
	return s.Router()
}

func salaryLedger() *financetest.Ledger {
	return financetest.NewLedger(testUserID, refNow).
		Account("gt-1", "GTBank").AccountBalance(9000).
		Credit(domain.CategorySalary, 5000, 20, financetest.Balance(9000)).
		Debit(domain.CategoryFood, 1000, 10, financetest.Balance(8000)).
		Account("ac-1", "Access Bank").AccountBalance(300).
		Debit(domain.CategoryUtilities, 300, 5, financetest.Balance(300))
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

// brokenTransactions fails every transaction read like a dropped connection.
type brokenTransactions struct {
	*store.Memory
}

func (b brokenTransactions) FindTransactions(ctx context.Context, q store.TransactionQuery) ([]domain.Transaction, error) {
	return nil, &store.QueryError{Op: "find transactions", Err: errors.New("connection reset by peer")}
}

type rejectAll struct{}

func (rejectAll) Consume(ctx context.Context, scope, subject string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: false, Count: 61, Limit: 60, RetryAfter: 30}, nil
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t, store.NewMemory(), nil)
	rec, _ := do(t, r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestSpendingBreakdown(t *testing.T) {
	r := newTestRouter(t, salaryLedger().Store(t), nil)

	rec, env := do(t, r, http.MethodGet, "/api/analytics/spending/"+testUserID+"?days=30", nil)
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected success, got %d %s", rec.Code, rec.Body.String())
	}
	got := decode[SpendingResponse](t, env.Data)
	if got.TotalIncome != 5000 || got.TotalSpending != 1300 {
		t.Errorf("totals = %v / %v, want 5000 / 1300", got.TotalIncome, got.TotalSpending)
	}
	if got.SpendingByCategory[domain.CategoryFood] != 1000 || got.SpendingByCategory[domain.CategoryUtilities] != 300 {
		t.Errorf("unexpected categories %v", got.SpendingByCategory)
	}
}

func TestRequestValidation(t *testing.T) {
	r := newTestRouter(t, store.NewMemory(), nil)

	tests := []struct {
		name string
		path string
	}{
		{"zero days", "/api/advanced/health-score/" + testUserID + "?days=0"},
		{"negative days", "/api/advanced/health-score/" + testUserID + "?days=-5"},
		{"non-numeric days", "/api/advanced/health-score/" + testUserID + "?days=ninety"},
		{"days above maximum", "/api/advanced/health-score/" + testUserID + "?days=731"},
		{"malformed user id", "/api/advanced/health-score/not-a-uuid"},
		{"history limit", "/api/analytics/history/" + testUserID + "?limit=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, r, http.MethodGet, tt.path, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if env.Success || env.Error == "" {
				t.Errorf("expected error envelope, got %s", rec.Body.String())
			}
		})
	}
}

func TestStoreFailureMapsToServiceUnavailable(t *testing.T) {
	backend := brokenTransactions{Memory: salaryLedger().Store(t)}
	r := newTestRouter(t, backend, nil)

	for _, path := range []string{
		"/api/advanced/health-score/" + testUserID,
		"/api/analytics/spending/" + testUserID,
		"/api/bank-analytics/comparison/" + testUserID,
	} {
		rec, env := do(t, r, http.MethodGet, path, nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rec.Code)
		}
		if env.Error != domain.ErrUpstreamUnavailable.Error() {
			t.Errorf("%s: driver error leaked: %q", path, env.Error)
		}
	}
}

func TestCashflowWarning_EmptyHistoryIsHighRisk(t *testing.T) {
	r := newTestRouter(t, store.NewMemory(), nil)

	rec, env := do(t, r, http.MethodGet, "/api/advanced/cashflow-warning/"+testUserID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[CashflowResponse](t, env.Data)
	if got.RiskLevel != "High" {
		t.Errorf("risk = %s, want High", got.RiskLevel)
	}
	if got.DaysUntilLowBalance != nil {
		t.Errorf("expected no days estimate without spending, got %d", *got.DaysUntilLowBalance)
	}
	if !strings.Contains(got.Warning, "7 days") {
		t.Errorf("unexpected warning %q", got.Warning)
	}
}

func TestSavingsSuggestion(t *testing.T) {
	r := newTestRouter(t, salaryLedger().Store(t), nil)

	rec, env := do(t, r, http.MethodGet, "/api/advanced/savings-suggestion/"+testUserID+"?days=30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[SavingsResponse](t, env.Data)
	// (5000 - 300) * 0.5
	if got.Monthly != 2350 {
		t.Errorf("monthly = %v, want 2350", got.Monthly)
	}
	if got.Suggestion == "" {
		t.Error("expected a suggestion")
	}
}

func TestSavingsGoal(t *testing.T) {
	r := newTestRouter(t, salaryLedger().Store(t), nil)
	path := "/api/advanced/savings-goal/" + testUserID + "?days=30"

	t.Run("missing date", func(t *testing.T) {
		rec, _ := do(t, r, http.MethodPost, path, map[string]any{"targetAmount": 10000})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("past date", func(t *testing.T) {
		rec, _ := do(t, r, http.MethodPost, path, map[string]any{"targetAmount": 10000, "targetDate": "2025-01-01"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("achievable", func(t *testing.T) {
		rec, env := do(t, r, http.MethodPost, path, map[string]any{"targetAmount": 2400, "targetDate": "2025-07-15"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		got := decode[SavingsGoalResponse](t, env.Data)
		if got.DaysRemaining != 30 || got.TargetDate != "2025-07-15" {
			t.Errorf("unexpected goal %+v", got.GoalAssessment)
		}
		if !got.Achievable || got.Motivation == "" {
			t.Errorf("expected an achievable goal with motivation, got %+v", got)
		}
	})
}

func TestEventSpending_NoEvents(t *testing.T) {
	r := newTestRouter(t, salaryLedger().Store(t), nil)

	rec, env := do(t, r, http.MethodGet, "/api/advanced/event-spending/"+testUserID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[EventSpendingResponse](t, env.Data)
	if got.Count != 0 || len(got.Events) != 0 {
		t.Errorf("expected no events, got %+v", got.EventReport)
	}
	if !strings.Contains(got.Insight, "staying home") {
		t.Errorf("unexpected insight %q", got.Insight)
	}
}

func TestBankInsights_EchoesFilters(t *testing.T) {
	r := newTestRouter(t, salaryLedger().Store(t), nil)

	rec, env := do(t, r, http.MethodGet, "/api/bank-analytics/insights/"+testUserID+"?bank=gtbank&days=30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[BankInsightsResponse](t, env.Data)
	if got.Filters.Bank == nil || *got.Filters.Bank != "gtbank" || got.Filters.Account != nil || got.Filters.Days != 30 {
		t.Errorf("unexpected filters %+v", got.Filters)
	}
	if got.Metrics.TotalSpending != 1000 || got.Metrics.TransactionCount != 2 {
		t.Errorf("unexpected GTBank metrics %+v", got.Metrics)
	}
}

func TestBankInsights_UnknownBankIsEmpty(t *testing.T) {
	r := newTestRouter(t, salaryLedger().Store(t), nil)

	rec, env := do(t, r, http.MethodGet, "/api/bank-analytics/insights/"+testUserID+"?bank=Zenith", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[BankInsightsResponse](t, env.Data)
	if got.Metrics.TransactionCount != 0 || got.Metrics.TotalIncome != 0 {
		t.Errorf("expected empty metrics, got %+v", got.Metrics)
	}
}

func TestListBanks_WithoutCache(t *testing.T) {
	r := newTestRouter(t, salaryLedger().Store(t), nil)

	rec, env := do(t, r, http.MethodGet, "/api/bank-analytics/banks/"+testUserID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[struct {
		Banks []string `json:"banks"`
		Count int      `json:"count"`
	}](t, env.Data)
	if got.Count != 2 || got.Banks[0] != "Access Bank" || got.Banks[1] != "GTBank" {
		t.Errorf("unexpected banks %+v", got)
	}
}

func TestSpendingPatterns_Insights(t *testing.T) {
	r := newTestRouter(t, salaryLedger().Store(t), nil)

	rec, env := do(t, r, http.MethodGet, "/api/bank-analytics/spending-patterns/"+testUserID+"?days=30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[SpendingPatternsResponse](t, env.Data)
	if len(got.Insights) != 2 || !strings.HasPrefix(got.Insights[0], "GTBank") {
		t.Errorf("unexpected insights %v", got.Insights)
	}
}

func TestInsightsPersistSnapshot(t *testing.T) {
	mem := salaryLedger().Store(t)
	r := newTestRouter(t, mem, nil)

	rec, env := do(t, r, http.MethodGet, "/api/analytics/insights/"+testUserID+"?days=30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	snap := decode[struct {
		Personality      domain.Personality `json:"personality"`
		CreditScore      int                `json:"creditScore"`
		EmotionalInsight string             `json:"emotionalInsight"`
	}](t, env.Data)
	if snap.CreditScore < 300 || snap.CreditScore > 850 || !strings.Contains(snap.EmotionalInsight, "Ada") {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	rec, env = do(t, r, http.MethodGet, "/api/analytics/history/"+testUserID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	history := decode[[]domain.FinancialInsight](t, env.Data)
	if len(history) != 1 || history[0].MoneyPersonality != snap.Personality {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestLedgerCRUD(t *testing.T) {
	mem := store.NewMemory()
	r := newTestRouter(t, mem, nil)

	rec, env := do(t, r, http.MethodPost, "/api/users", map[string]any{"email": "Chidi@Example.com", "firstName": "Chidi"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	user := decode[domain.User](t, env.Data)
	if _, err := uuid.Parse(user.ID); err != nil || user.Email != "chidi@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	rec, _ = do(t, r, http.MethodPost, "/api/users", map[string]any{"email": "not-an-email"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid email: expected 400, got %d", rec.Code)
	}

	rec, _ = do(t, r, http.MethodPost, "/api/accounts", map[string]any{
		"userId": uuid.NewString(), "accountName": "Orphan", "bankName": "GTBank",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user account: expected 404, got %d", rec.Code)
	}

	rec, env = do(t, r, http.MethodPost, "/api/accounts", map[string]any{
		"userId": user.ID, "accountId": "kuda-1", "accountName": "Kuda Spend", "bankName": "Kuda", "balance": "1500.50",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	account := decode[domain.Account](t, env.Data)
	if account.AccountType != domain.AccountTypeSavings || account.Currency != "NGN" || !account.IsActive {
		t.Errorf("defaults not applied: %+v", account)
	}

	rec, _ = do(t, r, http.MethodPost, "/api/transactions", map[string]any{
		"userId": user.ID, "accountId": "someone-else", "amount": 100, "type": "debit",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("foreign account: expected 400, got %d", rec.Code)
	}

	rec, _ = do(t, r, http.MethodPost, "/api/transactions", map[string]any{
		"userId": user.ID, "accountId": "kuda-1", "amount": 100, "type": "sideways",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type: expected 400, got %d", rec.Code)
	}

	rec, env = do(t, r, http.MethodPost, "/api/transactions", map[string]any{
		"userId": user.ID, "accountId": "kuda-1", "amount": 2500, "type": "debit", "category": "food", "merchant": "Chicken Republic",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add transaction: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	tx := decode[domain.Transaction](t, env.Data)
	if tx.ID == 0 || !tx.Date.Equal(refNow) || tx.Category != domain.CategoryFood {
		t.Errorf("unexpected transaction %+v", tx)
	}

	rec, env = do(t, r, http.MethodGet, "/api/analytics/transactions/"+user.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list transactions: expected 200, got %d", rec.Code)
	}
	if listed := decode[TransactionsResponse](t, env.Data); listed.Count != 1 {
		t.Errorf("expected 1 transaction, got %d", listed.Count)
	}

	path := "/api/transactions/" + jsonNumber(tx.ID)
	if rec, _ = do(t, r, http.MethodDelete, path, nil); rec.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", rec.Code)
	}
	if rec, _ = do(t, r, http.MethodDelete, path, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
	if rec, _ = do(t, r, http.MethodDelete, "/api/transactions/abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestLedgerWritesRejectInvalidValues(t *testing.T) {
	mem := store.NewMemory()
	r := newTestRouter(t, mem, nil)

	rec, env := do(t, r, http.MethodPost, "/api/users", map[string]any{"email": "bisi@example.com", "firstName": "Bisi"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	user := decode[domain.User](t, env.Data)
	rec, _ = do(t, r, http.MethodPost, "/api/accounts", map[string]any{
		"userId": user.ID, "accountId": "gt-1", "accountName": "Main", "bankName": "GTBank",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	accounts := []struct {
		name string
		body map[string]any
	}{
		{"blank bank name", map[string]any{"bankName": "   "}},
		{"blank account name", map[string]any{"accountName": "\t"}},
		{"bank code too long", map[string]any{"bankCode": "ABCDEFGHIJKL"}},
		{"account id too long", map[string]any{"accountId": strings.Repeat("x", 65)}},
		{"currency too long", map[string]any{"currency": "NAIRA"}},
		{"balance overflows", map[string]any{"balance": "10000000000000"}},
	}
	for _, tt := range accounts {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]any{"userId": user.ID, "accountName": "Spare", "bankName": "Kuda"}
			for k, v := range tt.body {
				body[k] = v
			}
			rec, env := do(t, r, http.MethodPost, "/api/accounts", body)
			if rec.Code != http.StatusBadRequest || env.Success {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	transactions := []struct {
		name string
		body map[string]any
	}{
		{"amount overflows", map[string]any{"amount": "9999999999999.995"}},
		{"balance overflows", map[string]any{"balance": "-10000000000000"}},
		{"merchant too long", map[string]any{"merchant": strings.Repeat("m", 256)}},
	}
	for _, tt := range transactions {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]any{"userId": user.ID, "accountId": "gt-1", "amount": 100, "type": "debit"}
			for k, v := range tt.body {
				body[k] = v
			}
			rec, env := do(t, r, http.MethodPost, "/api/transactions", body)
			if rec.Code != http.StatusBadRequest || env.Success {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	accs, err := mem.FindAccounts(context.Background(), store.AccountQuery{UserID: user.ID})
	if err != nil {
		t.Fatalf("FindAccounts: %v", err)
	}
	if len(accs) != 1 {
		t.Errorf("rejected accounts were stored: %+v", accs)
	}
}

func jsonNumber(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}

func TestCategories(t *testing.T) {
	r := newTestRouter(t, store.NewMemory(), nil)

	rec, env := do(t, r, http.MethodGet, "/api/categories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[[]CategoryInfo](t, env.Data)
	if len(got) != len(domain.Categories) {
		t.Fatalf("expected %d categories, got %d", len(domain.Categories), len(got))
	}
	if got[0].Name != domain.CategorySalary || got[0].Type != "income" {
		t.Errorf("unexpected first category %+v", got[0])
	}
}

func TestRateLimitAppliesToAnalyticsOnly(t *testing.T) {
	r := newTestRouter(t, store.NewMemory(), rejectAll{})

	rec, _ := do(t, r, http.MethodGet, "/api/advanced/health-score/"+testUserID, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("analytics route: expected 429, got %d", rec.Code)
	}
	rec, _ = do(t, r, http.MethodGet, "/api/categories", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("plumbing route: expected 200, got %d", rec.Code)
	}
}

func TestSavingsGoalRequest(t *testing.T) {
	amount := 50000.0
	tests := []struct {
		name    string
		req     SavingsGoalRequest
		want    time.Time
		wantErr bool
	}{
		{"date only", SavingsGoalRequest{TargetAmount: &amount, TargetDate: "2025-12-31"}, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339", SavingsGoalRequest{TargetAmount: &amount, TargetDate: "2025-12-31T18:00:00Z"}, time.Date(2025, 12, 31, 18, 0, 0, 0, time.UTC), false},
		{"missing amount", SavingsGoalRequest{TargetDate: "2025-12-31"}, time.Time{}, true},
		{"missing date", SavingsGoalRequest{TargetAmount: &amount}, time.Time{}, true},
		{"garbage date", SavingsGoalRequest{TargetAmount: &amount, TargetDate: "next week"}, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.goal()
			if tt.wantErr {
				if !domain.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.TargetDate.Equal(tt.want) || got.TargetAmount != amount {
				t.Errorf("got %+v", got)
			}
		})
	}
}
