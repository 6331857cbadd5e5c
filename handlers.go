package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finhub-analytics-backend/internal/analytics"
	"finhub-analytics-backend/internal/bankanalytics"
	"finhub-analytics-backend/internal/config"
	"finhub-analytics-backend/internal/domain"
	"finhub-analytics-backend/internal/insight"
	"finhub-analytics-backend/internal/jobs"
	"finhub-analytics-backend/internal/metrics"
	"finhub-analytics-backend/internal/ratelimit"
	"finhub-analytics-backend/internal/store"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// Backend is every store the HTTP layer reads or writes. *store.Postgres
// and *store.Memory both satisfy it.
type Backend interface {
	store.TransactionStore
	store.AccountStore
	store.UserStore
	store.InsightStore
	store.LedgerWriter
	Ping(ctx context.Context) error
}

// Server owns the handlers and the services behind them.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	backend   Backend
	calc      *metrics.Calculator
	analytics *analytics.Service
	banks     *bankanalytics.Service
	snapshots *jobs.Snapshotter
	bankCache *bankListCache
	limiter   ratelimit.Consumer
}

// NewServer wires the analytics services onto backend. A nil cache or
// limiter turns that feature off.
func NewServer(cfg *config.Config, logger *slog.Logger, backend Backend, cache *bankListCache, limiter ratelimit.Consumer, opts ...metrics.Option) *Server {
	calc := metrics.NewCalculator(backend, backend, opts...)
	return &Server{
		cfg:       cfg,
		logger:    logger,
		backend:   backend,
		calc:      calc,
		analytics: analytics.NewService(calc),
		banks:     bankanalytics.NewService(calc, backend),
		snapshots: jobs.NewSnapshotter(calc, backend, backend, logger, cfg.StoreTimeout()),
		bankCache: cache,
		limiter:   limiter,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	origins := s.cfg.AllowedOrigins()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthCheck)

	api := r.Group("/api")
	api.POST("/users", s.createUser)
	api.POST("/accounts", s.createAccount)
	api.GET("/accounts/:userId", s.listAccounts)
	api.POST("/transactions", s.addTransaction)
	api.DELETE("/transactions/:id", s.deleteTransaction)
	api.GET("/categories", s.getCategories)

	limited := api.Group("")
	if s.limiter != nil {
		limited.Use(ratelimit.Middleware(s.limiter, "analytics", s.logger))
	}

	an := limited.Group("/analytics")
	an.GET("/insights/:userId", s.generateInsights)
	an.GET("/history/:userId", s.insightHistory)
	an.GET("/transactions/:userId", s.listTransactions)
	an.GET("/spending/:userId", s.spendingBreakdown)

	adv := limited.Group("/advanced")
	adv.GET("/health-score/:userId", s.healthScore)
	adv.GET("/cashflow-warning/:userId", s.cashflowWarning)
	adv.GET("/savings-suggestion/:userId", s.savingsSuggestion)
	adv.POST("/savings-goal/:userId", s.savingsGoal)
	adv.GET("/event-spending/:userId", s.eventSpending)
	adv.GET("/full-report/:userId", s.fullReport)

	ba := limited.Group("/bank-analytics")
	ba.GET("/insights/:userId", s.bankInsights)
	ba.GET("/comparison/:userId", s.bankComparison)
	ba.GET("/accounts/:userId", s.accountAnalytics)
	ba.GET("/performance/:userId", s.bankPerformance)
	ba.GET("/spending-patterns/:userId", s.spendingPatterns)
	ba.GET("/banks/:userId", s.listBanks)

	return r
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.StoreTimeout())
}

func (s *Server) respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data})
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail maps err onto a status and writes the error envelope. Driver
// details stay in the log.
func (s *Server) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		s.logger.Error(op+" failed", "path", c.FullPath(), "error", err)
		msg = domain.ErrUpstreamUnavailable.Error()
	case http.StatusInternalServerError:
		s.logger.Error(op+" failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

// userID reads the :userId path parameter, which must be a UUID.
func userID(c *gin.Context) (string, error) {
	id := strings.TrimSpace(c.Param("userId"))
	if _, err := uuid.Parse(id); err != nil {
		return "", domain.NewValidationError("userId", "userId must be a valid UUID")
	}
	return id, nil
}

// windowDays reads ?days, falling back to the configured default.
func (s *Server) windowDays(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("days"))
	if raw == "" {
		return s.cfg.DefaultWindowDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, domain.NewValidationError("days", "days must be a positive integer")
	}
	if days > s.cfg.MaxWindowDays {
		return 0, domain.NewValidationError("days", fmt.Sprintf("days must not exceed %d", s.cfg.MaxWindowDays))
	}
	return days, nil
}

// userWindow reads both parameters every analytics route takes.
func (s *Server) userWindow(c *gin.Context) (string, int, error) {
	id, err := userID(c)
	if err != nil {
		return "", 0, err
	}
	days, err := s.windowDays(c)
	if err != nil {
		return "", 0, err
	}
	return id, days, nil
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.backend.Ping(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "finhub-analytics",
	})
}

func (s *Server) createUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, "create user", domain.NewValidationError("body", err.Error()))
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	user := domain.User{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if err := s.backend.CreateUser(ctx, &user); err != nil {
		s.fail(c, "create user", err)
		return
	}
	s.logger.Info("user created", "user_id", user.ID)
	s.respond(c, http.StatusCreated, user)
}

func parseAccountType(raw string) (string, error) {
	switch t := strings.ToLower(strings.TrimSpace(raw)); t {
	case "":
		return domain.AccountTypeSavings, nil
	case domain.AccountTypeSavings, domain.AccountTypeCurrent, domain.AccountTypeFixedDeposit, domain.AccountTypeCredit:
		return t, nil
	default:
		return "", domain.NewValidationError("accountType", fmt.Sprintf("unknown account type %q", raw))
	}
}

func (s *Server) createAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, "create account", domain.NewValidationError("body", err.Error()))
		return
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		s.fail(c, "create account", domain.NewValidationError("userId", "userId must be a valid UUID"))
		return
	}
	accountType, err := parseAccountType(req.AccountType)
	if err != nil {
		s.fail(c, "create account", err)
		return
	}

	bankName, accountName := strings.TrimSpace(req.BankName), strings.TrimSpace(req.AccountName)
	if bankName == "" {
		s.fail(c, "create account", domain.NewValidationError("bankName", "bankName must not be blank"))
		return
	}
	if accountName == "" {
		s.fail(c, "create account", domain.NewValidationError("accountName", "accountName must not be blank"))
		return
	}
	if err := checkMoney("balance", req.Balance); err != nil {
		s.fail(c, "create account", err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	if _, err := s.backend.GetUser(ctx, req.UserID); err != nil {
		s.fail(c, "create account", err)
		return
	}

	account := domain.Account{
		AccountID:     strings.TrimSpace(req.AccountID),
		UserID:        req.UserID,
		AccountName:   accountName,
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		BankName:      bankName,
		BankCode:      strings.TrimSpace(req.BankCode),
		AccountType:   accountType,
		Balance:       req.Balance,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
		IsActive:      true,
	}
	if account.AccountID == "" {
		account.AccountID = uuid.NewString()
	}
	if account.Currency == "" {
		account.Currency = "NGN"
	}
	if err := s.backend.CreateAccount(ctx, &account); err != nil {
		s.fail(c, "create account", err)
		return
	}

	// Invalidate cache
	if err := s.bankCache.Invalidate(ctx, account.UserID); err != nil {
		s.logger.Warn("failed to invalidate bank list cache", "user_id", account.UserID, "error", err)
	}
	s.respond(c, http.StatusCreated, account)
}

func (s *Server) listAccounts(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		s.fail(c, "list accounts", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	accounts, err := s.backend.FindAccounts(ctx, store.AccountQuery{UserID: id})
	if err != nil {
		s.fail(c, "list accounts", err)
		return
	}
	s.respond(c, http.StatusOK, accounts)
}

func (s *Server) addTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, "add transaction", domain.NewValidationError("body", err.Error()))
		return
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		s.fail(c, "add transaction", domain.NewValidationError("userId", "userId must be a valid UUID"))
		return
	}
	txType, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		s.fail(c, "add transaction", err)
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		s.fail(c, "add transaction", err)
		return
	}
	if req.Amount.IsNegative() {
		s.fail(c, "add transaction", domain.NewValidationError("amount", "amount must not be negative; use type for direction"))
		return
	}
	if err := checkMoney("amount", req.Amount); err != nil {
		s.fail(c, "add transaction", err)
		return
	}
	if req.Balance != nil {
		if err := checkMoney("balance", *req.Balance); err != nil {
			s.fail(c, "add transaction", err)
			return
		}
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	accounts, err := s.backend.FindAccounts(ctx, store.AccountQuery{UserID: req.UserID, AccountID: req.AccountID})
	if err != nil {
		s.fail(c, "add transaction", err)
		return
	}
	if len(accounts) == 0 {
		s.fail(c, "add transaction", domain.NewValidationError("accountId", "account does not belong to user"))
		return
	}

	t := domain.Transaction{
		UserID:      req.UserID,
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Type:        txType,
		Category:    category,
		Date:        s.calc.Now().UTC(),
		Balance:     req.Balance,
		Merchant:    strings.TrimSpace(req.Merchant),
		Description: strings.TrimSpace(req.Description),
	}
	if req.Date != nil {
		t.Date = req.Date.UTC()
	}
	if err := s.backend.CreateTransaction(ctx, &t); err != nil {
		s.fail(c, "add transaction", err)
		return
	}
	s.respond(c, http.StatusCreated, t)
}

func (s *Server) deleteTransaction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.fail(c, "delete transaction", domain.NewValidationError("id", "invalid transaction id"))
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.backend.DeleteTransaction(ctx, id); err != nil {
		s.fail(c, "delete transaction", err)
		return
	}
	s.respond(c, http.StatusOK, gin.H{"message": "Transaction deleted"})
}

func (s *Server) getCategories(c *gin.Context) {
	s.respond(c, http.StatusOK, categoryCatalog())
}

// generateInsights classifies the window and stores a snapshot.
func (s *Server) generateInsights(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "generate insights", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	snap, err := s.snapshots.SnapshotUser(ctx, id, days, metrics.Filter{Bank: c.Query("bank")})
	if err != nil {
		s.fail(c, "generate insights", err)
		return
	}
	s.respond(c, http.StatusOK, snap)
}

func (s *Server) insightHistory(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		s.fail(c, "insight history", err)
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxHistoryLimit {
			s.fail(c, "insight history", domain.NewValidationError("limit", fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit)))
			return
		}
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	insights, err := s.backend.ListInsights(ctx, id, limit)
	if err != nil {
		s.fail(c, "insight history", err)
		return
	}
	s.respond(c, http.StatusOK, insights)
}

func (s *Server) listTransactions(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "list transactions", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	f := metrics.Filter{Bank: c.Query("bank"), Account: c.Query("account")}
	txs, err := s.calc.Transactions(ctx, id, days, f)
	if err != nil {
		s.fail(c, "list transactions", err)
		return
	}
	s.respond(c, http.StatusOK, TransactionsResponse{Count: len(txs), Transactions: txs})
}

func (s *Server) spendingBreakdown(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "spending breakdown", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	m, err := s.calc.Compute(ctx, id, days, metrics.Filter{Bank: c.Query("bank")})
	if err != nil {
		s.fail(c, "spending breakdown", err)
		return
	}
	s.respond(c, http.StatusOK, SpendingResponse{
		SpendingByCategory: m.SpendingByCategory,
		TotalSpending:      m.TotalSpending,
		TotalIncome:        m.TotalIncome,
	})
}

func (s *Server) healthScore(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "health score", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	report, err := s.analytics.HealthScore(ctx, id, days)
	if err != nil {
		s.fail(c, "health score", err)
		return
	}
	s.respond(c, http.StatusOK, report)
}

func (s *Server) cashflowWarning(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "cashflow warning", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	forecast, err := s.analytics.CashflowRisk(ctx, id, days)
	if err != nil {
		s.fail(c, "cashflow warning", err)
		return
	}
	s.respond(c, http.StatusOK, CashflowResponse{
		CashflowForecast: forecast,
		Warning:          insight.CashflowWarning(string(forecast.RiskLevel), forecast.DaysUntilLowBalance),
	})
}

func (s *Server) savingsSuggestion(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "savings suggestion", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	plan, err := s.analytics.SavingsSuggestion(ctx, id, days)
	if err != nil {
		s.fail(c, "savings suggestion", err)
		return
	}
	s.respond(c, http.StatusOK, SavingsResponse{
		SavingsPlan: plan,
		Suggestion:  insight.SavingsMotivation(plan.Monthly, plan.CurrentRatio),
	})
}

func (s *Server) savingsGoal(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "savings goal", err)
		return
	}
	var req SavingsGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, "savings goal", domain.NewValidationError("body", err.Error()))
		return
	}
	goal, err := req.goal()
	if err != nil {
		s.fail(c, "savings goal", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	assessment, err := s.analytics.SavingsGoal(ctx, id, goal, days)
	if err != nil {
		s.fail(c, "savings goal", err)
		return
	}
	s.respond(c, http.StatusOK, SavingsGoalResponse{
		GoalAssessment: assessment,
		Motivation:     insight.GoalMotivation(assessment.TargetAmount, assessment.DaysRemaining, assessment.Achievable),
	})
}

func (s *Server) eventSpending(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "event spending", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	report, err := s.analytics.EventSpending(ctx, id, days)
	if err != nil {
		s.fail(c, "event spending", err)
		return
	}
	s.respond(c, http.StatusOK, EventSpendingResponse{
		EventReport: report,
		Insight:     insight.EventSpending(report.TotalAmount, report.Count, days),
	})
}

func (s *Server) fullReport(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "full report", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	report, err := s.analytics.FullReport(ctx, id, days)
	if err != nil {
		s.fail(c, "full report", err)
		return
	}
	s.respond(c, http.StatusOK, report)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Server) bankInsights(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "bank insights", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	f := metrics.Filter{Bank: c.Query("bank"), Account: c.Query("account")}
	m, err := s.calc.Compute(ctx, id, days, f)
	if err != nil {
		s.fail(c, "bank insights", err)
		return
	}
	s.respond(c, http.StatusOK, BankInsightsResponse{
		Metrics: m,
		Filters: FilterEcho{Bank: optional(f.Bank), Account: optional(f.Account), Days: days},
	})
}

func (s *Server) bankComparison(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "bank comparison", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	cmp, err := s.banks.Comparison(ctx, id, days)
	if err != nil {
		s.fail(c, "bank comparison", err)
		return
	}
	s.respond(c, http.StatusOK, cmp)
}

func (s *Server) accountAnalytics(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "account analytics", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	report, err := s.banks.AccountAnalytics(ctx, id, days)
	if err != nil {
		s.fail(c, "account analytics", err)
		return
	}
	s.respond(c, http.StatusOK, report)
}

func (s *Server) bankPerformance(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "bank performance", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	ranking, err := s.banks.Ranking(ctx, id, days)
	if err != nil {
		s.fail(c, "bank performance", err)
		return
	}
	s.respond(c, http.StatusOK, ranking)
}

func (s *Server) spendingPatterns(c *gin.Context) {
	id, days, err := s.userWindow(c)
	if err != nil {
		s.fail(c, "spending patterns", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	sp, err := s.banks.SpendingPatterns(ctx, id, days)
	if err != nil {
		s.fail(c, "spending patterns", err)
		return
	}

	lines := make([]string, 0, 2)
	if f := sp.Facts; f != nil {
		lines = append(lines, insight.HighestSpendingBank(f.HighestSpendingBank, f.HighestSpendingAmount))
		if f.HasTopCategory {
			lines = append(lines, insight.TopCategoryOverall(f.TopCategory, f.TopCategoryAmount))
		}
	}
	s.respond(c, http.StatusOK, SpendingPatternsResponse{SpendingPatterns: sp, Insights: lines})
}

// listBanks serves the distinct bank names through the Redis cache.
func (s *Server) listBanks(c *gin.Context) {
	id, err := userID(c)
	if err != nil {
		s.fail(c, "list banks", err)
		return
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()

	banks, ok := s.bankCache.Get(ctx, id)
	if !ok {
		banks, err = s.banks.ListBanks(ctx, id)
		if err != nil {
			s.fail(c, "list banks", err)
			return
		}
		if err := s.bankCache.Set(ctx, id, banks); err != nil {
			s.logger.Warn("failed to cache bank list", "user_id", id, "error", err)
		}
	}
	s.respond(c, http.StatusOK, gin.H{"banks": banks, "count": len(banks)})
}
