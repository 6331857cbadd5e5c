package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"finhub-analytics-backend/internal/domain"
)

// Postgres implements the store interfaces on top of database/sql backed by
// the pgx stdlib driver.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Ping verifies the connection for health checks.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

const transactionColumns = `id, user_id, account_id, amount, type, category, date, balance,
	COALESCE(merchant, ''), COALESCE(description, '')`

func (p *Postgres) FindTransactions(ctx context.Context, q TransactionQuery) ([]domain.Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1 AND date >= $2 AND date <= $3`)
	args := []any{q.UserID, q.From, q.To}

	if q.AccountIDs != nil {
		if len(q.AccountIDs) == 0 {
			return []domain.Transaction{}, nil
		}
		placeholders := make([]string, len(q.AccountIDs))
		for i, id := range q.AccountIDs {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		sb.WriteString(` AND account_id IN (` + strings.Join(placeholders, ", ") + `)`)
	}
	sb.WriteString(` ORDER BY date DESC, id DESC`)

	rows, err := p.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, queryError("find transactions", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		var (
			t       domain.Transaction
			txType  string
			cat     string
			balance decimal.NullDecimal
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.Amount, &txType, &cat, &t.Date, &balance,
			&t.Merchant, &t.Description); err != nil {
			return nil, queryError("scan transaction", err)
		}
		t.Type = domain.TransactionType(txType)
		t.Category = domain.Category(cat)
		if balance.Valid {
			b := balance.Decimal
			t.Balance = &b
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate transactions", err)
	}
	return transactions, nil
}

func (p *Postgres) FindAccounts(ctx context.Context, q AccountQuery) ([]domain.Account, error) {
	query := `
		SELECT account_id, user_id, account_name, COALESCE(account_number, ''), bank_name, COALESCE(bank_code, ''),
		       account_type, balance, currency, is_active, connected_at
		FROM accounts
		WHERE user_id = $1
		  AND ($2 = '' OR strpos(lower(bank_name), lower($2)) > 0)
		  AND ($3 = '' OR account_id = $3)
		ORDER BY account_id
	`
	rows, err := p.db.QueryContext(ctx, query, q.UserID, q.BankName, q.AccountID)
	if err != nil {
		return nil, queryError("find accounts", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.AccountID, &a.UserID, &a.AccountName, &a.AccountNumber, &a.BankName, &a.BankCode,
			&a.AccountType, &a.Balance, &a.Currency, &a.IsActive, &a.ConnectedAt); err != nil {
			return nil, queryError("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate accounts", err)
	}
	return accounts, nil
}

func (p *Postgres) CreateAccount(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (account_id, user_id, account_name, account_number, bank_name, bank_code,
		                      account_type, balance, currency, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING connected_at
	`
	err := p.db.QueryRowContext(ctx, query,
		a.AccountID, a.UserID, a.AccountName, a.AccountNumber, a.BankName, a.BankCode,
		a.AccountType, a.Balance, a.Currency, a.IsActive,
	).Scan(&a.ConnectedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return domain.NewValidationError("accountId", "account already exists")
		}
		return writeError("create account", err)
	}
	return nil
}

func (p *Postgres) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, account_id, amount, type, category, date, balance, merchant, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''))
		RETURNING id
	`
	balance := decimal.NullDecimal{}
	if t.Balance != nil {
		balance = decimal.NewNullDecimal(*t.Balance)
	}
	err := p.db.QueryRowContext(ctx, query,
		t.UserID, t.AccountID, t.Amount, string(t.Type), string(t.Category), t.Date, balance, t.Merchant, t.Description,
	).Scan(&t.ID)
	if err != nil {
		return writeError("create transaction", err)
	}
	return nil
}

func (p *Postgres) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return queryError("delete transaction", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateUser(ctx context.Context, u *domain.User) error {
	if u.MoneyPersonality == "" {
		u.MoneyPersonality = domain.PersonalityUnknown
	}
	query := `
		INSERT INTO users (id, email, first_name, last_name, money_personality)
		VALUES ($1, lower($2), $3, $4, $5)
		RETURNING created_at
	`
	err := p.db.QueryRowContext(ctx, query, u.ID, u.Email, u.FirstName, u.LastName, string(u.MoneyPersonality)).
		Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.NewValidationError("email", "user with this email already exists")
		}
		return writeError("create user", err)
	}
	return nil
}

func (p *Postgres) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT id, email, first_name, last_name, money_personality, credit_score, last_analyzed_at, created_at
		FROM users WHERE id = $1
	`
	var (
		u           domain.User
		personality string
		score       sql.NullInt64
		analyzedAt  sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, query, userID).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName,
		&personality, &score, &analyzedAt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, queryError("get user", err)
	}
	u.MoneyPersonality = domain.Personality(personality)
	if score.Valid {
		s := int(score.Int64)
		u.CreditScore = &s
	}
	if analyzedAt.Valid {
		u.LastAnalyzedAt = &analyzedAt.Time
	}
	return &u, nil
}

func (p *Postgres) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, queryError("list users", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, queryError("scan user id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate users", err)
	}
	return ids, nil
}

func (p *Postgres) UpdateUserAnalysis(ctx context.Context, userID string, personality domain.Personality, creditScore int, analyzedAt time.Time) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE users SET money_personality = $2, credit_score = $3, last_analyzed_at = $4 WHERE id = $1`,
		userID, string(personality), creditScore, analyzedAt)
	if err != nil {
		return queryError("update user analysis", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (p *Postgres) SaveInsight(ctx context.Context, in *domain.FinancialInsight) error {
	metrics, err := json.Marshal(in.Metrics)
	if err != nil {
		return fmt.Errorf("encode insight metrics: %w", err)
	}
	factors, err := json.Marshal(in.CreditScoreFactors)
	if err != nil {
		return fmt.Errorf("encode credit score factors: %w", err)
	}

	query := `
		INSERT INTO financial_insights (id, user_id, period, metrics, money_personality, emotional_insight,
		                                credit_score, credit_score_factors, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = p.db.ExecContext(ctx, query, in.ID.String(), in.UserID, string(in.Period), string(metrics),
		string(in.MoneyPersonality), in.EmotionalInsight, in.CreditScore, string(factors), in.GeneratedAt)
	if err != nil {
		return queryError("save insight", err)
	}
	return nil
}

func (p *Postgres) ListInsights(ctx context.Context, userID string, limit int) ([]domain.FinancialInsight, error) {
	query := `
		SELECT id, user_id, period, metrics, money_personality, emotional_insight, credit_score,
		       credit_score_factors, generated_at
		FROM financial_insights
		WHERE user_id = $1
		ORDER BY generated_at DESC
		LIMIT $2
	`
	rows, err := p.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, queryError("list insights", err)
	}
	defer rows.Close()

	insights := make([]domain.FinancialInsight, 0)
	for rows.Next() {
		var (
			in          domain.FinancialInsight
			period      string
			personality string
			metrics     []byte
			factors     []byte
		)
		if err := rows.Scan(&in.ID, &in.UserID, &period, &metrics, &personality, &in.EmotionalInsight,
			&in.CreditScore, &factors, &in.GeneratedAt); err != nil {
			return nil, queryError("scan insight", err)
		}
		in.Period = domain.InsightPeriod(period)
		in.MoneyPersonality = domain.Personality(personality)
		if err := json.Unmarshal(metrics, &in.Metrics); err != nil {
			return nil, fmt.Errorf("decode insight metrics: %w", err)
		}
		if err := json.Unmarshal(factors, &in.CreditScoreFactors); err != nil {
			return nil, fmt.Errorf("decode credit score factors: %w", err)
		}
		insights = append(insights, in)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("iterate insights", err)
	}
	return insights, nil
}

// writeError turns values Postgres refused to store into a ValidationError.
// Everything else is a store failure.
func writeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 22 is data_exception: too long, numeric overflow, bad format
		if strings.HasPrefix(pgErr.Code, "22") || pgErr.Code == "23514" { // check_violation
			return domain.NewValidationError(pgErr.ColumnName, pgErr.Message)
		}
	}
	return queryError(op, err)
}
