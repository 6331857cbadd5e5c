package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"finhub-analytics-backend/internal/domain"
)

// Memory is an in-process implementation of every store interface. It backs
// tests and the demo builder.
type Memory struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	accounts     []domain.Account
	transactions []domain.Transaction
	insights     []domain.FinancialInsight
	nextTxID     int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]domain.User)}
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// FindTransactions returns matching transactions newest first.
func (m *Memory) FindTransactions(ctx context.Context, q TransactionQuery) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var allowed map[string]bool
	if q.AccountIDs != nil {
		allowed = make(map[string]bool, len(q.AccountIDs))
		for _, id := range q.AccountIDs {
			allowed[id] = true
		}
	}

	out := make([]domain.Transaction, 0)
	for _, t := range m.transactions {
		if t.UserID != q.UserID {
			continue
		}
		if t.Date.Before(q.From) || t.Date.After(q.To) {
			continue
		}
		if allowed != nil && !allowed[t.AccountID] {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// FindAccounts returns matching accounts ordered by account id.
func (m *Memory) FindAccounts(ctx context.Context, q AccountQuery) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bank := strings.ToLower(q.BankName)
	out := make([]domain.Account, 0)
	for _, a := range m.accounts {
		if a.UserID != q.UserID {
			continue
		}
		if bank != "" && !strings.Contains(strings.ToLower(a.BankName), bank) {
			continue
		}
		if q.AccountID != "" && a.AccountID != q.AccountID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

func (m *Memory) CreateAccount(ctx context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.accounts {
		if a.AccountID == account.AccountID {
			return domain.NewValidationError("accountId", "account already exists")
		}
	}
	if account.ConnectedAt.IsZero() {
		account.ConnectedAt = time.Now().UTC()
	}
	m.accounts = append(m.accounts, *account)
	return nil
}

func (m *Memory) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTxID++
	tx.ID = m.nextTxID
	m.transactions = append(m.transactions, *tx)
	return nil
}

func (m *Memory) DeleteTransaction(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.transactions {
		if t.ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *Memory) CreateUser(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.NewValidationError("email", "user with this email already exists")
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.MoneyPersonality == "" {
		user.MoneyPersonality = domain.PersonalityUnknown
	}
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) ListUserIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) UpdateUserAnalysis(ctx context.Context, userID string, personality domain.Personality, creditScore int, analyzedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.MoneyPersonality = personality
	u.CreditScore = &creditScore
	u.LastAnalyzedAt = &analyzedAt
	m.users[userID] = u
	return nil
}

func (m *Memory) SaveInsight(ctx context.Context, insight *domain.FinancialInsight) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insights = append(m.insights, *insight)
	return nil
}

// ListInsights returns up to limit snapshots, newest first.
func (m *Memory) ListInsights(ctx context.Context, userID string, limit int) ([]domain.FinancialInsight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.FinancialInsight, 0)
	for _, in := range m.insights {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
