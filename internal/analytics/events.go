package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finhub-analytics-backend/internal/domain"
)

// eventDayThreshold is the minimum spend for a day to count as an event.
var eventDayThreshold = decimal.NewFromInt(5000)

var eventKeywords = []string{
	"party", "wedding", "owambe", "venue", "catering", "dj", "nightclub",
	"celebration", "event", "hall", "reception", "ceremony", "festive",
}

// EventDay groups the event-related debits of one calendar day (UTC).
type EventDay struct {
	Date             time.Time `json:"date"`
	Amount           float64   `json:"amount"`
	TransactionCount int       `json:"transactionCount"`
	Merchants        []string  `json:"merchants"`
}

// EventReport lists event days newest first.
type EventReport struct {
	Events      []EventDay `json:"eventSpending"`
	TotalAmount float64    `json:"totalEventSpending"`
	Count       int        `json:"eventCount"`
}

// IsEventSpend reports whether a debit looks like party or celebration
// spending.
func IsEventSpend(t domain.Transaction) bool {
	if !t.IsDebit() {
		return false
	}
	if t.Category == domain.CategoryEntertainment {
		return true
	}
	desc := strings.ToLower(t.Description)
	merchant := strings.ToLower(t.Merchant)
	for _, kw := range eventKeywords {
		if strings.Contains(desc, kw) || strings.Contains(merchant, kw) {
			return true
		}
	}
	return false
}

type eventGroup struct {
	day       string
	latest    time.Time
	amount    decimal.Decimal
	count     int
	merchants []string
	seen      map[string]bool
}

// DetectEvents groups flagged debits by day and keeps days whose total
// exceeds the threshold.
func DetectEvents(txs []domain.Transaction) EventReport {
	flagged := make([]domain.Transaction, 0)
	for _, t := range txs {
		if IsEventSpend(t) {
			flagged = append(flagged, t)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		if !flagged[i].Date.Equal(flagged[j].Date) {
			return flagged[i].Date.After(flagged[j].Date)
		}
		return flagged[i].ID > flagged[j].ID
	})

	groups := make(map[string]*eventGroup)
	order := make([]string, 0)
	for _, t := range flagged {
		key := t.Date.UTC().Format(time.DateOnly)
		g, ok := groups[key]
		if !ok {
			g = &eventGroup{day: key, latest: t.Date.UTC(), seen: make(map[string]bool)}
			groups[key] = g
			order = append(order, key)
		}
		g.amount = g.amount.Add(t.Amount)
		g.count++
		if t.Merchant != "" && !g.seen[t.Merchant] {
			g.seen[t.Merchant] = true
			g.merchants = append(g.merchants, t.Merchant)
		}
	}

	report := EventReport{Events: make([]EventDay, 0)}
	total := decimal.Zero
	for _, key := range order {
		g := groups[key]
		if !g.amount.GreaterThan(eventDayThreshold) {
			continue
		}
		merchants := g.merchants
		if merchants == nil {
			merchants = []string{}
		}
		report.Events = append(report.Events, EventDay{
			Date:             g.latest,
			Amount:           g.amount.InexactFloat64(),
			TransactionCount: g.count,
			Merchants:        merchants,
		})
		total = total.Add(g.amount)
	}
	report.TotalAmount = total.InexactFloat64()
	report.Count = len(report.Events)
	return report
}
