package income

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/sync-agent/internal/localcache"
	"github.com/ledgerline/sync-agent/internal/notify"
	"github.com/ledgerline/sync-agent/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Status marks whether a transaction's money has arrived
type Status string

const (
	StatusReceived Status = "Received"
	StatusPending  Status = "Pending"
)

// displayDateFormat renders 2024-04-14 as 14-Apr-2024
const displayDateFormat = "02-Jan-2006"

// Transaction is one income record
type Transaction struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	DisplayDate   string          `json:"display_date"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Status        Status          `json:"status"`
}

// Input is the user-entered portion of a new transaction
type Input struct {
	Date          string
	Description   string
	PaymentMethod string
	Amount        decimal.Decimal
	Status        Status
}

// Trend compares one day's total against earlier periods
type Trend struct {
	Date       string          `json:"date"`
	DayTotal   decimal.Decimal `json:"day_total"`
	PrevDay    decimal.Decimal `json:"prev_day"`
	WeekTotal  decimal.Decimal `json:"week_total"`
	PrevWeek   decimal.Decimal `json:"prev_week"`
	MonthTotal decimal.Decimal `json:"month_total"`
	PrevMonth  decimal.Decimal `json:"prev_month"`
}

// Manager partitions income records by calendar date so the selected day's
// records are a map lookup rather than a filter over everything. The
// partition map is the persisted shape; a legacy flat-array snapshot is
// migrated once on load.
type Manager struct {
	mu       sync.RWMutex
	byDate   map[string][]Transaction
	cache    localcache.Store
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewManager creates an income manager
func NewManager(cache localcache.Store, notifier notify.Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		byDate:   make(map[string][]Transaction),
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// Load restores the persisted snapshot, migrating the legacy flat-array
// shape into the date-partitioned map if that is what is stored.
func (m *Manager) Load() error {
	data, found, err := m.cache.Get(localcache.KeyIncomeData)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}

	byDate := make(map[string][]Transaction)

	if strings.HasPrefix(trimmed, "[") {
		// Legacy flat-array shape: partition and rewrite once
		var flat []Transaction
		if err := json.Unmarshal(data, &flat); err != nil {
			return fmt.Errorf("failed to parse legacy income snapshot: %w", err)
		}
		for _, tx := range flat {
			byDate[tx.Date] = append(byDate[tx.Date], tx)
		}

		m.logger.Info("Migrated legacy income snapshot",
			zap.Int("records", len(flat)),
			zap.Int("dates", len(byDate)))
	} else {
		if err := json.Unmarshal(data, &byDate); err != nil {
			return fmt.Errorf("failed to parse income snapshot: %w", err)
		}
	}

	m.mu.Lock()
	m.byDate = byDate
	m.mu.Unlock()

	if strings.HasPrefix(trimmed, "[") {
		return m.persist()
	}
	return nil
}

func (m *Manager) persist() error {
	m.mu.RLock()
	data, err := json.Marshal(m.byDate)
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode income snapshot: %w", err)
	}
	return m.cache.Put(localcache.KeyIncomeData, data)
}

// Add validates and records a new income transaction
func (m *Manager) Add(input Input) (Transaction, error) {
	if err := utils.ValidateISODate(input.Date); err != nil {
		m.notifier.Error(err.Error())
		return Transaction{}, err
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		err := fmt.Errorf("income amount must be positive")
		m.notifier.Error(err.Error())
		return Transaction{}, err
	}
	if input.Status != StatusReceived && input.Status != StatusPending {
		err := fmt.Errorf("invalid income status %q", string(input.Status))
		m.notifier.Error(err.Error())
		return Transaction{}, err
	}

	parsed, _ := time.Parse(utils.ISODateFormat, input.Date)
	tx := Transaction{
		ID:            uuid.NewString(),
		Date:          input.Date,
		DisplayDate:   parsed.Format(displayDateFormat),
		Description:   utils.SanitizeString(input.Description),
		PaymentMethod: input.PaymentMethod,
		Amount:        input.Amount,
		Status:        input.Status,
	}

	m.mu.Lock()
	m.byDate[tx.Date] = append(m.byDate[tx.Date], tx)
	m.mu.Unlock()

	if err := m.persist(); err != nil {
		m.logger.Error("Failed to persist income snapshot", zap.Error(err))
	}

	m.notifier.Success(fmt.Sprintf("Income of %s recorded for %s", tx.Amount.StringFixed(2), tx.DisplayDate))
	return tx, nil
}

// Remove deletes a transaction by id
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	removed := false
	for date, txs := range m.byDate {
		for i, tx := range txs {
			if tx.ID == id {
				m.byDate[date] = append(txs[:i], txs[i+1:]...)
				if len(m.byDate[date]) == 0 {
					delete(m.byDate, date)
				}
				removed = true
				break
			}
		}
		if removed {
			break
		}
	}
	m.mu.Unlock()

	if !removed {
		err := fmt.Errorf("income record %q not found", id)
		m.notifier.Error(err.Error())
		return err
	}

	if err := m.persist(); err != nil {
		m.logger.Error("Failed to persist income snapshot", zap.Error(err))
	}
	m.notifier.Success("Income record removed")
	return nil
}

// ForDate returns the transactions recorded on one calendar date
func (m *Manager) ForDate(date string) []Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Transaction(nil), m.byDate[date]...)
}

// All returns every transaction across all dates, ordered by date
func (m *Manager) All() []Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dates := make([]string, 0, len(m.byDate))
	for date := range m.byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var all []Transaction
	for _, date := range dates {
		all = append(all, m.byDate[date]...)
	}
	return all
}

// Count returns the total number of transactions. Always equals the sum of
// per-date partition lengths.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, txs := range m.byDate {
		count += len(txs)
	}
	return count
}

// TrendFor recomputes period totals around a selected date by re-filtering
// the full record set with explicit date-range predicates. No aggregates are
// cached; the dashboard recomputes on every date change and so does this.
func (m *Manager) TrendFor(date string) (Trend, error) {
	day, err := time.Parse(utils.ISODateFormat, date)
	if err != nil {
		return Trend{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}

	trend := Trend{
		Date:       date,
		DayTotal:   m.sumRange(day, day.AddDate(0, 0, 1)),
		PrevDay:    m.sumRange(day.AddDate(0, 0, -1), day),
		WeekTotal:  m.sumRange(day.AddDate(0, 0, -6), day.AddDate(0, 0, 1)),
		PrevWeek:   m.sumRange(day.AddDate(0, 0, -13), day.AddDate(0, 0, -6)),
		MonthTotal: m.sumRange(day.AddDate(0, -1, 0).AddDate(0, 0, 1), day.AddDate(0, 0, 1)),
		PrevMonth:  m.sumRange(day.AddDate(0, -2, 0).AddDate(0, 0, 1), day.AddDate(0, -1, 0).AddDate(0, 0, 1)),
	}
	return trend, nil
}

// sumRange totals transactions with from <= date < to
func (m *Manager) sumRange(from, to time.Time) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := decimal.Zero
	for date, txs := range m.byDate {
		day, err := time.Parse(utils.ISODateFormat, date)
		if err != nil {
			continue
		}
		if day.Before(from) || !day.Before(to) {
			continue
		}
		for _, tx := range txs {
			total = total.Add(tx.Amount)
		}
	}
	return total
}
