package payroll

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ledgerline/sync-agent/internal/notify"
	"github.com/ledgerline/sync-agent/internal/remote"
	"github.com/ledgerline/sync-agent/internal/store"
	"github.com/ledgerline/sync-agent/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PeriodSummary is the backend's aggregate block for the loaded period
type PeriodSummary struct {
	TotalBasic decimal.Decimal `json:"total_basic"`
	TotalSPR   decimal.Decimal `json:"total_spr"`
	TotalNet   decimal.Decimal `json:"total_net"`
	PaidCount  int             `json:"paid_count"`
	TotalCount int             `json:"total_count"`
}

// Manager owns the payroll entry store for the currently selected period.
// Every LoadPeriod takes a monotonic sequence number; a response that is no
// longer the newest issued is discarded, so rapid period switches always
// settle on the last one requested regardless of arrival order.
type Manager struct {
	client   *remote.Client
	entries  *store.Store[string, Entry]
	notifier notify.Notifier
	logger   *zap.Logger

	loadSeq atomic.Uint64

	mu      sync.RWMutex
	summary PeriodSummary
	month   int
	year    int
}

// NewManager creates a payroll manager
func NewManager(client *remote.Client, notifier notify.Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		client:   client,
		entries:  store.New[string, Entry](),
		notifier: notifier,
		logger:   logger,
	}
}

type periodResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    []Entry       `json:"data"`
	Summary PeriodSummary `json:"summary"`
}

// LoadPeriod fetches the entries and summary for one month and replaces the
// store. Latest request wins: if a newer load was issued while this one was
// in flight, its response is dropped with ErrStalePeriod.
func (m *Manager) LoadPeriod(ctx context.Context, month, year int) error {
	if err := utils.ValidateMonthYear(month, year); err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	seq := m.loadSeq.Add(1)

	query := url.Values{}
	query.Set("month", strconv.Itoa(month))
	query.Set("year", strconv.Itoa(year))

	raw, err := m.client.Get(ctx, "/get-payroll-data/", query)
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	var resp periodResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		err = &remote.Error{Message: fmt.Sprintf("failed to decode payroll data: %v", err)}
		m.notifier.Error(err.Error())
		return err
	}
	if !resp.Success {
		err := &remote.Error{Message: resp.Message}
		m.notifier.Error(err.Error())
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.loadSeq.Load() {
		m.logger.Debug("Discarding stale payroll period response",
			zap.Uint64("seq", seq),
			zap.Int("month", month),
			zap.Int("year", year))
		return ErrStalePeriod
	}

	records := make(map[string]Entry, len(resp.Data))
	for _, entry := range resp.Data {
		records[entry.ID] = entry
	}
	m.entries.ReplaceAll(records)
	m.summary = resp.Summary
	m.month = month
	m.year = year

	m.logger.Info("Payroll period loaded",
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Int("entries", len(records)))
	return nil
}

// Save validates an entry and submits it. Split percentages are re-validated
// here even if a preview already checked them; the backend's stored net
// salary is authoritative and picked up on the next reload.
func (m *Manager) Save(ctx context.Context, entry Entry) error {
	if entry.EmployeeName == "" {
		err := fmt.Errorf("employee name is required")
		m.notifier.Error(err.Error())
		return err
	}
	if err := utils.ValidateAmount(entry.BasicSalary); err != nil {
		m.notifier.Error(err.Error())
		return err
	}
	if err := utils.ValidateAmount(entry.SPRAmount); err != nil {
		m.notifier.Error(err.Error())
		return err
	}
	if entry.PaymentMode == ModeSplit {
		if err := ValidateSplit(entry.CashPercent, entry.BankPercent); err != nil {
			m.notifier.Error(err.Error())
			return err
		}
	}

	raw, err := m.client.Post(ctx, "/save-payroll/", map[string]any{
		"employee_name": entry.EmployeeName,
		"basic_salary":  entry.BasicSalary,
		"spr_amount":    entry.SPRAmount,
		"salary_date":   entry.SalaryDate,
		"payment_mode":  entry.PaymentMode,
		"cash_percent":  entry.CashPercent,
		"bank_percent":  entry.BankPercent,
	})
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}
	if err := remote.CheckSuccess(raw); err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	m.notifier.Success(fmt.Sprintf("Payroll saved for %s", entry.EmployeeName))
	return nil
}

// Delete soft-deletes a payroll entry
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.postAndRemove(ctx, "/delete-payroll/", id, "Payroll entry deleted", true)
}

// Restore brings back a soft-deleted payroll entry
func (m *Manager) Restore(ctx context.Context, id string) error {
	return m.postAndRemove(ctx, "/restore-payroll/", id, "Payroll entry restored", false)
}

func (m *Manager) postAndRemove(ctx context.Context, path, id, successMsg string, remove bool) error {
	raw, err := m.client.Post(ctx, path, map[string]any{"id": id})
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}
	if err := remote.CheckSuccess(raw); err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	if remove {
		m.entries.Remove(id)
	}
	m.notifier.Success(successMsg)
	return nil
}

// ToggleStatus flips an entry between paid and unpaid
func (m *Manager) ToggleStatus(ctx context.Context, id string) error {
	entry, ok := m.entries.Get(id)
	if !ok {
		err := fmt.Errorf("unknown payroll entry %q", id)
		m.notifier.Error(err.Error())
		return err
	}

	raw, err := m.client.Post(ctx, "/toggle-payroll-status/", map[string]any{"id": id})
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}
	if err := remote.CheckSuccess(raw); err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	if entry.Status == StatusPaid {
		entry.Status = StatusUnpaid
	} else {
		entry.Status = StatusPaid
	}
	m.entries.Upsert(id, entry)
	return nil
}

// Entries returns a snapshot of the loaded period's entries
func (m *Manager) Entries() map[string]Entry {
	return m.entries.GetAll()
}

// Period returns the currently loaded period and its summary
func (m *Manager) Period() (month, year int, summary PeriodSummary) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.month, m.year, m.summary
}
