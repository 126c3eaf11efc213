package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/ledgerline/sync-agent/internal/notify"
	"github.com/ledgerline/sync-agent/internal/remote"
	"github.com/ledgerline/sync-agent/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EmployeeSummary is one row of the attendance summary report
type EmployeeSummary struct {
	EmployeeName string          `json:"employee_name"`
	Present      int             `json:"present"`
	HalfDay      int             `json:"half_day"`
	Absent       int             `json:"absent"`
	WorkedDays   decimal.Decimal `json:"worked_days"`
}

// Summary is the attendance report for a date range
type Summary struct {
	FromDate string            `json:"from_date"`
	ToDate   string            `json:"to_date"`
	Rows     []EmployeeSummary `json:"rows"`
}

// Manager fetches attendance summaries for arbitrary date ranges. Reports
// are read-only; nothing here mutates backend state.
type Manager struct {
	client   *remote.Client
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewManager creates a reports manager
func NewManager(client *remote.Client, notifier notify.Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		client:   client,
		notifier: notifier,
		logger:   logger,
	}
}

type summaryResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    []EmployeeSummary `json:"data"`
}

// Load fetches the attendance summary for [from, to]
func (m *Manager) Load(ctx context.Context, from, to string) (Summary, error) {
	if err := utils.ValidateISODate(from); err != nil {
		m.notifier.Error(err.Error())
		return Summary{}, err
	}
	if err := utils.ValidateISODate(to); err != nil {
		m.notifier.Error(err.Error())
		return Summary{}, err
	}
	if from > to {
		err := fmt.Errorf("from_date %s is after to_date %s", from, to)
		m.notifier.Error(err.Error())
		return Summary{}, err
	}

	query := url.Values{}
	query.Set("from_date", from)
	query.Set("to_date", to)

	raw, err := m.client.Get(ctx, "/get-attendance-summary/", query)
	if err != nil {
		m.notifier.Error(err.Error())
		return Summary{}, err
	}

	var resp summaryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		err = &remote.Error{Message: fmt.Sprintf("failed to decode attendance summary: %v", err)}
		m.notifier.Error(err.Error())
		return Summary{}, err
	}
	if !resp.Success {
		err := &remote.Error{Message: resp.Message}
		m.notifier.Error(err.Error())
		return Summary{}, err
	}

	summary := Summary{
		FromDate: from,
		ToDate:   to,
		Rows:     resp.Data,
	}

	m.logger.Info("Attendance summary loaded",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("rows", len(summary.Rows)))
	return summary, nil
}
