package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ledgerline/sync-agent/internal/notify"
	"github.com/ledgerline/sync-agent/internal/remote"
	"github.com/ledgerline/sync-agent/internal/roster"
	"github.com/ledgerline/sync-agent/internal/store"
	"github.com/ledgerline/sync-agent/pkg/utils"
	"go.uber.org/zap"
)

// ErrNoServerRecord is returned when a delete or edit targets a cell the
// backend has never confirmed. The operation rejects locally and issues no
// network call.
var ErrNoServerRecord = errors.New("no attendance record found to delete")

// Record is one attendance cell. ServerID is nil until the backend confirms
// the record; the backend is the authority for it.
type Record struct {
	EmployeeID string    `json:"employee_id"`
	Date       string    `json:"date"`
	Status     MarkCode  `json:"status"`
	Notes      string    `json:"notes"`
	ServerID   *int64    `json:"server_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key identifies a cell: at most one record per employee per date
type Key struct {
	EmployeeID string
	Date       string
}

// DailySummary holds the per-day counts recomputed after every save and reload
type DailySummary struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	HalfDay int    `json:"half_day"`
	Absent  int    `json:"absent"`
	Total   int    `json:"total"`
}

// Manager owns the attendance stores and reconciles backend responses into
// them. Cell transitions happen only on explicit Mark/Edit calls, never
// inferred; on failure the stores are left untouched.
type Manager struct {
	client    *remote.Client
	employees *store.Store[string, roster.Employee]
	records   *store.Store[Key, Record]
	notifier  notify.Notifier
	logger    *zap.Logger
	now       func() time.Time

	weekMu    sync.RWMutex
	weekStart time.Time
}

// NewManager creates an attendance manager
func NewManager(client *remote.Client, notifier notify.Notifier, logger *zap.Logger) *Manager {
	m := &Manager{
		client:    client,
		employees: store.New[string, roster.Employee](),
		records:   store.New[Key, Record](),
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
	m.weekStart = StartOfWeek(m.now())
	return m
}

// SetClock overrides the wall clock, for tests
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
	m.setWeekStart(StartOfWeek(now()))
}

func (m *Manager) setWeekStart(t time.Time) {
	m.weekMu.Lock()
	defer m.weekMu.Unlock()
	m.weekStart = t
}

// WeekStart returns the Monday anchoring the visible week
func (m *Manager) WeekStart() time.Time {
	m.weekMu.RLock()
	defer m.weekMu.RUnlock()
	return m.weekStart
}

// VisibleWeek returns the seven ISO dates of the visible week
func (m *Manager) VisibleWeek() []string {
	return WeekDates(m.WeekStart())
}

type weeklyResponse struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	Employees      []string `json:"employees"`
	AttendanceData map[string]struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
		ID     int64  `json:"id"`
	} `json:"attendance_data"`
}

// ReloadWeek fetches the weekly roster and attendance grid, then replaces
// both stores wholesale. Local edits made during the round trip are
// discarded; the backend is the source of truth at reload granularity.
func (m *Manager) ReloadWeek(ctx context.Context) error {
	raw, err := m.client.Get(ctx, "/get-weekly-attendance/", nil)
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	var resp weeklyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		err = &remote.Error{Message: fmt.Sprintf("failed to decode weekly attendance: %v", err)}
		m.notifier.Error(err.Error())
		return err
	}
	if !resp.Success {
		err := &remote.Error{Message: resp.Message}
		m.notifier.Error(err.Error())
		return err
	}

	employees, err := roster.BuildRoster(resp.Employees)
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	records := make(map[Key]Record, len(resp.AttendanceData))
	for cellKey, cell := range resp.AttendanceData {
		employeeID, date, err := parseCellKey(cellKey)
		if err != nil {
			m.logger.Warn("Skipping unparseable attendance cell",
				zap.String("key", cellKey), zap.Error(err))
			continue
		}

		status, err := ParseWire(cell.Status)
		if err != nil {
			m.logger.Warn("Skipping attendance cell with unknown status",
				zap.String("key", cellKey), zap.String("status", cell.Status))
			continue
		}

		id := cell.ID
		records[Key{EmployeeID: employeeID, Date: date}] = Record{
			EmployeeID: employeeID,
			Date:       date,
			Status:     status,
			Notes:      cell.Notes,
			ServerID:   &id,
			UpdatedAt:  m.now(),
		}
	}

	m.employees.ReplaceAll(employees)
	m.records.ReplaceAll(records)

	m.logger.Info("Weekly attendance reloaded",
		zap.Int("employees", len(employees)),
		zap.Int("records", len(records)))
	return nil
}

// parseCellKey splits "<name>_<date>" on the final underscore
func parseCellKey(key string) (employeeID, date string, err error) {
	idx := strings.LastIndex(key, "_")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", fmt.Errorf("malformed attendance key %q", key)
	}
	employeeID, date = key[:idx], key[idx+1:]
	if err := utils.ValidateISODate(date); err != nil {
		return "", "", err
	}
	return roster.Slugify(employeeID), date, nil
}

type saveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id"`
	Notes   string `json:"notes"`
}

// Mark records an explicit status selection for one cell and saves it
// immediately. On success the store entry carries the backend-returned row
// id; on failure the previous store state stands.
func (m *Manager) Mark(ctx context.Context, employeeID, date string, status MarkCode, notes string) error {
	if !status.Valid() {
		err := fmt.Errorf("invalid attendance status %q", string(status))
		m.notifier.Error(err.Error())
		return err
	}
	if err := utils.ValidateISODate(date); err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	employee, ok := m.employees.Get(employeeID)
	if !ok {
		err := fmt.Errorf("unknown employee %q", employeeID)
		m.notifier.Error(err.Error())
		return err
	}

	wireStatus, err := status.Wire()
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	raw, err := m.client.Post(ctx, "/save-attendance/", map[string]any{
		"employee_name": employee.Name,
		"date":          date,
		"status":        wireStatus,
		"notes":         utils.SanitizeString(notes),
	})
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	var resp saveResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		err = &remote.Error{Message: fmt.Sprintf("failed to decode save response: %v", err)}
		m.notifier.Error(err.Error())
		return err
	}
	if !resp.Success {
		err := &remote.Error{Message: resp.Message}
		m.notifier.Error(err.Error())
		return err
	}

	m.records.Upsert(Key{EmployeeID: employeeID, Date: date}, Record{
		EmployeeID: employeeID,
		Date:       date,
		Status:     status,
		Notes:      resp.Notes,
		ServerID:   &resp.ID,
		UpdatedAt:  m.now(),
	})

	m.notifier.Success(fmt.Sprintf("Attendance saved for %s", employee.Name))
	return nil
}

// Edit updates the status and notes of a backend-confirmed cell
func (m *Manager) Edit(ctx context.Context, employeeID, date string, status MarkCode, notes string) error {
	record, ok := m.records.Get(Key{EmployeeID: employeeID, Date: date})
	if !ok || record.ServerID == nil {
		m.notifier.Error(ErrNoServerRecord.Error())
		return ErrNoServerRecord
	}
	if !status.Valid() {
		err := fmt.Errorf("invalid attendance status %q", string(status))
		m.notifier.Error(err.Error())
		return err
	}

	wireStatus, err := status.Wire()
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	raw, err := m.client.Post(ctx, "/edit-attendance/", map[string]any{
		"id":     *record.ServerID,
		"status": wireStatus,
		"notes":  utils.SanitizeString(notes),
	})
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}
	if err := remote.CheckSuccess(raw); err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	record.Status = status
	record.Notes = notes
	record.UpdatedAt = m.now()
	m.records.Upsert(Key{EmployeeID: employeeID, Date: date}, record)
	return nil
}

// Delete removes a backend-confirmed cell. A cell without a server id
// rejects locally and issues no network call.
func (m *Manager) Delete(ctx context.Context, employeeID, date string) error {
	record, ok := m.records.Get(Key{EmployeeID: employeeID, Date: date})
	if !ok || record.ServerID == nil {
		m.notifier.Error(ErrNoServerRecord.Error())
		return ErrNoServerRecord
	}

	raw, err := m.client.Post(ctx, "/delete-attendance/", map[string]any{
		"id": *record.ServerID,
	})
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}
	if err := remote.CheckSuccess(raw); err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	m.records.Remove(Key{EmployeeID: employeeID, Date: date})
	m.notifier.Success("Attendance record deleted")
	return nil
}

// DeleteEmployee removes an employee and all their attendance records
func (m *Manager) DeleteEmployee(ctx context.Context, employeeID string) error {
	employee, ok := m.employees.Get(employeeID)
	if !ok {
		err := fmt.Errorf("unknown employee %q", employeeID)
		m.notifier.Error(err.Error())
		return err
	}

	raw, err := m.client.Post(ctx, "/delete-employee-attendance/", map[string]any{
		"employee_name": employee.Name,
	})
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}
	if err := remote.CheckSuccess(raw); err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	m.employees.Remove(employeeID)
	for key := range m.records.GetAll() {
		if key.EmployeeID == employeeID {
			m.records.Remove(key)
		}
	}

	m.notifier.Success(fmt.Sprintf("Removed %s from attendance", employee.Name))
	return nil
}

// AddEmployee registers a new roster member. Two distinct names normalizing
// to the same slug conflict instead of silently merging.
func (m *Manager) AddEmployee(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		err := fmt.Errorf("employee name is required")
		m.notifier.Error(err.Error())
		return err
	}

	slug := roster.Slugify(name)
	if existing, ok := m.employees.Get(slug); ok && existing.Name != name {
		err := &roster.ErrSlugCollision{
			Slug:            slug,
			ExistingName:    existing.Name,
			ConflictingName: name,
		}
		m.notifier.Error(err.Error())
		return err
	}

	raw, err := m.client.Post(ctx, "/add-employee/", map[string]any{
		"employee_name": name,
	})
	if err != nil {
		m.notifier.Error(err.Error())
		return err
	}
	if err := remote.CheckSuccess(raw); err != nil {
		m.notifier.Error(err.Error())
		return err
	}

	m.employees.Upsert(slug, roster.Employee{ID: slug, Name: name, Active: true})
	m.notifier.Success(fmt.Sprintf("Added %s", name))
	return nil
}

// SaveAll re-saves every populated cell, one request per cell; there is no
// batch endpoint. Returns the first error after attempting all cells.
func (m *Manager) SaveAll(ctx context.Context) error {
	var firstErr error
	saved := 0
	for key, record := range m.records.GetAll() {
		if !record.Status.Valid() {
			continue
		}
		if err := m.Mark(ctx, key.EmployeeID, key.Date, record.Status, record.Notes); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}

	if firstErr == nil {
		m.notifier.Success(fmt.Sprintf("Saved %d attendance records", saved))
	}
	return firstErr
}

// Summary recomputes the per-day counts by a full scan of the record store
func (m *Manager) Summary(date string) DailySummary {
	summary := DailySummary{Date: date, Total: m.employees.Len()}
	for _, record := range m.records.GetAll() {
		if record.Date != date {
			continue
		}
		switch record.Status {
		case MarkPresent:
			summary.Present++
		case MarkHalfDay:
			summary.HalfDay++
		case MarkAbsent:
			summary.Absent++
		}
	}
	return summary
}

// Employees returns a snapshot of the roster
func (m *Manager) Employees() map[string]roster.Employee {
	return m.employees.GetAll()
}

// Records returns a snapshot of the attendance grid
func (m *Manager) Records() map[Key]Record {
	return m.records.GetAll()
}

// WakeCheck recomputes the visible week if the wall-clock date has advanced
// past it, then reloads. Called by the midnight worker and on demand when
// the agent resumes after a suspend.
func (m *Manager) WakeCheck(ctx context.Context) error {
	current := StartOfWeek(m.now())
	if current.Equal(m.WeekStart()) {
		return nil
	}

	m.logger.Info("Week rolled over",
		zap.String("previous", m.WeekStart().Format("2006-01-02")),
		zap.String("current", current.Format("2006-01-02")))

	m.setWeekStart(current)
	return m.ReloadWeek(ctx)
}
