package payroll

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ledgerline/sync-agent/internal/auth"
	"github.com/ledgerline/sync-agent/internal/notify"
	"github.com/ledgerline/sync-agent/internal/remote"
)

func newTestManager(t *testing.T, handler http.Handler) (*Manager, *notify.Recorder) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := remote.NewClient(remote.Config{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, auth.NewStaticToken("test-token"), zap.NewNop())

	recorder := notify.NewRecorder()
	return NewManager(client, recorder, zap.NewNop()), recorder
}

func periodPayload(month string, entries []map[string]any) map[string]any {
	return map[string]any{
		"success": true,
		"data":    entries,
		"summary": map[string]any{"total_count": len(entries)},
	}
}

func TestLoadPeriodReplacesEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/get-payroll-data/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(periodPayload(r.URL.Query().Get("month"), []map[string]any{
			{"id": "p1", "employee_name": "Asha Rao", "basic_salary": 20000, "net_salary": 20000, "status": "unpaid", "payment_mode": "full_cash"},
		}))
	})

	m, _ := newTestManager(t, mux)
	require.NoError(t, m.LoadPeriod(context.Background(), 4, 2024))

	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Asha Rao", entries["p1"].EmployeeName)
	assert.True(t, entries["p1"].NetSalary.Equal(d("20000")))

	month, year, summary := m.Period()
	assert.Equal(t, 4, month)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 1, summary.TotalCount)
}

func TestLoadPeriodValidatesSelector(t *testing.T) {
	m, recorder := newTestManager(t, http.NewServeMux())

	require.Error(t, m.LoadPeriod(context.Background(), 13, 2024))
	require.Error(t, m.LoadPeriod(context.Background(), 0, 2024))
	assert.NotEmpty(t, recorder.Errors())
}

// A slow response for an earlier period switch must not overwrite the data
// of a later one, whatever order the responses arrive in.
func TestStalePeriodResponseIsDiscarded(t *testing.T) {
	aprilBlocked := make(chan struct{})
	aprilEntered := make(chan struct{})
	firstApril := true

	mux := http.NewServeMux()
	mux.HandleFunc("/get-payroll-data/", func(w http.ResponseWriter, r *http.Request) {
		month := r.URL.Query().Get("month")
		if month == "4" && firstApril {
			firstApril = false
			close(aprilEntered)
			<-aprilBlocked
		}
		json.NewEncoder(w).Encode(periodPayload(month, []map[string]any{
			{"id": "m" + month, "employee_name": "Asha Rao", "basic_salary": 20000, "status": "unpaid", "payment_mode": "full_cash"},
		}))
	})

	m, _ := newTestManager(t, mux)

	aprilDone := make(chan error, 1)
	go func() {
		aprilDone <- m.LoadPeriod(context.Background(), 4, 2024)
	}()

	// Wait until the April request is in flight, then switch to May
	<-aprilEntered
	require.NoError(t, m.LoadPeriod(context.Background(), 5, 2024))

	// Release the stale April response
	close(aprilBlocked)
	err := <-aprilDone
	require.ErrorIs(t, err, ErrStalePeriod)

	// The store still reflects the latest request, not the latest arrival
	month, _, _ := m.Period()
	assert.Equal(t, 5, month)
	_, ok := m.Entries()["m5"]
	assert.True(t, ok)
	_, stale := m.Entries()["m4"]
	assert.False(t, stale)
}

func TestSaveRejectsBadSplitBeforeNetwork(t *testing.T) {
	requests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/save-payroll/", func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	m, recorder := newTestManager(t, mux)
	err := m.Save(context.Background(), Entry{
		EmployeeName: "Asha Rao",
		BasicSalary:  d("20000"),
		PaymentMode:  ModeSplit,
		CashPercent:  d("60"),
		BankPercent:  d("20"),
	})
	require.Error(t, err)
	assert.Zero(t, requests, "submit-time validation must hard-reject before any request")
	assert.NotEmpty(t, recorder.Errors())
}

func TestToggleStatusFlipsEntry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/get-payroll-data/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(periodPayload("4", []map[string]any{
			{"id": "p1", "employee_name": "Asha Rao", "basic_salary": 20000, "status": "unpaid", "payment_mode": "full_cash"},
		}))
	})
	mux.HandleFunc("/toggle-payroll-status/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	m, _ := newTestManager(t, mux)
	require.NoError(t, m.LoadPeriod(context.Background(), 4, 2024))

	require.NoError(t, m.ToggleStatus(context.Background(), "p1"))
	assert.Equal(t, StatusPaid, m.Entries()["p1"].Status)

	require.NoError(t, m.ToggleStatus(context.Background(), "p1"))
	assert.Equal(t, StatusUnpaid, m.Entries()["p1"].Status)
}

func TestDeleteRemovesEntryOnSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/get-payroll-data/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(periodPayload("4", []map[string]any{
			{"id": "p1", "employee_name": "Asha Rao", "basic_salary": 20000, "status": "unpaid", "payment_mode": "full_cash"},
		}))
	})
	mux.HandleFunc("/delete-payroll/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	m, _ := newTestManager(t, mux)
	require.NoError(t, m.LoadPeriod(context.Background(), 4, 2024))

	require.NoError(t, m.Delete(context.Background(), "p1"))
	assert.Empty(t, m.Entries())
}

func TestDeleteFailureLeavesStoreUntouched(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/get-payroll-data/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(periodPayload("4", []map[string]any{
			{"id": "p1", "employee_name": "Asha Rao", "basic_salary": 20000, "status": "unpaid", "payment_mode": "full_cash"},
		}))
	})
	mux.HandleFunc("/delete-payroll/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "entry is locked"})
	})

	m, recorder := newTestManager(t, mux)
	require.NoError(t, m.LoadPeriod(context.Background(), 4, 2024))

	err := m.Delete(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry is locked")
	assert.Len(t, m.Entries(), 1)
	assert.NotEmpty(t, recorder.Errors())
}
