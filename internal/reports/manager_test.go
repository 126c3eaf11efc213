package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
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

func summaryMux(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/get-attendance-summary/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-04-01", r.URL.Query().Get("from_date"))
		assert.Equal(t, "2024-04-30", r.URL.Query().Get("to_date"))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"employee_name": "Asha Rao", "present": 20, "half_day": 2, "absent": 1, "worked_days": 21},
				{"employee_name": "Ravi Kumar", "present": 18, "half_day": 0, "absent": 5, "worked_days": 18},
			},
		})
	})
	return mux
}

func TestLoadSummary(t *testing.T) {
	m, _ := newTestManager(t, summaryMux(t))

	summary, err := m.Load(context.Background(), "2024-04-01", "2024-04-30")
	require.NoError(t, err)

	assert.Equal(t, "2024-04-01", summary.FromDate)
	require.Len(t, summary.Rows, 2)
	assert.Equal(t, "Asha Rao", summary.Rows[0].EmployeeName)
	assert.Equal(t, 20, summary.Rows[0].Present)
}

func TestLoadValidatesRange(t *testing.T) {
	m, recorder := newTestManager(t, http.NewServeMux())

	_, err := m.Load(context.Background(), "2024-04-30", "2024-04-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after")

	_, err = m.Load(context.Background(), "April 1", "2024-04-30")
	require.Error(t, err)
	assert.NotEmpty(t, recorder.Errors())
}

func TestLoadSurfacesBusinessError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/get-attendance-summary/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "range too large"})
	})

	m, recorder := newTestManager(t, mux)
	_, err := m.Load(context.Background(), "2020-01-01", "2024-04-30")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "range too large")
	assert.NotEmpty(t, recorder.Errors())
}

func TestExportAttendanceSummary(t *testing.T) {
	exporter, err := NewExporter(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	m, _ := newTestManager(t, summaryMux(t))
	summary, err := m.Load(context.Background(), "2024-04-01", "2024-04-30")
	require.NoError(t, err)

	path, err := exporter.ExportAttendanceSummary(summary)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue("Attendance Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", name)

	present, err := f.GetCellValue("Attendance Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "20", present)
}
