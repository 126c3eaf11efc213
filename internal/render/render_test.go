package render

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/sync-agent/internal/attendance"
	"github.com/ledgerline/sync-agent/internal/income"
	"github.com/ledgerline/sync-agent/internal/roster"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		expected string
	}{
		{name: "small", amount: "0", expected: "₹0.00"},
		{name: "hundreds", amount: "850", expected: "₹850.00"},
		{name: "thousands", amount: "1850", expected: "₹1,850.00"},
		{name: "twenty thousand", amount: "20000", expected: "₹20,000.00"},
		{name: "lakh", amount: "100000", expected: "₹1,00,000.00"},
		{name: "crore", amount: "12345678.9", expected: "₹1,23,45,678.90"},
		{name: "negative", amount: "-1850", expected: "-₹1,850.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatINR(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestWeekTable(t *testing.T) {
	employees := map[string]roster.Employee{
		"ravi_kumar": {ID: "ravi_kumar", Name: "Ravi Kumar", Active: true},
		"asha_rao":   {ID: "asha_rao", Name: "Asha Rao", Active: true},
	}
	records := map[attendance.Key]attendance.Record{
		{EmployeeID: "asha_rao", Date: "2024-04-15"}:   {Status: attendance.MarkPresent},
		{EmployeeID: "asha_rao", Date: "2024-04-16"}:   {Status: attendance.MarkHalfDay},
		{EmployeeID: "ravi_kumar", Date: "2024-04-15"}: {Status: attendance.MarkAbsent},
	}
	dates := []string{"2024-04-15", "2024-04-16"}

	table := WeekTable(employees, records, dates)

	require.Equal(t, []string{"Employee", "2024-04-15", "2024-04-16"}, table.Header)
	require.Len(t, table.Rows, 2)

	// Rows sorted by display name
	assert.Equal(t, []string{"Asha Rao", "P", "H"}, table.Rows[0])
	assert.Equal(t, []string{"Ravi Kumar", "A", "-"}, table.Rows[1])
}

func TestSummaryCards(t *testing.T) {
	cards := SummaryCards(attendance.DailySummary{
		Date:    "2024-04-15",
		Present: 5,
		HalfDay: 1,
		Absent:  2,
		Total:   8,
	})

	require.Len(t, cards, 4)
	assert.Equal(t, Card{Title: "Present", Value: "5"}, cards[0])
	assert.Equal(t, Card{Title: "Total", Value: "8"}, cards[3])
}

func TestIncomeTable(t *testing.T) {
	table := IncomeTable([]income.Transaction{
		{
			DisplayDate:   "14-Apr-2024",
			Description:   "counter sales",
			PaymentMethod: "UPI",
			Amount:        decimal.RequireFromString("1850"),
			Status:        income.StatusPending,
		},
	})

	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"14-Apr-2024", "counter sales", "UPI", "₹1,850.00", "Pending"}, table.Rows[0])
}
