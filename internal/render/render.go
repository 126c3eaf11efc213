package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ledgerline/sync-agent/internal/attendance"
	"github.com/ledgerline/sync-agent/internal/income"
	"github.com/ledgerline/sync-agent/internal/roster"
	"github.com/shopspring/decimal"
)

// Table is a rendered grid: a header row plus data rows. Pure data, no IO;
// callers decide how to display it.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Card is a rendered summary tile
type Card struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Labels for the three attendance statuses as the dashboard shows them
func statusLabel(m attendance.MarkCode) string {
	switch m {
	case attendance.MarkPresent:
		return "P"
	case attendance.MarkHalfDay:
		return "H"
	case attendance.MarkAbsent:
		return "A"
	default:
		return "-"
	}
}

// WeekTable builds the weekly attendance grid: one row per employee sorted
// by name, one column per visible date.
func WeekTable(employees map[string]roster.Employee, records map[attendance.Key]attendance.Record, dates []string) Table {
	names := make([]roster.Employee, 0, len(employees))
	for _, e := range employees {
		names = append(names, e)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Name < names[j].Name })

	table := Table{Header: append([]string{"Employee"}, dates...)}
	for _, e := range names {
		row := make([]string, 0, len(dates)+1)
		row = append(row, e.Name)
		for _, date := range dates {
			record, ok := records[attendance.Key{EmployeeID: e.ID, Date: date}]
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, statusLabel(record.Status))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// SummaryCards builds the daily attendance summary tiles
func SummaryCards(s attendance.DailySummary) []Card {
	return []Card{
		{Title: "Present", Value: strconv.Itoa(s.Present)},
		{Title: "Half Day", Value: strconv.Itoa(s.HalfDay)},
		{Title: "Absent", Value: strconv.Itoa(s.Absent)},
		{Title: "Total", Value: strconv.Itoa(s.Total)},
	}
}

// IncomeTable builds the per-day income rows
func IncomeTable(txs []income.Transaction) Table {
	table := Table{Header: []string{"Date", "Description", "Method", "Amount", "Status"}}
	for _, tx := range txs {
		table.Rows = append(table.Rows, []string{
			tx.DisplayDate,
			tx.Description,
			tx.PaymentMethod,
			FormatINR(tx.Amount),
			string(tx.Status),
		})
	}
	return table
}

// FormatINR formats an amount with the rupee sign and Indian digit grouping:
// the last three digits group together, then pairs (12,34,567).
func FormatINR(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)

	parts := strings.SplitN(fixed, ".", 2)
	whole, frac := parts[0], parts[1]

	var grouped string
	if len(whole) <= 3 {
		grouped = whole
	} else {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var pairs []string
		for len(head) > 2 {
			pairs = append([]string{head[len(head)-2:]}, pairs...)
			head = head[:len(head)-2]
		}
		if head != "" {
			pairs = append([]string{head}, pairs...)
		}
		grouped = strings.Join(pairs, ",") + "," + tail
	}

	out := "₹" + grouped + "." + frac
	if negative {
		out = "-" + out
	}
	return out
}
