package reports

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledgerline/sync-agent/internal/payroll"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Exporter writes report workbooks for offline review
type Exporter struct {
	outputDir string
	logger    *zap.Logger
}

// NewExporter creates an exporter writing into outputDir
func NewExporter(outputDir string, logger *zap.Logger) (*Exporter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Exporter{
		outputDir: outputDir,
		logger:    logger,
	}, nil
}

// ExportAttendanceSummary writes the attendance summary to an .xlsx workbook
// and returns the file path.
func (e *Exporter) ExportAttendanceSummary(summary Summary) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Attendance Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []string{"Employee", "Present", "Half Day", "Absent", "Worked Days"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, row := range summary.Rows {
		values := []any{row.EmployeeName, row.Present, row.HalfDay, row.Absent, row.WorkedDays.InexactFloat64()}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	path := filepath.Join(e.outputDir, fmt.Sprintf("attendance_%s_%s.xlsx", summary.FromDate, summary.ToDate))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Attendance summary exported",
		zap.String("path", path),
		zap.Int("rows", len(summary.Rows)))
	return path, nil
}

// ExportPayroll writes the loaded payroll period to an .xlsx workbook
func (e *Exporter) ExportPayroll(month, year int, entries map[string]payroll.Entry) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Payroll"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}

	headers := []string{"Employee", "Basic Salary", "SPR Amount", "Net Salary", "Salary Date", "Mode", "Status"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	i := 0
	for _, entry := range entries {
		values := []any{
			entry.EmployeeName,
			entry.BasicSalary.InexactFloat64(),
			entry.SPRAmount.InexactFloat64(),
			entry.NetSalary.InexactFloat64(),
			entry.SalaryDate,
			string(entry.PaymentMode),
			string(entry.Status),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
		i++
	}

	path := filepath.Join(e.outputDir, fmt.Sprintf("payroll_%04d-%02d.xlsx", year, month))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Payroll exported", zap.String("path", path), zap.Int("rows", i))
	return path, nil
}
