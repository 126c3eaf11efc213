package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ledgerline/sync-agent/internal/attendance"
	"github.com/ledgerline/sync-agent/internal/category"
	"github.com/ledgerline/sync-agent/internal/income"
	"github.com/ledgerline/sync-agent/internal/payroll"
	"github.com/ledgerline/sync-agent/internal/render"
	"github.com/ledgerline/sync-agent/internal/reports"
)

// Handlers exposes the reconciled local state over the agent's HTTP surface
type Handlers struct {
	attendance *attendance.Manager
	payroll    *payroll.Manager
	income     *income.Manager
	reports    *reports.Manager
	exporter   *reports.Exporter
	purchase   *category.Manager
	expense    *category.Manager
	logger     *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	attendanceMgr *attendance.Manager,
	payrollMgr *payroll.Manager,
	incomeMgr *income.Manager,
	reportsMgr *reports.Manager,
	exporter *reports.Exporter,
	purchaseCats *category.Manager,
	expenseCats *category.Manager,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		attendance: attendanceMgr,
		payroll:    payrollMgr,
		income:     incomeMgr,
		reports:    reportsMgr,
		exporter:   exporter,
		purchase:   purchaseCats,
		expense:    expenseCats,
		logger:     logger,
	}
}

// Response is the standard JSON response wrapper
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Register registers all routes on the router
func (h *Handlers) Register(router *gin.Engine) {
	router.GET("/health", h.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/attendance/week", h.WeekTable)
		api.GET("/attendance/summary", h.AttendanceSummary)
		api.POST("/attendance/reload", h.ReloadAttendance)
		api.POST("/attendance/mark", h.MarkAttendance)
		api.DELETE("/attendance/mark", h.DeleteAttendance)
		api.POST("/attendance/employees", h.AddEmployee)
		api.DELETE("/attendance/employees/:id", h.DeleteEmployee)

		api.GET("/payroll", h.PayrollEntries)
		api.POST("/payroll/load", h.LoadPayrollPeriod)
		api.POST("/payroll", h.SavePayrollEntry)
		api.POST("/payroll/:id/toggle", h.TogglePayrollStatus)
		api.POST("/payroll/:id/restore", h.RestorePayrollEntry)
		api.DELETE("/payroll/:id", h.DeletePayrollEntry)

		api.GET("/income", h.IncomeForDate)
		api.GET("/income/trend", h.IncomeTrend)
		api.POST("/income", h.AddIncome)
		api.DELETE("/income/:id", h.RemoveIncome)

		api.GET("/reports/summary", h.ReportSummary)
		api.POST("/reports/export", h.ExportReport)

		api.GET("/categories/:domain", h.Categories)
		api.POST("/categories/:domain", h.AddCategory)
	}
}

// Health reports agent liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ledgerline-agent",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// WeekTable returns the rendered weekly attendance grid
func (h *Handlers) WeekTable(c *gin.Context) {
	table := render.WeekTable(h.attendance.Employees(), h.attendance.Records(), h.attendance.VisibleWeek())
	c.JSON(http.StatusOK, Response{Success: true, Data: table})
}

// AttendanceSummary returns the daily summary cards for ?date= (default today)
func (h *Handlers) AttendanceSummary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	summary := h.attendance.Summary(date)
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"summary": summary,
		"cards":   render.SummaryCards(summary),
	}})
}

// ReloadAttendance triggers a full weekly reload from the backend
func (h *Handlers) ReloadAttendance(c *gin.Context) {
	if err := h.attendance.ReloadWeek(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

type markRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
}

// MarkAttendance saves one attendance cell
func (h *Handlers) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := h.attendance.Mark(c.Request.Context(), req.EmployeeID, req.Date, attendance.MarkCode(req.Status), req.Notes); err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DeleteAttendance removes the record for ?employee_id=&date=
func (h *Handlers) DeleteAttendance(c *gin.Context) {
	err := h.attendance.Delete(c.Request.Context(), c.Query("employee_id"), c.Query("date"))
	if err != nil {
		if errors.Is(err, attendance.ErrNoServerRecord) {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// AddEmployee registers a new employee on the backend and locally
func (h *Handlers) AddEmployee(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := h.attendance.AddEmployee(c.Request.Context(), req.Name); err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DeleteEmployee removes an employee and their week's records
func (h *Handlers) DeleteEmployee(c *gin.Context) {
	if err := h.attendance.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// PayrollEntries returns the loaded period's entries and summary
func (h *Handlers) PayrollEntries(c *gin.Context) {
	month, year, summary := h.payroll.Period()
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"month":   month,
		"year":    year,
		"summary": summary,
		"entries": h.payroll.Entries(),
	}})
}

// LoadPayrollPeriod loads ?month=&year= from the backend
func (h *Handlers) LoadPayrollPeriod(c *gin.Context) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "month must be a number"})
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "year must be a number"})
		return
	}

	if err := h.payroll.LoadPeriod(c.Request.Context(), month, year); err != nil {
		if errors.Is(err, payroll.ErrStalePeriod) {
			c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// SavePayrollEntry validates and submits one payroll row
func (h *Handlers) SavePayrollEntry(c *gin.Context) {
	var entry payroll.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := h.payroll.Save(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// TogglePayrollStatus flips an entry between paid and unpaid
func (h *Handlers) TogglePayrollStatus(c *gin.Context) {
	if err := h.payroll.ToggleStatus(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// RestorePayrollEntry undoes a soft delete on the backend
func (h *Handlers) RestorePayrollEntry(c *gin.Context) {
	if err := h.payroll.Restore(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DeletePayrollEntry soft-deletes an entry on the backend
func (h *Handlers) DeletePayrollEntry(c *gin.Context) {
	if err := h.payroll.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// IncomeForDate returns the rendered income rows for ?date=
func (h *Handlers) IncomeForDate(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	txs := h.income.ForDate(date)
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"transactions": txs,
		"table":        render.IncomeTable(txs),
	}})
}

// IncomeTrend returns the period comparisons for ?date=
func (h *Handlers) IncomeTrend(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	trend, err := h.income.TrendFor(date)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: trend})
}

type incomeRequest struct {
	Date          string `json:"date" binding:"required"`
	Description   string `json:"description"`
	PaymentMethod string `json:"payment_method"`
	Amount        string `json:"amount" binding:"required"`
	Status        string `json:"status"`
}

// AddIncome records a new income transaction
func (h *Handlers) AddIncome(c *gin.Context) {
	var req incomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "amount must be a number"})
		return
	}
	tx, err := h.income.Add(income.Input{
		Date:          req.Date,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		Amount:        amount,
		Status:        income.Status(req.Status),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: tx})
}

// RemoveIncome deletes a transaction by id
func (h *Handlers) RemoveIncome(c *gin.Context) {
	if err := h.income.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ReportSummary fetches the attendance summary for ?from_date=&to_date=
func (h *Handlers) ReportSummary(c *gin.Context) {
	summary, err := h.reports.Load(c.Request.Context(), c.Query("from_date"), c.Query("to_date"))
	if err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// ExportReport fetches a summary and writes it to an .xlsx workbook
func (h *Handlers) ExportReport(c *gin.Context) {
	summary, err := h.reports.Load(c.Request.Context(), c.Query("from_date"), c.Query("to_date"))
	if err != nil {
		c.JSON(http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}

	path, err := h.exporter.ExportAttendanceSummary(summary)
	if err != nil {
		h.logger.Error("Report export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"path": path}})
}

// Categories returns the purchase or expense category list
func (h *Handlers) Categories(c *gin.Context) {
	var mgr *category.Manager
	switch c.Param("domain") {
	case string(category.DomainPurchase):
		mgr = h.purchase
	case string(category.DomainExpense):
		mgr = h.expense
	default:
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "unknown category domain"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: mgr.Sorted()})
}

// AddCategory appends a category to the purchase or expense list
func (h *Handlers) AddCategory(c *gin.Context) {
	var mgr *category.Manager
	switch c.Param("domain") {
	case string(category.DomainPurchase):
		mgr = h.purchase
	case string(category.DomainExpense):
		mgr = h.expense
	default:
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "unknown category domain"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := mgr.Add(req.Name); err != nil {
		if errors.Is(err, category.ErrDuplicateCategory) {
			c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: mgr.List()})
}
