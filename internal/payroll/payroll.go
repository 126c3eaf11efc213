package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentMode selects how a salary is disbursed
type PaymentMode string

const (
	ModeFullCash PaymentMode = "full_cash"
	ModeFullBank PaymentMode = "full_bank"
	ModeSplit    PaymentMode = "split"
)

// Status marks whether an entry has been paid out
type Status string

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
)

// ErrStalePeriod marks a period load whose response arrived after a newer
// load was issued; the response is discarded unapplied.
var ErrStalePeriod = errors.New("payroll period response superseded by a newer request")

// splitTolerance is how far cash+bank percentages may deviate from 100.
var splitTolerance = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

// Entry is one payroll row. NetSalary is whatever the backend returned on
// the last reload; the client-side computation in Preview is display-only
// and the two are not reconciled.
type Entry struct {
	ID           string          `json:"id"`
	EmployeeName string          `json:"employee_name"`
	BasicSalary  decimal.Decimal `json:"basic_salary"`
	SPRAmount    decimal.Decimal `json:"spr_amount"`
	NetSalary    decimal.Decimal `json:"net_salary"`
	SalaryDate   string          `json:"salary_date"`
	Status       Status          `json:"status"`
	PaymentMode  PaymentMode     `json:"payment_mode"`
	CashPercent  decimal.Decimal `json:"cash_percent"`
	BankPercent  decimal.Decimal `json:"bank_percent"`
}

// Preview holds the client-side cash/bank breakdown shown before submission
type Preview struct {
	Gross      decimal.Decimal `json:"gross"`
	CashAmount decimal.Decimal `json:"cash_amount"`
	BankAmount decimal.Decimal `json:"bank_amount"`
}

// ValidateSplit checks that a split-mode percentage pair sums to 100 within
// tolerance. Enforced on every preview recomputation and again at submit.
func ValidateSplit(cashPercent, bankPercent decimal.Decimal) error {
	sum := cashPercent.Add(bankPercent)
	if sum.Sub(hundred).Abs().GreaterThan(splitTolerance) {
		return fmt.Errorf("cash and bank percentages must total 100, got %s", sum.String())
	}
	if cashPercent.IsNegative() || bankPercent.IsNegative() {
		return fmt.Errorf("percentages must not be negative")
	}
	return nil
}

// ComputePreview derives the cash/bank breakdown for an entry. For split
// mode the percentages must validate; the other modes put everything on one
// side.
func ComputePreview(entry Entry) (Preview, error) {
	gross := entry.BasicSalary.Add(entry.SPRAmount)

	switch entry.PaymentMode {
	case ModeFullCash:
		return Preview{Gross: gross, CashAmount: gross, BankAmount: decimal.Zero}, nil
	case ModeFullBank:
		return Preview{Gross: gross, CashAmount: decimal.Zero, BankAmount: gross}, nil
	case ModeSplit:
		if err := ValidateSplit(entry.CashPercent, entry.BankPercent); err != nil {
			return Preview{}, err
		}
		cash := gross.Mul(entry.CashPercent).Div(hundred).Round(2)
		return Preview{Gross: gross, CashAmount: cash, BankAmount: gross.Sub(cash)}, nil
	default:
		return Preview{}, fmt.Errorf("unknown payment mode %q", string(entry.PaymentMode))
	}
}
