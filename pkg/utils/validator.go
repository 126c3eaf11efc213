package utils

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// ISODateFormat is the wire format for calendar dates throughout the backend API.
const ISODateFormat = "2006-01-02"

// ValidateISODate validates a YYYY-MM-DD calendar date
func ValidateISODate(date string) error {
	if _, err := time.Parse(ISODateFormat, date); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return nil
}

// ValidateMonthYear validates a payroll period selector
func ValidateMonthYear(month, year int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12: %d", month)
	}
	if year < 2000 || year > 2100 {
		return fmt.Errorf("year out of range: %d", year)
	}
	return nil
}

// ValidateAmount validates a monetary amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("amount must not be negative: %s", amount.String())
	}
	return nil
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString removes control characters from user-entered text
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
