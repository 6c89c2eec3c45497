package validation

import (
	"fmt"
	"time"
)

// Common validation errors
var (
	ErrInvalidDate      = fmt.Errorf("invalid date format")
	ErrInvalidDateRange = fmt.Errorf("invalid date range")
)

// ValidateDate checks that a string is a YYYY-MM-DD date.
func ValidateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}
	return nil
}

// ValidateDateRange checks that both bounds parse and start does not come
// after end. Empty bounds are open and always valid.
func ValidateDateRange(start, end string) error {
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.Parse("2006-01-02", start); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidDate, start)
		}
	}
	if end != "" {
		if e, err = time.Parse("2006-01-02", end); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidDate, end)
		}
	}
	if start != "" && end != "" && s.After(e) {
		return fmt.Errorf("%w: %s after %s", ErrInvalidDateRange, start, end)
	}
	return nil
}
