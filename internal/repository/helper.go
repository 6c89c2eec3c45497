package repository

import (
	"fmt"
	"time"
)

// Storage layouts for dates and timestamps. SQLite stores both as text;
// lexicographic comparison on these layouts matches chronological order.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// ParseTime parses a date string in "2006-01-02", "2006-01-02 15:04:05" or
// RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	layouts := []string{DateLayout, DateTimeLayout, time.RFC3339}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, str); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date %q", str)
}
