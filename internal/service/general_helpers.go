package service

import (
	"math"
	"time"
)

// Negligible quantity/value thresholds. Holdings below epsilonAmount are
// treated as fully closed positions; money totals below epsilonMoney make
// ratios undefined.
const (
	epsilonAmount = 1e-5
	epsilonMoney  = 1e-4
)

// dateOf truncates a timestamp to its calendar date at midnight UTC.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// nextDay returns midnight of the day after the given date, the exclusive
// upper bound for "deals up to and including this date".
func nextDay(date time.Time) time.Time {
	return dateOf(date).AddDate(0, 0, 1)
}

// round2 rounds monetary values for the presentation boundary.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round4 rounds ratios and prices for the presentation boundary.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
