package model

import "time"

// HistoryRow is one day of derived account-level metrics.
//
// Invested is the net capital transferred into the account up to that day.
// Money is the total market value including cash. Nav is the cumulative
// return multiple (money/invested, base 1.0 = break-even). Position is
// 1 - cash/money, reported as 0 when money is negligible.
type HistoryRow struct {
	ID       string    `json:"id"`
	Account  string    `json:"account"`
	Date     time.Time `json:"date"`
	Invested float64   `json:"invested"`
	Money    float64   `json:"money"`
	Nav      float64   `json:"nav"`
	Cash     float64   `json:"cash"`
	Position float64   `json:"position"`
}
