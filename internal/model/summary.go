package model

import "time"

// TotalAccount is the synthetic account name used for the row aggregating
// all selected accounts in summaries and history series.
const TotalAccount = "总计"

// AccountSummary is the point-in-time view of one account (or of the
// aggregate total row) served to the presentation layer. Monetary figures
// are rounded to 2 decimals and ratios to 4 at this boundary.
//
// AnnualizedReturn is nil when the money-weighted return is undefined for
// the account (degenerate cash-flow schedule or solver non-convergence).
type AccountSummary struct {
	Account          string    `json:"account"`
	Date             time.Time `json:"date"`
	Invested         float64   `json:"invested"`
	Money            float64   `json:"money"`
	Return           float64   `json:"return"`
	ReturnRate       float64   `json:"returnRate"`
	Cash             float64   `json:"cash"`
	Position         float64   `json:"position"`
	AnnualizedReturn *float64  `json:"annualizedReturn"`
}

// AssetPosition is one line of the merged multi-account holdings valuation:
// quantities and costs summed across accounts by asset, then valued once.
//
// Pointer fields are nil where the figure is undefined: cash has no cost or
// price date, an asset without a resolvable price has no return, and return
// rate needs a positive cost basis.
type AssetPosition struct {
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	Amount     float64    `json:"amount"`
	Money      float64    `json:"money"`
	Cost       *float64   `json:"cost"`
	AvgCost    *float64   `json:"avgCost"`
	Price      *float64   `json:"price"`
	PriceDate  *time.Time `json:"priceDate"`
	Return     *float64   `json:"return"`
	ReturnRate *float64   `json:"returnRate"`
}
