package eastmoney

import "time"

// navPoint represents one entry of the Data_netWorthTrend javascript array
// in the eastmoney fund data file. X is a millisecond Unix timestamp, Y the
// unit net asset value. UnitMoney carries a human-readable corporate-action
// announcement on payout or split dates and is empty otherwise.
type navPoint struct {
	X         int64   `json:"x"`
	Y         float64 `json:"y"`
	UnitMoney string  `json:"unitMoney"`
}

// FundRecord is one parsed day of a fund's history after merging the NAV
// and accumulated-value trends.
//
// Auv is nil on dates where the accumulated trend has no entry. BonusAction
// is empty on regular days; when set it is "bonus" (cash payout per unit,
// BonusValue in yuan) or "spin_off" (split, BonusValue is the post-split
// units per pre-split unit).
type FundRecord struct {
	Date        time.Time
	Nav         float64
	Auv         *float64
	BonusAction string
	BonusValue  *float64
}

// FundData is the parsed history of one fund, sorted by date ascending.
type FundData struct {
	Code    string
	Records []FundRecord
}
