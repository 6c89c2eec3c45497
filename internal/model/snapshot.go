package model

import (
	"database/sql"
	"time"
)

// AssetSnapshot is a derived row recording how much of one asset an account
// held at the end of a calendar day, together with the cumulative cost basis.
//
// Rows are sparse: a snapshot is written only for days on which the holding
// changed. Readers must carry the most recent prior row forward for the days
// in between. Cost is NULL for the cash pseudo-asset, which has no cost basis.
type AssetSnapshot struct {
	ID        string          `json:"id"`
	Account   string          `json:"account"`
	Date      time.Time       `json:"date"`
	AssetCode string          `json:"assetCode"`
	Amount    float64         `json:"amount"`
	Cost      sql.NullFloat64 `json:"cost"`
}
