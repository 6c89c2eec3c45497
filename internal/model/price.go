package model

import (
	"database/sql"
	"time"
)

// Corporate-action annotations carried on fund price points.
const (
	PriceActionBonus   = "bonus"
	PriceActionSpinOff = "spin_off"
)

// PricePoint is one observation in an asset's price history. Exchange-traded
// instruments carry OHLC fields; open-ended funds carry NAV/AUV plus an
// optional corporate-action annotation. The unused side stays NULL.
//
// The natural key is (asset, date, open, close, nav) so that re-fetching the
// same day from a market-data source is idempotent.
type PricePoint struct {
	ID          string          `json:"id"`
	AssetCode   string          `json:"assetCode"`
	Date        time.Time       `json:"date"`
	Open        sql.NullFloat64 `json:"open"`
	Close       sql.NullFloat64 `json:"close"`
	High        sql.NullFloat64 `json:"high"`
	Low         sql.NullFloat64 `json:"low"`
	PreClose    sql.NullFloat64 `json:"preClose"`
	Change      sql.NullFloat64 `json:"change"`
	PctChange   sql.NullFloat64 `json:"pctChange"`
	Volume      sql.NullFloat64 `json:"volume"`
	Turnover    sql.NullFloat64 `json:"turnover"`
	Nav         sql.NullFloat64 `json:"nav"`
	Auv         sql.NullFloat64 `json:"auv"`
	BonusAction sql.NullString  `json:"bonusAction"`
	BonusValue  sql.NullFloat64 `json:"bonusValue"`
}
