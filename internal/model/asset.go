package model

import "strings"

// Asset categories. Cash and "other" assets are always priced at 1.0.
const (
	CategoryStock = "stock"
	CategoryBond  = "bond"
	CategoryFund  = "fund"
	CategoryIndex = "index"
	CategoryCash  = "cash"
	CategoryOther = "other"
)

// CashCode is the market code of the cash pseudo-asset. Every account's cash
// balance is tracked as a holding of this asset.
const CashCode = "CASH"

// FundSuffix marks open-ended funds quoted by net asset value rather than by
// exchange close price.
const FundSuffix = ".OF"

// Asset is an immutable reference entity identified by its market code
// (e.g. "600036.SH", "110011.OF", "CASH").
type Asset struct {
	Code      string `json:"code"`
	ShortCode string `json:"shortCode"`
	Name      string `json:"name"`
	Category  string `json:"category"`
}

// IsCash reports whether the asset is the cash pseudo-asset.
func (a Asset) IsCash() bool {
	return a.Code == CashCode
}

// IsOpenFund reports whether the asset is quoted by NAV instead of close price.
func (a Asset) IsOpenFund() bool {
	return strings.HasSuffix(a.Code, FundSuffix)
}
