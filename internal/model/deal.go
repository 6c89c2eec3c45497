package model

import "time"

// Deal action kinds. The set mirrors what brokers and fund platforms report:
// cash moving in and out of the account, trades, dividend handling, corporate
// share restatements, and manual cash corrections.
const (
	ActionTransferIn  = "transfer_in"
	ActionTransferOut = "transfer_out"
	ActionBuy         = "buy"
	ActionSell        = "sell"
	ActionReinvest    = "reinvest"
	ActionBonus       = "bonus"
	ActionSpinOff     = "spin_off"
	ActionFixCash     = "fix_cash"
)

// Deal is one immutable ledger record: a single action on one asset in one
// account. Deals are uniquely identified by (account, time, asset, amount);
// import is get-or-create on that key so re-importing a file is a no-op.
type Deal struct {
	ID         string    `json:"id"`
	Account    string    `json:"account"`
	SubAccount string    `json:"subAccount,omitempty"`
	AssetCode  string    `json:"assetCode"`
	Time       time.Time `json:"time"`
	Action     string    `json:"action"`
	Amount     float64   `json:"amount"`
	Price      float64   `json:"price"`
	Money      float64   `json:"money"`
	Fee        float64   `json:"fee"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// IsTransfer reports whether the deal moves capital across the account
// boundary. Transfers define the invested-capital counter and the XIRR
// cash-flow schedule.
func (d Deal) IsTransfer() bool {
	return d.Action == ActionTransferIn || d.Action == ActionTransferOut
}
