package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/folioview/folio-backend/internal/model"
)

// ValidDealAction contains the allowed deal action values.
var ValidDealAction = map[string]bool{
	model.ActionTransferIn:  true,
	model.ActionTransferOut: true,
	model.ActionBuy:         true,
	model.ActionSell:        true,
	model.ActionReinvest:    true,
	model.ActionBonus:       true,
	model.ActionSpinOff:     true,
	model.ActionFixCash:     true,
}

// balanceTolerance absorbs the rounding brokers apply when they derive
// money from amount, price and fee.
const balanceTolerance = 1e-3

// ValidateDeal validates a deal before it enters the ledger.
//
// Checks the required identity fields, the action value, and the cash
// arithmetic: a cash deal's amount must equal its money exactly, and a
// buy or sell must balance amount*price against money within tolerance
// (fee added on buys, subtracted on sells).
//
// Returns a validation Error with field-specific messages if validation fails.
func ValidateDeal(d model.Deal) error {
	errors := make(map[string]string)

	if strings.TrimSpace(d.Account) == "" {
		errors["account"] = "account is required"
	}
	if strings.TrimSpace(d.AssetCode) == "" {
		errors["assetCode"] = "asset code is required"
	}
	if d.Time.IsZero() {
		errors["time"] = "time is required"
	}

	if strings.TrimSpace(d.Action) == "" {
		errors["action"] = "action is required"
	} else if !ValidDealAction[d.Action] {
		errors["action"] = fmt.Sprintf("invalid action: %s", d.Action)
	}

	if d.AssetCode == model.CashCode && d.Amount != d.Money {
		errors["money"] = "cash deal amount and money must be equal"
	}

	switch d.Action {
	case model.ActionBuy:
		if diff := math.Abs(d.Amount*d.Price + d.Fee - d.Money); diff >= balanceTolerance {
			errors["money"] = fmt.Sprintf("buy is unbalanced by %.4f", diff)
		}
	case model.ActionSell:
		if diff := math.Abs(d.Amount*d.Price - d.Fee - d.Money); diff >= balanceTolerance {
			errors["money"] = fmt.Sprintf("sell is unbalanced by %.4f", diff)
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
