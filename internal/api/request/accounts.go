package request

import (
	"strings"
	"time"

	"github.com/folioview/folio-backend/internal/validation"
)

// ParseAccounts extracts a comma-separated account list from a query
// parameter. An empty parameter means all accounts.
func ParseAccounts(accountsParam string) []string {
	if strings.TrimSpace(accountsParam) == "" {
		return nil
	}
	parts := strings.Split(accountsParam, ",")
	accounts := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			accounts = append(accounts, part)
		}
	}
	return accounts
}

// ParseDate extracts a YYYY-MM-DD date from a query parameter, falling back
// to the given default when the parameter is empty.
func ParseDate(dateParam string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(dateParam) == "" {
		return fallback, nil
	}
	if err := validation.ValidateDate(dateParam); err != nil {
		return time.Time{}, err
	}
	date, _ := time.Parse("2006-01-02", dateParam)
	return date, nil
}

// RefreshRequest is the body of a refresh trigger. An empty account list
// refreshes every account in the ledger.
type RefreshRequest struct {
	Accounts []string `json:"accounts"`
}
