package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/folioview/folio-backend/internal/model"
)

// DealRepository provides data access methods for the deal ledger table.
// Deals are immutable once recorded; the only write path is get-or-create
// on the natural key (account, time, asset, amount).
type DealRepository struct {
	db *sql.DB
}

// NewDealRepository creates a new DealRepository with the provided database connection.
func NewDealRepository(db *sql.DB) *DealRepository {
	return &DealRepository{db: db}
}

// Insert records a deal unless an identical one already exists.
// Returns true when a new row was created, false when the natural key
// (account, time, asset, amount) matched an existing row.
func (r *DealRepository) Insert(d model.Deal) (bool, error) {
	var existing string
	err := r.db.QueryRow(`
		SELECT id FROM deal
		WHERE account = ? AND time = ? AND asset_code = ? AND amount = ?
	`, d.Account, d.Time.Format(DateTimeLayout), d.AssetCode, d.Amount).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to query deal table: %w", err)
	}

	var subAccount sql.NullString
	if d.SubAccount != "" {
		subAccount = sql.NullString{String: d.SubAccount, Valid: true}
	}

	_, err = r.db.Exec(`
		INSERT INTO deal (id, account, sub_account, asset_code, time, action, amount, price, money, fee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), d.Account, subAccount, d.AssetCode,
		d.Time.Format(DateTimeLayout), d.Action, d.Amount, d.Price, d.Money, d.Fee)
	if err != nil {
		return false, fmt.Errorf("failed to insert deal: %w", err)
	}

	return true, nil
}

// ListByAccount retrieves all deals for an account ordered by time ascending.
// This is the replay order used by the holdings reconstructor.
func (r *DealRepository) ListByAccount(account string) ([]model.Deal, error) {
	rows, err := r.db.Query(`
		SELECT id, account, sub_account, asset_code, time, action, amount, price, money, fee
		FROM deal
		WHERE account = ?
		ORDER BY time ASC
	`, account)
	if err != nil {
		return nil, fmt.Errorf("failed to query deal table: %w", err)
	}
	defer rows.Close()

	return scanDeals(rows)
}

// ListByAsset retrieves all deals touching an asset across every account,
// ordered by time ascending.
func (r *DealRepository) ListByAsset(assetCode string) ([]model.Deal, error) {
	rows, err := r.db.Query(`
		SELECT id, account, sub_account, asset_code, time, action, amount, price, money, fee
		FROM deal
		WHERE asset_code = ?
		ORDER BY time ASC
	`, assetCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query deal table: %w", err)
	}
	defer rows.Close()

	return scanDeals(rows)
}

// ListTransfers retrieves transfer_in/transfer_out deals for the given
// accounts with time strictly before the given bound. These deals define
// invested capital and the XIRR cash-flow schedule.
func (r *DealRepository) ListTransfers(accounts []string, before time.Time) ([]model.Deal, error) {
	if len(accounts) == 0 {
		return []model.Deal{}, nil
	}

	placeholders := make([]string, len(accounts))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT id, account, sub_account, asset_code, time, action, amount, price, money, fee
		FROM deal
		WHERE account IN (` + strings.Join(placeholders, ",") + `)
		AND action IN ('transfer_in', 'transfer_out')
		AND time < ?
		ORDER BY time ASC
	`

	args := make([]any, 0, len(accounts)+1)
	for _, account := range accounts {
		args = append(args, account)
	}
	args = append(args, before.Format(DateTimeLayout))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deal table: %w", err)
	}
	defer rows.Close()

	return scanDeals(rows)
}

// LastBuyPrice finds the most recent buy price for an asset strictly before
// the given time bound. When account is non-empty the search is scoped to
// that account's deals. This is the pricing fallback for assets without
// market observations.
func (r *DealRepository) LastBuyPrice(assetCode, account string, before time.Time) (float64, time.Time, bool, error) {
	query := `
		SELECT price, time FROM deal
		WHERE asset_code = ? AND action = 'buy' AND time < ?
	`
	args := []any{assetCode, before.Format(DateTimeLayout)}
	if account != "" {
		query += ` AND account = ?`
		args = append(args, account)
	}
	query += ` ORDER BY time DESC LIMIT 1`

	var price float64
	var timeStr string
	err := r.db.QueryRow(query, args...).Scan(&price, &timeStr)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, false, nil
	}
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("failed to query deal table: %w", err)
	}

	dealTime, err := ParseTime(timeStr)
	if err != nil {
		return 0, time.Time{}, false, err
	}

	return price, dealTime, true, nil
}

// Accounts retrieves the distinct account names present in the ledger.
func (r *DealRepository) Accounts() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT account FROM deal ORDER BY account ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deal table: %w", err)
	}
	defer rows.Close()

	accounts := []string{}
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deal table: %w", err)
	}

	return accounts, nil
}

// AssetCodes retrieves the distinct asset codes referenced by the ledger.
func (r *DealRepository) AssetCodes() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT asset_code FROM deal ORDER BY asset_code ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deal table: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan asset code: %w", err)
		}
		codes = append(codes, code)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deal table: %w", err)
	}

	return codes, nil
}

func scanDeals(rows *sql.Rows) ([]model.Deal, error) {
	deals := []model.Deal{}
	for rows.Next() {
		var d model.Deal
		var timeStr string
		var subAccount sql.NullString

		err := rows.Scan(
			&d.ID,
			&d.Account,
			&subAccount,
			&d.AssetCode,
			&timeStr,
			&d.Action,
			&d.Amount,
			&d.Price,
			&d.Money,
			&d.Fee,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal row: %w", err)
		}

		d.Time, err = ParseTime(timeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse deal time: %w", err)
		}
		if subAccount.Valid {
			d.SubAccount = subAccount.String
		}

		deals = append(deals, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deal table: %w", err)
	}

	return deals, nil
}
