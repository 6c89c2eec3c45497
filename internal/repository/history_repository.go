package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/folioview/folio-backend/internal/model"
)

// HistoryRepository provides data access methods for the account_history
// table, the derived daily account-level metric rows.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the provided database connection.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Upsert writes a history row keyed by (account, date): create when absent,
// update in place when any stored metric differs, no-op otherwise.
// Returns true when a new row was created.
func (r *HistoryRepository) Upsert(h model.HistoryRow) (bool, error) {
	var id string
	var invested, money, nav, cash, position float64
	err := r.db.QueryRow(`
		SELECT id, invested, money, nav, cash, position FROM account_history
		WHERE account = ? AND date = ?
	`, h.Account, h.Date.Format(DateLayout)).Scan(&id, &invested, &money, &nav, &cash, &position)

	if errors.Is(err, sql.ErrNoRows) {
		_, err = r.db.Exec(`
			INSERT INTO account_history (id, account, date, invested, money, nav, cash, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), h.Account, h.Date.Format(DateLayout),
			h.Invested, h.Money, h.Nav, h.Cash, h.Position)
		if err != nil {
			return false, fmt.Errorf("failed to insert history row: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query account_history table: %w", err)
	}

	if invested == h.Invested && money == h.Money && nav == h.Nav &&
		cash == h.Cash && position == h.Position {
		return false, nil
	}

	_, err = r.db.Exec(`
		UPDATE account_history SET invested = ?, money = ?, nav = ?, cash = ?, position = ?
		WHERE id = ?
	`, h.Invested, h.Money, h.Nav, h.Cash, h.Position, id)
	if err != nil {
		return false, fmt.Errorf("failed to update history row: %w", err)
	}

	return false, nil
}

// Latest retrieves the most recent history row for an account on or before
// the given date. The boolean result is false when no row exists.
func (r *HistoryRepository) Latest(account string, onOrBefore time.Time) (model.HistoryRow, bool, error) {
	row := r.db.QueryRow(`
		SELECT id, account, date, invested, money, nav, cash, position
		FROM account_history
		WHERE account = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1
	`, account, onOrBefore.Format(DateLayout))

	h, err := scanHistoryRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.HistoryRow{}, false, nil
	}
	if err != nil {
		return model.HistoryRow{}, false, err
	}

	return h, true, nil
}

// ListRange retrieves an account's history rows within [start, end] ordered
// by date ascending. Zero start/end bounds are ignored.
func (r *HistoryRepository) ListRange(account string, start, end time.Time) ([]model.HistoryRow, error) {
	query := `
		SELECT id, account, date, invested, money, nav, cash, position
		FROM account_history
		WHERE account = ?
	`
	args := []any{account}
	if !start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, start.Format(DateLayout))
	}
	if !end.IsZero() {
		query += ` AND date <= ?`
		args = append(args, end.Format(DateLayout))
	}
	query += ` ORDER BY date ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query account_history table: %w", err)
	}
	defer rows.Close()

	history := []model.HistoryRow{}
	for rows.Next() {
		h, err := scanHistoryRow(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account_history table: %w", err)
	}

	return history, nil
}

// Accounts retrieves the distinct account names present in the history table.
func (r *HistoryRepository) Accounts() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT account FROM account_history ORDER BY account ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query account_history table: %w", err)
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
		return nil, fmt.Errorf("error iterating account_history table: %w", err)
	}

	return accounts, nil
}

func scanHistoryRow(s scanner) (model.HistoryRow, error) {
	var h model.HistoryRow
	var dateStr string

	err := s.Scan(&h.ID, &h.Account, &dateStr, &h.Invested, &h.Money, &h.Nav, &h.Cash, &h.Position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.HistoryRow{}, err
		}
		return model.HistoryRow{}, fmt.Errorf("failed to scan history row: %w", err)
	}

	h.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.HistoryRow{}, fmt.Errorf("failed to parse history date: %w", err)
	}

	return h, nil
}
