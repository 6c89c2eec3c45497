package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/folioview/folio-backend/internal/model"
)

// SnapshotRepository provides data access methods for the asset_snapshot
// table, the sparse per-day holdings rows produced by the reconstructor.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Upsert writes a snapshot row keyed by (account, date, asset): create when
// absent, update in place when the stored amount differs, no-op otherwise.
// Returns (created, updated).
func (r *SnapshotRepository) Upsert(s model.AssetSnapshot) (bool, bool, error) {
	var id string
	var amount float64
	err := r.db.QueryRow(`
		SELECT id, amount FROM asset_snapshot
		WHERE account = ? AND date = ? AND asset_code = ?
	`, s.Account, s.Date.Format(DateLayout), s.AssetCode).Scan(&id, &amount)

	if errors.Is(err, sql.ErrNoRows) {
		_, err = r.db.Exec(`
			INSERT INTO asset_snapshot (id, account, date, asset_code, amount, cost)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), s.Account, s.Date.Format(DateLayout), s.AssetCode, s.Amount, s.Cost)
		if err != nil {
			return false, false, fmt.Errorf("failed to insert snapshot: %w", err)
		}
		return true, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to query asset_snapshot table: %w", err)
	}

	if amount == s.Amount {
		return false, false, nil
	}

	_, err = r.db.Exec(`
		UPDATE asset_snapshot SET amount = ?, cost = ? WHERE id = ?
	`, s.Amount, s.Cost, id)
	if err != nil {
		return false, false, fmt.Errorf("failed to update snapshot: %w", err)
	}

	return false, true, nil
}

// ListByAccount retrieves all snapshot rows for an account ordered by date
// ascending. The valuation engine replays these in one pass, carrying the
// latest row per asset forward across days with no rows.
func (r *SnapshotRepository) ListByAccount(account string) ([]model.AssetSnapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, account, date, asset_code, amount, cost
		FROM asset_snapshot
		WHERE account = ?
		ORDER BY date ASC
	`, account)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset_snapshot table: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// LatestDate finds the most recent snapshot date for an account on or before
// the given date. The boolean result is false when the account has no
// snapshots in that range.
func (r *SnapshotRepository) LatestDate(account string, onOrBefore time.Time) (time.Time, bool, error) {
	var dateStr sql.NullString
	err := r.db.QueryRow(`
		SELECT MAX(date) FROM asset_snapshot
		WHERE account = ? AND date <= ?
	`, account, onOrBefore.Format(DateLayout)).Scan(&dateStr)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query asset_snapshot table: %w", err)
	}
	if !dateStr.Valid {
		return time.Time{}, false, nil
	}

	date, err := ParseTime(dateStr.String)
	if err != nil {
		return time.Time{}, false, err
	}

	return date, true, nil
}

// ListAt retrieves the snapshot rows for an account on one exact date.
func (r *SnapshotRepository) ListAt(account string, date time.Time) ([]model.AssetSnapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, account, date, asset_code, amount, cost
		FROM asset_snapshot
		WHERE account = ? AND date = ?
	`, account, date.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query asset_snapshot table: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows *sql.Rows) ([]model.AssetSnapshot, error) {
	snapshots := []model.AssetSnapshot{}
	for rows.Next() {
		var s model.AssetSnapshot
		var dateStr string

		err := rows.Scan(&s.ID, &s.Account, &dateStr, &s.AssetCode, &s.Amount, &s.Cost)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		s.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse snapshot date: %w", err)
		}

		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset_snapshot table: %w", err)
	}

	return snapshots, nil
}
