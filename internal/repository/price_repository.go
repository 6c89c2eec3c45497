package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/folioview/folio-backend/internal/model"
)

// PriceRepository provides data access methods for the price_point table.
// Price history is append-only; Upsert tolerates re-fetching the same
// observations from a market-data source.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Upsert stores a price observation unless an identical one exists.
// The natural key is (asset, date, open, close, nav); NULL fields compare
// as equal so a re-fetched fund NAV does not duplicate the row.
// Returns true when a new row was created.
func (r *PriceRepository) Upsert(p model.PricePoint) (bool, error) {
	var existing string
	err := r.db.QueryRow(`
		SELECT id FROM price_point
		WHERE asset_code = ? AND date = ? AND open IS ? AND close IS ? AND nav IS ?
	`, p.AssetCode, p.Date.Format(DateLayout), p.Open, p.Close, p.Nav).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to query price_point table: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO price_point (
			id, asset_code, date, open, close, high, low, pre_close, change,
			pct_change, volume, turnover, nav, auv, bonus_action, bonus_value
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), p.AssetCode, p.Date.Format(DateLayout),
		p.Open, p.Close, p.High, p.Low, p.PreClose, p.Change,
		p.PctChange, p.Volume, p.Turnover, p.Nav, p.Auv, p.BonusAction, p.BonusValue)
	if err != nil {
		return false, fmt.Errorf("failed to insert price point: %w", err)
	}

	return true, nil
}

// Latest retrieves the most recent observation for an asset with date on or
// before the given date. The boolean result is false when no observation
// exists at or before that date.
func (r *PriceRepository) Latest(assetCode string, onOrBefore time.Time) (model.PricePoint, bool, error) {
	row := r.db.QueryRow(`
		SELECT id, asset_code, date, open, close, high, low, pre_close, change,
		       pct_change, volume, turnover, nav, auv, bonus_action, bonus_value
		FROM price_point
		WHERE asset_code = ? AND date <= ?
		ORDER BY date DESC
		LIMIT 1
	`, assetCode, onOrBefore.Format(DateLayout))

	p, err := scanPricePoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PricePoint{}, false, nil
	}
	if err != nil {
		return model.PricePoint{}, false, err
	}

	return p, true, nil
}

// ListRange retrieves all observations for an asset within [start, end],
// ordered by date ascending.
func (r *PriceRepository) ListRange(assetCode string, start, end time.Time) ([]model.PricePoint, error) {
	rows, err := r.db.Query(`
		SELECT id, asset_code, date, open, close, high, low, pre_close, change,
		       pct_change, volume, turnover, nav, auv, bonus_action, bonus_value
		FROM price_point
		WHERE asset_code = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, assetCode, start.Format(DateLayout), end.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query price_point table: %w", err)
	}
	defer rows.Close()

	points := []model.PricePoint{}
	for rows.Next() {
		p, err := scanPricePoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_point table: %w", err)
	}

	return points, nil
}

// ListCorporateActions retrieves observations carrying a bonus/spin_off
// annotation for an asset from the given date onward. Used to cross-check
// the ledger for missing dividend and split deals.
func (r *PriceRepository) ListCorporateActions(assetCode string, from time.Time) ([]model.PricePoint, error) {
	rows, err := r.db.Query(`
		SELECT id, asset_code, date, open, close, high, low, pre_close, change,
		       pct_change, volume, turnover, nav, auv, bonus_action, bonus_value
		FROM price_point
		WHERE asset_code = ? AND bonus_action IS NOT NULL AND date >= ?
		ORDER BY date ASC
	`, assetCode, from.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query price_point table: %w", err)
	}
	defer rows.Close()

	points := []model.PricePoint{}
	for rows.Next() {
		p, err := scanPricePoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_point table: %w", err)
	}

	return points, nil
}

// TradingDates retrieves the set of dates within [start, end] that have at
// least one price observation across the whole asset universe. Days outside
// this set are treated as non-trading days by the valuation engine.
func (r *PriceRepository) TradingDates(start, end time.Time) (map[string]struct{}, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT date FROM price_point
		WHERE date >= ? AND date <= ?
	`, start.Format(DateLayout), end.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query price_point table: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]struct{})
	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		d, err := ParseTime(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse trading date: %w", err)
		}
		dates[d.Format(DateLayout)] = struct{}{}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price_point table: %w", err)
	}

	return dates, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanPricePoint(s scanner) (model.PricePoint, error) {
	var p model.PricePoint
	var dateStr string

	err := s.Scan(
		&p.ID,
		&p.AssetCode,
		&dateStr,
		&p.Open,
		&p.Close,
		&p.High,
		&p.Low,
		&p.PreClose,
		&p.Change,
		&p.PctChange,
		&p.Volume,
		&p.Turnover,
		&p.Nav,
		&p.Auv,
		&p.BonusAction,
		&p.BonusValue,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PricePoint{}, err
		}
		return model.PricePoint{}, fmt.Errorf("failed to scan price point: %w", err)
	}

	p.Date, err = ParseTime(dateStr)
	if err != nil {
		return model.PricePoint{}, fmt.Errorf("failed to parse price date: %w", err)
	}

	return p, nil
}
