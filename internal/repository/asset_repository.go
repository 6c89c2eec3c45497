package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/folioview/folio-backend/internal/apperrors"
	"github.com/folioview/folio-backend/internal/model"
)

// AssetRepository provides data access methods for the asset reference table.
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// GetOrCreate inserts the asset if its code is not yet known.
// Returns true when a new row was created.
func (r *AssetRepository) GetOrCreate(a model.Asset) (bool, error) {
	var existing string
	err := r.db.QueryRow(`SELECT code FROM asset WHERE code = ?`, a.Code).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to query asset table: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO asset (code, short_code, name, category)
		VALUES (?, ?, ?, ?)
	`, a.Code, a.ShortCode, a.Name, a.Category)
	if err != nil {
		return false, fmt.Errorf("failed to insert asset %s: %w", a.Code, err)
	}

	return true, nil
}

// Get retrieves an asset by market code.
// Returns apperrors.ErrAssetNotFound when the code is unknown.
func (r *AssetRepository) Get(code string) (model.Asset, error) {
	var a model.Asset
	err := r.db.QueryRow(`
		SELECT code, short_code, name, category FROM asset WHERE code = ?
	`, code).Scan(&a.Code, &a.ShortCode, &a.Name, &a.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Asset{}, fmt.Errorf("%w: %s", apperrors.ErrAssetNotFound, code)
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to query asset table: %w", err)
	}
	return a, nil
}

// List retrieves all assets ordered by code.
func (r *AssetRepository) List() ([]model.Asset, error) {
	rows, err := r.db.Query(`SELECT code, short_code, name, category FROM asset ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset table: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.Code, &a.ShortCode, &a.Name, &a.Category); err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		assets = append(assets, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset table: %w", err)
	}

	return assets, nil
}

// Map retrieves all assets keyed by market code. The valuation engine uses
// this to resolve deal and snapshot codes without per-row queries.
func (r *AssetRepository) Map() (map[string]model.Asset, error) {
	assets, err := r.List()
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]model.Asset, len(assets))
	for _, a := range assets {
		byCode[a.Code] = a
	}
	return byCode, nil
}
