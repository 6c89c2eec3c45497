package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/folioview/folio-backend/internal/apperrors"
	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/repository"
	"github.com/folioview/folio-backend/internal/validation"
)

// dealColumns is the column count of the tab-separated deal export format:
// account, sub account, time, asset code, asset name, action, amount,
// price, money, fee. The asset name column is informational only.
const dealColumns = 10

// ImportService ingests deal records from tab-separated exports into the
// ledger.
type ImportService struct {
	assetRepo *repository.AssetRepository
	dealRepo  *repository.DealRepository
}

// NewImportService creates a new ImportService with the provided dependencies.
func NewImportService(assetRepo *repository.AssetRepository, dealRepo *repository.DealRepository) *ImportService {
	return &ImportService{assetRepo: assetRepo, dealRepo: dealRepo}
}

// ImportStats reports the outcome of one import run.
type ImportStats struct {
	Created int
	Existed int
	Skipped int
}

// ImportDeals reads tab-separated deal rows and inserts them into the
// ledger via the natural-key get-or-create, so re-importing the same file
// is a no-op.
//
// Rows referencing an unknown asset or with the wrong column count are
// skipped with a warning. A cash record whose amount and money disagree is
// a hard error since a malformed cash row corrupts every later valuation.
// Unbalanced buy/sell rows (amount*price±fee vs money off by more than
// 0.001) are logged but still imported; rounding in broker exports makes
// small imbalances routine.
func (s *ImportService) ImportDeals(r io.Reader) (ImportStats, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1

	var stats ImportStats
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read deal row: %w", err)
		}

		if len(row) != dealColumns {
			log.Printf("column number is not %d, skipping row: %v", dealColumns, row)
			stats.Skipped++
			continue
		}

		deal, err := s.parseRow(row)
		if err != nil {
			if errors.Is(err, apperrors.ErrUnbalancedCash) {
				return stats, err
			}
			log.Printf("skipping row: %v (%v)", row, err)
			stats.Skipped++
			continue
		}

		created, err := s.dealRepo.Insert(deal)
		if err != nil {
			return stats, err
		}
		if created {
			stats.Created++
		} else {
			stats.Existed++
		}
	}

	if stats.Existed > 0 {
		log.Printf("%d records are already in database", stats.Existed)
	}
	log.Printf("created %d deal records in database", stats.Created)
	return stats, nil
}

func (s *ImportService) parseRow(row []string) (model.Deal, error) {
	account, subAccount, code := row[0], row[1], row[3]
	action := row[5]

	asset, err := s.assetRepo.Get(code)
	if err != nil {
		if errors.Is(err, apperrors.ErrAssetNotFound) {
			return model.Deal{}, fmt.Errorf("no asset found for code %s: %w", code, err)
		}
		return model.Deal{}, err
	}

	dealTime, err := time.ParseInLocation(repository.DateTimeLayout, row[2], time.UTC)
	if err != nil {
		return model.Deal{}, fmt.Errorf("%w: bad time %q", apperrors.ErrMalformedRecord, row[2])
	}

	amount, price, money, fee, err := parseFigures(row)
	if err != nil {
		return model.Deal{}, err
	}

	deal := model.Deal{
		Account:    account,
		SubAccount: subAccount,
		AssetCode:  asset.Code,
		Time:       dealTime,
		Action:     action,
		Amount:     amount,
		Price:      price,
		Money:      money,
		Fee:        fee,
	}

	if err := validation.ValidateDeal(deal); err != nil {
		var verr *validation.Error
		if !errors.As(err, &verr) {
			return model.Deal{}, err
		}
		switch {
		case asset.IsCash() && verr.Has("money"):
			return model.Deal{}, fmt.Errorf("%w: amount %s != money %s",
				apperrors.ErrUnbalancedCash, row[6], row[8])
		case verr.Only("money"):
			// Broker exports round money independently of amount*price,
			// so small trade imbalances are flagged but still imported.
			log.Printf("record is not balanced (%v): %v", verr, row)
		default:
			return model.Deal{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedRecord, verr)
		}
	}

	return deal, nil
}

func parseFigures(row []string) (amount, price, money, fee float64, err error) {
	fields := []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"amount", 6, &amount},
		{"price", 7, &price},
		{"money", 8, &money},
		{"fee", 9, &fee},
	}
	for _, f := range fields {
		*f.dst, err = strconv.ParseFloat(row[f.idx], 64)
		if err != nil {
			err = fmt.Errorf("%w: bad %s %q", apperrors.ErrMalformedRecord, f.name, row[f.idx])
			return
		}
	}
	return
}
