package service

import (
	"log"
	"time"

	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/repository"
)

// AuditService cross-checks the deal ledger against recorded corporate
// actions to surface missing entries.
type AuditService struct {
	dealRepo  *repository.DealRepository
	priceRepo *repository.PriceRepository
	assetRepo *repository.AssetRepository
}

// NewAuditService creates a new AuditService with the provided dependencies.
func NewAuditService(dealRepo *repository.DealRepository, priceRepo *repository.PriceRepository, assetRepo *repository.AssetRepository) *AuditService {
	return &AuditService{dealRepo: dealRepo, priceRepo: priceRepo, assetRepo: assetRepo}
}

// MissingAction is a corporate action recorded in an asset's price history
// with no deal on the same date. Bonus payouts and splits that never made
// it into the ledger silently distort every valuation after their date, so
// they are worth flagging even though the audit cannot fix them.
type MissingAction struct {
	AssetCode string  `json:"assetCode"`
	AssetName string  `json:"assetName"`
	Date      string  `json:"date"`
	Action    string  `json:"action"`
	Value     float64 `json:"value"`
}

// FindMissingActions scans every asset present in the ledger for corporate
// actions dated on or after the asset's first deal that have no deal
// recorded on the action date.
func (s *AuditService) FindMissingActions() ([]MissingAction, error) {
	accounts, err := s.dealRepo.Accounts()
	if err != nil {
		return nil, err
	}

	byAsset := map[string][]model.Deal{}
	for _, account := range accounts {
		deals, err := s.dealRepo.ListByAccount(account)
		if err != nil {
			return nil, err
		}
		for _, d := range deals {
			byAsset[d.AssetCode] = append(byAsset[d.AssetCode], d)
		}
	}

	assets, err := s.assetRepo.Map()
	if err != nil {
		return nil, err
	}

	missing := []MissingAction{}
	for code, deals := range byAsset {
		first := deals[0].Time
		for _, d := range deals[1:] {
			if d.Time.Before(first) {
				first = d.Time
			}
		}

		actions, err := s.priceRepo.ListCorporateActions(code, dateOf(first))
		if err != nil {
			return nil, err
		}

		for _, action := range actions {
			if hasDealOn(deals, action.Date) {
				continue
			}
			m := MissingAction{
				AssetCode: code,
				AssetName: code,
				Date:      action.Date.Format(repository.DateLayout),
				Action:    action.BonusAction.String,
			}
			if asset, known := assets[code]; known {
				m.AssetName = asset.Name
			}
			if action.BonusValue.Valid {
				m.Value = action.BonusValue.Float64
			}
			log.Printf("corporate action is missing in deals: %s(%s) date=%s action=%s value=%v",
				m.AssetName, m.AssetCode, m.Date, m.Action, m.Value)
			missing = append(missing, m)
		}
	}

	return missing, nil
}

func hasDealOn(deals []model.Deal, date time.Time) bool {
	for _, d := range deals {
		if dateOf(d.Time).Equal(dateOf(date)) {
			return true
		}
	}
	return false
}
