package service

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/folioview/folio-backend/internal/apperrors"
	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/repository"
)

// HistoryService is the valuation engine: it converts an account's sparse
// holdings snapshots into a daily series of account-level metrics (invested
// capital, market value, return index, cash, position ratio).
type HistoryService struct {
	snapshotRepo *repository.SnapshotRepository
	dealRepo     *repository.DealRepository
	priceRepo    *repository.PriceRepository
	assetRepo    *repository.AssetRepository
	historyRepo  *repository.HistoryRepository
	pricing      *PricingService
	cutoffHour   int

	// Now is the clock used to bound the series; replaceable in tests.
	Now func() time.Time
}

// NewHistoryService creates a new HistoryService with the provided
// dependencies. cutoffHour is the local hour before which the current day is
// excluded from the series, so that same-day prices are never treated as
// final.
func NewHistoryService(
	snapshotRepo *repository.SnapshotRepository,
	dealRepo *repository.DealRepository,
	priceRepo *repository.PriceRepository,
	assetRepo *repository.AssetRepository,
	historyRepo *repository.HistoryRepository,
	pricing *PricingService,
	cutoffHour int,
) *HistoryService {
	return &HistoryService{
		snapshotRepo: snapshotRepo,
		dealRepo:     dealRepo,
		priceRepo:    priceRepo,
		assetRepo:    assetRepo,
		historyRepo:  historyRepo,
		pricing:      pricing,
		cutoffHour:   cutoffHour,
		Now:          time.Now,
	}
}

// Compute derives the daily metric series for an account, from its first
// snapshot date through "now" (yesterday when before the cutoff hour).
//
// The walk is a single sorted pass: snapshot rows are consumed in date order
// and the latest holding set is carried forward across days without rows.
// Days with no price observation anywhere in the store are treated as
// non-trading days and excluded from the output. This infers market holidays
// from data presence rather than a calendar, which can misclassify a day
// where only some assets have prices; the approximation is deliberate.
//
// Per held asset (|amount| > epsilonAmount) the price resolves via the
// pricing service with the account's own buy deals as fallback; an asset
// with no resolvable price contributes its recorded cost and logs a warning
// rather than aborting the computation.
func (s *HistoryService) Compute(account string) ([]model.HistoryRow, error) {
	snapshots, err := s.snapshotRepo.ListByAccount(account)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNoSnapshots, account)
	}

	assets, err := s.assetRepo.Map()
	if err != nil {
		return nil, err
	}

	now := s.Now()
	end := dateOf(now)
	if now.Hour() < s.cutoffHour {
		end = end.AddDate(0, 0, -1)
	}

	first := snapshots[0].Date
	if end.Before(first) {
		return []model.HistoryRow{}, nil
	}

	tradingDates, err := s.priceRepo.TradingDates(first, end)
	if err != nil {
		return nil, err
	}

	transfers, err := s.dealRepo.ListTransfers([]string{account}, nextDay(end))
	if err != nil {
		return nil, err
	}

	rows := []model.HistoryRow{}
	holdings := map[string]model.AssetSnapshot{}
	snapIdx, transferIdx := 0, 0
	invested := 0.0

	for day := first; !day.After(end); day = day.AddDate(0, 0, 1) {
		// A snapshot date carries one row per accumulated asset, so the
		// holding set is replaced wholesale, not merged.
		if snapIdx < len(snapshots) && snapshots[snapIdx].Date.Equal(day) {
			holdings = map[string]model.AssetSnapshot{}
			for snapIdx < len(snapshots) && snapshots[snapIdx].Date.Equal(day) {
				holdings[snapshots[snapIdx].AssetCode] = snapshots[snapIdx]
				snapIdx++
			}
		}

		// Transfers in increase invested capital, transfers out release it.
		for transferIdx < len(transfers) && transfers[transferIdx].Time.Before(nextDay(day)) {
			if transfers[transferIdx].Action == model.ActionTransferIn {
				invested += transfers[transferIdx].Money
			} else {
				invested -= transfers[transferIdx].Money
			}
			transferIdx++
		}

		if _, trading := tradingDates[day.Format(repository.DateLayout)]; !trading {
			continue
		}

		money, err := s.valueHoldings(account, day, holdings, assets)
		if err != nil {
			return nil, err
		}

		cash := holdings[model.CashCode].Amount

		nav := 0.0
		if math.Abs(invested) > epsilonMoney {
			nav = money / invested
		}
		position := 0.0
		if math.Abs(money) > epsilonMoney {
			position = 1 - cash/money
		}

		rows = append(rows, model.HistoryRow{
			Account:  account,
			Date:     day,
			Invested: round2(invested),
			Money:    round2(money),
			Nav:      round4(nav),
			Cash:     round2(cash),
			Position: round4(position),
		})
	}

	return rows, nil
}

// valueHoldings sums amount*price over the held assets for one day.
func (s *HistoryService) valueHoldings(account string, day time.Time, holdings map[string]model.AssetSnapshot, assets map[string]model.Asset) (float64, error) {
	var money float64
	for code, snapshot := range holdings {
		if math.Abs(snapshot.Amount) <= epsilonAmount {
			continue
		}
		if code == model.CashCode {
			money += snapshot.Amount
			continue
		}

		asset, known := assets[code]
		if !known {
			log.Printf("asset %s referenced by snapshot is unknown (account %s, date %s)",
				code, account, day.Format(repository.DateLayout))
			if snapshot.Cost.Valid {
				money += snapshot.Cost.Float64
			}
			continue
		}

		price, _, ok, err := s.pricing.ResolvePrice(asset, day, account)
		if err != nil {
			return 0, err
		}
		if !ok {
			log.Printf("no price found for asset %s at %s (account %s), valuing at recorded cost",
				code, day.Format(repository.DateLayout), account)
			if snapshot.Cost.Valid {
				money += snapshot.Cost.Float64
			}
			continue
		}

		money += snapshot.Amount * price
	}

	return money, nil
}

// Rebuild recomputes the account's series and upserts every row. Re-running
// is idempotent; partial progress stays committed because each date upserts
// independently.
func (s *HistoryService) Rebuild(account string) (int, error) {
	rows, err := s.Compute(account)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, row := range rows {
		c, err := s.historyRepo.Upsert(row)
		if err != nil {
			return created, err
		}
		if c {
			created++
		}
	}

	log.Printf("created %d new history rows for account %s", created, account)
	return created, nil
}
