package service

import (
	"context"
	"database/sql"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/folioview/folio-backend/internal/eastmoney"
	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/repository"
)

// FundDataSource fetches an open-ended fund's published history. Satisfied
// by eastmoney.FundClient; tests substitute a canned implementation.
type FundDataSource interface {
	GetFundData(ctx context.Context, code string) (eastmoney.FundData, error)
}

// PriceService refreshes the local price history from the market-data
// source for every open-ended fund referenced by the deal ledger.
type PriceService struct {
	dealRepo    *repository.DealRepository
	assetRepo   *repository.AssetRepository
	priceRepo   *repository.PriceRepository
	source      FundDataSource
	concurrency int
}

// NewPriceService creates a new PriceService with the provided dependencies.
// concurrency bounds the number of funds fetched in parallel.
func NewPriceService(
	dealRepo *repository.DealRepository,
	assetRepo *repository.AssetRepository,
	priceRepo *repository.PriceRepository,
	source FundDataSource,
	concurrency int,
) *PriceService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &PriceService{
		dealRepo:    dealRepo,
		assetRepo:   assetRepo,
		priceRepo:   priceRepo,
		source:      source,
		concurrency: concurrency,
	}
}

// UpdateFundPrices fetches the history of every open-ended fund present in
// the ledger and upserts the observations. Fetches run concurrently up to
// the configured limit; a failed fund is logged and skipped so that one
// unreachable code does not abort the whole refresh. Returns the number of
// newly created price points.
func (s *PriceService) UpdateFundPrices(ctx context.Context) (int, error) {
	codes, err := s.dealRepo.AssetCodes()
	if err != nil {
		return 0, err
	}
	assets, err := s.assetRepo.Map()
	if err != nil {
		return 0, err
	}

	funds := []model.Asset{}
	for _, code := range codes {
		asset, known := assets[code]
		if !known || !asset.IsOpenFund() {
			continue
		}
		funds = append(funds, asset)
	}

	var mu sync.Mutex
	created := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, fund := range funds {
		fund := fund
		g.Go(func() error {
			data, err := s.source.GetFundData(ctx, fund.ShortCode)
			if err != nil {
				log.Printf("no data for fund %s: %v", fund.Code, err)
				return nil
			}

			count, err := s.storeFundData(fund, data)
			if err != nil {
				return err
			}

			mu.Lock()
			created += count
			mu.Unlock()
			log.Printf("created %d price points for %s(%s)", count, fund.Name, fund.Code)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return created, err
	}

	return created, nil
}

func (s *PriceService) storeFundData(fund model.Asset, data eastmoney.FundData) (int, error) {
	created := 0
	for _, record := range data.Records {
		point := model.PricePoint{
			AssetCode: fund.Code,
			Date:      record.Date,
			Nav:       sql.NullFloat64{Float64: record.Nav, Valid: true},
		}
		if record.Auv != nil {
			point.Auv = sql.NullFloat64{Float64: *record.Auv, Valid: true}
		}
		if record.BonusAction != "" {
			point.BonusAction = sql.NullString{String: record.BonusAction, Valid: true}
			if record.BonusValue != nil {
				point.BonusValue = sql.NullFloat64{Float64: *record.BonusValue, Valid: true}
			}
		}

		c, err := s.priceRepo.Upsert(point)
		if err != nil {
			return created, err
		}
		if c {
			created++
		}
	}
	return created, nil
}
