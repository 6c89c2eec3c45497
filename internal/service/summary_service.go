package service

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/folioview/folio-backend/internal/apperrors"
	"github.com/folioview/folio-backend/internal/finance"
	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/repository"
)

// SummaryService produces the presentation-facing views: point-in-time
// account summaries with an aggregate total row, merged multi-account
// holdings valuations, and per-account history series.
type SummaryService struct {
	historyRepo  *repository.HistoryRepository
	snapshotRepo *repository.SnapshotRepository
	dealRepo     *repository.DealRepository
	assetRepo    *repository.AssetRepository
	pricing      *PricingService

	// Now is the clock used to clamp query dates; replaceable in tests.
	Now func() time.Time
}

// NewSummaryService creates a new SummaryService with the provided dependencies.
func NewSummaryService(
	historyRepo *repository.HistoryRepository,
	snapshotRepo *repository.SnapshotRepository,
	dealRepo *repository.DealRepository,
	assetRepo *repository.AssetRepository,
	pricing *PricingService,
) *SummaryService {
	return &SummaryService{
		historyRepo:  historyRepo,
		snapshotRepo: snapshotRepo,
		dealRepo:     dealRepo,
		assetRepo:    assetRepo,
		pricing:      pricing,
		Now:          time.Now,
	}
}

// clampDate pulls a query date back to yesterday when it falls on or after
// today, since the history series never contains a finalized row for the
// current day.
func (s *SummaryService) clampDate(date time.Time) time.Time {
	today := dateOf(s.Now())
	d := dateOf(date)
	if !d.Before(today) {
		return today.AddDate(0, 0, -1)
	}
	return d
}

// Summaries returns one summary row per requested account as of date, plus
// a synthetic total row aggregating them. The total row's ratios are
// re-derived from the summed figures, never averaged across accounts.
// Accounts with no history at or before the date are skipped with a log
// line rather than failing the whole view.
func (s *SummaryService) Summaries(accounts []string, date time.Time) ([]model.AccountSummary, error) {
	if len(accounts) == 0 {
		var err error
		accounts, err = s.historyRepo.Accounts()
		if err != nil {
			return nil, err
		}
	}
	date = s.clampDate(date)

	summaries := make([]model.AccountSummary, 0, len(accounts)+1)
	var totalInvested, totalMoney, totalCash float64
	var latestDate time.Time
	totalFlows := []finance.CashFlow{}
	included := []string{}

	for _, account := range accounts {
		row, found, err := s.historyRepo.Latest(account, date)
		if err != nil {
			return nil, err
		}
		if !found {
			log.Printf("account %s has no history at or before %s, skipping",
				account, date.Format(repository.DateLayout))
			continue
		}

		flows, err := s.transferFlows(account, date)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, s.buildSummary(account, date, row, flows))

		totalInvested += row.Invested
		totalMoney += row.Money
		totalCash += row.Cash
		if row.Date.After(latestDate) {
			latestDate = row.Date
		}
		totalFlows = append(totalFlows, flows...)
		included = append(included, account)
	}

	if len(included) == 0 {
		return nil, fmt.Errorf("%w: no account has history at or before %s",
			apperrors.ErrNoHistory, date.Format(repository.DateLayout))
	}

	finance.SortFlows(totalFlows)
	total := model.AccountSummary{
		Account:    model.TotalAccount,
		Date:       latestDate,
		Invested:   round2(totalInvested),
		Money:      round2(totalMoney),
		Return:     round2(totalMoney - totalInvested),
		ReturnRate: 0,
		Cash:       round2(totalCash),
		Position:   0,
	}
	if math.Abs(totalInvested) > epsilonMoney {
		total.ReturnRate = round4((totalMoney - totalInvested) / totalInvested)
	}
	if math.Abs(totalMoney) > epsilonMoney {
		total.Position = round4(1 - totalCash/totalMoney)
	}
	total.AnnualizedReturn = s.annualize(totalFlows, date, totalMoney)
	summaries = append(summaries, total)

	return summaries, nil
}

// buildSummary derives one account's summary from its latest history row.
// The row keeps its own date; the query date only anchors the terminal
// cash flow of the annualized return.
func (s *SummaryService) buildSummary(account string, date time.Time, row model.HistoryRow, flows []finance.CashFlow) model.AccountSummary {
	summary := model.AccountSummary{
		Account:    account,
		Date:       row.Date,
		Invested:   round2(row.Invested),
		Money:      round2(row.Money),
		Return:     round2(row.Money - row.Invested),
		ReturnRate: 0,
		Cash:       round2(row.Cash),
		Position:   round4(row.Position),
	}
	if math.Abs(row.Invested) > epsilonMoney {
		summary.ReturnRate = round4((row.Money - row.Invested) / row.Invested)
	}
	summary.AnnualizedReturn = s.annualize(flows, date, row.Money)
	return summary
}

// transferFlows converts an account's transfer deals up to and including
// date into XIRR cash flows: capital paid in is negative, capital taken
// out is positive.
func (s *SummaryService) transferFlows(account string, date time.Time) ([]finance.CashFlow, error) {
	transfers, err := s.dealRepo.ListTransfers([]string{account}, nextDay(date))
	if err != nil {
		return nil, err
	}
	flows := make([]finance.CashFlow, 0, len(transfers))
	for _, t := range transfers {
		amount := -t.Money
		if t.Action == model.ActionTransferOut {
			amount = t.Money
		}
		flows = append(flows, finance.CashFlow{Date: dateOf(t.Time), Amount: amount})
	}
	return flows, nil
}

// annualize solves the money-weighted annualized return for the given
// external flows plus a terminal inflow of the current value at date.
// A nil result means the rate is undefined for this schedule.
func (s *SummaryService) annualize(flows []finance.CashFlow, date time.Time, money float64) *float64 {
	if len(flows) == 0 {
		return nil
	}
	schedule := make([]finance.CashFlow, len(flows), len(flows)+1)
	copy(schedule, flows)
	schedule = append(schedule, finance.CashFlow{Date: date, Amount: money})

	rate, err := finance.XIRR(schedule)
	if err != nil {
		if !errors.Is(err, finance.ErrNoCashFlows) && !errors.Is(err, finance.ErrNoConvergence) {
			log.Printf("annualized return solve failed: %v", err)
		}
		return nil
	}
	rounded := round4(rate)
	return &rounded
}

// Positions returns the merged holdings valuation across the requested
// accounts as of date. Quantities and cost bases are summed per asset
// across accounts first, then each merged line is valued once, so a
// position held in several accounts appears as a single row.
func (s *SummaryService) Positions(accounts []string, date time.Time) ([]model.AssetPosition, error) {
	if len(accounts) == 0 {
		var err error
		accounts, err = s.dealRepo.Accounts()
		if err != nil {
			return nil, err
		}
	}
	date = s.clampDate(date)

	merged, err := s.mergeSnapshots(accounts, date)
	if err != nil {
		return nil, err
	}

	assets, err := s.assetRepo.Map()
	if err != nil {
		return nil, err
	}

	positions := []model.AssetPosition{}
	for code, snap := range merged {
		// Residual dust from a fully closed position clamps to zero but
		// the line is still listed, so realized holdings stay visible.
		if math.Abs(snap.Amount) <= 1e-3 {
			snap.Amount = 0
		}
		if math.Abs(snap.Cost) <= 1e-3 {
			snap.Cost = 0
		}
		position, err := s.valuePosition(code, snap, assets, date)
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}

	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Money != positions[j].Money {
			return positions[i].Money > positions[j].Money
		}
		return positions[i].Code < positions[j].Code
	})
	return positions, nil
}

// mergedHolding accumulates one asset's quantity and cost across accounts.
type mergedHolding struct {
	Amount  float64
	Cost    float64
	HasCost bool
}

func (s *SummaryService) mergeSnapshots(accounts []string, date time.Time) (map[string]mergedHolding, error) {
	merged := map[string]mergedHolding{}
	for _, account := range accounts {
		latest, found, err := s.snapshotRepo.LatestDate(account, date)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		snapshots, err := s.snapshotRepo.ListAt(account, latest)
		if err != nil {
			return nil, err
		}
		for _, snap := range snapshots {
			h := merged[snap.AssetCode]
			h.Amount += snap.Amount
			if snap.Cost.Valid {
				h.Cost += snap.Cost.Float64
				h.HasCost = true
			}
			merged[snap.AssetCode] = h
		}
	}
	return merged, nil
}

func (s *SummaryService) valuePosition(code string, snap mergedHolding, assets map[string]model.Asset, date time.Time) (model.AssetPosition, error) {
	position := model.AssetPosition{
		Code:   code,
		Name:   code,
		Amount: round2(snap.Amount),
	}

	if code == model.CashCode {
		if asset, known := assets[code]; known {
			position.Name = asset.Name
		}
		position.Money = round2(snap.Amount)
		return position, nil
	}

	asset, known := assets[code]
	if !known {
		log.Printf("asset %s referenced by snapshot is unknown, valuing at recorded cost", code)
		if snap.HasCost {
			cost := round2(snap.Cost)
			position.Cost = &cost
			position.Money = cost
		}
		return position, nil
	}
	position.Name = asset.Name

	if snap.HasCost {
		cost := round2(snap.Cost)
		position.Cost = &cost
		if math.Abs(snap.Amount) > epsilonAmount {
			avg := round4(snap.Cost / snap.Amount)
			position.AvgCost = &avg
		}
	}

	price, priceDate, ok, err := s.pricing.ResolvePrice(asset, date, "")
	if err != nil {
		return model.AssetPosition{}, err
	}
	if !ok {
		log.Printf("no price found for asset %s at %s, valuing at recorded cost",
			code, date.Format(repository.DateLayout))
		if snap.HasCost {
			position.Money = round2(snap.Cost)
		}
		return position, nil
	}

	p := round4(price)
	position.Price = &p
	position.PriceDate = &priceDate
	position.Money = round2(snap.Amount * price)

	if snap.HasCost {
		ret := round2(position.Money - snap.Cost)
		position.Return = &ret
		if snap.Cost > epsilonMoney {
			rate := round4(ret / snap.Cost)
			position.ReturnRate = &rate
		}
	}

	return position, nil
}

// HistorySeries returns the stored daily metric rows for each requested
// account over [start, end], plus a synthetic total series on the dates
// where every requested account has a row. Zero start or end leaves that
// bound open.
func (s *SummaryService) HistorySeries(accounts []string, start, end time.Time) ([]model.HistoryRow, error) {
	if len(accounts) == 0 {
		var err error
		accounts, err = s.historyRepo.Accounts()
		if err != nil {
			return nil, err
		}
	}

	rows := []model.HistoryRow{}
	perDate := map[string][]model.HistoryRow{}
	for _, account := range accounts {
		series, err := s.historyRepo.ListRange(account, start, end)
		if err != nil {
			return nil, err
		}
		rows = append(rows, series...)
		for _, row := range series {
			key := row.Date.Format(repository.DateLayout)
			perDate[key] = append(perDate[key], row)
		}
	}

	if len(accounts) > 1 {
		dates := make([]string, 0, len(perDate))
		for key, group := range perDate {
			if len(group) == len(accounts) {
				dates = append(dates, key)
			}
		}
		sort.Strings(dates)
		for _, key := range dates {
			rows = append(rows, s.totalRow(perDate[key]))
		}
	}

	return rows, nil
}

// totalRow aggregates one date's rows into the synthetic total account row.
// Sums add directly; the return index and position ratio are re-derived
// from the sums.
func (s *SummaryService) totalRow(group []model.HistoryRow) model.HistoryRow {
	total := model.HistoryRow{Account: model.TotalAccount, Date: group[0].Date}
	for _, row := range group {
		total.Invested += row.Invested
		total.Money += row.Money
		total.Cash += row.Cash
	}
	if math.Abs(total.Invested) > epsilonMoney {
		total.Nav = round4(total.Money / total.Invested)
	}
	if math.Abs(total.Money) > epsilonMoney {
		total.Position = round4(1 - total.Cash/total.Money)
	}
	total.Invested = round2(total.Invested)
	total.Money = round2(total.Money)
	total.Cash = round2(total.Cash)
	return total
}
