package service

import (
	"database/sql"
	"log"
	"sort"
	"time"

	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/repository"
)

// SnapshotService is the holdings reconstructor: it replays an account's
// deal ledger chronologically and materializes sparse per-day holdings
// snapshots (quantity and cumulative cost per asset).
type SnapshotService struct {
	dealRepo     *repository.DealRepository
	snapshotRepo *repository.SnapshotRepository
}

// NewSnapshotService creates a new SnapshotService with the provided dependencies.
func NewSnapshotService(dealRepo *repository.DealRepository, snapshotRepo *repository.SnapshotRepository) *SnapshotService {
	return &SnapshotService{dealRepo: dealRepo, snapshotRepo: snapshotRepo}
}

// Rebuild replays the account's deals in timestamp order grouped by calendar
// date and upserts one snapshot row per accumulated asset per deal date.
//
// The per-asset amount and cost accumulators run across the entire account
// history, never resetting between days. Deal actions apply as follows:
//
//   - buy: amount += qty, cash -= money, cost += money
//   - sell: amount -= qty, cash += money, cost -= money
//   - reinvest / transfer_in: amount += qty (cash legs of transfers arrive
//     as separate CASH deals)
//   - transfer_out: amount -= qty
//   - bonus / fix_cash: cash += qty (the amount field carries a cash sum)
//   - spin_off: amount = qty (corporate actions restate the holding
//     absolutely, not as a delta)
//
// Re-running over the same ledger is idempotent: rows are created when
// absent, updated when the stored amount differs, untouched otherwise.
// Returns the number of created and updated snapshot rows.
func (s *SnapshotService) Rebuild(account string) (int, int, error) {
	deals, err := s.dealRepo.ListByAccount(account)
	if err != nil {
		return 0, 0, err
	}
	if len(deals) == 0 {
		log.Printf("no deals found for account %s, nothing to reconstruct", account)
		return 0, 0, nil
	}

	amounts := make(map[string]float64)
	costs := make(map[string]float64)
	created, updated := 0, 0

	// Deals arrive sorted by time; walk them one calendar date at a time.
	for start := 0; start < len(deals); {
		date := dateOf(deals[start].Time)
		end := start
		for end < len(deals) && dateOf(deals[end].Time).Equal(date) {
			end++
		}

		for _, deal := range deals[start:end] {
			applyDeal(amounts, costs, deal)
		}

		c, u, err := s.persistDate(account, date, amounts, costs)
		if err != nil {
			return created, updated, err
		}
		created += c
		updated += u

		start = end
	}

	log.Printf("created %d and updated %d snapshot rows for account %s", created, updated, account)
	return created, updated, nil
}

// applyDeal advances the running accumulators by one deal.
func applyDeal(amounts, costs map[string]float64, deal model.Deal) {
	code := deal.AssetCode
	switch deal.Action {
	case model.ActionBuy:
		amounts[code] += deal.Amount
		amounts[model.CashCode] -= deal.Money
		costs[code] += deal.Money
	case model.ActionReinvest, model.ActionTransferIn:
		amounts[code] += deal.Amount
	case model.ActionSell:
		amounts[code] -= deal.Amount
		amounts[model.CashCode] += deal.Money
		costs[code] -= deal.Money
	case model.ActionTransferOut:
		amounts[code] -= deal.Amount
	case model.ActionBonus, model.ActionFixCash:
		amounts[model.CashCode] += deal.Amount
	case model.ActionSpinOff:
		amounts[code] = deal.Amount
	default:
		log.Printf("skipping deal with unknown action %q (account %s, asset %s, time %s)",
			deal.Action, deal.Account, deal.AssetCode, deal.Time)
	}
}

// persistDate upserts one snapshot row per accumulated asset for the date.
func (s *SnapshotService) persistDate(account string, date time.Time, amounts, costs map[string]float64) (int, int, error) {
	codes := make([]string, 0, len(amounts))
	for code := range amounts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	created, updated := 0, 0
	for _, code := range codes {
		snapshot := model.AssetSnapshot{
			Account:   account,
			Date:      date,
			AssetCode: code,
			Amount:    amounts[code],
		}
		if code != model.CashCode {
			snapshot.Cost = sql.NullFloat64{Float64: costs[code], Valid: true}
		}

		c, u, err := s.snapshotRepo.Upsert(snapshot)
		if err != nil {
			return created, updated, err
		}
		if c {
			created++
		}
		if u {
			updated++
		}
	}

	return created, updated, nil
}
