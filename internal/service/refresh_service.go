package service

import (
	"log"

	"github.com/folioview/folio-backend/internal/repository"
)

// RefreshService orchestrates the full derivation pipeline for a set of
// accounts: holdings snapshots are rebuilt from the deal ledger first, then
// the daily metric series is recomputed on top of them.
type RefreshService struct {
	dealRepo  *repository.DealRepository
	snapshots *SnapshotService
	history   *HistoryService
}

// NewRefreshService creates a new RefreshService with the provided dependencies.
func NewRefreshService(dealRepo *repository.DealRepository, snapshots *SnapshotService, history *HistoryService) *RefreshService {
	return &RefreshService{dealRepo: dealRepo, snapshots: snapshots, history: history}
}

// RefreshResult reports what one account's refresh changed.
type RefreshResult struct {
	Account          string `json:"account"`
	SnapshotsCreated int    `json:"snapshotsCreated"`
	SnapshotsUpdated int    `json:"snapshotsUpdated"`
	HistoryCreated   int    `json:"historyCreated"`
}

// Refresh rebuilds snapshots and history for the given accounts, or for
// every account present in the deal ledger when none are named. Accounts
// refresh independently; a failure on one aborts the run but leaves the
// already-refreshed accounts committed.
func (s *RefreshService) Refresh(accounts []string) ([]RefreshResult, error) {
	if len(accounts) == 0 {
		var err error
		accounts, err = s.dealRepo.Accounts()
		if err != nil {
			return nil, err
		}
	}

	results := make([]RefreshResult, 0, len(accounts))
	for _, account := range accounts {
		created, updated, err := s.snapshots.Rebuild(account)
		if err != nil {
			return results, err
		}
		historyCreated, err := s.history.Rebuild(account)
		if err != nil {
			return results, err
		}
		results = append(results, RefreshResult{
			Account:          account,
			SnapshotsCreated: created,
			SnapshotsUpdated: updated,
			HistoryCreated:   historyCreated,
		})
		log.Printf("refreshed account %s: %d/%d snapshots created/updated, %d history rows created",
			account, created, updated, historyCreated)
	}
	return results, nil
}
