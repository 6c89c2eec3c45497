package testutil

import (
	"database/sql"
	"testing"

	"github.com/folioview/folio-backend/internal/repository"
	"github.com/folioview/folio-backend/internal/service"
)

// Repos bundles the repositories wired against one test database.
type Repos struct {
	Assets    *repository.AssetRepository
	Deals     *repository.DealRepository
	Prices    *repository.PriceRepository
	Snapshots *repository.SnapshotRepository
	History   *repository.HistoryRepository
}

// NewTestRepos creates the full repository set on a test database.
func NewTestRepos(t *testing.T, db *sql.DB) Repos {
	t.Helper()
	return Repos{
		Assets:    repository.NewAssetRepository(db),
		Deals:     repository.NewDealRepository(db),
		Prices:    repository.NewPriceRepository(db),
		Snapshots: repository.NewSnapshotRepository(db),
		History:   repository.NewHistoryRepository(db),
	}
}

// NewTestSnapshotService creates a SnapshotService on a test database.
func NewTestSnapshotService(t *testing.T, db *sql.DB) *service.SnapshotService {
	t.Helper()
	r := NewTestRepos(t, db)
	return service.NewSnapshotService(r.Deals, r.Snapshots)
}

// NewTestHistoryService creates a HistoryService on a test database with
// the given cutoff hour.
func NewTestHistoryService(t *testing.T, db *sql.DB, cutoffHour int) *service.HistoryService {
	t.Helper()
	r := NewTestRepos(t, db)
	pricing := service.NewPricingService(r.Prices, r.Deals)
	return service.NewHistoryService(r.Snapshots, r.Deals, r.Prices, r.Assets, r.History, pricing, cutoffHour)
}

// NewTestSummaryService creates a SummaryService on a test database.
func NewTestSummaryService(t *testing.T, db *sql.DB) *service.SummaryService {
	t.Helper()
	r := NewTestRepos(t, db)
	pricing := service.NewPricingService(r.Prices, r.Deals)
	return service.NewSummaryService(r.History, r.Snapshots, r.Deals, r.Assets, pricing)
}

// NewTestRefreshService creates a RefreshService on a test database.
func NewTestRefreshService(t *testing.T, db *sql.DB, cutoffHour int) *service.RefreshService {
	t.Helper()
	r := NewTestRepos(t, db)
	snapshots := NewTestSnapshotService(t, db)
	history := NewTestHistoryService(t, db, cutoffHour)
	return service.NewRefreshService(r.Deals, snapshots, history)
}
