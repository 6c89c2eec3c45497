package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/folioview/folio-backend/internal/apperrors"
	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/testutil"
)

// TestSummaryService_Summaries tests the point-in-time account view.
//
// WHY: The summary endpoint is the landing view of the whole system. The
// aggregate total row must re-derive its ratios from summed figures, never
// average per-account ratios, or multi-account users see nonsense numbers.
func TestSummaryService_Summaries(t *testing.T) {
	t.Run("derives return figures from the latest history row", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repos := testutil.NewTestRepos(t, db)
		svc := testutil.NewTestSummaryService(t, db)
		svc.Now = func() time.Time { return at(2024, 1, 15, 12) }

		testutil.NewAsset("CASH").Build(t, db)
		testutil.NewDeal("a1", "CASH", model.ActionTransferIn).
			At(at(2024, 1, 2, 9)).WithAmount(10000).WithPrice(1).WithMoney(10000).Build(t, db)

		if _, err := repos.History.Upsert(model.HistoryRow{
			Account: "a1", Date: day(2024, 1, 10),
			Invested: 10000, Money: 10500, Nav: 1.05, Cash: 5000, Position: 0.5238,
		}); err != nil {
			t.Fatalf("Upsert() returned unexpected error: %v", err)
		}

		// Execute
		summaries, err := svc.Summaries([]string{"a1"}, day(2024, 1, 10))

		// Assert
		if err != nil {
			t.Fatalf("Summaries() returned unexpected error: %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("Expected account plus total, got %d rows", len(summaries))
		}
		got := summaries[0]
		if !got.Date.Equal(day(2024, 1, 10)) {
			t.Errorf("Expected the history row's own date 2024-01-10, got %s", got.Date)
		}
		if got.Return != 500 {
			t.Errorf("Expected return 500, got %v", got.Return)
		}
		if got.ReturnRate != 0.05 {
			t.Errorf("Expected return rate 0.05, got %v", got.ReturnRate)
		}
		if got.AnnualizedReturn == nil {
			t.Error("Expected a defined annualized return")
		} else if *got.AnnualizedReturn <= 0 {
			t.Errorf("Expected positive annualized return, got %v", *got.AnnualizedReturn)
		}
	})

	t.Run("total row re-derives ratios from summed figures", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repos := testutil.NewTestRepos(t, db)
		svc := testutil.NewTestSummaryService(t, db)
		svc.Now = func() time.Time { return at(2024, 1, 15, 12) }

		rows := []model.HistoryRow{
			{Account: "a1", Date: day(2024, 1, 10), Invested: 10000, Money: 10500, Nav: 1.05, Cash: 5000, Position: 0.5238},
			{Account: "a2", Date: day(2024, 1, 10), Invested: 20000, Money: 19000, Nav: 0.95, Cash: 1000, Position: 0.9474},
		}
		for _, row := range rows {
			if _, err := repos.History.Upsert(row); err != nil {
				t.Fatalf("Upsert() returned unexpected error: %v", err)
			}
		}

		// Execute
		summaries, err := svc.Summaries([]string{"a1", "a2"}, day(2024, 1, 10))

		// Assert
		if err != nil {
			t.Fatalf("Summaries() returned unexpected error: %v", err)
		}
		if len(summaries) != 3 {
			t.Fatalf("Expected 2 accounts plus total, got %d rows", len(summaries))
		}
		total := summaries[2]
		if total.Account != model.TotalAccount {
			t.Fatalf("Expected total row last, got account %s", total.Account)
		}
		if !total.Date.Equal(day(2024, 1, 10)) {
			t.Errorf("Expected total dated by the latest row, got %s", total.Date)
		}
		if total.Invested != 30000 || total.Money != 29500 {
			t.Errorf("Expected invested=30000 money=29500, got %v/%v", total.Invested, total.Money)
		}
		if total.Return != -500 {
			t.Errorf("Expected return -500, got %v", total.Return)
		}
		if total.ReturnRate != -0.0167 {
			t.Errorf("Expected return rate -0.0167, got %v", total.ReturnRate)
		}
		if total.Position != 0.7966 {
			t.Errorf("Expected position 0.7966, got %v", total.Position)
		}
	})

	t.Run("accounts without history are skipped", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repos := testutil.NewTestRepos(t, db)
		svc := testutil.NewTestSummaryService(t, db)
		svc.Now = func() time.Time { return at(2024, 1, 15, 12) }

		if _, err := repos.History.Upsert(model.HistoryRow{
			Account: "a1", Date: day(2024, 1, 10), Invested: 1000, Money: 1000, Nav: 1, Cash: 1000,
		}); err != nil {
			t.Fatalf("Upsert() returned unexpected error: %v", err)
		}

		// Execute
		summaries, err := svc.Summaries([]string{"a1", "ghost"}, day(2024, 1, 10))

		// Assert
		if err != nil {
			t.Fatalf("Summaries() returned unexpected error: %v", err)
		}
		// The ghost contributes nothing; the surviving account still gets
		// its total row.
		if len(summaries) != 2 {
			t.Fatalf("Expected surviving account plus total, got %d rows", len(summaries))
		}
		if summaries[0].Account != "a1" {
			t.Errorf("Expected account a1, got %s", summaries[0].Account)
		}
		total := summaries[1]
		if total.Account != model.TotalAccount {
			t.Fatalf("Expected total row last, got account %s", total.Account)
		}
		if total.Money != 1000 || total.Cash != 1000 {
			t.Errorf("Expected total to mirror the single account, got money=%v cash=%v",
				total.Money, total.Cash)
		}
	})

	t.Run("query dates in the future clamp to yesterday", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repos := testutil.NewTestRepos(t, db)
		svc := testutil.NewTestSummaryService(t, db)
		svc.Now = func() time.Time { return at(2024, 1, 15, 12) }

		if _, err := repos.History.Upsert(model.HistoryRow{
			Account: "a1", Date: day(2024, 1, 14), Invested: 1000, Money: 1100, Nav: 1.1, Cash: 100,
		}); err != nil {
			t.Fatalf("Upsert() returned unexpected error: %v", err)
		}

		// Execute
		summaries, err := svc.Summaries([]string{"a1"}, day(2024, 1, 20))

		// Assert
		if err != nil {
			t.Fatalf("Summaries() returned unexpected error: %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("Expected account plus total, got %d rows", len(summaries))
		}
		if !summaries[0].Date.Equal(day(2024, 1, 14)) {
			t.Errorf("Expected the last finalized row's date 2024-01-14, got %s", summaries[0].Date)
		}
	})

	t.Run("no account with history returns ErrNoHistory", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSummaryService(t, db)
		svc.Now = func() time.Time { return at(2024, 1, 15, 12) }

		// Execute
		_, err := svc.Summaries([]string{"a1"}, day(2024, 1, 10))

		// Assert
		if !errors.Is(err, apperrors.ErrNoHistory) {
			t.Errorf("Expected ErrNoHistory, got %v", err)
		}
	})
}

// TestSummaryService_Positions tests the merged multi-account holdings view.
//
// WHY: The same fund held in two brokers must show as one line with summed
// quantity and cost, valued once, or per-asset exposure is misread.
func TestSummaryService_Positions(t *testing.T) {
	t.Run("merges the same asset across accounts before valuing", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		snapshots := testutil.NewTestSnapshotService(t, db)
		svc := testutil.NewTestSummaryService(t, db)
		svc.Now = func() time.Time { return at(2024, 1, 10, 12) }

		testutil.NewAsset("CASH").Build(t, db)
		testutil.NewAsset("600036.SH").Build(t, db)

		testutil.NewDeal("a1", "CASH", model.ActionTransferIn).
			At(at(2024, 1, 2, 9)).WithAmount(5000).WithPrice(1).WithMoney(5000).Build(t, db)
		testutil.NewDeal("a1", "600036.SH", model.ActionBuy).
			At(at(2024, 1, 2, 10)).WithAmount(100).WithPrice(30).WithMoney(3000).Build(t, db)
		testutil.NewDeal("a2", "CASH", model.ActionTransferIn).
			At(at(2024, 1, 2, 9)).WithAmount(2000).WithPrice(1).WithMoney(2000).Build(t, db)
		testutil.NewDeal("a2", "600036.SH", model.ActionBuy).
			At(at(2024, 1, 2, 11)).WithAmount(50).WithPrice(32).WithMoney(1600).Build(t, db)

		testutil.NewPricePoint("600036.SH", day(2024, 1, 4)).WithClose(40).Build(t, db)

		for _, account := range []string{"a1", "a2"} {
			if _, _, err := snapshots.Rebuild(account); err != nil {
				t.Fatalf("Rebuild(%s) returned unexpected error: %v", account, err)
			}
		}

		// Execute
		positions, err := svc.Positions([]string{"a1", "a2"}, day(2024, 1, 5))

		// Assert
		if err != nil {
			t.Fatalf("Positions() returned unexpected error: %v", err)
		}
		if len(positions) != 2 {
			t.Fatalf("Expected 2 positions, got %d", len(positions))
		}
		// Sorted by value descending, the stock outranks the cash balance.
		stock := positions[0]
		if stock.Code != "600036.SH" {
			t.Fatalf("Expected 600036.SH first, got %s", stock.Code)
		}
		if stock.Amount != 150 {
			t.Errorf("Expected merged amount 150, got %v", stock.Amount)
		}
		if stock.Money != 6000 {
			t.Errorf("Expected money 6000, got %v", stock.Money)
		}
		if stock.Cost == nil || *stock.Cost != 4600 {
			t.Errorf("Expected cost 4600, got %v", stock.Cost)
		}
		if stock.Return == nil || *stock.Return != 1400 {
			t.Errorf("Expected return 1400, got %v", stock.Return)
		}
		if stock.ReturnRate == nil || *stock.ReturnRate != 0.3043 {
			t.Errorf("Expected return rate 0.3043, got %v", stock.ReturnRate)
		}

		cash := positions[1]
		if cash.Code != model.CashCode {
			t.Fatalf("Expected CASH second, got %s", cash.Code)
		}
		if cash.Money != 2400 {
			t.Errorf("Expected cash money 2400, got %v", cash.Money)
		}
		if cash.Cost != nil {
			t.Errorf("Expected nil cost for cash, got %v", *cash.Cost)
		}
	})

	t.Run("fully closed positions stay listed at zero quantity", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		snapshots := testutil.NewTestSnapshotService(t, db)
		svc := testutil.NewTestSummaryService(t, db)
		svc.Now = func() time.Time { return at(2024, 1, 10, 12) }

		testutil.NewAsset("CASH").Build(t, db)
		testutil.NewAsset("600036.SH").Build(t, db)

		testutil.NewDeal("a1", "CASH", model.ActionTransferIn).
			At(at(2024, 1, 2, 9)).WithAmount(5000).WithPrice(1).WithMoney(5000).Build(t, db)
		testutil.NewDeal("a1", "600036.SH", model.ActionBuy).
			At(at(2024, 1, 2, 10)).WithAmount(100).WithPrice(30).WithMoney(3000).Build(t, db)
		testutil.NewDeal("a1", "600036.SH", model.ActionSell).
			At(at(2024, 1, 3, 10)).WithAmount(100).WithPrice(31).WithMoney(3100).Build(t, db)

		if _, _, err := snapshots.Rebuild("a1"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		// Execute
		positions, err := svc.Positions([]string{"a1"}, day(2024, 1, 5))

		// Assert
		if err != nil {
			t.Fatalf("Positions() returned unexpected error: %v", err)
		}
		if len(positions) != 2 {
			t.Fatalf("Expected cash plus the closed line, got %d positions", len(positions))
		}
		if positions[0].Code != model.CashCode {
			t.Errorf("Expected CASH first, got %s", positions[0].Code)
		}
		closed := positions[1]
		if closed.Code != "600036.SH" {
			t.Fatalf("Expected the closed holding listed, got %s", closed.Code)
		}
		if closed.Amount != 0 {
			t.Errorf("Expected quantity clamped to 0, got %v", closed.Amount)
		}
		if closed.Money != 0 {
			t.Errorf("Expected market value 0, got %v", closed.Money)
		}
		// The sale realized 100 over the recorded cost.
		if closed.Return == nil || *closed.Return != 100 {
			t.Errorf("Expected realized return 100, got %v", closed.Return)
		}
	})

	t.Run("falls back to the last buy price when no quote exists", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		snapshots := testutil.NewTestSnapshotService(t, db)
		svc := testutil.NewTestSummaryService(t, db)
		svc.Now = func() time.Time { return at(2024, 1, 10, 12) }

		testutil.NewAsset("CASH").Build(t, db)
		testutil.NewAsset("110011.OF").Build(t, db)

		testutil.NewDeal("a1", "CASH", model.ActionTransferIn).
			At(at(2024, 1, 2, 9)).WithAmount(5000).WithPrice(1).WithMoney(5000).Build(t, db)
		testutil.NewDeal("a1", "110011.OF", model.ActionBuy).
			At(at(2024, 1, 2, 10)).WithAmount(100).WithPrice(20).WithMoney(2000).Build(t, db)

		if _, _, err := snapshots.Rebuild("a1"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		// Execute
		positions, err := svc.Positions([]string{"a1"}, day(2024, 1, 5))

		// Assert
		if err != nil {
			t.Fatalf("Positions() returned unexpected error: %v", err)
		}
		if len(positions) != 2 {
			t.Fatalf("Expected 2 positions, got %d", len(positions))
		}
		fund := positions[1]
		if fund.Code != "110011.OF" {
			t.Fatalf("Expected 110011.OF, got %s", fund.Code)
		}
		if fund.Price == nil || *fund.Price != 20 {
			t.Errorf("Expected fallback price 20, got %v", fund.Price)
		}
		if fund.Money != 2000 {
			t.Errorf("Expected money 2000, got %v", fund.Money)
		}
	})
}

// TestSummaryService_HistorySeries tests the multi-account series view.
//
// WHY: The total curve is only honest on dates where every selected account
// has a finalized row; a partial sum would show a fake drawdown whenever one
// account's series starts later than the others.
func TestSummaryService_HistorySeries(t *testing.T) {
	t.Run("total rows appear only on fully covered dates", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repos := testutil.NewTestRepos(t, db)
		svc := testutil.NewTestSummaryService(t, db)

		rows := []model.HistoryRow{
			{Account: "a1", Date: day(2024, 1, 3), Invested: 1000, Money: 1000, Nav: 1, Cash: 1000},
			{Account: "a1", Date: day(2024, 1, 4), Invested: 1000, Money: 1100, Nav: 1.1, Cash: 100},
			{Account: "a2", Date: day(2024, 1, 4), Invested: 2000, Money: 2100, Nav: 1.05, Cash: 2100},
		}
		for _, row := range rows {
			if _, err := repos.History.Upsert(row); err != nil {
				t.Fatalf("Upsert() returned unexpected error: %v", err)
			}
		}

		// Execute
		series, err := svc.HistorySeries([]string{"a1", "a2"}, time.Time{}, time.Time{})

		// Assert
		if err != nil {
			t.Fatalf("HistorySeries() returned unexpected error: %v", err)
		}
		if len(series) != 4 {
			t.Fatalf("Expected 3 account rows plus 1 total row, got %d", len(series))
		}
		total := series[3]
		if total.Account != model.TotalAccount {
			t.Fatalf("Expected total row last, got account %s", total.Account)
		}
		if !total.Date.Equal(day(2024, 1, 4)) {
			t.Errorf("Expected total on 2024-01-04, got %s", total.Date)
		}
		if total.Invested != 3000 || total.Money != 3200 {
			t.Errorf("Expected invested=3000 money=3200, got %v/%v", total.Invested, total.Money)
		}
		if total.Nav != 1.0667 {
			t.Errorf("Expected nav 1.0667, got %v", total.Nav)
		}
		if total.Position != 0.3125 {
			t.Errorf("Expected position 0.3125, got %v", total.Position)
		}
	})
}
