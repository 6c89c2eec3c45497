package service_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/folioview/folio-backend/internal/apperrors"
	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/testutil"
)

const cutoffHour = 20

// TestHistoryService_Compute tests the daily valuation walk.
//
// WHY: The metric series is the product users actually look at. The walk
// has to carry holdings forward across sparse snapshots, skip days the
// market never traded, and keep the return index consistent with invested
// capital.
func TestHistoryService_Compute(t *testing.T) {
	t.Run("values holdings and derives nav and position", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		snapshots := testutil.NewTestSnapshotService(t, db)
		svc := testutil.NewTestHistoryService(t, db, cutoffHour)
		svc.Now = func() time.Time { return at(2024, 1, 5, 21) }

		testutil.NewAsset("CASH").Build(t, db)
		testutil.NewAsset("110011.OF").Build(t, db)

		testutil.NewDeal("a1", "CASH", model.ActionTransferIn).
			At(at(2024, 1, 2, 9)).WithAmount(10000).WithPrice(1).WithMoney(10000).Build(t, db)
		testutil.NewDeal("a1", "110011.OF", model.ActionBuy).
			At(at(2024, 1, 3, 10)).WithAmount(2000).WithPrice(2.5).WithMoney(5000).Build(t, db)

		testutil.NewPricePoint("110011.OF", day(2024, 1, 3)).WithNav(2.5).Build(t, db)
		testutil.NewPricePoint("110011.OF", day(2024, 1, 4)).WithNav(2.75).Build(t, db)

		if _, _, err := snapshots.Rebuild("a1"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		// Execute
		rows, err := svc.Compute("a1")

		// Assert
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		// 2024-01-02 and 2024-01-05 carry no price observation at all and
		// are excluded as non-trading days.
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(rows))
		}

		first := rows[0]
		if !first.Date.Equal(day(2024, 1, 3)) {
			t.Errorf("Expected first row on 2024-01-03, got %s", first.Date)
		}
		if first.Invested != 10000 || first.Money != 10000 {
			t.Errorf("Expected invested=10000 money=10000, got %v/%v", first.Invested, first.Money)
		}
		if first.Nav != 1.0 {
			t.Errorf("Expected nav 1.0, got %v", first.Nav)
		}
		if first.Position != 0.5 {
			t.Errorf("Expected position 0.5, got %v", first.Position)
		}

		second := rows[1]
		if second.Money != 10500 {
			t.Errorf("Expected money 10500, got %v", second.Money)
		}
		if second.Nav != 1.05 {
			t.Errorf("Expected nav 1.05, got %v", second.Nav)
		}
		if second.Cash != 5000 {
			t.Errorf("Expected cash 5000, got %v", second.Cash)
		}
		want := math.Round((1-5000.0/10500.0)*10000) / 10000
		if second.Position != want {
			t.Errorf("Expected position %v, got %v", want, second.Position)
		}
	})

	t.Run("before the cutoff hour today is excluded", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		snapshots := testutil.NewTestSnapshotService(t, db)
		svc := testutil.NewTestHistoryService(t, db, cutoffHour)
		svc.Now = func() time.Time { return at(2024, 1, 4, 8) }

		testutil.NewAsset("CASH").Build(t, db)
		testutil.NewAsset("110011.OF").Build(t, db)
		testutil.NewDeal("a1", "CASH", model.ActionTransferIn).
			At(at(2024, 1, 2, 9)).WithAmount(10000).WithPrice(1).WithMoney(10000).Build(t, db)
		testutil.NewPricePoint("110011.OF", day(2024, 1, 2)).WithNav(2.5).Build(t, db)
		testutil.NewPricePoint("110011.OF", day(2024, 1, 3)).WithNav(2.5).Build(t, db)
		testutil.NewPricePoint("110011.OF", day(2024, 1, 4)).WithNav(2.5).Build(t, db)

		if _, _, err := snapshots.Rebuild("a1"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		// Execute
		rows, err := svc.Compute("a1")

		// Assert
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows (today excluded), got %d", len(rows))
		}
		if !rows[len(rows)-1].Date.Equal(day(2024, 1, 3)) {
			t.Errorf("Expected last row on 2024-01-03, got %s", rows[len(rows)-1].Date)
		}
	})

	t.Run("holdings carry forward across days without snapshots", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		snapshots := testutil.NewTestSnapshotService(t, db)
		svc := testutil.NewTestHistoryService(t, db, cutoffHour)
		svc.Now = func() time.Time { return at(2024, 1, 10, 21) }

		testutil.NewAsset("CASH").Build(t, db)
		testutil.NewAsset("110011.OF").Build(t, db)
		testutil.NewDeal("a1", "CASH", model.ActionTransferIn).
			At(at(2024, 1, 2, 9)).WithAmount(5000).WithPrice(1).WithMoney(5000).Build(t, db)
		testutil.NewDeal("a1", "110011.OF", model.ActionBuy).
			At(at(2024, 1, 2, 10)).WithAmount(1000).WithPrice(2).WithMoney(2000).Build(t, db)

		// Prices continue long after the last deal.
		for d := 2; d <= 9; d++ {
			testutil.NewPricePoint("110011.OF", day(2024, 1, d)).WithNav(2.0).Build(t, db)
		}

		if _, _, err := snapshots.Rebuild("a1"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		// Execute
		rows, err := svc.Compute("a1")

		// Assert
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if len(rows) != 8 {
			t.Fatalf("Expected 8 rows, got %d", len(rows))
		}
		for _, row := range rows {
			if row.Money != 5000 {
				t.Errorf("Expected money 5000 on %s, got %v", row.Date, row.Money)
			}
		}
	})

	t.Run("asset without any price contributes its recorded cost", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		snapshots := testutil.NewTestSnapshotService(t, db)
		svc := testutil.NewTestHistoryService(t, db, cutoffHour)
		svc.Now = func() time.Time { return at(2024, 1, 4, 21) }

		testutil.NewAsset("CASH").Build(t, db)
		testutil.NewAsset("110011.OF").Build(t, db)
		testutil.NewAsset("512010.SH").Build(t, db)

		testutil.NewDeal("a1", "CASH", model.ActionTransferIn).
			At(at(2024, 1, 2, 9)).WithAmount(5000).WithPrice(1).WithMoney(5000).Build(t, db)
		// Units arrive by transfer, so there is no buy deal to fall back on
		// and no market observation either.
		testutil.NewDeal("a1", "512010.SH", model.ActionTransferIn).
			At(at(2024, 1, 2, 10)).WithAmount(100).WithPrice(0).WithMoney(0).Build(t, db)
		// Another asset trades, so the date itself is a trading day.
		testutil.NewPricePoint("110011.OF", day(2024, 1, 3)).WithNav(2.0).Build(t, db)

		if _, _, err := snapshots.Rebuild("a1"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		// Execute
		rows, err := svc.Compute("a1")

		// Assert
		if err != nil {
			t.Fatalf("Compute() returned unexpected error: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("Expected 1 row, got %d", len(rows))
		}
		// The unpriceable holding degrades to its cost (zero for transfers)
		// instead of inventing a price.
		if rows[0].Money != 5000 {
			t.Errorf("Expected money 5000, got %v", rows[0].Money)
		}
	})

	t.Run("account without snapshots returns ErrNoSnapshots", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestHistoryService(t, db, cutoffHour)

		// Execute
		_, err := svc.Compute("missing")

		// Assert
		if !errors.Is(err, apperrors.ErrNoSnapshots) {
			t.Errorf("Expected ErrNoSnapshots, got %v", err)
		}
	})
}

// TestHistoryService_Rebuild tests persistence of the computed series.
//
// WHY: The refresh pipeline runs nightly; persisting must be idempotent so
// a re-run after a partial failure converges instead of duplicating rows.
func TestHistoryService_Rebuild(t *testing.T) {
	t.Run("re-running creates no additional rows", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		snapshots := testutil.NewTestSnapshotService(t, db)
		svc := testutil.NewTestHistoryService(t, db, cutoffHour)
		svc.Now = func() time.Time { return at(2024, 1, 5, 21) }

		testutil.NewAsset("CASH").Build(t, db)
		testutil.NewAsset("110011.OF").Build(t, db)
		testutil.NewDeal("a1", "CASH", model.ActionTransferIn).
			At(at(2024, 1, 2, 9)).WithAmount(10000).WithPrice(1).WithMoney(10000).Build(t, db)
		testutil.NewPricePoint("110011.OF", day(2024, 1, 3)).WithNav(2.5).Build(t, db)

		if _, _, err := snapshots.Rebuild("a1"); err != nil {
			t.Fatalf("Rebuild() returned unexpected error: %v", err)
		}

		first, err := svc.Rebuild("a1")
		if err != nil {
			t.Fatalf("First Rebuild() returned unexpected error: %v", err)
		}
		if first != 1 {
			t.Errorf("Expected 1 created row, got %d", first)
		}

		// Execute
		second, err := svc.Rebuild("a1")

		// Assert
		if err != nil {
			t.Fatalf("Second Rebuild() returned unexpected error: %v", err)
		}
		if second != 0 {
			t.Errorf("Expected 0 created rows on re-run, got %d", second)
		}
	})
}
