package importer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/folioview/folio-backend/internal/importer"
)

// TestParsePriceCSV tests daily quote import for exchange-traded assets.
//
// WHY: Quote exports differ in which OHLC columns they carry and how they
// format dates; the parser must take what is present, reject rows that
// lack a close, and hand back points oldest first so the upsert walk is
// deterministic.
func TestParsePriceCSV(t *testing.T) {
	t.Run("parses full quote rows and sorts by date", func(t *testing.T) {
		// Setup
		input := strings.Join([]string{
			"date,open,high,low,close,volume",
			"2024-01-03,30.50,31.00,30.25,30.75,120000",
			"2024-01-02,30.00,30.50,29.75,30.25,100000",
		}, "\n") + "\n"

		// Execute
		points, err := importer.ParsePriceCSV("600036.SH", strings.NewReader(input))

		// Assert
		if err != nil {
			t.Fatalf("ParsePriceCSV() error = %v", err)
		}
		if len(points) != 2 {
			t.Fatalf("ParsePriceCSV() returned %d points, want 2", len(points))
		}
		first := points[0]
		if !first.Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("first point date = %v, want 2024-01-02", first.Date)
		}
		if first.AssetCode != "600036.SH" {
			t.Errorf("asset code = %q, want 600036.SH", first.AssetCode)
		}
		if !first.Close.Valid || first.Close.Float64 != 30.25 {
			t.Errorf("close = %+v, want 30.25", first.Close)
		}
		if !first.Volume.Valid || first.Volume.Float64 != 100000 {
			t.Errorf("volume = %+v, want 100000", first.Volume)
		}
		if first.Nav.Valid {
			t.Error("nav should stay NULL for an exchange-traded quote")
		}
	})

	t.Run("accepts compact dates and missing optional columns", func(t *testing.T) {
		// Setup
		input := "date,close\n20240102,30.25\n"

		// Execute
		points, err := importer.ParsePriceCSV("510300.SH", strings.NewReader(input))

		// Assert
		if err != nil {
			t.Fatalf("ParsePriceCSV() error = %v", err)
		}
		if len(points) != 1 {
			t.Fatalf("ParsePriceCSV() returned %d points, want 1", len(points))
		}
		if !points[0].Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("date = %v, want 2024-01-02", points[0].Date)
		}
		if points[0].Open.Valid || points[0].High.Valid {
			t.Error("absent columns should stay NULL")
		}
	})

	t.Run("rejects a row without a close", func(t *testing.T) {
		// Setup
		input := "date,open,close\n2024-01-02,30.00,\n"

		// Execute
		_, err := importer.ParsePriceCSV("600036.SH", strings.NewReader(input))

		// Assert
		if err == nil {
			t.Fatal("ParsePriceCSV() should reject rows missing a close")
		}
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		// Setup
		input := "date,close\n02/01/2024,30.25\n"

		// Execute
		_, err := importer.ParsePriceCSV("600036.SH", strings.NewReader(input))

		// Assert
		if err == nil {
			t.Fatal("ParsePriceCSV() should reject malformed dates")
		}
	})
}
