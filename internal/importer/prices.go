package importer

import (
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/folioview/folio-backend/internal/model"
)

// Daily quote exports carry a header row naming their columns. Only date
// and close are required; the remaining OHLC fields stay NULL when the
// export omits them.
var priceColumns = []string{
	"open", "high", "low", "close",
	"pre_close", "change", "pct_change", "volume", "turnover",
}

// ParsePriceCSV reads a daily quote CSV for one exchange-traded asset and
// returns the price points it carries, oldest first. Rows without a close
// are rejected rather than skipped: a partial quote file usually means the
// wrong export was picked.
func ParsePriceCSV(assetCode string, r io.Reader) ([]model.PricePoint, error) {
	stmt, err := newStatementReader(r)
	if err != nil {
		return nil, err
	}

	var points []model.PricePoint
	for line := 2; ; line++ {
		row, err := stmt.next()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if row == nil {
			break
		}

		date, err := parseQuoteDate(row["date"])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		point := model.PricePoint{AssetCode: assetCode, Date: date}
		fields := map[string]*sql.NullFloat64{
			"open": &point.Open, "high": &point.High,
			"low": &point.Low, "close": &point.Close,
			"pre_close": &point.PreClose, "change": &point.Change,
			"pct_change": &point.PctChange, "volume": &point.Volume,
			"turnover": &point.Turnover,
		}
		for _, name := range priceColumns {
			raw, present := row[name]
			if !present || raw == "" {
				continue
			}
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, name, err)
			}
			*fields[name] = sql.NullFloat64{Float64: value, Valid: true}
		}
		if !point.Close.Valid {
			return nil, fmt.Errorf("line %d: missing close", line)
		}

		points = append(points, point)
	}

	sortPricePoints(points)
	return points, nil
}

// parseQuoteDate accepts both dashed and compact date forms, the two
// conventions daily quote exports use.
func parseQuoteDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if date, err := time.Parse(layout, raw); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("malformed date %q", raw)
}

func sortPricePoints(points []model.PricePoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
}
