package importer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/folioview/folio-backend/internal/importer"
	"github.com/folioview/folio-backend/internal/model"
)

// fakeNavSource serves canned fund NAV history keyed by bare code.
type fakeNavSource struct {
	navs map[string][]importer.NavPoint
}

func (f fakeNavSource) Navs(code string, start, end time.Time) ([]importer.NavPoint, error) {
	var out []importer.NavPoint
	for _, p := range f.navs[code] {
		if !p.Date.Before(start) && !p.Date.After(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

// TestParseQieman tests Qieman order export conversion.
//
// WHY: The export mixes detailed composition orders with summary-only
// reinvestments and dividends, stamps reinvestments with their settlement
// date instead of the grant date, and omits the share count of switch
// orders entirely; each shape needs its own recovery path or the ledger
// ends up with wrong dates and quantities.
func TestParseQieman(t *testing.T) {
	noNavs := fakeNavSource{}

	t.Run("converts composition orders and emits matching transfers", func(t *testing.T) {
		// Setup
		input := `{"umaName":"布谷","capitalAccountName":"长赢","hasDetail":true,"orderStatus":"SUCCESS","compositionOrders":[{"nav":1.5,"fee":1.0,"acceptTime":1704189600000,"uiShare":2000.0,"uiAmount":3000.0,"payStatus":"2","fund":{"fundCode":"005827","fundName":"易方达蓝筹精选"}}]}` + "\n"

		// Execute
		records, err := importer.ParseQieman(strings.NewReader(input), noNavs, true)

		// Assert
		if err != nil {
			t.Fatalf("ParseQieman() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("ParseQieman() returned %d records, want transfer plus buy", len(records))
		}

		transfer := records[0]
		if transfer.Action != model.ActionTransferIn || transfer.AssetCode != model.CashCode {
			t.Errorf("first record = %s %s, want transfer_in CASH", transfer.Action, transfer.AssetCode)
		}
		if transfer.Amount != 3000 || transfer.Money != 3000 {
			t.Errorf("transfer amount/money = %v/%v, want 3000/3000", transfer.Amount, transfer.Money)
		}
		if !transfer.Time.Equal(time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)) {
			t.Errorf("transfer time = %v, want 2024-01-02 08:00", transfer.Time)
		}

		buy := records[1]
		if buy.AssetCode != "005827.OF" {
			t.Errorf("buy code = %q, want 005827.OF", buy.AssetCode)
		}
		if buy.Action != model.ActionBuy || buy.Amount != 2000 || buy.Price != 1.5 {
			t.Errorf("buy = %s %v@%v, want buy 2000@1.5", buy.Action, buy.Amount, buy.Price)
		}
		if buy.Money != 3000 || buy.Fee != 1 {
			t.Errorf("buy money/fee = %v/%v, want 3000/1", buy.Money, buy.Fee)
		}
		if !buy.Time.Equal(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)) {
			t.Errorf("buy time = %v, want 2024-01-02 10:00", buy.Time)
		}
	})

	t.Run("skips the money market sub account and failed orders", func(t *testing.T) {
		// Setup
		input := strings.Join([]string{
			`{"umaName":"布谷","capitalAccountName":"货币三佳","hasDetail":true,"orderStatus":"SUCCESS","compositionOrders":[{"nav":1.0,"acceptTime":1704189600000,"uiShare":100.0,"uiAmount":100.0,"payStatus":"2","fund":{"fundCode":"000509","fundName":"广发钱袋子"}}]}`,
			`{"umaName":"布谷","capitalAccountName":"长赢","hasDetail":true,"orderStatus":"FAILED","compositionOrders":[{"nav":1.5,"acceptTime":1704189600000,"uiShare":2000.0,"uiAmount":3000.0,"payStatus":"2","fund":{"fundCode":"005827","fundName":"易方达蓝筹精选"}}]}`,
		}, "\n") + "\n"

		// Execute
		records, err := importer.ParseQieman(strings.NewReader(input), noNavs, false)

		// Assert
		if err != nil {
			t.Fatalf("ParseQieman() error = %v", err)
		}
		if len(records) != 0 {
			t.Errorf("ParseQieman() returned %d records, want 0", len(records))
		}
	})

	t.Run("corrects the reinvestment date against nav history", func(t *testing.T) {
		// Setup: settled on 2024-01-10 with 150 over 100 shares, implying
		// a nav near 1.5; the closest prior observation is 1.49 on the 9th.
		navs := fakeNavSource{navs: map[string][]importer.NavPoint{
			"005827": {
				{Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Nav: 1.52},
				{Date: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), Nav: 1.49},
			},
		}}
		input := `{"umaName":"布谷","capitalAccountName":"长赢","hasDetail":false,"acceptTime":1704852000000,"uiAmount":150.0,"uiOrderDesc":"红利再投资份额100.00份","uiOrderCodeName":"","fund":{"fundCode":"005827","fundName":"易方达蓝筹精选"}}` + "\n"

		// Execute
		records, err := importer.ParseQieman(strings.NewReader(input), navs, false)

		// Assert
		if err != nil {
			t.Fatalf("ParseQieman() error = %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("ParseQieman() returned %d records, want 1", len(records))
		}
		got := records[0]
		if got.Action != model.ActionReinvest || got.Amount != 100 || got.Money != 150 {
			t.Errorf("record = %s %v/%v, want reinvest 100/150", got.Action, got.Amount, got.Money)
		}
		if got.Price != 1.49 {
			t.Errorf("price = %v, want the matched nav 1.49", got.Price)
		}
		if !got.Time.Equal(time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC)) {
			t.Errorf("time = %v, want corrected to 2024-01-09 08:00", got.Time)
		}
	})

	t.Run("keeps the implied nav when history is missing", func(t *testing.T) {
		// Setup
		input := `{"umaName":"布谷","capitalAccountName":"长赢","hasDetail":false,"acceptTime":1704852000000,"uiAmount":150.0,"uiOrderDesc":"红利再投资份额100.00份","uiOrderCodeName":"","fund":{"fundCode":"005827","fundName":"易方达蓝筹精选"}}` + "\n"

		// Execute
		records, err := importer.ParseQieman(strings.NewReader(input), noNavs, false)

		// Assert
		if err != nil {
			t.Fatalf("ParseQieman() error = %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("ParseQieman() returned %d records, want 1", len(records))
		}
		if records[0].Price != 1.5 {
			t.Errorf("price = %v, want the implied nav 1.5", records[0].Price)
		}
		if !records[0].Time.Equal(time.Date(2024, 1, 10, 2, 0, 0, 0, time.UTC)) {
			t.Errorf("time = %v, want the settlement time kept", records[0].Time)
		}
	})

	t.Run("values switch orders at the destination fund's nav", func(t *testing.T) {
		// Setup
		navs := fakeNavSource{navs: map[string][]importer.NavPoint{
			"005911": {
				{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Nav: 1.499},
			},
		}}
		input := `{"umaName":"布谷","capitalAccountName":"长赢","hasDetail":true,"orderStatus":"SUCCESS","compositionOrders":[{"nav":1.6,"fee":2.0,"acceptTime":1704189600000,"uiShare":1875.0,"uiAmount":3000.0,"payStatus":"0","fund":{"fundCode":"005827","fundName":"易方达蓝筹精选"},"destFund":{"fundCode":"005911","fundName":"广发双擎升级"}}]}` + "\n"

		// Execute
		records, err := importer.ParseQieman(strings.NewReader(input), navs, false)

		// Assert
		if err != nil {
			t.Fatalf("ParseQieman() error = %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("ParseQieman() returned %d records, want sell plus buy", len(records))
		}

		sell := records[0]
		if sell.AssetCode != "005827.OF" || sell.Action != model.ActionSell {
			t.Fatalf("first record = %s %s, want sell of 005827.OF", sell.Action, sell.AssetCode)
		}
		// The fee comes out of the money moved to the destination fund.
		if sell.Money != 2998 {
			t.Errorf("sell money = %v, want 2998", sell.Money)
		}

		buy := records[1]
		if buy.AssetCode != "005911.OF" || buy.Action != model.ActionBuy {
			t.Fatalf("second record = %s %s, want buy of 005911.OF", buy.Action, buy.AssetCode)
		}
		if buy.Amount != 2000 || buy.Price != 1.499 || buy.Money != 2998 {
			t.Errorf("buy = %v@%v for %v, want 2000@1.499 for 2998", buy.Amount, buy.Price, buy.Money)
		}
	})

	t.Run("cash dividends become bonus deals", func(t *testing.T) {
		// Setup
		input := `{"umaName":"布谷","capitalAccountName":"长赢","hasDetail":false,"acceptTime":1704416400000,"uiAmount":88.25,"uiOrderDesc":"","uiOrderCodeName":"现金分红","fund":{"fundCode":"005827","fundName":"易方达蓝筹精选"}}` + "\n"

		// Execute
		records, err := importer.ParseQieman(strings.NewReader(input), noNavs, false)

		// Assert
		if err != nil {
			t.Fatalf("ParseQieman() error = %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("ParseQieman() returned %d records, want 1", len(records))
		}
		got := records[0]
		if got.Action != model.ActionBonus || got.AssetCode != "005827.OF" {
			t.Errorf("record = %s %s, want bonus of 005827.OF", got.Action, got.AssetCode)
		}
		if got.Amount != 88.25 || got.Money != 88.25 || got.Price != 1 {
			t.Errorf("amount/money/price = %v/%v/%v, want 88.25/88.25/1", got.Amount, got.Money, got.Price)
		}
	})
}
