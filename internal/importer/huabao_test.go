package importer_test

import (
	"strings"
	"testing"

	"github.com/folioview/folio-backend/internal/importer"
)

// TestParseHuabao tests Huabao statement conversion.
//
// WHY: This statement quotes money without fees and hides IPO allotments
// behind placeholder codes that only custody transfers later resolve; both
// quirks must be normalized away or the ledger never balances.
func TestParseHuabao(t *testing.T) {
	header := "委托类别,成交日期,成交时间,证券代码,证券名称,发生金额,佣金,印花税,成交数量,成交价格,成交编号"

	t.Run("fees fold into money with the trade direction", func(t *testing.T) {
		// Setup
		input := strings.Join([]string{
			header,
			"买入,20240102,09:31:00,600036,招商银行,3000.00,5.00,0.00,100,30.00,10001",
			"卖出,20240103,10:00:00,600036,招商银行,3100.00,5.00,0.00,100,31.00,10002",
		}, "\n") + "\n"

		// Execute
		records, err := importer.ParseHuabao(strings.NewReader(input))

		// Assert
		if err != nil {
			t.Fatalf("ParseHuabao() returned unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(records))
		}

		buy := records[0]
		if buy.Money != 3005 {
			t.Errorf("Expected buy money 3005, got %v", buy.Money)
		}
		if buy.Fee != 5 {
			t.Errorf("Expected fee 5, got %v", buy.Fee)
		}
		if buy.AssetCode != "600036.SH" {
			t.Errorf("Expected qualified code 600036.SH, got %s", buy.AssetCode)
		}

		sell := records[1]
		if sell.Money != 3095 {
			t.Errorf("Expected sell money 3095, got %v", sell.Money)
		}
	})

	t.Run("lot quoted instruments scale the amount by ten", func(t *testing.T) {
		// Setup
		input := strings.Join([]string{
			header,
			"买入,20240102,09:31:00,113050,南银转债,10000.00,0.00,0.00,10,100.00,10003",
		}, "\n") + "\n"

		// Execute
		records, err := importer.ParseHuabao(strings.NewReader(input))

		// Assert
		if err != nil {
			t.Fatalf("ParseHuabao() returned unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(records))
		}
		if records[0].Amount != 100 {
			t.Errorf("Expected amount scaled to 100, got %v", records[0].Amount)
		}
		if records[0].Price != 100 {
			t.Errorf("Expected price unchanged at 100, got %v", records[0].Price)
		}
	})

	t.Run("custody transfers remap IPO placeholder codes on buys", func(t *testing.T) {
		// Setup
		input := strings.Join([]string{
			header,
			"中签扣款,20240102,00:00:00,730001,某新股,6500.00,0.00,0.00,1000,6.50,10004",
			"托管转出,20240110,00:00:00,730001,某新股,0,0,0,0,0,清理过期数据",
			"托管转入,20240110,00:00:00,601001,某新股,0,0,0,0,0,10005",
		}, "\n") + "\n"

		// Execute
		records, err := importer.ParseHuabao(strings.NewReader(input))

		// Assert
		if err != nil {
			t.Fatalf("ParseHuabao() returned unexpected error: %v", err)
		}
		// The custody rows themselves never become deals.
		if len(records) != 1 {
			t.Fatalf("Expected 1 record, got %d", len(records))
		}
		if records[0].Action != "buy" {
			t.Errorf("Expected allotment debit to be a buy, got %s", records[0].Action)
		}
		if records[0].AssetCode != "601001.SH" {
			t.Errorf("Expected remapped code 601001.SH, got %s", records[0].AssetCode)
		}
		if records[0].Money != 6500 {
			t.Errorf("Expected money 6500, got %v", records[0].Money)
		}
	})

	t.Run("allotment notices and ballot numbers are ignored", func(t *testing.T) {
		// Setup
		input := strings.Join([]string{
			header,
			"配号,20240102,00:00:00,730001,某新股,0,0,0,0,0,10006",
			"中签通知,20240103,00:00:00,730001,某新股,0,0,0,0,0,10007",
		}, "\n") + "\n"

		// Execute
		records, err := importer.ParseHuabao(strings.NewReader(input))

		// Assert
		if err != nil {
			t.Fatalf("ParseHuabao() returned unexpected error: %v", err)
		}
		if len(records) != 0 {
			t.Fatalf("Expected no records, got %d", len(records))
		}
	})
}
