package importer

import (
	"fmt"
	"io"
	"log"
	"math"
	"time"
)

const huabaoAccount = "华宝证券"

// huabaoActions maps the statement's order-type column to ledger actions.
// IPO allotment debits (中签扣款) are buys of a not-yet-listed code.
var huabaoActions = map[string]string{
	"买入":   "buy",
	"卖出":   "sell",
	"中签扣款": "buy",
}

// huabaoIgnored are order types that never carry a position or cash change.
var huabaoIgnored = map[string]bool{
	"中签通知": true,
	"配号":   true,
}

// ParseHuabao converts a Huabao Securities statement CSV into normalized
// deal records.
//
// The statement quotes money without fees, so the commission and stamp
// duty fold into money (added on buys, subtracted on sells). Some
// instruments are quoted in lots of ten; when money is about ten times
// amount*price the amount is scaled up. Custody transfer rows (托管转入 /
// 托管转出) are not deals: paired by security name, they reveal the listed
// code an IPO allotment's placeholder code turned into, and buys under a
// placeholder code are rewritten to the listed code.
func ParseHuabao(r io.Reader) ([]Record, error) {
	statement, err := newStatementReader(r)
	if err != nil {
		return nil, err
	}

	records := []Record{}
	custodyOld := map[string]string{}
	custodyNew := map[string]string{}
	for {
		row, err := statement.next()
		if err != nil {
			return nil, fmt.Errorf("read statement row: %w", err)
		}
		if row == nil {
			break
		}

		orderType := row["委托类别"]
		if huabaoIgnored[orderType] {
			continue
		}

		if orderType == "托管转出" || orderType == "托管转入" {
			name := row["证券名称"]
			if name == "" {
				continue
			}
			if orderType == "托管转出" && row["成交编号"] == "清理过期数据" {
				custodyOld[name] = row["证券代码"]
			} else if orderType == "托管转入" {
				custodyNew[name] = QualifyCode(row["证券代码"])
			}
			continue
		}

		action, supported := huabaoActions[orderType]
		if !supported {
			log.Printf("unsupported action: %v", row)
			continue
		}

		orderTime, err := time.ParseInLocation("20060102 15:04:05",
			row["成交日期"]+" "+row["成交时间"], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad statement time %q %q: %w",
				row["成交日期"], row["成交时间"], err)
		}

		money, err := parseStatementFloat(row["发生金额"])
		if err != nil {
			return nil, err
		}
		commission, err := parseStatementFloat(row["佣金"])
		if err != nil {
			return nil, err
		}
		stampDuty, err := parseStatementFloat(row["印花税"])
		if err != nil {
			return nil, err
		}
		fee := commission + stampDuty
		if action == "buy" {
			money += fee
		} else {
			money -= fee
		}

		amount, err := parseStatementFloat(row["成交数量"])
		if err != nil {
			return nil, err
		}
		price, err := parseStatementFloat(row["成交价格"])
		if err != nil {
			return nil, err
		}
		// Lot-quoted instruments: money is ten times amount*price.
		if amount != 0 && price != 0 && math.Abs(money/(amount*price)-10) < 0.5 {
			amount *= 10
		}

		code := row["证券代码"]
		if orderType != "中签扣款" {
			code = QualifyCode(code)
		}

		records = append(records, Record{
			Account:    huabaoAccount,
			SubAccount: huabaoAccount,
			Time:       orderTime,
			AssetCode:  code,
			AssetName:  row["证券名称"],
			Action:     action,
			Amount:     amount,
			Price:      price,
			Money:      money,
			Fee:        fee,
		})
	}

	// Placeholder codes from IPO allotments map to their listed codes via
	// the custody transfer pairs.
	codeMappings := map[string]string{}
	for name, origin := range custodyOld {
		if listed, found := custodyNew[name]; found {
			codeMappings[origin] = listed
		}
	}
	for i := range records {
		if records[i].Action != "buy" {
			continue
		}
		if listed, found := codeMappings[records[i].AssetCode]; found {
			log.Printf("convert code from %s to %s for %s",
				records[i].AssetCode, listed, records[i].AssetName)
			records[i].AssetCode = listed
		}
	}

	SortRecords(records)
	return records, nil
}
