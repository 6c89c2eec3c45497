package importer

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"
)

const pinganAccount = "平安证券"

// pinganActions maps the statement's operation column to ledger actions.
var pinganActions = map[string]string{
	"证券买入": "buy",
	"证券卖出": "sell",
	"银证转入": "transfer_in",
	"银证转出": "transfer_out",
	"利息归本": "reinvest",
}

// ParsePingan converts a Ping An Securities statement CSV into normalized
// deal records. Rows with an unrecognized operation are skipped with a
// warning. Bank transfers and interest capitalization become cash deals;
// security codes gain their inferred exchange suffix. The statement's fee
// is the commission plus stamp duty.
func ParsePingan(r io.Reader) ([]Record, error) {
	statement, err := newStatementReader(r)
	if err != nil {
		return nil, err
	}

	records := []Record{}
	for {
		row, err := statement.next()
		if err != nil {
			return nil, fmt.Errorf("read statement row: %w", err)
		}
		if row == nil {
			break
		}

		action, supported := pinganActions[row["操作"]]
		if !supported {
			log.Printf("unsupported action: %s", row["操作"])
			continue
		}

		orderTime, err := time.ParseInLocation("20060102 15:04:05",
			row["成交日期"]+" "+row["成交时间"], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad statement time %q %q: %w",
				row["成交日期"], row["成交时间"], err)
		}

		amount, err := parseStatementFloat(row["成交数量"])
		if err != nil {
			return nil, err
		}
		price, err := parseStatementFloat(row["成交均价"])
		if err != nil {
			return nil, err
		}
		money, err := parseStatementFloat(strings.TrimPrefix(row["发生金额"], "-"))
		if err != nil {
			return nil, err
		}
		commission, err := parseStatementFloat(row["手续费"])
		if err != nil {
			return nil, err
		}
		stampDuty, err := parseStatementFloat(row["印花税"])
		if err != nil {
			return nil, err
		}

		code, name := row["证券代码"], row["证券名称"]
		if strings.HasPrefix(action, "transfer") || action == "reinvest" {
			code, name = "CASH", "现金"
			amount, price = money, 1.0
		} else {
			code = QualifyCode(code)
		}

		records = append(records, Record{
			Account:    pinganAccount,
			SubAccount: pinganAccount,
			Time:       orderTime,
			AssetCode:  code,
			AssetName:  name,
			Action:     action,
			Amount:     amount,
			Price:      price,
			Money:      money,
			Fee:        commission + stampDuty,
		})
	}

	SortRecords(records)
	return records, nil
}

func parseStatementFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("bad statement figure %q: %w", value, err)
	}
	return f, nil
}
