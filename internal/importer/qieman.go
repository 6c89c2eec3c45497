package importer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/folioview/folio-backend/internal/model"
)

// Qieman order exports are JSON lines. Composition orders carry the real
// trades; reinvestments and cash dividends only appear as order summaries.
type qiemanOrder struct {
	UmaName            string              `json:"umaName"`
	CapitalAccountName string              `json:"capitalAccountName"`
	HasDetail          bool                `json:"hasDetail"`
	OrderStatus        string              `json:"orderStatus"`
	AcceptTime         int64               `json:"acceptTime"`
	UIAmount           float64             `json:"uiAmount"`
	UIOrderDesc        string              `json:"uiOrderDesc"`
	UIOrderCodeName    string              `json:"uiOrderCodeName"`
	CompositionOrders  []qiemanComposition `json:"compositionOrders"`
	Fund               *qiemanFund         `json:"fund"`
}

type qiemanComposition struct {
	Nav        float64     `json:"nav"`
	Fee        float64     `json:"fee"`
	AcceptTime int64       `json:"acceptTime"`
	UIShare    float64     `json:"uiShare"`
	UIAmount   float64     `json:"uiAmount"`
	PayStatus  string      `json:"payStatus"`
	Fund       qiemanFund  `json:"fund"`
	DestFund   *qiemanFund `json:"destFund"`
}

type qiemanFund struct {
	FundCode string `json:"fundCode"`
	FundName string `json:"fundName"`
}

// NavPoint is one fund NAV observation.
type NavPoint struct {
	Date time.Time
	Nav  float64
}

// NavSource resolves NAV history for an open fund by its bare six-digit
// code. It backs the reinvestment time correction and the valuation of
// fund switch orders; an unknown code returns no points.
type NavSource interface {
	Navs(code string, start, end time.Time) ([]NavPoint, error)
}

var reinvestSharePattern = regexp.MustCompile(`再投资份额(\d+\.\d+)份`)

// The money market sub account is cash-equivalent and churns daily; its
// orders never enter the ledger.
const moneyMarketSubAccount = "货币三佳"

// qiemanSwitch is a pending buy of a switch order's destination fund. The
// export carries no share count for the destination, so the buy is valued
// against NAV history after all lines are read.
type qiemanSwitch struct {
	account    string
	subAccount string
	time       time.Time
	code       string
	name       string
	money      float64
}

// ParseQieman converts a Qieman order export (JSON lines) into deal
// records. When addTransfer is set, every buy generates a matching cash
// transfer on the same day, for accounts funded purely through the
// platform.
func ParseQieman(r io.Reader, navs NavSource, addTransfer bool) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var records []Record
	var pending []qiemanSwitch
	transferIn := map[string]float64{}

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var item qiemanOrder
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		switch {
		case item.CapitalAccountName == moneyMarketSubAccount:
			continue
		case item.HasDetail:
			if item.OrderStatus != "SUCCESS" {
				continue
			}
			for _, order := range item.CompositionOrders {
				records = appendComposition(records, item, order, &pending, transferIn, addTransfer)
			}
		case strings.Contains(item.UIOrderDesc, "再投资"):
			record, ok, err := reinvestRecord(item, navs)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if ok {
				records = append(records, record)
			}
		case strings.Contains(item.UIOrderCodeName, "现金分红"):
			records = append(records, Record{
				Account:    item.UmaName,
				SubAccount: item.CapitalAccountName,
				Time:       time.UnixMilli(item.AcceptTime).UTC(),
				AssetCode:  item.Fund.FundCode + model.FundSuffix,
				AssetName:  item.Fund.FundName,
				Action:     model.ActionBonus,
				Amount:     item.UIAmount,
				Price:      1.0,
				Money:      item.UIAmount,
				Fee:        0,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read order export: %w", err)
	}

	for key, money := range transferIn {
		account, date, _ := strings.Cut(key, "\x00")
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{
			Account:   account,
			Time:      day.Add(8 * time.Hour),
			AssetCode: model.CashCode,
			AssetName: "现金",
			Action:    model.ActionTransferIn,
			Amount:    money,
			Price:     1.0,
			Money:     money,
		})
	}

	switches, err := resolveSwitches(pending, navs)
	if err != nil {
		return nil, err
	}
	records = append(records, switches...)

	SortRecords(records)
	return records, nil
}

func appendComposition(records []Record, item qiemanOrder, order qiemanComposition,
	pending *[]qiemanSwitch, transferIn map[string]float64, addTransfer bool) []Record {
	action := "unknown"
	switch order.PayStatus {
	case "2":
		action = model.ActionBuy
	case "0":
		action = model.ActionSell
	}

	// FIXME: should be keyed on the fund type, not the name
	if strings.Contains(order.Fund.FundName, "广发钱袋子") {
		return records
	}

	orderTime := time.UnixMilli(order.AcceptTime).UTC()
	money := order.UIAmount
	if order.DestFund != nil {
		money -= order.Fee
		*pending = append(*pending, qiemanSwitch{
			account:    item.UmaName,
			subAccount: item.CapitalAccountName,
			time:       orderTime,
			code:       order.DestFund.FundCode,
			name:       order.DestFund.FundName,
			money:      money,
		})
	} else if addTransfer && action == model.ActionBuy {
		key := item.UmaName + "\x00" + orderTime.Format("2006-01-02")
		transferIn[key] += money
	}

	return append(records, Record{
		Account:    item.UmaName,
		SubAccount: item.CapitalAccountName,
		Time:       orderTime,
		AssetCode:  order.Fund.FundCode + model.FundSuffix,
		AssetName:  order.Fund.FundName,
		Action:     action,
		Amount:     order.UIShare,
		Price:      order.Nav,
		Money:      money,
		Fee:        order.Fee,
	})
}

// reinvestRecord builds a reinvestment deal from an order summary. The
// export stamps reinvestments with the settlement date, not the day the
// shares were granted, so the real date is recovered by matching the
// implied NAV against the fund's recent history.
func reinvestRecord(item qiemanOrder, navs NavSource) (Record, bool, error) {
	match := reinvestSharePattern.FindStringSubmatch(item.UIOrderDesc)
	if match == nil {
		log.Printf("no share count in reinvestment description %q, skipping", item.UIOrderDesc)
		return Record{}, false, nil
	}
	count, err := strconv.ParseFloat(match[1], 64)
	if err != nil || count == 0 {
		log.Printf("bad share count in reinvestment description %q, skipping", item.UIOrderDesc)
		return Record{}, false, nil
	}

	money := item.UIAmount
	value := math.Round(money/count*10000) / 10000
	orderTime := time.UnixMilli(item.AcceptTime).UTC()
	code := item.Fund.FundCode

	day := orderTime.Truncate(24 * time.Hour)
	points, err := navs.Navs(code, day.AddDate(0, 0, -10), day.AddDate(0, 0, -1))
	if err != nil {
		return Record{}, false, err
	}
	if len(points) == 0 {
		log.Printf("can not guess real time of reinvestment (code %s, time %s, nav %.4f)",
			code, orderTime.Format("2006-01-02"), value)
	} else {
		sort.Slice(points, func(i, j int) bool { return points[i].Date.After(points[j].Date) })
		if len(points) > 3 {
			points = points[:3]
		}
		best := points[0]
		for _, p := range points[1:] {
			if math.Abs(p.Nav-value) < math.Abs(best.Nav-value) {
				best = p
			}
		}
		log.Printf("corrected reinvestment time of %s from %s to %s (nav diff %.4f)",
			code, orderTime.Format("2006-01-02"), best.Date.Format("2006-01-02"),
			math.Abs(best.Nav-value))
		value = best.Nav
		orderTime = best.Date.Add(8 * time.Hour)
	}

	return Record{
		Account:    item.UmaName,
		SubAccount: item.CapitalAccountName,
		Time:       orderTime,
		AssetCode:  code + model.FundSuffix,
		AssetName:  item.Fund.FundName,
		Action:     model.ActionReinvest,
		Amount:     count,
		Price:      value,
		Money:      money,
		Fee:        0,
	}, true, nil
}

// resolveSwitches values the destination side of fund switch orders. The
// share count comes from the NAV of the settlement day: the order day, or
// the next day when the order was accepted after the market close.
func resolveSwitches(pending []qiemanSwitch, navs NavSource) ([]Record, error) {
	var records []Record
	for _, sw := range pending {
		day := sw.time.Truncate(24 * time.Hour)
		marketClose := day.Add(15 * time.Hour)
		if sw.time.After(marketClose) {
			day = day.AddDate(0, 0, 1)
		}

		points, err := navs.Navs(sw.code, day, day)
		if err != nil {
			return nil, err
		}
		if len(points) == 0 {
			log.Printf("no nav history for fund %s at %s, skipping switch order",
				sw.code, day.Format("2006-01-02"))
			continue
		}

		nav := points[0].Nav
		count := math.Round(sw.money/nav*100) / 100
		records = append(records, Record{
			Account:    sw.account,
			SubAccount: sw.subAccount,
			Time:       sw.time,
			AssetCode:  sw.code + model.FundSuffix,
			AssetName:  sw.name,
			Action:     model.ActionBuy,
			Amount:     count,
			Price:      nav,
			Money:      sw.money,
			Fee:        0,
		})
	}
	return records, nil
}
