package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FundClient fetches open-ended fund histories from the eastmoney
// pingzhongdata endpoint. The endpoint serves a javascript file declaring
// one variable per data series; the client extracts the two trend arrays
// it needs with regular expressions instead of evaluating the script.
type FundClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewFundClient creates a new eastmoney fund client with default HTTP settings.
func NewFundClient() *FundClient {
	return &FundClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "http://fund.eastmoney.com/pingzhongdata",
	}
}

var (
	navTrendPattern = regexp.MustCompile(`var Data_netWorthTrend\s*=\s*(\[.*?\]);`)
	auvTrendPattern = regexp.MustCompile(`var Data_ACWorthTrend\s*=\s*(\[.*?\]);`)
	bonusPattern    = regexp.MustCompile(`派现金(\d+\.\d+)元`)
	splitPattern    = regexp.MustCompile(`折算(\d+\.\d+)份`)
)

// GetFundData fetches and parses the full published history of one fund.
// code is the bare fund code without the ".OF" suffix.
func (c *FundClient) GetFundData(ctx context.Context, code string) (FundData, error) {
	url := fmt.Sprintf("%s/%s.js", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return FundData{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FundData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FundData{}, fmt.Errorf("failed to get data of fund %s (%d: %s)",
			code, resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FundData{}, err
	}

	records, err := parseFundScript(body)
	if err != nil {
		return FundData{}, fmt.Errorf("parse data of fund %s: %w", code, err)
	}

	return FundData{Code: code, Records: records}, nil
}

// parseFundScript extracts and merges the NAV and accumulated-value trends
// from the raw javascript body.
func parseFundScript(body []byte) ([]FundRecord, error) {
	navMatch := navTrendPattern.FindSubmatch(body)
	if navMatch == nil {
		return nil, fmt.Errorf("Data_netWorthTrend not found")
	}

	var navs []navPoint
	if err := json.Unmarshal(navMatch[1], &navs); err != nil {
		return nil, fmt.Errorf("decode Data_netWorthTrend: %w", err)
	}

	byDate := make(map[string]*FundRecord, len(navs))
	for _, nav := range navs {
		record := &FundRecord{
			Date: time.UnixMilli(nav.X).UTC().Truncate(24 * time.Hour),
			Nav:  nav.Y,
		}
		if nav.UnitMoney != "" {
			action, value, ok := parseUnitMoney(nav.UnitMoney)
			if ok {
				record.BonusAction = action
				record.BonusValue = &value
			}
		}
		byDate[record.Date.Format("2006-01-02")] = record
	}

	// The accumulated trend is a plain [timestamp, value] array and may be
	// missing entries or carry nulls on recent dates.
	if auvMatch := auvTrendPattern.FindSubmatch(body); auvMatch != nil {
		var auvs [][2]*float64
		if err := json.Unmarshal(auvMatch[1], &auvs); err != nil {
			return nil, fmt.Errorf("decode Data_ACWorthTrend: %w", err)
		}
		for _, auv := range auvs {
			if auv[0] == nil || auv[1] == nil {
				continue
			}
			key := time.UnixMilli(int64(*auv[0])).UTC().Format("2006-01-02")
			if record, found := byDate[key]; found {
				record.Auv = auv[1]
			}
		}
	}

	records := make([]FundRecord, 0, len(byDate))
	for _, record := range byDate {
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

// parseUnitMoney classifies a corporate-action announcement string.
// Payout announcements start with 分红 and name the cash per unit; split
// announcements start with 拆分 and name the conversion ratio.
func parseUnitMoney(text string) (action string, value float64, ok bool) {
	switch {
	case strings.HasPrefix(text, "分红"):
		match := bonusPattern.FindStringSubmatch(text)
		if match == nil {
			break
		}
		value, _ = strconv.ParseFloat(match[1], 64)
		return "bonus", value, true
	case strings.HasPrefix(text, "拆分"):
		match := splitPattern.FindStringSubmatch(text)
		if match == nil {
			break
		}
		value, _ = strconv.ParseFloat(match[1], 64)
		return "spin_off", value, true
	}
	log.Printf("unknown corporate-action text: %s", text)
	return "", 0, false
}
