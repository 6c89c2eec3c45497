package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/folioview/folio-backend/internal/model"
)

// AssetBuilder provides a fluent interface for creating test assets.
//
// Example usage:
//
//	asset := testutil.NewAsset("110011.OF").WithName("易方达中小盘").Build(t, db)
type AssetBuilder struct {
	Code     string
	Name     string
	Category string
}

// NewAsset creates an AssetBuilder with a default name and an inferred
// category: codes ending in .OF become funds, "CASH" becomes cash,
// everything else a stock.
func NewAsset(code string) *AssetBuilder {
	category := model.CategoryStock
	switch {
	case code == model.CashCode:
		category = model.CategoryCash
	case len(code) > 3 && code[len(code)-3:] == model.FundSuffix:
		category = model.CategoryFund
	}
	return &AssetBuilder{
		Code:     code,
		Name:     "Test Asset " + code,
		Category: category,
	}
}

// WithName sets a custom name.
func (b *AssetBuilder) WithName(name string) *AssetBuilder {
	b.Name = name
	return b
}

// WithCategory sets a custom category.
func (b *AssetBuilder) WithCategory(category string) *AssetBuilder {
	b.Category = category
	return b
}

// Build inserts the asset and returns it.
func (b *AssetBuilder) Build(t *testing.T, db *sql.DB) model.Asset {
	t.Helper()

	short := b.Code
	if i := len(short) - len(model.FundSuffix); i > 0 && short[i:] == model.FundSuffix {
		short = short[:i]
	} else if len(short) > 7 {
		short = short[:6]
	}

	query := `INSERT INTO asset (code, short_code, name, category) VALUES (?, ?, ?, ?)`
	if _, err := db.Exec(query, b.Code, short, b.Name, b.Category); err != nil {
		t.Fatalf("Failed to create test asset: %v", err)
	}

	return model.Asset{Code: b.Code, ShortCode: short, Name: b.Name, Category: b.Category}
}

// DealBuilder provides a fluent interface for creating test deals.
type DealBuilder struct {
	Account    string
	SubAccount string
	AssetCode  string
	Time       time.Time
	Action     string
	Amount     float64
	Price      float64
	Money      float64
	Fee        float64
}

// NewDeal creates a DealBuilder for the given account, asset and action.
func NewDeal(account, assetCode, action string) *DealBuilder {
	return &DealBuilder{
		Account:    account,
		SubAccount: account,
		AssetCode:  assetCode,
		Time:       time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		Action:     action,
	}
}

// At sets the deal timestamp.
func (b *DealBuilder) At(t time.Time) *DealBuilder {
	b.Time = t
	return b
}

// WithAmount sets the deal quantity.
func (b *DealBuilder) WithAmount(amount float64) *DealBuilder {
	b.Amount = amount
	return b
}

// WithPrice sets the execution price.
func (b *DealBuilder) WithPrice(price float64) *DealBuilder {
	b.Price = price
	return b
}

// WithMoney sets the cash leg.
func (b *DealBuilder) WithMoney(money float64) *DealBuilder {
	b.Money = money
	return b
}

// WithFee sets the transaction fee.
func (b *DealBuilder) WithFee(fee float64) *DealBuilder {
	b.Fee = fee
	return b
}

// Build inserts the deal and returns it.
func (b *DealBuilder) Build(t *testing.T, db *sql.DB) model.Deal {
	t.Helper()

	id := uuid.New().String()
	query := `
		INSERT INTO deal (id, account, sub_account, asset_code, time, action, amount, price, money, fee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, id, b.Account, b.SubAccount, b.AssetCode,
		b.Time.Format("2006-01-02 15:04:05"), b.Action, b.Amount, b.Price, b.Money, b.Fee)
	if err != nil {
		t.Fatalf("Failed to create test deal: %v", err)
	}

	return model.Deal{
		ID:         id,
		Account:    b.Account,
		SubAccount: b.SubAccount,
		AssetCode:  b.AssetCode,
		Time:       b.Time,
		Action:     b.Action,
		Amount:     b.Amount,
		Price:      b.Price,
		Money:      b.Money,
		Fee:        b.Fee,
	}
}

// PricePointBuilder provides a fluent interface for creating test price
// observations.
type PricePointBuilder struct {
	AssetCode   string
	Date        time.Time
	Close       *float64
	Nav         *float64
	BonusAction string
	BonusValue  *float64
}

// NewPricePoint creates a PricePointBuilder for the given asset and date.
func NewPricePoint(assetCode string, date time.Time) *PricePointBuilder {
	return &PricePointBuilder{AssetCode: assetCode, Date: date}
}

// WithClose sets the close price.
func (b *PricePointBuilder) WithClose(close float64) *PricePointBuilder {
	b.Close = &close
	return b
}

// WithNav sets the fund NAV.
func (b *PricePointBuilder) WithNav(nav float64) *PricePointBuilder {
	b.Nav = &nav
	return b
}

// WithBonus sets a corporate-action annotation.
func (b *PricePointBuilder) WithBonus(action string, value float64) *PricePointBuilder {
	b.BonusAction = action
	b.BonusValue = &value
	return b
}

// Build inserts the price point.
func (b *PricePointBuilder) Build(t *testing.T, db *sql.DB) {
	t.Helper()

	var action interface{}
	if b.BonusAction != "" {
		action = b.BonusAction
	}
	query := `
		INSERT INTO price_point (id, asset_code, date, close, nav, bonus_action, bonus_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, uuid.New().String(), b.AssetCode,
		b.Date.Format("2006-01-02"), nullFloat(b.Close), nullFloat(b.Nav),
		action, nullFloat(b.BonusValue))
	if err != nil {
		t.Fatalf("Failed to create test price point: %v", err)
	}
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

// MakeID generates a unique identifier for test entities.
func MakeID() string {
	return uuid.New().String()
}
