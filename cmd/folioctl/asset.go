package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/folioview/folio-backend/internal/importer"
	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/validation"
)

type addAssetCmd struct {
	code     string
	name     string
	category string
}

func (*addAssetCmd) Name() string     { return "add-asset" }
func (*addAssetCmd) Synopsis() string { return "register an asset in the database" }
func (*addAssetCmd) Usage() string {
	return `add-asset -code <code> -name <name> [-category <category>]

  Registers an asset by its market code (e.g. "600036.SH", "110011.OF",
  "CASH"). When -category is omitted it is inferred from the code.
`
}

func (c *addAssetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "code", "", "Market code with exchange suffix (required)")
	f.StringVar(&c.name, "name", "", "Display name (required)")
	f.StringVar(&c.category, "category", "", "Category: stock, bond, fund, index, cash, other")
}

func (c *addAssetCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" || c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -code and -name flags are required.")
		return subcommands.ExitUsageError
	}

	short, _, found := strings.Cut(c.code, ".")
	if !found {
		short = c.code
	}

	category := c.category
	if category == "" {
		switch {
		case c.code == model.CashCode:
			category = model.CategoryCash
		case strings.HasSuffix(c.code, model.FundSuffix):
			category = model.CategoryFund
		default:
			category = importer.InferCategory(short)
		}
		if category == "" {
			fmt.Fprintf(os.Stderr, "Error: cannot infer category of %s, pass -category.\n", c.code)
			return subcommands.ExitUsageError
		}
	}

	asset := model.Asset{
		Code:      c.code,
		ShortCode: short,
		Name:      c.name,
		Category:  category,
	}
	if err := validation.ValidateAsset(asset); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	created, err := a.assets.GetOrCreate(asset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating asset: %v\n", err)
		return subcommands.ExitFailure
	}
	if created {
		fmt.Printf("created asset %s (%s)\n", asset.Code, asset.Category)
	} else {
		fmt.Printf("asset %s is already in database\n", asset.Code)
	}
	return subcommands.ExitSuccess
}
