package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/folioview/folio-backend/internal/eastmoney"
	"github.com/folioview/folio-backend/internal/service"
)

type updatePricesCmd struct{}

func (*updatePricesCmd) Name() string     { return "update-prices" }
func (*updatePricesCmd) Synopsis() string { return "fetch fund price histories" }
func (*updatePricesCmd) Usage() string {
	return `update-prices

  Fetches the published NAV history of every open-ended fund referenced
  by the deal ledger and stores new observations.
`
}

func (*updatePricesCmd) SetFlags(*flag.FlagSet) {}

func (*updatePricesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	prices := service.NewPriceService(
		a.deals, a.assets, a.prices,
		eastmoney.NewFundClient(),
		a.cfg.Fetch.Concurrency,
	)

	created, err := prices.UpdateFundPrices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error updating prices: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("created %d price points\n", created)
	return subcommands.ExitSuccess
}
