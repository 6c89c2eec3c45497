package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/folioview/folio-backend/internal/service"
)

type validateDealsCmd struct{}

func (*validateDealsCmd) Name() string     { return "validate-deals" }
func (*validateDealsCmd) Synopsis() string { return "audit the ledger against corporate actions" }
func (*validateDealsCmd) Usage() string {
	return `validate-deals

  Scans every asset in the ledger for recorded corporate actions (payouts,
  splits) without a matching deal on the action date.
`
}

func (*validateDealsCmd) SetFlags(*flag.FlagSet) {}

func (*validateDealsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	missing, err := service.NewAuditService(a.deals, a.prices, a.assets).FindMissingActions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error auditing deals: %v\n", err)
		return subcommands.ExitFailure
	}

	if len(missing) == 0 {
		fmt.Println("no missing corporate actions found")
		return subcommands.ExitSuccess
	}

	for _, m := range missing {
		fmt.Printf("%s  %s(%s)  %s  %.4f\n", m.Date, m.AssetName, m.AssetCode, m.Action, m.Value)
	}
	fmt.Printf("%d corporate actions have no matching deal\n", len(missing))
	return subcommands.ExitSuccess
}
