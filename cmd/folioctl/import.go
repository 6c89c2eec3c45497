package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/folioview/folio-backend/internal/service"
)

type importDealsCmd struct {
	infile string
}

func (*importDealsCmd) Name() string     { return "import-deals" }
func (*importDealsCmd) Synopsis() string { return "import deal rows into the ledger" }
func (*importDealsCmd) Usage() string {
	return `import-deals -i <deals.tsv>

  Imports ten-column tab-separated deal rows. Re-importing the same file
  is a no-op; rows referencing unknown assets are skipped.
`
}

func (c *importDealsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.infile, "i", "", "Deal TSV file (required)")
}

func (c *importDealsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.infile == "" {
		fmt.Fprintln(os.Stderr, "Error: -i flag is required.")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	in, err := os.Open(c.infile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening deal file: %v\n", err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	stats, err := service.NewImportService(a.assets, a.deals).ImportDeals(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing deals: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("imported %d deals (%d already present, %d skipped)\n",
		stats.Created, stats.Existed, stats.Skipped)
	return subcommands.ExitSuccess
}
