package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/folioview/folio-backend/internal/importer"
)

type importPricesCmd struct {
	infile string
	code   string
}

func (*importPricesCmd) Name() string { return "import-prices" }
func (*importPricesCmd) Synopsis() string {
	return "import a daily quote CSV for an exchange-traded asset"
}
func (*importPricesCmd) Usage() string {
	return `import-prices -c <asset code> -i <quotes.csv>

  Imports daily OHLC quotes from a CSV export with a header row. Only the
  date and close columns are required. Re-importing the same file is a
  no-op. Open-ended funds are fetched with update-prices instead.
`
}

func (c *importPricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "c", "", "Asset code the quotes belong to (required)")
	f.StringVar(&c.infile, "i", "", "Quote CSV file (required)")
}

func (c *importPricesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.code == "" || c.infile == "" {
		fmt.Fprintln(os.Stderr, "Error: -c and -i flags are required.")
		return subcommands.ExitUsageError
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if _, err := a.assets.Get(c.code); err != nil {
		fmt.Fprintf(os.Stderr, "Error: unknown asset %s: %v\n", c.code, err)
		return subcommands.ExitFailure
	}

	in, err := os.Open(c.infile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening quote file: %v\n", err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	points, err := importer.ParsePriceCSV(c.code, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing quotes: %v\n", err)
		return subcommands.ExitFailure
	}

	var created int
	for _, point := range points {
		isNew, err := a.prices.Upsert(point)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error storing quote for %s: %v\n",
				point.Date.Format("2006-01-02"), err)
			return subcommands.ExitFailure
		}
		if isNew {
			created++
		}
	}

	fmt.Printf("imported %d price points for %s (%d already present)\n",
		created, c.code, len(points)-created)
	return subcommands.ExitSuccess
}
