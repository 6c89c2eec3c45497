package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/folioview/folio-backend/internal/importer"
	"github.com/folioview/folio-backend/internal/model"
	"github.com/folioview/folio-backend/internal/repository"
)

type parseQiemanCmd struct {
	infile      string
	outfile     string
	addTransfer bool
}

func (*parseQiemanCmd) Name() string { return "parse-qieman" }
func (*parseQiemanCmd) Synopsis() string {
	return "convert a Qieman order export to deal rows"
}
func (*parseQiemanCmd) Usage() string {
	return `parse-qieman -i <orders.jsonl> -o <deals.tsv> [-add-transfer]

  Converts a Qieman order export (JSON lines) into the ten-column
  tab-separated deal format accepted by import-deals. Reinvestment dates
  and switch-order valuations are corrected against stored fund NAV
  history, so run update-prices first. With -add-transfer every buy also
  produces a matching cash transfer on the same day.
`
}

func (c *parseQiemanCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.infile, "i", "", "Order export file (required)")
	f.StringVar(&c.outfile, "o", "", "Output TSV file (required)")
	f.BoolVar(&c.addTransfer, "add-transfer", false, "Generate a cash transfer for every buy")
}

func (c *parseQiemanCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.infile == "" || c.outfile == "" {
		fmt.Fprintln(os.Stderr, "Error: -i and -o flags are required.")
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
		fmt.Fprintf(os.Stderr, "Error opening order export: %v\n", err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	records, err := importer.ParseQieman(in, fundNavSource{prices: a.prices}, c.addTransfer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing order export: %v\n", err)
		return subcommands.ExitFailure
	}

	out, err := os.Create(c.outfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		return subcommands.ExitFailure
	}
	defer out.Close()

	if err := importer.WriteTSV(out, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing deal rows: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("wrote %d deal rows to %s\n", len(records), c.outfile)
	return subcommands.ExitSuccess
}

// fundNavSource serves fund NAV history from the price store to the
// Qieman parser.
type fundNavSource struct {
	prices *repository.PriceRepository
}

func (s fundNavSource) Navs(code string, start, end time.Time) ([]importer.NavPoint, error) {
	points, err := s.prices.ListRange(code+model.FundSuffix, start, end)
	if err != nil {
		return nil, err
	}
	navs := make([]importer.NavPoint, 0, len(points))
	for _, p := range points {
		if p.Nav.Valid {
			navs = append(navs, importer.NavPoint{Date: p.Date, Nav: p.Nav.Float64})
		}
	}
	return navs, nil
}
