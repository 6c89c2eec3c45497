package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/folioview/folio-backend/internal/importer"
)

type parsePinganCmd struct {
	infile  string
	outfile string
}

func (*parsePinganCmd) Name() string { return "parse-pingan" }
func (*parsePinganCmd) Synopsis() string {
	return "convert a Ping An Securities statement to deal rows"
}
func (*parsePinganCmd) Usage() string {
	return `parse-pingan -i <statement.csv> -o <deals.tsv>

  Converts a Ping An Securities statement export into the ten-column
  tab-separated deal format accepted by import-deals.
`
}

func (c *parsePinganCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.infile, "i", "", "Statement CSV file (required)")
	f.StringVar(&c.outfile, "o", "", "Output TSV file (required)")
}

func (c *parsePinganCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runParse(c.infile, c.outfile, importer.ParsePingan)
}

type parseHuabaoCmd struct {
	infile  string
	outfile string
}

func (*parseHuabaoCmd) Name() string { return "parse-huabao" }
func (*parseHuabaoCmd) Synopsis() string {
	return "convert a Huabao Securities statement to deal rows"
}
func (*parseHuabaoCmd) Usage() string {
	return `parse-huabao -i <statement.csv> -o <deals.tsv>

  Converts a Huabao Securities statement export into the ten-column
  tab-separated deal format accepted by import-deals.
`
}

func (c *parseHuabaoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.infile, "i", "", "Statement CSV file (required)")
	f.StringVar(&c.outfile, "o", "", "Output TSV file (required)")
}

func (c *parseHuabaoCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runParse(c.infile, c.outfile, importer.ParseHuabao)
}

func runParse(infile, outfile string, parse func(io.Reader) ([]importer.Record, error)) subcommands.ExitStatus {
	if infile == "" || outfile == "" {
		fmt.Fprintln(os.Stderr, "Error: -i and -o flags are required.")
		return subcommands.ExitUsageError
	}

	in, err := os.Open(infile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening statement: %v\n", err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	records, err := parse(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing statement: %v\n", err)
		return subcommands.ExitFailure
	}

	out, err := os.Create(outfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		return subcommands.ExitFailure
	}
	defer out.Close()

	if err := importer.WriteTSV(out, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing deal rows: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("wrote %d deal rows to %s\n", len(records), outfile)
	return subcommands.ExitSuccess
}
