// folioctl is the command-line companion of the portfolio server: schema
// migration, asset registration, broker statement conversion, deal import,
// price updates and ledger audits.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(&migrateCmd{}, "")
	commander.Register(&addAssetCmd{}, "")
	commander.Register(&loadAssetsCmd{}, "")
	commander.Register(&parseQiemanCmd{}, "")
	commander.Register(&parsePinganCmd{}, "")
	commander.Register(&parseHuabaoCmd{}, "")
	commander.Register(&importDealsCmd{}, "")
	commander.Register(&importPricesCmd{}, "")
	commander.Register(&updatePricesCmd{}, "")
	commander.Register(&validateDealsCmd{}, "")
	commander.Register(&refreshCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
