package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/folioview/folio-backend/internal/database"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or upgrade the database schema" }
func (*migrateCmd) Usage() string {
	return `migrate

  Applies all pending schema migrations to the database at DB_PATH.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if err := database.Migrate(a.db); err != nil {
		fmt.Fprintf(os.Stderr, "Error running migrations: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Println("database schema is up to date")
	return subcommands.ExitSuccess
}
