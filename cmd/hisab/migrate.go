package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/hisabapp/hisab/internal/config"
	"github.com/hisabapp/hisab/internal/database"
	"github.com/hisabapp/hisab/internal/logger"
)

type migrateCmd struct {
	list bool
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `hisab migrate [-list]

  Applies the embedded SQL migrations that have not been recorded in
  schema_migrations yet. With -list, prints the known migrations instead.
`
}

func (m *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&m.list, "list", false, "List embedded migrations without applying them.")
}

func (m *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if m.list {
		names, err := database.Migrations()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return subcommands.ExitSuccess
	}

	cfg := config.MustLoad()
	logger.SetGlobal(logger.New(cfg.LogLevel, cfg.LogFormat))

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	applied, err := database.ApplyMigrations(ctx, db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error applying migrations: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(applied) == 0 {
		fmt.Println("No pending migrations.")
	}
	for _, name := range applied {
		fmt.Printf("Applied %s\n", name)
	}
	return subcommands.ExitSuccess
}
