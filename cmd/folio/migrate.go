package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/folio"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	Long: `Apply the bundled schema to the configured database. Statements are
idempotent, so running it against an existing database is safe.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := folio.LoadConfig(configPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if cfg.DatabaseURL != "" && cfg.DatabaseDriver != "sqlite" {
		store, err := folio.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "postgres schema applied")
		return nil
	}
	path := cfg.DatabasePath
	if path == "" {
		path = "data/folio.db"
	}
	// Opening the SQLite store creates its tables.
	store, err := folio.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	fmt.Fprintf(cmd.OutOrStdout(), "sqlite schema ready at %s\n", path)
	return nil
}
