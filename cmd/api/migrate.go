package main

import (
	"errors"
	"log"

	"github.com/punchamoorthee/cardfees/internal/config"
	"github.com/punchamoorthee/cardfees/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Apply the calculations and users schema. Every statement is idempotent,
so running migrate against an up-to-date database changes nothing.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrom(v, cfgFile)
	if err != nil {
		return err
	}
	if cfg.DBSource == "" {
		return errors.New("DB_SOURCE environment variable is required")
	}

	ctx := cmd.Context()
	db, err := store.New(ctx, cfg.DBSource, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Println("--- Applying schema ---")
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	log.Println("--- Schema up to date ---")
	return nil
}
