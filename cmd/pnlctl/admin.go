package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ndewijer/pnl-tracker/internal/config"
	"github.com/ndewijer/pnl-tracker/internal/database"
	"github.com/ndewijer/pnl-tracker/internal/repository"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a CREDENTIAL_KEY for encrypting exchange credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := repository.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}

		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return err
		}
		v, err := database.Version(db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", cfg.Database.Path, v)
		return nil
	},
}
