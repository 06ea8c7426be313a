package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"blogpress/internal/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := database.Connect(cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			slog.Info("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the development admin and sample categories",
		Long: fmt.Sprintf(`Creates %s (password %q) and a few categories when the
users table is empty. Does nothing otherwise.`, database.SeedAdminEmail, database.SeedAdminPassword),
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := database.Connect(cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}
			return database.Seed(db)
		},
	}
}
