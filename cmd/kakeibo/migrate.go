package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fumisaki/kakeibo/internal/common"
	"github.com/fumisaki/kakeibo/internal/config"
	"github.com/fumisaki/kakeibo/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  `Bring the database schema up to the version this build expects. Safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := storage.NewStore(config.DatabasePath())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			common.LogInfo("migrations applied", common.Fields{"db": store.Path(), "version": storage.ExpectedSchemaVersion})

			fmt.Printf("Database at %s is at schema version %d\n", store.Path(), storage.ExpectedSchemaVersion)
			return nil
		},
	}
}
