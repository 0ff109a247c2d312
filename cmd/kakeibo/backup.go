package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fumisaki/kakeibo/internal/backup"
	"github.com/fumisaki/kakeibo/internal/config"
	"github.com/fumisaki/kakeibo/internal/storage"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, inspect, and restore snapshots",
		Long:  `Full-dataset JSON snapshots with an integrity checksum, plus a rotating window of automatic ones.`,
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(listBackupsCmd())
	cmd.AddCommand(validateBackupCmd())
	cmd.AddCommand(restoreBackupCmd())
	cmd.AddCommand(autoBackupCmd())

	return cmd
}

func backupService(store *storage.Store) (*backup.Service, error) {
	return backup.NewService(store, config.BackupDir())
}

func createBackupCmd() *cobra.Command {
	var (
		out              string
		skipTransactions bool
		skipCategories   bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a snapshot to a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			service, err := backupService(store)
			if err != nil {
				return err
			}

			data, err := service.CreateManualBackup(ctx, backup.Options{
				IncludeTransactions: !skipTransactions,
				IncludeCategories:   !skipCategories,
			}, nil)
			if err != nil {
				return renderError(err)
			}

			written, err := service.WriteBackup(data, out)
			if err != nil {
				return err
			}

			fmt.Printf("Wrote backup %s (%d transactions, %d categories, checksum %s)\n",
				written, data.Metadata.TransactionCount, data.Metadata.CategoryCount,
				data.Metadata.Checksum)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output file (default kakeibo-backup-<date>.json)")
	cmd.Flags().BoolVar(&skipTransactions, "skip-transactions", false, "leave transactions out of the snapshot")
	cmd.Flags().BoolVar(&skipCategories, "skip-categories", false, "leave categories out of the snapshot")
	return cmd
}

func listBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List retained automatic snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			service, err := backupService(store)
			if err != nil {
				return err
			}

			backups, err := service.GetAutoBackups()
			if err != nil {
				return err
			}

			if len(backups) == 0 {
				fmt.Println("No automatic snapshots retained")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "Timestamp\tTransactions\tCategories\tChecksum")
			for _, data := range backups {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
					data.Timestamp.Format("2006-01-02 15:04:05"),
					data.Metadata.TransactionCount,
					data.Metadata.CategoryCount,
					data.Metadata.Checksum,
				)
			}
			return nil
		},
	}
}

func validateBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a snapshot's integrity",
		Long:  `Verify the snapshot version, metadata consistency, and checksum without touching the database.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := backup.ReadBackup(args[0])
			if err != nil {
				return err
			}

			validation := backup.ValidateBackupIntegrity(data)
			if validation.IsValid {
				fmt.Println("Backup is valid")
				return nil
			}

			for _, violation := range validation.Errors {
				fmt.Printf("  %s\n", violation)
			}
			return fmt.Errorf("backup failed validation with %d problem(s)", len(validation.Errors))
		},
	}
}

func restoreBackupCmd() *cobra.Command {
	var (
		skipValidation bool
		skipDuplicates bool
		remapMissing   bool
	)

	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replay a snapshot into the database",
		Long: `Restore categories first, then transactions. Records already present are
skipped when requested; transactions whose category cannot be resolved can be
remapped to an existing catch-all category.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := backup.ReadBackup(args[0])
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			service, err := backupService(store)
			if err != nil {
				return err
			}

			result, err := service.RestoreFromBackup(ctx, data, backup.RestoreOptions{
				ValidateIntegrity:       !skipValidation,
				SkipDuplicates:          skipDuplicates,
				CreateMissingCategories: remapMissing,
			})
			if err != nil {
				return renderError(err)
			}

			fmt.Printf("Categories:   %d restored, %d skipped, %d failed\n",
				result.Categories.Imported, result.Categories.Skipped, result.Categories.Errors)
			fmt.Printf("Transactions: %d restored, %d skipped, %d failed\n",
				result.Transactions.Imported, result.Transactions.Skipped, result.Transactions.Errors)

			if !result.Success {
				for _, message := range result.Errors {
					fmt.Printf("  %s\n", message)
				}
				return fmt.Errorf("restore failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "restore without checking the snapshot first")
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", true, "skip records that already exist")
	cmd.Flags().BoolVar(&remapMissing, "remap-missing", true, "remap unresolved categories to a catch-all category")
	return cmd
}

func autoBackupCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Run the automatic snapshot timer in the foreground",
		Long: `Take a full snapshot every interval and keep the newest five. Runs until
interrupted; intended for a terminal session or a service unit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			service, err := backupService(store)
			if err != nil {
				return err
			}

			if err := service.StartAutoBackup(ctx, interval); err != nil {
				return err
			}
			defer service.StopAutoBackup()

			fmt.Printf("Auto-backup running every %s, press Ctrl-C to stop\n", interval)
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "time between snapshots")
	return cmd
}
