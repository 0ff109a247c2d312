package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fumisaki/kakeibo/internal/model"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the transaction audit log",
		Long:  `Every create, update, and delete of a transaction leaves an audit log entry. Inspect and prune them here.`,
	}

	cmd.AddCommand(listHistoryCmd())
	cmd.AddCommand(cleanupHistoryCmd())

	return cmd
}

func listHistoryCmd() *cobra.Command {
	var (
		transactionID string
		limit         int
		offset        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit log entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var entries []model.TransactionHistory
			if transactionID != "" {
				entries, err = store.GetTransactionHistory(ctx, transactionID)
			} else {
				entries, err = store.GetAllHistory(ctx, limit, offset)
			}
			if err != nil {
				return renderError(err)
			}

			if len(entries) == 0 {
				fmt.Println("No history entries found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "Timestamp\tAction\tTransaction\tChanges")
			for _, entry := range entries {
				changes := ""
				if len(entry.Changes) > 0 {
					changes = strings.Join(entry.Changes, ", ")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					entry.Timestamp.Format("2006-01-02 15:04:05"),
					entry.Action,
					entry.TransactionID,
					changes,
				)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&transactionID, "tx", "", "show entries for one transaction (oldest first)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}

func cleanupHistoryCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Prune old audit log entries",
		Long:  `Keep only the newest N entries per transaction and delete the rest.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			deleted, err := store.CleanupOldHistory(ctx, keep)
			if err != nil {
				return renderError(err)
			}

			fmt.Printf("Deleted %d history entries\n", deleted)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 10, "entries to keep per transaction")
	return cmd
}
