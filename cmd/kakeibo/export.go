package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fumisaki/kakeibo/internal/export"
)

func exportCmd() *cobra.Command {
	var (
		from          string
		to            string
		categoryIDs   []string
		txOut         string
		categoriesOut string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions and categories to CSV",
		Long: `Write transactions and categories as CSV files with localized headers.
Files are written UTF-8 with a byte-order mark so spreadsheets open them cleanly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			options := export.Options{
				IncludeTransactions: txOut != "",
				IncludeCategories:   categoriesOut != "",
				CategoryIDs:         categoryIDs,
			}
			if !options.IncludeTransactions && !options.IncludeCategories {
				return fmt.Errorf("nothing to export, pass --tx-out and/or --categories-out")
			}

			if from != "" || to != "" {
				if from == "" || to == "" {
					return fmt.Errorf("--from and --to must be used together")
				}
				start, err := parseCLIDate(from)
				if err != nil {
					return err
				}
				end, err := parseCLIDate(to)
				if err != nil {
					return err
				}
				options.DateRange = &export.DateRange{Start: start, End: end}
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := export.NewService(store).ExportToCSV(ctx, options, nil)
			if err != nil {
				return renderError(err)
			}

			if txOut != "" {
				if err := export.WriteCSV(result.TransactionsCSV, txOut); err != nil {
					return err
				}
				fmt.Printf("Wrote %d transactions to %s\n", result.TransactionCount, txOut)
			}
			if categoriesOut != "" {
				if err := export.WriteCSV(result.CategoriesCSV, categoriesOut); err != nil {
					return err
				}
				fmt.Printf("Wrote %d categories to %s\n", result.CategoryCount, categoriesOut)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&categoryIDs, "category", nil, "restrict to category ids (repeatable)")
	cmd.Flags().StringVar(&txOut, "tx-out", "", "transactions CSV output file")
	cmd.Flags().StringVar(&categoriesOut, "categories-out", "", "categories CSV output file")
	return cmd
}
