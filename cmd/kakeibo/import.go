package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/fumisaki/kakeibo/internal/importer"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transactions and categories",
		Long:  `Read records back from CSV exports or OFX/QFX bank statements.`,
	}

	cmd.AddCommand(importCSVCmd())
	cmd.AddCommand(importOFXCmd())

	return cmd
}

func importCSVCmd() *cobra.Command {
	var (
		txFile         string
		categoriesFile string
		skipDuplicates bool
		updateExisting bool
		createMissing  bool
	)

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Import from CSV files",
		Long: `Import categories and/or transactions from CSV files with localized
headers, as produced by 'kakeibo export'. Bad rows are reported and skipped;
the rest of the batch still lands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if txFile == "" && categoriesFile == "" {
				return fmt.Errorf("nothing to import, pass --tx and/or --categories")
			}

			transactionsCSV, err := readInputFile(txFile)
			if err != nil {
				return err
			}
			categoriesCSV, err := readInputFile(categoriesFile)
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			options := importer.Options{
				SkipDuplicates:          skipDuplicates,
				UpdateExisting:          updateExisting,
				CreateMissingCategories: createMissing,
			}

			result, err := importer.NewService(store).ImportFromCSV(
				ctx, transactionsCSV, categoriesCSV, options, progressReporter())
			if err != nil {
				return renderError(err)
			}

			printImportResult(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&txFile, "tx", "", "transactions CSV file")
	cmd.Flags().StringVar(&categoriesFile, "categories", "", "categories CSV file")
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", true, "skip rows matching an existing record")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "update categories whose name already exists")
	cmd.Flags().BoolVar(&createMissing, "create-missing", true, "create categories named by transaction rows")
	return cmd
}

func importOFXCmd() *cobra.Command {
	var (
		categoryName   string
		skipDuplicates bool
		createMissing  bool
	)

	cmd := &cobra.Command{
		Use:   "ofx <file>",
		Short: "Import from an OFX/QFX bank statement",
		Long: `Parse a downloaded OFX or QFX statement and record its entries. OFX
carries no category information, so every entry lands in one category.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open OFX file: %w", err)
			}
			defer func() { _ = file.Close() }()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			options := importer.OFXOptions{
				Options: importer.Options{
					SkipDuplicates:          skipDuplicates,
					CreateMissingCategories: createMissing,
				},
				CategoryName: categoryName,
			}

			result, err := importer.NewService(store).ImportFromOFX(ctx, file, options, progressReporter())
			if err != nil {
				return renderError(err)
			}

			printImportResult(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryName, "category", "", "category name for imported entries (default その他)")
	cmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", true, "skip entries matching an existing transaction")
	cmd.Flags().BoolVar(&createMissing, "create-missing", true, "create the category when it does not exist")
	return cmd
}

func readInputFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// progressReporter renders import progress as a terminal bar, re-created
// whenever a stage announces a new total.
func progressReporter() importer.ProgressFunc {
	var (
		bar   *progressbar.ProgressBar
		stage string
	)
	return func(p importer.Progress) {
		if p.Stage == importer.StageComplete {
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
			return
		}
		if p.Total == 0 {
			return
		}
		if bar == nil || stage != p.Stage {
			stage = p.Stage
			bar = progressbar.NewOptions(p.Total,
				progressbar.OptionSetDescription(stage),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(p.Current)
	}
}

func printImportResult(result *importer.Result) {
	fmt.Printf("Categories:   %d imported, %d skipped, %d failed\n",
		result.Categories.Imported, result.Categories.Skipped, result.Categories.Errors)
	fmt.Printf("Transactions: %d imported, %d skipped, %d failed\n",
		result.Transactions.Imported, result.Transactions.Skipped, result.Transactions.Errors)

	for _, rowErr := range result.Errors {
		if rowErr.Field != "" {
			fmt.Printf("  row %d (%s): %s\n", rowErr.Row, rowErr.Field, rowErr.Message)
		} else {
			fmt.Printf("  row %d: %s\n", rowErr.Row, rowErr.Message)
		}
	}
}
