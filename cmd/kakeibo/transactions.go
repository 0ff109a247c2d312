package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fumisaki/kakeibo/internal/export"
	"github.com/fumisaki/kakeibo/internal/model"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
		Long:  `Record, edit, list, and inspect income and expense transactions.`,
	}

	cmd.AddCommand(addTxCmd())
	cmd.AddCommand(updateTxCmd())
	cmd.AddCommand(deleteTxCmd())
	cmd.AddCommand(listTxCmd())
	cmd.AddCommand(showTxCmd())
	cmd.AddCommand(statsTxCmd())

	return cmd
}

func addTxCmd() *cobra.Command {
	var (
		date        string
		amount      float64
		txType      string
		categoryID  string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			when := time.Now()
			if date != "" {
				parsed, err := parseCLIDate(date)
				if err != nil {
					return err
				}
				when = parsed
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.CreateTransaction(ctx, model.CreateTransactionInput{
				Date:        when,
				Amount:      amount,
				Type:        model.TransactionType(txType),
				CategoryID:  categoryID,
				Description: description,
			})
			if err != nil {
				return renderError(err)
			}

			fmt.Printf("Recorded %s of %.2f on %s (%s)\n",
				txn.Type, txn.Amount, txn.Date.Format("2006-01-02"), txn.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount (positive)")
	cmd.Flags().StringVar(&txType, "type", "expense", "transaction type (income, expense)")
	cmd.Flags().StringVar(&categoryID, "category", "", "category id")
	cmd.Flags().StringVar(&description, "description", "", "free-form description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func updateTxCmd() *cobra.Command {
	var (
		date        string
		amount      float64
		txType      string
		categoryID  string
		description string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a transaction",
		Long:  `Update one or more fields of a transaction. Every change is recorded in the history log.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			input := model.UpdateTransactionInput{}
			if cmd.Flags().Changed("date") {
				parsed, err := parseCLIDate(date)
				if err != nil {
					return err
				}
				input.Date = &parsed
			}
			if cmd.Flags().Changed("amount") {
				input.Amount = &amount
			}
			if cmd.Flags().Changed("type") {
				t := model.TransactionType(txType)
				input.Type = &t
			}
			if cmd.Flags().Changed("category") {
				input.CategoryID = &categoryID
			}
			if cmd.Flags().Changed("description") {
				input.Description = &description
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.UpdateTransaction(ctx, args[0], input)
			if err != nil {
				return renderError(err)
			}

			fmt.Printf("Updated transaction %s\n", txn.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "new amount (positive)")
	cmd.Flags().StringVar(&txType, "type", "", "new type (income, expense)")
	cmd.Flags().StringVar(&categoryID, "category", "", "new category id")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func deleteTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Long:  `Delete a transaction. A final snapshot is kept in the history log.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteTransaction(ctx, args[0]); err != nil {
				return renderError(err)
			}

			fmt.Println("Transaction deleted")
			return nil
		},
	}
}

func listTxCmd() *cobra.Command {
	var (
		from       string
		to         string
		categoryID string
		txType     string
		minAmount  float64
		maxAmount  float64
		search     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter := model.TransactionFilter{}
			if from != "" {
				parsed, err := parseCLIDate(from)
				if err != nil {
					return err
				}
				filter.StartDate = &parsed
			}
			if to != "" {
				parsed, err := parseCLIDate(to)
				if err != nil {
					return err
				}
				filter.EndDate = &parsed
			}
			if categoryID != "" {
				filter.CategoryID = &categoryID
			}
			if txType != "" {
				t := model.TransactionType(txType)
				filter.Type = &t
			}
			if cmd.Flags().Changed("min") {
				filter.MinAmount = &minAmount
			}
			if cmd.Flags().Changed("max") {
				filter.MaxAmount = &maxAmount
			}
			if search != "" {
				filter.Description = &search
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			transactions, err := store.GetTransactions(ctx, &filter)
			if err != nil {
				return renderError(err)
			}

			if len(transactions) == 0 {
				fmt.Println("No transactions found")
				return nil
			}

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return renderError(err)
			}
			names := make(map[string]string, len(categories))
			for _, cat := range categories {
				names[cat.ID] = cat.Name
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "ID\tDate\tAmount\tType\tCategory\tDescription")
			for _, txn := range transactions {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
					txn.ID,
					txn.Date.Format("2006-01-02"),
					txn.Amount,
					export.TypeLabel(txn.Type),
					names[txn.CategoryID],
					txn.Description,
				)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&categoryID, "category", "", "filter by category id")
	cmd.Flags().StringVar(&txType, "type", "", "filter by type (income, expense)")
	cmd.Flags().Float64Var(&minAmount, "min", 0, "minimum absolute amount")
	cmd.Flags().Float64Var(&maxAmount, "max", 0, "maximum absolute amount")
	cmd.Flags().StringVar(&search, "search", "", "description substring (case-insensitive)")
	return cmd
}

func showTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransactionByID(ctx, args[0])
			if err != nil {
				return renderError(err)
			}

			category, err := store.GetCategoryByID(ctx, txn.CategoryID)
			categoryName := txn.CategoryID
			if err == nil {
				categoryName = category.Name
			}

			fmt.Printf("ID:          %s\n", txn.ID)
			fmt.Printf("Date:        %s\n", txn.Date.Format("2006-01-02"))
			fmt.Printf("Amount:      %.2f\n", txn.Amount)
			fmt.Printf("Type:        %s\n", export.TypeLabel(txn.Type))
			fmt.Printf("Category:    %s\n", categoryName)
			fmt.Printf("Description: %s\n", txn.Description)
			fmt.Printf("Created:     %s\n", txn.CreatedAt.Format(time.RFC3339))
			fmt.Printf("Updated:     %s\n", txn.UpdatedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func statsTxCmd() *cobra.Command {
	var (
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show income, expense, and balance totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter := model.TransactionFilter{}
			if from != "" {
				parsed, err := parseCLIDate(from)
				if err != nil {
					return err
				}
				filter.StartDate = &parsed
			}
			if to != "" {
				parsed, err := parseCLIDate(to)
				if err != nil {
					return err
				}
				filter.EndDate = &parsed
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.GetTransactionStats(ctx, &filter)
			if err != nil {
				return renderError(err)
			}

			fmt.Printf("Transactions: %d\n", stats.Count)
			fmt.Printf("Income:       %.2f\n", stats.TotalIncome)
			fmt.Printf("Expense:      %.2f\n", stats.TotalExpense)
			fmt.Printf("Balance:      %.2f\n", stats.Balance)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

// parseCLIDate anchors date-only input at UTC midnight, the same anchor the
// importers use, so stored dates and filter boundaries always compare in the
// same zone.
func parseCLIDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006/1/2"} {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}
