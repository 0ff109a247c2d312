package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fumisaki/kakeibo/internal/report"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate transactions into reports",
		Long:  `Monthly and yearly summaries, category breakdowns, and per-day totals.`,
	}

	cmd.AddCommand(monthReportCmd())
	cmd.AddCommand(yearReportCmd())
	cmd.AddCommand(categoryReportCmd())
	cmd.AddCommand(dailyReportCmd())

	return cmd
}

func monthReportCmd() *cobra.Command {
	var (
		year  int
		month int
	)

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Summarize one calendar month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if month < 1 || month > 12 {
				return fmt.Errorf("invalid month %d, expected 1-12", month)
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			monthly, err := report.NewService(store).GetMonthlyReport(ctx, year, time.Month(month))
			if err != nil {
				return renderError(err)
			}

			fmt.Printf("%d-%02d\n", monthly.Year, int(monthly.Month))
			fmt.Printf("Income:       %.2f\n", monthly.TotalIncome)
			fmt.Printf("Expense:      %.2f\n", monthly.TotalExpense)
			fmt.Printf("Balance:      %.2f\n", monthly.Balance)
			fmt.Printf("Transactions: %d\n", monthly.TransactionCount)

			if len(monthly.Breakdown) > 0 {
				fmt.Println()
				printBreakdown(monthly.Breakdown)
			}
			return nil
		},
	}

	now := time.Now()
	cmd.Flags().IntVar(&year, "year", now.Year(), "calendar year")
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "calendar month (1-12)")
	return cmd
}

func yearReportCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "year",
		Short: "Summarize one calendar year month by month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			yearly, err := report.NewService(store).GetYearlyReport(ctx, year)
			if err != nil {
				return renderError(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "Month\tIncome\tExpense\tBalance\tCount")
			for _, monthly := range yearly.MonthlyData {
				fmt.Fprintf(w, "%d-%02d\t%.2f\t%.2f\t%.2f\t%d\n",
					monthly.Year, int(monthly.Month),
					monthly.TotalIncome, monthly.TotalExpense, monthly.Balance,
					monthly.TransactionCount)
			}
			_ = w.Flush()

			fmt.Printf("\nYear %d\n", yearly.Year)
			fmt.Printf("Income:  %.2f\n", yearly.TotalIncome)
			fmt.Printf("Expense: %.2f\n", yearly.TotalExpense)
			fmt.Printf("Balance: %.2f\n", yearly.Balance)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year")
	return cmd
}

func categoryReportCmd() *cobra.Command {
	var (
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "category",
		Short: "Break a date range down by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			start, err := parseCLIDate(from)
			if err != nil {
				return err
			}
			end, err := parseCLIDate(to)
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			breakdown, err := report.NewService(store).GetCategoryReport(ctx, start, end)
			if err != nil {
				return renderError(err)
			}

			if len(breakdown) == 0 {
				fmt.Println("No transactions in range")
				return nil
			}

			printBreakdown(breakdown)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func dailyReportCmd() *cobra.Command {
	var (
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show per-day income and expense totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			start, err := parseCLIDate(from)
			if err != nil {
				return err
			}
			end, err := parseCLIDate(to)
			if err != nil {
				return err
			}

			store, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := report.NewService(store).GetDailyStats(ctx, start, end)
			if err != nil {
				return renderError(err)
			}

			if len(stats) == 0 {
				fmt.Println("No transactions in range")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintln(w, "Date\tIncome\tExpense")
			for _, day := range stats {
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\n", day.Date, day.Income, day.Expense)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func printBreakdown(breakdown []report.CategoryBreakdown) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintln(w, "Category\tAmount\tShare\tCount")
	for _, entry := range breakdown {
		fmt.Fprintf(w, "%s\t%.2f\t%.1f%%\t%d\n",
			entry.CategoryName, entry.Amount, entry.Percentage, entry.Count)
	}
}
