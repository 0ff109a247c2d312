// Package report computes monthly, yearly, category and daily summaries over
// the transaction store. The aggregator is stateless; it fetches matching
// transactions and reduces them in memory.
package report

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/fumisaki/kakeibo/internal/model"
)

// TransactionSource is the slice of the storage layer the aggregator needs.
type TransactionSource interface {
	GetTransactions(ctx context.Context, filter *model.TransactionFilter) ([]model.Transaction, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
}

// CategoryBreakdown is one category's share of an aggregated period.
// Percentage is this category's portion of the total summed absolute amount
// across all categories in the breakdown.
type CategoryBreakdown struct {
	CategoryID   string
	CategoryName string
	Amount       float64
	Percentage   float64
	Count        int
}

// MonthlyReport summarizes one calendar month.
type MonthlyReport struct {
	Breakdown        []CategoryBreakdown
	Year             int
	Month            time.Month
	TotalIncome      float64
	TotalExpense     float64
	Balance          float64
	TransactionCount int
}

// YearlyReport aggregates twelve monthly reports.
type YearlyReport struct {
	MonthlyData  []MonthlyReport
	Year         int
	TotalIncome  float64
	TotalExpense float64
	Balance      float64
}

// DailyStat sums one calendar day's income and expense. Date is the ISO
// date string key used for grouping.
type DailyStat struct {
	Date    string
	Income  float64
	Expense float64
}

// Service is the report aggregator.
type Service struct {
	source TransactionSource
}

// NewService creates a report aggregator over the given source.
func NewService(source TransactionSource) *Service {
	return &Service{source: source}
}

// GetMonthlyReport aggregates the given calendar month. Month boundaries are
// built in UTC to match the UTC-midnight anchor every date-only input uses;
// the store also hands dates back in UTC, so the comparison never crosses a
// zone seam.
func (s *Service) GetMonthlyReport(ctx context.Context, year int, month time.Month) (*MonthlyReport, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	filter := &model.TransactionFilter{StartDate: &start, EndDate: &end}
	transactions, err := s.source.GetTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &MonthlyReport{
		Year:             year,
		Month:            month,
		TransactionCount: len(transactions),
	}
	for _, txn := range transactions {
		switch txn.Type {
		case model.TransactionTypeIncome:
			report.TotalIncome += math.Abs(txn.Amount)
		case model.TransactionTypeExpense:
			report.TotalExpense += math.Abs(txn.Amount)
		}
	}
	report.Balance = report.TotalIncome - report.TotalExpense

	breakdown, err := s.breakdown(ctx, transactions)
	if err != nil {
		return nil, err
	}
	report.Breakdown = breakdown

	return report, nil
}

// GetCategoryReport computes the category breakdown for an arbitrary
// inclusive date range.
func (s *Service) GetCategoryReport(ctx context.Context, startDate, endDate time.Time) ([]CategoryBreakdown, error) {
	filter := &model.TransactionFilter{StartDate: &startDate, EndDate: &endDate}
	transactions, err := s.source.GetTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.breakdown(ctx, transactions)
}

// GetYearlyReport aggregates all twelve months of a year sequentially.
func (s *Service) GetYearlyReport(ctx context.Context, year int) (*YearlyReport, error) {
	report := &YearlyReport{
		Year:        year,
		MonthlyData: make([]MonthlyReport, 0, 12),
	}

	for month := time.January; month <= time.December; month++ {
		monthly, err := s.GetMonthlyReport(ctx, year, month)
		if err != nil {
			return nil, err
		}
		report.MonthlyData = append(report.MonthlyData, *monthly)
		report.TotalIncome += monthly.TotalIncome
		report.TotalExpense += monthly.TotalExpense
	}
	report.Balance = report.TotalIncome - report.TotalExpense

	return report, nil
}

// GetDailyStats groups matching transactions by calendar day. Only days with
// at least one transaction appear; the result is sorted ascending by date key.
func (s *Service) GetDailyStats(ctx context.Context, startDate, endDate time.Time) ([]DailyStat, error) {
	filter := &model.TransactionFilter{StartDate: &startDate, EndDate: &endDate}
	transactions, err := s.source.GetTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*DailyStat)
	for _, txn := range transactions {
		key := txn.Date.Format("2006-01-02")
		stat, ok := byDay[key]
		if !ok {
			stat = &DailyStat{Date: key}
			byDay[key] = stat
		}
		switch txn.Type {
		case model.TransactionTypeIncome:
			stat.Income += math.Abs(txn.Amount)
		case model.TransactionTypeExpense:
			stat.Expense += math.Abs(txn.Amount)
		}
	}

	stats := make([]DailyStat, 0, len(byDay))
	for _, stat := range byDay {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date < stats[j].Date })

	return stats, nil
}

// breakdown groups transactions by category, sums absolute amounts and
// counts, and expresses each category's share as a percentage of the total
// summed amount across the whole breakdown. Transactions whose category id
// no longer resolves are excluded here (they still count in period totals).
func (s *Service) breakdown(ctx context.Context, transactions []model.Transaction) ([]CategoryBreakdown, error) {
	categories, err := s.source.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}

	grouped := make(map[string]*CategoryBreakdown)
	var total float64
	for _, txn := range transactions {
		name, known := names[txn.CategoryID]
		if !known {
			continue
		}
		entry, ok := grouped[txn.CategoryID]
		if !ok {
			entry = &CategoryBreakdown{CategoryID: txn.CategoryID, CategoryName: name}
			grouped[txn.CategoryID] = entry
		}
		magnitude := math.Abs(txn.Amount)
		entry.Amount += magnitude
		entry.Count++
		total += magnitude
	}

	breakdown := make([]CategoryBreakdown, 0, len(grouped))
	for _, entry := range grouped {
		if total > 0 {
			entry.Percentage = entry.Amount / total * 100
		}
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Amount > breakdown[j].Amount })

	return breakdown, nil
}
