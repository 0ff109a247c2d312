// Package export serializes transactions and categories to delimited text
// the way the original household book renders them: localized headers and
// labels, RFC 4180 quoting, UTF-8 with a byte-order mark on disk.
package export

import (
	"context"
	"encoding/csv"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/fumisaki/kakeibo/internal/model"
)

// Localized CSV headers.
var (
	transactionHeader = []string{"日付", "金額", "種類", "カテゴリ", "説明", "作成日時", "更新日時"}
	categoryHeader    = []string{"カテゴリ名", "色", "種類", "デフォルト", "作成日時", "更新日時"}
)

// Localized display labels.
const (
	labelIncome  = "収入"
	labelExpense = "支出"
	labelBoth    = "両方"
	labelYes     = "はい"
	labelNo      = "いいえ"
)

// TypeLabel renders a transaction type as its display label.
func TypeLabel(t model.TransactionType) string {
	if t == model.TransactionTypeIncome {
		return labelIncome
	}
	return labelExpense
}

// CategoryTypeLabel renders a category type as its display label.
func CategoryTypeLabel(t model.CategoryType) string {
	switch t {
	case model.CategoryTypeIncome:
		return labelIncome
	case model.CategoryTypeExpense:
		return labelExpense
	default:
		return labelBoth
	}
}

func boolLabel(b bool) string {
	if b {
		return labelYes
	}
	return labelNo
}

// DateRange bounds exported transactions (inclusive, date-only comparison).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Options selects what to export.
type Options struct {
	DateRange           *DateRange
	CategoryIDs         []string
	IncludeTransactions bool
	IncludeCategories   bool
}

// Progress reports an export stage transition.
type Progress struct {
	Stage   string
	Message string
	Current int
	Total   int
}

// ProgressFunc receives progress updates. Informational only; returning is
// the only way to continue, there is no cancellation hook.
type ProgressFunc func(Progress)

// Export stages.
const (
	StagePreparing = "preparing"
	StageExporting = "exporting"
	StageComplete  = "complete"
)

// Result holds the serialized output.
type Result struct {
	TransactionsCSV  string
	CategoriesCSV    string
	TransactionCount int
	CategoryCount    int
}

// Source is the slice of the storage layer the exporter needs.
type Source interface {
	GetTransactions(ctx context.Context, filter *model.TransactionFilter) ([]model.Transaction, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
}

// Service serializes repository contents to CSV.
type Service struct {
	source Source
}

// NewService creates an export service over the given source.
func NewService(source Source) *Service {
	return &Service{source: source}
}

// ExportToCSV serializes categories first (so their names are available for
// the transaction rows), then transactions. The date range is pushed down to
// the repository filter; the category subset is applied in memory afterward.
func (s *Service) ExportToCSV(ctx context.Context, options Options, onProgress ProgressFunc) (*Result, error) {
	notify := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}
	notify(Progress{Stage: StagePreparing, Message: "collecting records"})

	result := &Result{}

	categories, err := s.source.GetCategories(ctx)
	if err != nil {
		return nil, err
	}

	if options.IncludeCategories {
		result.CategoriesCSV = serializeCategories(categories)
		result.CategoryCount = len(categories)
	}

	if options.IncludeTransactions {
		var filter *model.TransactionFilter
		if options.DateRange != nil {
			filter = &model.TransactionFilter{
				StartDate: &options.DateRange.Start,
				EndDate:   &options.DateRange.End,
			}
		}
		transactions, err := s.source.GetTransactions(ctx, filter)
		if err != nil {
			return nil, err
		}
		if len(options.CategoryIDs) > 0 {
			wanted := make(map[string]bool, len(options.CategoryIDs))
			for _, id := range options.CategoryIDs {
				wanted[id] = true
			}
			kept := transactions[:0]
			for _, txn := range transactions {
				if wanted[txn.CategoryID] {
					kept = append(kept, txn)
				}
			}
			transactions = kept
		}

		notify(Progress{
			Stage:   StageExporting,
			Message: "serializing transactions",
			Total:   len(transactions),
		})

		names := make(map[string]string, len(categories))
		for _, cat := range categories {
			names[cat.ID] = cat.Name
		}
		result.TransactionsCSV = serializeTransactions(transactions, names)
		result.TransactionCount = len(transactions)
	}

	notify(Progress{
		Stage:   StageComplete,
		Message: "export complete",
		Current: result.TransactionCount + result.CategoryCount,
		Total:   result.TransactionCount + result.CategoryCount,
	})

	slog.Info("exported records",
		"transactions", result.TransactionCount,
		"categories", result.CategoryCount)
	return result, nil
}

func serializeTransactions(transactions []model.Transaction, categoryNames map[string]string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write(transactionHeader)
	for _, txn := range transactions {
		_ = w.Write([]string{
			formatDate(txn.Date),
			strconv.FormatFloat(txn.Amount, 'f', -1, 64),
			TypeLabel(txn.Type),
			categoryNames[txn.CategoryID],
			txn.Description,
			formatTimestamp(txn.CreatedAt),
			formatTimestamp(txn.UpdatedAt),
		})
	}
	w.Flush()

	return sb.String()
}

func serializeCategories(categories []model.Category) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write(categoryHeader)
	for _, cat := range categories {
		_ = w.Write([]string{
			cat.Name,
			cat.Color,
			CategoryTypeLabel(cat.Type),
			boolLabel(cat.IsDefault),
			formatTimestamp(cat.CreatedAt),
			formatTimestamp(cat.UpdatedAt),
		})
	}
	w.Flush()

	return sb.String()
}

// formatDate renders dates in the localized YYYY/M/D style the importer
// parses first.
func formatDate(t time.Time) string {
	return strconv.Itoa(t.Year()) + "/" + strconv.Itoa(int(t.Month())) + "/" + strconv.Itoa(t.Day())
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006/01/02 15:04:05")
}
