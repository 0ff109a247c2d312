package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fumisaki/kakeibo/internal/model"
)

// Field names the localized headers map back to.
const (
	fieldDate        = "date"
	fieldAmount      = "amount"
	fieldType        = "type"
	fieldCategory    = "category"
	fieldDescription = "description"
	fieldName        = "name"
	fieldColor       = "color"
	fieldIsDefault   = "isDefault"
)

// headerFields maps localized CSV headers back to field names.
var headerFields = map[string]string{
	"日付":    fieldDate,
	"金額":    fieldAmount,
	"種類":    fieldType,
	"カテゴリ":  fieldCategory,
	"説明":    fieldDescription,
	"カテゴリ名": fieldName,
	"色":     fieldColor,
	"デフォルト": fieldIsDefault,
}

// typeLabels maps localized type labels back to their values. English
// values are accepted too so hand-edited files keep working.
var transactionTypeLabels = map[string]model.TransactionType{
	"収入":      model.TransactionTypeIncome,
	"支出":      model.TransactionTypeExpense,
	"income":  model.TransactionTypeIncome,
	"expense": model.TransactionTypeExpense,
}

var categoryTypeLabels = map[string]model.CategoryType{
	"収入":      model.CategoryTypeIncome,
	"支出":      model.CategoryTypeExpense,
	"両方":      model.CategoryTypeBoth,
	"income":  model.CategoryTypeIncome,
	"expense": model.CategoryTypeExpense,
	"both":    model.CategoryTypeBoth,
}

// defaultImportColor is assigned to categories created on the fly.
const defaultImportColor = "#95A5A6"

// ImportFromCSV parses the provided texts and applies them through the
// repositories. Categories are imported before transactions so transaction
// rows can resolve category names to ids. Per-row failures are collected;
// processing always continues to subsequent rows.
func (s *Service) ImportFromCSV(ctx context.Context, transactionsCSV, categoriesCSV string, options Options, onProgress ProgressFunc) (*Result, error) {
	notify := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	result := &Result{}

	if categoriesCSV != "" {
		notify(Progress{Stage: StageCategories, Message: "importing categories"})
		if err := s.importCategories(ctx, categoriesCSV, options, result); err != nil {
			return nil, err
		}
	}

	if transactionsCSV != "" {
		notify(Progress{Stage: StageTransactions, Message: "importing transactions"})
		if err := s.importTransactions(ctx, transactionsCSV, options, result, notify); err != nil {
			return nil, err
		}
	}

	notify(Progress{Stage: StageComplete, Message: "import complete"})
	slog.Info("import finished",
		"categories_imported", result.Categories.Imported,
		"transactions_imported", result.Transactions.Imported,
		"errors", len(result.Errors))
	return result, nil
}

// parseRows reads all CSV records and maps the localized header to column
// indexes. Returns the column map and data rows (row numbers start at 2,
// the header being line 1).
func parseRows(text string) (map[string]int, [][]string, error) {
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\uFEFF")))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, cell := range header {
		if field, ok := headerFields[strings.TrimSpace(cell)]; ok {
			columns[field] = i
		}
	}

	var rows [][]string
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, nil, fmt.Errorf("failed to read CSV row: %w", readErr)
		}
		rows = append(rows, record)
	}
	return columns, rows, nil
}

func cell(row []string, columns map[string]int, field string) string {
	idx, ok := columns[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseImportDate accepts the localized YYYY/M/D format first, then falls
// back to generic date parsing. Dates are anchored in UTC so duplicate keys
// stay stable against the UTC timestamps the store hands back.
func parseImportDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006/1/2", "2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

func (s *Service) importCategories(ctx context.Context, text string, options Options, result *Result) error {
	columns, rows, err := parseRows(text)
	if err != nil {
		return err
	}

	existing, err := s.repo.GetCategories(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]*model.Category, len(existing))
	for i := range existing {
		byName[strings.ToLower(existing[i].Name)] = &existing[i]
	}

	for i, row := range rows {
		rowNum := i + 2

		name := cell(row, columns, fieldName)
		if name == "" {
			result.Categories.Errors++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: fieldName, Message: "category name is required"})
			continue
		}

		categoryType, ok := categoryTypeLabels[strings.ToLower(cell(row, columns, fieldType))]
		if !ok {
			result.Categories.Errors++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: fieldType, Message: fmt.Sprintf("unknown category type %q", cell(row, columns, fieldType))})
			continue
		}

		color := cell(row, columns, fieldColor)
		if color == "" {
			color = defaultImportColor
		}

		if current, dup := byName[strings.ToLower(name)]; dup {
			switch {
			case options.SkipDuplicates:
				result.Categories.Skipped++
				continue
			case options.UpdateExisting:
				updated, updateErr := s.repo.UpdateCategory(ctx, current.ID, model.UpdateCategoryInput{
					Color: &color,
					Type:  &categoryType,
				})
				if updateErr != nil {
					result.Categories.Errors++
					result.Errors = append(result.Errors, RowError{Row: rowNum, Message: updateErr.Error()})
					continue
				}
				byName[strings.ToLower(name)] = updated
				result.Categories.Imported++
				continue
			}
			// Fall through to a fresh insert attempt; the repository's
			// uniqueness check turns it into a row error.
		}

		created, createErr := s.repo.CreateCategory(ctx, model.CreateCategoryInput{
			Name:  name,
			Color: color,
			Type:  categoryType,
		})
		if createErr != nil {
			result.Categories.Errors++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: createErr.Error()})
			continue
		}
		byName[strings.ToLower(name)] = created
		result.Categories.Imported++
	}

	return nil
}

func (s *Service) importTransactions(ctx context.Context, text string, options Options, result *Result, notify ProgressFunc) error {
	columns, rows, err := parseRows(text)
	if err != nil {
		return err
	}

	categories, err := s.repo.GetCategories(ctx)
	if err != nil {
		return err
	}
	categoriesByName := make(map[string]*model.Category, len(categories))
	for i := range categories {
		categoriesByName[strings.ToLower(categories[i].Name)] = &categories[i]
	}

	existing, err := s.repo.GetTransactions(ctx, nil)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, txn := range existing {
		seen[duplicateKey(txn.Date, txn.Amount, txn.Description)] = true
	}

	for i, row := range rows {
		rowNum := i + 2
		notify(Progress{Stage: StageTransactions, Current: i + 1, Total: len(rows)})

		date, dateErr := parseImportDate(cell(row, columns, fieldDate))
		if dateErr != nil {
			result.Transactions.Errors++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: fieldDate, Message: dateErr.Error()})
			continue
		}

		amountText := cell(row, columns, fieldAmount)
		amount, amountErr := strconv.ParseFloat(amountText, 64)
		if amountErr != nil {
			result.Transactions.Errors++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: fieldAmount, Message: fmt.Sprintf("invalid amount %q", amountText)})
			continue
		}

		txnType, ok := transactionTypeLabels[strings.ToLower(cell(row, columns, fieldType))]
		if !ok {
			result.Transactions.Errors++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Field: fieldType, Message: fmt.Sprintf("unknown transaction type %q", cell(row, columns, fieldType))})
			continue
		}

		categoryName := cell(row, columns, fieldCategory)
		category, found := categoriesByName[strings.ToLower(categoryName)]
		if !found {
			if !options.CreateMissingCategories {
				result.Transactions.Errors++
				result.Errors = append(result.Errors, RowError{Row: rowNum, Field: fieldCategory, Message: fmt.Sprintf("unknown category %q", categoryName)})
				continue
			}
			created, createErr := s.repo.CreateCategory(ctx, model.CreateCategoryInput{
				Name:  categoryName,
				Color: defaultImportColor,
				Type:  model.CategoryType(txnType),
			})
			if createErr != nil {
				result.Transactions.Errors++
				result.Errors = append(result.Errors, RowError{Row: rowNum, Field: fieldCategory, Message: createErr.Error()})
				continue
			}
			categoriesByName[strings.ToLower(categoryName)] = created
			category = created
		}

		description := cell(row, columns, fieldDescription)

		// Sign handling happens exactly once, at the repository boundary:
		// the row's magnitude plus its declared type is all we hand over.
		magnitude := math.Abs(amount)
		signed := model.SignedAmount(txnType, magnitude)

		if options.SkipDuplicates && seen[duplicateKey(date, signed, description)] {
			result.Transactions.Skipped++
			continue
		}

		created, createErr := s.repo.CreateTransaction(ctx, model.CreateTransactionInput{
			Date:        date,
			Amount:      magnitude,
			Description: description,
			CategoryID:  category.ID,
			Type:        txnType,
		})
		if createErr != nil {
			result.Transactions.Errors++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: createErr.Error()})
			continue
		}
		seen[duplicateKey(created.Date, created.Amount, created.Description)] = true
		result.Transactions.Imported++
	}

	return nil
}

// duplicateKey identifies a transaction by calendar date, signed amount and
// description for duplicate detection.
func duplicateKey(date time.Time, amount float64, description string) string {
	return fmt.Sprintf("%s:%.2f:%s", date.Format("2006-01-02"), amount, description)
}
