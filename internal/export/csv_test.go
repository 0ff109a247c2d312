package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumisaki/kakeibo/internal/model"
	"github.com/fumisaki/kakeibo/internal/storage"
)

func createTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func parseCSV(t *testing.T, text string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportToCSV(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	service := NewService(store)

	food, err := store.CreateCategory(ctx, model.CreateCategoryInput{
		Name:  "食費",
		Color: "#FF6B6B",
		Type:  model.CategoryTypeExpense,
	})
	require.NoError(t, err)

	_, err = store.CreateTransaction(ctx, model.CreateTransactionInput{
		Date:        time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC),
		Amount:      1200,
		Description: "ランチ",
		CategoryID:  food.ID,
		Type:        model.TransactionTypeExpense,
	})
	require.NoError(t, err)

	t.Run("localized headers and labels", func(t *testing.T) {
		result, exportErr := service.ExportToCSV(ctx, Options{
			IncludeTransactions: true,
			IncludeCategories:   true,
		}, nil)
		require.NoError(t, exportErr)
		assert.Equal(t, 1, result.TransactionCount)
		assert.Equal(t, 1, result.CategoryCount)

		txRows := parseCSV(t, result.TransactionsCSV)
		require.Len(t, txRows, 2)
		assert.Equal(t, []string{"日付", "金額", "種類", "カテゴリ", "説明", "作成日時", "更新日時"}, txRows[0])

		row := txRows[1]
		assert.Equal(t, "2025/3/5", row[0])
		assert.Equal(t, "-1200", row[1], "exported amount carries the stored sign")
		assert.Equal(t, "支出", row[2])
		assert.Equal(t, "食費", row[3])
		assert.Equal(t, "ランチ", row[4])

		catRows := parseCSV(t, result.CategoriesCSV)
		require.Len(t, catRows, 2)
		assert.Equal(t, []string{"カテゴリ名", "色", "種類", "デフォルト", "作成日時", "更新日時"}, catRows[0])
		assert.Equal(t, "食費", catRows[1][0])
		assert.Equal(t, "支出", catRows[1][2])
		assert.Equal(t, "いいえ", catRows[1][3])
	})

	t.Run("date range narrows transactions", func(t *testing.T) {
		result, exportErr := service.ExportToCSV(ctx, Options{
			IncludeTransactions: true,
			DateRange: &DateRange{
				Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
			},
		}, nil)
		require.NoError(t, exportErr)
		assert.Zero(t, result.TransactionCount)
	})

	t.Run("category subset narrows transactions", func(t *testing.T) {
		result, exportErr := service.ExportToCSV(ctx, Options{
			IncludeTransactions: true,
			CategoryIDs:         []string{"some-other-category"},
		}, nil)
		require.NoError(t, exportErr)
		assert.Zero(t, result.TransactionCount)
	})

	t.Run("reports progress stages", func(t *testing.T) {
		var stages []string
		_, exportErr := service.ExportToCSV(ctx, Options{IncludeTransactions: true}, func(p Progress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, exportErr)
		assert.Equal(t, StagePreparing, stages[0])
		assert.Equal(t, StageComplete, stages[len(stages)-1])
	})
}

func TestTypeLabels(t *testing.T) {
	assert.Equal(t, "収入", TypeLabel(model.TransactionTypeIncome))
	assert.Equal(t, "支出", TypeLabel(model.TransactionTypeExpense))
	assert.Equal(t, "収入", CategoryTypeLabel(model.CategoryTypeIncome))
	assert.Equal(t, "支出", CategoryTypeLabel(model.CategoryTypeExpense))
	assert.Equal(t, "両方", CategoryTypeLabel(model.CategoryTypeBoth))
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "export.csv")
	require.NoError(t, WriteCSV("a,b\n1,2\n", path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(raw), "\xEF\xBB\xBF"), "file should start with a UTF-8 BOM")
	assert.Equal(t, "a,b\n1,2\n", strings.TrimPrefix(string(raw), "\xEF\xBB\xBF"))
}
