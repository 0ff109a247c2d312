package backup

import (
	"context"
	"os"
	"path/filepath"
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

func createTestService(t *testing.T, store *storage.Store) *Service {
	t.Helper()
	service, err := NewService(store, filepath.Join(t.TempDir(), "backups"))
	require.NoError(t, err)
	t.Cleanup(service.StopAutoBackup)
	return service
}

func seedStore(t *testing.T, store *storage.Store) {
	t.Helper()
	ctx := context.Background()

	food, err := store.CreateCategory(ctx, model.CreateCategoryInput{
		Name: "食費", Color: "#FF6B6B", Type: model.CategoryTypeExpense,
	})
	require.NoError(t, err)
	salary, err := store.CreateCategory(ctx, model.CreateCategoryInput{
		Name: "給与", Color: "#00B894", Type: model.CategoryTypeIncome,
	})
	require.NoError(t, err)

	for _, input := range []model.CreateTransactionInput{
		{Date: time.Now().AddDate(0, 0, -10), Amount: 1200, Description: "ランチ", CategoryID: food.ID, Type: model.TransactionTypeExpense},
		{Date: time.Now().AddDate(0, 0, -3), Amount: 300000, Description: "月給", CategoryID: salary.ID, Type: model.TransactionTypeIncome},
	} {
		_, err := store.CreateTransaction(ctx, input)
		require.NoError(t, err)
	}
}

func TestCreateManualBackup(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots the full dataset", func(t *testing.T) {
		store := createTestStore(t)
		seedStore(t, store)
		service := createTestService(t, store)

		data, err := service.CreateManualBackup(ctx, Options{
			IncludeTransactions: true,
			IncludeCategories:   true,
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, model.BackupVersion, data.Version)
		assert.Equal(t, 2, data.Metadata.TransactionCount)
		assert.Equal(t, 2, data.Metadata.CategoryCount)
		assert.Len(t, data.Transactions, 2)
		assert.Len(t, data.Categories, 2)

		validation := ValidateBackupIntegrity(data)
		assert.True(t, validation.IsValid, "fresh backup should validate: %v", validation.Errors)
	})

	t.Run("excluded entities stay empty but present", func(t *testing.T) {
		store := createTestStore(t)
		seedStore(t, store)
		service := createTestService(t, store)

		data, err := service.CreateManualBackup(ctx, Options{IncludeCategories: true}, nil)
		require.NoError(t, err)

		assert.NotNil(t, data.Transactions)
		assert.Empty(t, data.Transactions)
		assert.Len(t, data.Categories, 2)
		assert.Zero(t, data.Metadata.TransactionCount)
	})
}

func TestWriteAndReadBackup(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	seedStore(t, store)
	service := createTestService(t, store)

	data, err := service.CreateManualBackup(ctx, Options{
		IncludeTransactions: true,
		IncludeCategories:   true,
	}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snapshots", "backup.json")
	written, err := service.WriteBackup(data, path)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	loaded, err := ReadBackup(path)
	require.NoError(t, err)
	assert.Equal(t, data.Metadata.Checksum, loaded.Metadata.Checksum)
	assert.Len(t, loaded.Transactions, 2)

	// The checksum survives the JSON round trip.
	validation := ValidateBackupIntegrity(loaded)
	assert.True(t, validation.IsValid, "reloaded backup should validate: %v", validation.Errors)
}

func TestWriteBackupDefaultFilename(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	service := createTestService(t, store)

	data, err := service.CreateManualBackup(ctx, Options{IncludeCategories: true}, nil)
	require.NoError(t, err)

	previous, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(previous) })

	written, err := service.WriteBackup(data, "")
	require.NoError(t, err)
	assert.Equal(t, "kakeibo-backup-"+data.Timestamp.Format("2006-01-02")+".json", written)

	_, err = os.Stat(written)
	require.NoError(t, err)
}

func TestRestoreFromBackup(t *testing.T) {
	ctx := context.Background()

	makeBackup := func(t *testing.T) *model.BackupData {
		t.Helper()
		source := createTestStore(t)
		seedStore(t, source)
		service := createTestService(t, source)
		data, err := service.CreateManualBackup(ctx, Options{
			IncludeTransactions: true,
			IncludeCategories:   true,
		}, nil)
		require.NoError(t, err)
		return data
	}

	t.Run("restores into an empty store", func(t *testing.T) {
		data := makeBackup(t)

		target := createTestStore(t)
		service := createTestService(t, target)

		result, err := service.RestoreFromBackup(ctx, data, RestoreOptions{ValidateIntegrity: true})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 2, result.Categories.Imported)
		assert.Equal(t, 2, result.Transactions.Imported)

		stats, err := target.GetTransactionStats(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Count)
		assert.InDelta(t, 300000, stats.TotalIncome, 0.001)
		assert.InDelta(t, 1200, stats.TotalExpense, 0.001)
	})

	t.Run("second restore skips duplicates", func(t *testing.T) {
		data := makeBackup(t)
		target := createTestStore(t)
		service := createTestService(t, target)

		_, err := service.RestoreFromBackup(ctx, data, RestoreOptions{})
		require.NoError(t, err)

		result, err := service.RestoreFromBackup(ctx, data, RestoreOptions{SkipDuplicates: true})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 2, result.Categories.Skipped)
		assert.Equal(t, 2, result.Transactions.Skipped)
	})

	t.Run("invalid backup aborts before touching data", func(t *testing.T) {
		data := makeBackup(t)
		data.Metadata.Checksum = "ffffffff"

		target := createTestStore(t)
		service := createTestService(t, target)

		result, err := service.RestoreFromBackup(ctx, data, RestoreOptions{ValidateIntegrity: true})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Errors)

		categories, err := target.GetCategories(ctx)
		require.NoError(t, err)
		assert.Empty(t, categories)
	})

	t.Run("unresolved category remaps to the catch-all", func(t *testing.T) {
		data := makeBackup(t)
		// Strip categories so transaction category ids cannot resolve.
		data.Categories = []model.Category{}
		data.Metadata.CategoryCount = 0
		data.Metadata.Checksum = Checksum(data.Transactions, data.Categories)

		target := createTestStore(t)
		require.NoError(t, target.CreateDefaultCategories(ctx))
		service := createTestService(t, target)

		result, err := service.RestoreFromBackup(ctx, data, RestoreOptions{CreateMissingCategories: true})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 2, result.Transactions.Imported)

		transactions, err := target.GetTransactions(ctx, nil)
		require.NoError(t, err)
		for _, txn := range transactions {
			cat, catErr := target.GetCategoryByID(ctx, txn.CategoryID)
			require.NoError(t, catErr)
			assert.Equal(t, "その他", cat.Name)
		}
	})

	t.Run("unresolved category without remapping counts errors", func(t *testing.T) {
		data := makeBackup(t)
		data.Categories = []model.Category{}
		data.Metadata.CategoryCount = 0
		data.Metadata.Checksum = Checksum(data.Transactions, data.Categories)

		target := createTestStore(t)
		service := createTestService(t, target)

		result, err := service.RestoreFromBackup(ctx, data, RestoreOptions{})
		require.NoError(t, err)
		// Row-level failures never fail the run outright.
		assert.True(t, result.Success)
		assert.Equal(t, 2, result.Transactions.Errors)
		assert.Zero(t, result.Transactions.Imported)
	})
}
