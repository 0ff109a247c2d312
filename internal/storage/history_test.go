package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumisaki/kakeibo/internal/model"
)

func TestHistoryRecording(t *testing.T) {
	ctx := context.Background()

	t.Run("create leaves a create entry", func(t *testing.T) {
		store := createTestStore(t)
		cat := createTestCategory(t, store, "Food", model.CategoryTypeExpense)
		txn := createTestTransaction(t, store, cat.ID, model.TransactionTypeExpense, 500, 1, "lunch")

		entries, err := store.GetTransactionHistory(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)

		entry := entries[0]
		assert.Equal(t, model.HistoryActionCreate, entry.Action)
		assert.Nil(t, entry.PreviousData)
		require.NotNil(t, entry.NewData)
		require.NotNil(t, entry.NewData.Amount)
		assert.Equal(t, -500.0, *entry.NewData.Amount)
		assert.Nil(t, entry.Changes)
	})

	t.Run("update records only the tracked fields that changed", func(t *testing.T) {
		store := createTestStore(t)
		cat := createTestCategory(t, store, "Food", model.CategoryTypeExpense)
		txn := createTestTransaction(t, store, cat.ID, model.TransactionTypeExpense, 500, 1, "before")

		amount := 900.0
		description := "after"
		_, err := store.UpdateTransaction(ctx, txn.ID, model.UpdateTransactionInput{
			Amount:      &amount,
			Description: &description,
		})
		require.NoError(t, err)

		entries, err := store.GetTransactionHistory(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		update := entries[1]
		assert.Equal(t, model.HistoryActionUpdate, update.Action)
		assert.ElementsMatch(t, []string{"amount", "description"}, update.Changes)
		require.NotNil(t, update.PreviousData)
		require.NotNil(t, update.NewData)
		assert.Equal(t, -500.0, *update.PreviousData.Amount)
		assert.Equal(t, -900.0, *update.NewData.Amount)
	})

	t.Run("update without tracked changes stores nil changes", func(t *testing.T) {
		store := createTestStore(t)
		cat := createTestCategory(t, store, "Food", model.CategoryTypeExpense)
		txn := createTestTransaction(t, store, cat.ID, model.TransactionTypeExpense, 500, 1, "same")

		same := "same"
		_, err := store.UpdateTransaction(ctx, txn.ID, model.UpdateTransactionInput{Description: &same})
		require.NoError(t, err)

		entries, err := store.GetTransactionHistory(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Nil(t, entries[1].Changes)
	})

	t.Run("delete keeps a final snapshot", func(t *testing.T) {
		store := createTestStore(t)
		cat := createTestCategory(t, store, "Food", model.CategoryTypeExpense)
		txn := createTestTransaction(t, store, cat.ID, model.TransactionTypeExpense, 500, 1, "doomed")

		require.NoError(t, store.DeleteTransaction(ctx, txn.ID))

		entries, err := store.GetTransactionHistory(ctx, txn.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		final := entries[1]
		assert.Equal(t, model.HistoryActionDelete, final.Action)
		require.NotNil(t, final.PreviousData)
		assert.Equal(t, "doomed", *final.PreviousData.Description)
		assert.Nil(t, final.NewData)
	})
}

func TestGetAllHistory(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	cat := createTestCategory(t, store, "Food", model.CategoryTypeExpense)

	for i := 0; i < 5; i++ {
		createTestTransaction(t, store, cat.ID, model.TransactionTypeExpense, float64(100*(i+1)), 1, "entry")
	}

	t.Run("newest first", func(t *testing.T) {
		entries, err := store.GetAllHistory(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, entries, 5)
		for i := 1; i < len(entries); i++ {
			assert.False(t, entries[i].Timestamp.After(entries[i-1].Timestamp))
		}
	})

	t.Run("paginates", func(t *testing.T) {
		page1, err := store.GetAllHistory(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, page1, 2)

		page2, err := store.GetAllHistory(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page2, 2)
		assert.NotEqual(t, page1[0].ID, page2[0].ID)
	})

	t.Run("offset applies without a limit", func(t *testing.T) {
		all, err := store.GetAllHistory(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 5)

		rest, err := store.GetAllHistory(ctx, 0, 2)
		require.NoError(t, err)
		require.Len(t, rest, 3)
		assert.Equal(t, all[2].ID, rest[0].ID)
	})
}

func TestCleanupOldHistory(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	cat := createTestCategory(t, store, "Food", model.CategoryTypeExpense)
	txn := createTestTransaction(t, store, cat.ID, model.TransactionTypeExpense, 500, 1, "v0")

	// 1 create entry + 12 update entries.
	for i := 1; i <= 12; i++ {
		amount := float64(500 + i)
		_, err := store.UpdateTransaction(ctx, txn.ID, model.UpdateTransactionInput{Amount: &amount})
		require.NoError(t, err)
	}

	deleted, err := store.CleanupOldHistory(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	entries, err := store.GetTransactionHistory(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, entries, 10)

	// The oldest entries, including the create, are the ones pruned.
	assert.Equal(t, model.HistoryActionUpdate, entries[0].Action)

	// Other transactions are untouched by the per-transaction window.
	other := createTestTransaction(t, store, cat.ID, model.TransactionTypeExpense, 100, 1, "other")
	deleted, err = store.CleanupOldHistory(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)

	otherEntries, err := store.GetTransactionHistory(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, otherEntries, 1)
}
