package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumisaki/kakeibo/internal/common"
	"github.com/fumisaki/kakeibo/internal/model"
)

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and reads back", func(t *testing.T) {
		store := createTestStore(t)

		created, err := store.CreateCategory(ctx, model.CreateCategoryInput{
			Name:  "食費",
			Color: "#FF6B6B",
			Type:  model.CategoryTypeExpense,
		})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.False(t, created.IsDefault)

		got, err := store.GetCategoryByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "食費", got.Name)
		assert.Equal(t, "#FF6B6B", got.Color)
		assert.Equal(t, model.CategoryTypeExpense, got.Type)
	})

	t.Run("rejects duplicate name case-insensitively", func(t *testing.T) {
		store := createTestStore(t)
		createTestCategory(t, store, "Groceries", model.CategoryTypeExpense)

		_, err := store.CreateCategory(ctx, model.CreateCategoryInput{
			Name:  "GROCERIES",
			Color: "#000000",
			Type:  model.CategoryTypeExpense,
		})
		require.ErrorIs(t, err, common.ErrDuplicateEntry)
		assert.Equal(t, common.KindBusiness, common.KindOf(err))
	})

	t.Run("collects every validation violation", func(t *testing.T) {
		store := createTestStore(t)

		_, err := store.CreateCategory(ctx, model.CreateCategoryInput{
			Name:  "",
			Color: "red",
			Type:  "weird",
		})
		require.Error(t, err)
		assert.Equal(t, common.KindValidation, common.KindOf(err))
		assert.Contains(t, err.Error(), "name is required")
		assert.Contains(t, err.Error(), "color must match #RRGGBB")
		assert.Contains(t, err.Error(), "type must be one of income, expense, both")
	})

	t.Run("rejects overlong name", func(t *testing.T) {
		store := createTestStore(t)

		_, err := store.CreateCategory(ctx, model.CreateCategoryInput{
			Name:  strings.Repeat("あ", 51),
			Color: "#123456",
			Type:  model.CategoryTypeExpense,
		})
		require.Error(t, err)
		assert.Equal(t, common.KindValidation, common.KindOf(err))
	})
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("applies partial update", func(t *testing.T) {
		store := createTestStore(t)
		cat := createTestCategory(t, store, "Utilities", model.CategoryTypeExpense)

		newColor := "#ABCDEF"
		updated, err := store.UpdateCategory(ctx, cat.ID, model.UpdateCategoryInput{Color: &newColor})
		require.NoError(t, err)
		assert.Equal(t, "Utilities", updated.Name)
		assert.Equal(t, "#ABCDEF", updated.Color)
	})

	t.Run("renaming to own name succeeds", func(t *testing.T) {
		store := createTestStore(t)
		cat := createTestCategory(t, store, "Rent", model.CategoryTypeExpense)

		sameName := "rent"
		updated, err := store.UpdateCategory(ctx, cat.ID, model.UpdateCategoryInput{Name: &sameName})
		require.NoError(t, err)
		assert.Equal(t, "rent", updated.Name)
	})

	t.Run("renaming onto another category fails", func(t *testing.T) {
		store := createTestStore(t)
		createTestCategory(t, store, "Food", model.CategoryTypeExpense)
		cat := createTestCategory(t, store, "Drink", model.CategoryTypeExpense)

		clash := "food"
		_, err := store.UpdateCategory(ctx, cat.ID, model.UpdateCategoryInput{Name: &clash})
		require.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := createTestStore(t)

		name := "anything"
		_, err := store.UpdateCategory(ctx, "no-such-id", model.UpdateCategoryInput{Name: &name})
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes an unused category", func(t *testing.T) {
		store := createTestStore(t)
		cat := createTestCategory(t, store, "Temp", model.CategoryTypeExpense)

		require.NoError(t, store.DeleteCategory(ctx, cat.ID))

		_, err := store.GetCategoryByID(ctx, cat.ID)
		require.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("refuses default categories", func(t *testing.T) {
		store := createTestStore(t)
		require.NoError(t, store.CreateDefaultCategories(ctx))

		categories, err := store.GetCategories(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, categories)

		err = store.DeleteCategory(ctx, categories[0].ID)
		require.ErrorIs(t, err, common.ErrDefaultLocked)
	})

	t.Run("refuses categories in use", func(t *testing.T) {
		store := createTestStore(t)
		cat := createTestCategory(t, store, "Busy", model.CategoryTypeExpense)

		_, err := store.CreateTransaction(ctx, model.CreateTransactionInput{
			Date:       timeNowMinusDays(1),
			Amount:     100,
			CategoryID: cat.ID,
			Type:       model.TransactionTypeExpense,
		})
		require.NoError(t, err)

		err = store.DeleteCategory(ctx, cat.ID)
		require.ErrorIs(t, err, common.ErrCategoryInUse)

		inUse, err := store.IsCategoryInUse(ctx, cat.ID)
		require.NoError(t, err)
		assert.True(t, inUse)
	})
}

func TestGetCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("sorted by name ignoring case", func(t *testing.T) {
		store := createTestStore(t)
		createTestCategory(t, store, "banana", model.CategoryTypeExpense)
		createTestCategory(t, store, "Apple", model.CategoryTypeExpense)
		createTestCategory(t, store, "cherry", model.CategoryTypeExpense)

		categories, err := store.GetCategories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 3)
		assert.Equal(t, "Apple", categories[0].Name)
		assert.Equal(t, "banana", categories[1].Name)
		assert.Equal(t, "cherry", categories[2].Name)
	})

	t.Run("by type includes both-typed categories", func(t *testing.T) {
		store := createTestStore(t)
		createTestCategory(t, store, "Salary", model.CategoryTypeIncome)
		createTestCategory(t, store, "Food", model.CategoryTypeExpense)
		createTestCategory(t, store, "Adjustment", model.CategoryTypeBoth)

		income, err := store.GetCategoriesByType(ctx, model.CategoryTypeIncome)
		require.NoError(t, err)
		require.Len(t, income, 2)

		names := []string{income[0].Name, income[1].Name}
		assert.Contains(t, names, "Salary")
		assert.Contains(t, names, "Adjustment")
	})

	t.Run("by type rejects unknown type", func(t *testing.T) {
		store := createTestStore(t)

		_, err := store.GetCategoriesByType(ctx, "bogus")
		require.Error(t, err)
		assert.Equal(t, common.KindValidation, common.KindOf(err))
	})
}

func TestCreateDefaultCategories(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	require.NoError(t, store.CreateDefaultCategories(ctx))

	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 11)

	var income, expense int
	for _, cat := range categories {
		assert.True(t, cat.IsDefault, "seeded category %q should be default", cat.Name)
		switch cat.Type {
		case model.CategoryTypeIncome:
			income++
		case model.CategoryTypeExpense:
			expense++
		}
	}
	assert.Equal(t, 3, income)
	assert.Equal(t, 8, expense)

	// Second run is a no-op.
	require.NoError(t, store.CreateDefaultCategories(ctx))
	categories, err = store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 11)
}
