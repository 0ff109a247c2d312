package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fumisaki/kakeibo/internal/common"
	"github.com/fumisaki/kakeibo/internal/model"
)

const categoryColumns = "id, name, color, type, is_default, created_at, updated_at"

func scanCategory(row interface{ Scan(...any) error }) (*model.Category, error) {
	var cat model.Category
	if err := row.Scan(&cat.ID, &cat.Name, &cat.Color, &cat.Type, &cat.IsDefault, &cat.CreatedAt, &cat.UpdatedAt); err != nil {
		return nil, err
	}
	return &cat, nil
}

// CreateCategory validates the input, rejects duplicate names
// (case-insensitive) and persists a new non-default category.
func (s *Store) CreateCategory(ctx context.Context, input model.CreateCategoryInput) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCreateCategory(input); err != nil {
		return nil, err
	}

	taken, err := s.categoryNameTaken(ctx, input.Name, "")
	if err != nil {
		return nil, common.WrapStorage("failed to check category name", err)
	}
	if taken {
		return nil, common.NewBusinessError(fmt.Sprintf("category name %q already exists", input.Name), common.ErrDuplicateEntry)
	}

	now := time.Now()
	cat := &model.Category{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Color:     input.Color,
		Type:      input.Type,
		IsDefault: false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query,
		cat.ID, cat.Name, cat.Color, string(cat.Type), cat.IsDefault, cat.CreatedAt, cat.UpdatedAt); err != nil {
		return nil, common.WrapStorage("failed to create category", err)
	}

	slog.Info("created category", "name", cat.Name, "id", cat.ID)
	return cat, nil
}

// UpdateCategory applies a partial update. Name uniqueness is re-checked only
// when the name actually changes; updating a category to its own name succeeds.
func (s *Store) UpdateCategory(ctx context.Context, id string, input model.UpdateCategoryInput) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateUpdateCategory(input); err != nil {
		return nil, err
	}

	existing, err := s.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && !strings.EqualFold(*input.Name, existing.Name) {
		taken, takenErr := s.categoryNameTaken(ctx, *input.Name, id)
		if takenErr != nil {
			return nil, common.WrapStorage("failed to check category name", takenErr)
		}
		if taken {
			return nil, common.NewBusinessError(fmt.Sprintf("category name %q already exists", *input.Name), common.ErrDuplicateEntry)
		}
	}

	merged := *existing
	if input.Name != nil {
		merged.Name = *input.Name
	}
	if input.Color != nil {
		merged.Color = *input.Color
	}
	if input.Type != nil {
		merged.Type = *input.Type
	}
	merged.UpdatedAt = time.Now()

	query := `UPDATE categories SET name = ?, color = ?, type = ?, updated_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query,
		merged.Name, merged.Color, string(merged.Type), merged.UpdatedAt, id); err != nil {
		return nil, common.WrapStorage("failed to update category", err)
	}

	return &merged, nil
}

// DeleteCategory removes a category. Default categories and categories
// referenced by at least one transaction cannot be deleted.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	existing, err := s.GetCategoryByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.IsDefault {
		return common.NewBusinessError(fmt.Sprintf("category %q is a default category", existing.Name), common.ErrDefaultLocked)
	}

	inUse, err := s.IsCategoryInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return common.NewBusinessError(fmt.Sprintf("category %q is in use", existing.Name), common.ErrCategoryInUse)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return common.WrapStorage("failed to delete category", err)
	}

	slog.Info("deleted category", "name", existing.Name, "id", id)
	return nil
}

// GetCategoryByID returns a single category.
func (s *Store) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`
	cat, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, common.NewBusinessError(fmt.Sprintf("category %s not found", id), common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapStorage("failed to query category", err)
	}
	return cat, nil
}

// GetCategories returns all categories sorted by name ascending.
func (s *Store) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name COLLATE NOCASE ASC`
	return s.queryCategories(ctx, query)
}

// GetCategoriesByType returns categories matching the requested type, plus
// categories typed "both", sorted by name ascending.
func (s *Store) GetCategoriesByType(ctx context.Context, categoryType model.CategoryType) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !model.ValidCategoryType(categoryType) {
		return nil, common.NewValidationError([]string{fmt.Sprintf("type must be one of income, expense, both; got %q", categoryType)})
	}

	query := `SELECT ` + categoryColumns + ` FROM categories
		WHERE type = ? OR type = ?
		ORDER BY name COLLATE NOCASE ASC`
	return s.queryCategories(ctx, query, string(categoryType), string(model.CategoryTypeBoth))
}

// IsCategoryInUse reports whether any transaction references the category.
func (s *Store) IsCategoryInUse(ctx context.Context, id string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(id, "id"); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&count)
	if err != nil {
		return false, common.WrapStorage("failed to count category references", err)
	}
	return count > 0, nil
}

func (s *Store) categoryNameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE LOWER(name) = LOWER(?) AND id != ?`,
		name, excludeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) queryCategories(ctx context.Context, query string, args ...any) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.WrapStorage("failed to query categories", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, common.WrapStorage("failed to scan category", scanErr)
		}
		categories = append(categories, *cat)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapStorage("error iterating categories", err)
	}
	return categories, nil
}
