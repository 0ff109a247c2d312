package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fumisaki/kakeibo/internal/common"
	"github.com/fumisaki/kakeibo/internal/model"
)

// defaultCategorySeeds is the fixed set inserted on first run.
var defaultCategorySeeds = []model.CreateCategoryInput{
	{Name: "食費", Color: "#FF6B6B", Type: model.CategoryTypeExpense},
	{Name: "交通費", Color: "#4ECDC4", Type: model.CategoryTypeExpense},
	{Name: "住居費", Color: "#45B7D1", Type: model.CategoryTypeExpense},
	{Name: "光熱費", Color: "#F9CA24", Type: model.CategoryTypeExpense},
	{Name: "通信費", Color: "#6C5CE7", Type: model.CategoryTypeExpense},
	{Name: "医療費", Color: "#FD79A8", Type: model.CategoryTypeExpense},
	{Name: "娯楽費", Color: "#FDCB6E", Type: model.CategoryTypeExpense},
	{Name: "その他", Color: "#95A5A6", Type: model.CategoryTypeExpense},
	{Name: "給与", Color: "#00B894", Type: model.CategoryTypeIncome},
	{Name: "賞与", Color: "#00CEC9", Type: model.CategoryTypeIncome},
	{Name: "副収入", Color: "#55EFC4", Type: model.CategoryTypeIncome},
}

// CreateDefaultCategories seeds the fixed default category set. Idempotent:
// a no-op whenever any default category already exists.
func (s *Store) CreateDefaultCategories(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE is_default = 1`).Scan(&count)
	if err != nil {
		return common.WrapStorage("failed to count default categories", err)
	}
	if count > 0 {
		slog.Debug("default categories already seeded", "count", count)
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapStorage("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, 1, ?, ?)`)
	if err != nil {
		return common.NewDatabaseError("failed to prepare seed statement", err, false)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, seed := range defaultCategorySeeds {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), seed.Name, seed.Color, string(seed.Type), now, now); err != nil {
			// Structural failure: the seed set is fixed, retrying won't help.
			return common.NewDatabaseError("failed to seed default categories", err, false)
		}
	}

	if err := tx.Commit(); err != nil {
		return common.NewDatabaseError("failed to commit default categories", err, false)
	}

	slog.Info("seeded default categories", "count", len(defaultCategorySeeds))
	return nil
}
