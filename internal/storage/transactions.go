package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fumisaki/kakeibo/internal/common"
	"github.com/fumisaki/kakeibo/internal/model"
)

const transactionColumns = "id, date, amount, description, category_id, type, created_at, updated_at"

func scanTransaction(row interface{ Scan(...any) error }) (*model.Transaction, error) {
	var txn model.Transaction
	var txnType string
	if err := row.Scan(&txn.ID, &txn.Date, &txn.Amount, &txn.Description,
		&txn.CategoryID, &txnType, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
		return nil, err
	}
	txn.Type = model.TransactionType(txnType)
	return &txn, nil
}

// CreateTransaction validates the input, confirms the referenced category
// exists, derives the signed amount from (type, magnitude), persists the
// record and mirrors the creation into the audit log.
func (s *Store) CreateTransaction(ctx context.Context, input model.CreateTransactionInput) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateCreateTransaction(input, time.Now()); err != nil {
		return nil, err
	}
	if _, err := s.GetCategoryByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now()
	txn := &model.Transaction{
		ID:          uuid.NewString(),
		Date:        input.Date,
		Amount:      model.SignedAmount(input.Type, input.Amount),
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Type:        input.Type,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.WrapStorage("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		txn.ID, txn.Date, txn.Amount, txn.Description, txn.CategoryID,
		string(txn.Type), txn.CreatedAt, txn.UpdatedAt); err != nil {
		return nil, common.WrapStorage("failed to create transaction", err)
	}

	if err := s.recordHistory(ctx, tx, txn.ID, model.HistoryActionCreate, nil, model.SnapshotOf(txn)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.WrapStorage("failed to commit transaction", err)
	}

	slog.Info("created transaction", "id", txn.ID, "amount", txn.Amount, "type", txn.Type)
	return txn, nil
}

// UpdateTransaction applies a partial update. When amount and/or type is
// supplied the stored signed amount is re-derived from the merged pair,
// falling back to the existing value for whichever field was not supplied.
// The pre-update and post-update snapshots are diffed into the audit log.
func (s *Store) UpdateTransaction(ctx context.Context, id string, input model.UpdateTransactionInput) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateUpdateTransaction(input, time.Now()); err != nil {
		return nil, err
	}

	existing, err := s.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if _, err := s.GetCategoryByID(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	merged := *existing
	if input.Date != nil {
		merged.Date = *input.Date
	}
	if input.Description != nil {
		merged.Description = *input.Description
	}
	if input.CategoryID != nil {
		merged.CategoryID = *input.CategoryID
	}
	if input.Type != nil {
		merged.Type = *input.Type
	}
	if input.Amount != nil || input.Type != nil {
		magnitude := math.Abs(existing.Amount)
		if input.Amount != nil {
			magnitude = *input.Amount
		}
		merged.Amount = model.SignedAmount(merged.Type, magnitude)
	}
	merged.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.WrapStorage("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `UPDATE transactions SET date = ?, amount = ?, description = ?, category_id = ?, type = ?, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query,
		merged.Date, merged.Amount, merged.Description, merged.CategoryID,
		string(merged.Type), merged.UpdatedAt, id); err != nil {
		return nil, common.WrapStorage("failed to update transaction", err)
	}

	if err := s.recordHistory(ctx, tx, id, model.HistoryActionUpdate,
		model.SnapshotOf(existing), model.SnapshotOf(&merged)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, common.WrapStorage("failed to commit transaction", err)
	}

	return &merged, nil
}

// DeleteTransaction removes a transaction and records the pre-delete
// snapshot in the audit log.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	existing, err := s.GetTransactionByID(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapStorage("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return common.WrapStorage("failed to delete transaction", err)
	}

	if err := s.recordHistory(ctx, tx, id, model.HistoryActionDelete, model.SnapshotOf(existing), nil); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return common.WrapStorage("failed to commit transaction", err)
	}

	slog.Info("deleted transaction", "id", id)
	return nil
}

// GetTransactionByID returns a single transaction.
func (s *Store) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`
	txn, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, common.NewBusinessError(fmt.Sprintf("transaction %s not found", id), common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapStorage("failed to query transaction", err)
	}
	return txn, nil
}

// GetTransactions returns all transactions sorted by date descending, then
// narrowed by the filter predicates applied in sequence: date range, category,
// type, absolute amount range, description substring.
func (s *Store) GetTransactions(ctx context.Context, filter *model.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.WrapStorage("failed to query transactions", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, common.WrapStorage("failed to scan transaction", scanErr)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapStorage("error iterating transactions", err)
	}

	return applyFilter(transactions, filter), nil
}

// GetTransactionStats summarizes the transactions matching the filter.
// Totals sum absolute values split by type; balance is income minus expense.
func (s *Store) GetTransactionStats(ctx context.Context, filter *model.TransactionFilter) (*model.TransactionStats, error) {
	transactions, err := s.GetTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &model.TransactionStats{Count: len(transactions)}
	for _, txn := range transactions {
		switch txn.Type {
		case model.TransactionTypeIncome:
			stats.TotalIncome += math.Abs(txn.Amount)
		case model.TransactionTypeExpense:
			stats.TotalExpense += math.Abs(txn.Amount)
		}
	}
	stats.Balance = stats.TotalIncome - stats.TotalExpense
	return stats, nil
}

// dayStart clamps a timestamp to 00:00:00 of its calendar day.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dayEnd clamps a timestamp to 23:59:59.999 of its calendar day.
func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999000000, t.Location())
}

// applyFilter composes the filter predicates in their documented order over
// an already date-descending slice.
func applyFilter(transactions []model.Transaction, filter *model.TransactionFilter) []model.Transaction {
	if filter == nil {
		return transactions
	}

	predicates := []func(model.Transaction) bool{}

	if filter.StartDate != nil || filter.EndDate != nil {
		var start, end time.Time
		if filter.StartDate != nil {
			start = dayStart(*filter.StartDate)
		}
		if filter.EndDate != nil {
			end = dayEnd(*filter.EndDate)
		}
		predicates = append(predicates, func(txn model.Transaction) bool {
			if filter.StartDate != nil && txn.Date.Before(start) {
				return false
			}
			if filter.EndDate != nil && txn.Date.After(end) {
				return false
			}
			return true
		})
	}
	if filter.CategoryID != nil {
		predicates = append(predicates, func(txn model.Transaction) bool {
			return txn.CategoryID == *filter.CategoryID
		})
	}
	if filter.Type != nil {
		predicates = append(predicates, func(txn model.Transaction) bool {
			return txn.Type == *filter.Type
		})
	}
	if filter.MinAmount != nil || filter.MaxAmount != nil {
		predicates = append(predicates, func(txn model.Transaction) bool {
			magnitude := math.Abs(txn.Amount)
			if filter.MinAmount != nil && magnitude < *filter.MinAmount {
				return false
			}
			if filter.MaxAmount != nil && magnitude > *filter.MaxAmount {
				return false
			}
			return true
		})
	}
	if filter.Description != nil {
		needle := strings.ToLower(*filter.Description)
		predicates = append(predicates, func(txn model.Transaction) bool {
			return strings.Contains(strings.ToLower(txn.Description), needle)
		})
	}

	if len(predicates) == 0 {
		return transactions
	}

	filtered := make([]model.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		keep := true
		for _, predicate := range predicates {
			if !predicate(txn) {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, txn)
		}
	}
	return filtered
}
