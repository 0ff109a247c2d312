package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fumisaki/kakeibo/internal/common"
	"github.com/fumisaki/kakeibo/internal/model"
)

// execer lets history writes run either on the pool or inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// diffSnapshots returns the tracked fields whose values differ between two
// partial snapshots. Nil when nothing tracked changed.
func diffSnapshots(previous, next *model.TransactionSnapshot) []string {
	if previous == nil || next == nil {
		return nil
	}

	var changes []string
	for _, field := range model.TrackedHistoryFields {
		switch field {
		case "date":
			if previous.Date != nil && next.Date != nil && !previous.Date.Equal(*next.Date) {
				changes = append(changes, field)
			}
		case "amount":
			if previous.Amount != nil && next.Amount != nil && *previous.Amount != *next.Amount {
				changes = append(changes, field)
			}
		case "description":
			if previous.Description != nil && next.Description != nil && *previous.Description != *next.Description {
				changes = append(changes, field)
			}
		case "categoryId":
			if previous.CategoryID != nil && next.CategoryID != nil && *previous.CategoryID != *next.CategoryID {
				changes = append(changes, field)
			}
		}
	}
	return changes
}

// recordHistory appends one audit log entry. For updates the tracked fields
// are diffed; when none differ the changes column stays null rather than
// holding an empty set. Never overwrites existing entries.
func (s *Store) recordHistory(ctx context.Context, db execer, transactionID string, action model.HistoryAction, previous, next *model.TransactionSnapshot) error {
	entry := model.TransactionHistory{
		ID:            uuid.NewString(),
		TransactionID: transactionID,
		Action:        action,
		PreviousData:  previous,
		NewData:       next,
		Timestamp:     time.Now(),
	}
	if action == model.HistoryActionUpdate {
		entry.Changes = diffSnapshots(previous, next)
	}

	previousJSON, err := marshalSnapshot(previous)
	if err != nil {
		return common.NewDatabaseError("failed to encode previous snapshot", err, false)
	}
	nextJSON, err := marshalSnapshot(next)
	if err != nil {
		return common.NewDatabaseError("failed to encode new snapshot", err, false)
	}

	var changesJSON sql.NullString
	if entry.Changes != nil {
		encoded, marshalErr := json.Marshal(entry.Changes)
		if marshalErr != nil {
			return common.NewDatabaseError("failed to encode changes", marshalErr, false)
		}
		changesJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	query := `INSERT INTO transaction_history
		(id, transaction_id, action, previous_data, new_data, changes, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, query,
		entry.ID, entry.TransactionID, string(entry.Action),
		previousJSON, nextJSON, changesJSON, entry.Timestamp); err != nil {
		return common.WrapStorage("failed to record history", err)
	}

	slog.Debug("recorded history", "transaction_id", transactionID, "action", action)
	return nil
}

func marshalSnapshot(snapshot *model.TransactionSnapshot) (sql.NullString, error) {
	if snapshot == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func scanHistory(rows *sql.Rows) (*model.TransactionHistory, error) {
	var entry model.TransactionHistory
	var action string
	var previousJSON, nextJSON, changesJSON sql.NullString

	if err := rows.Scan(&entry.ID, &entry.TransactionID, &action,
		&previousJSON, &nextJSON, &changesJSON, &entry.Timestamp); err != nil {
		return nil, err
	}
	entry.Action = model.HistoryAction(action)

	if previousJSON.Valid {
		if err := json.Unmarshal([]byte(previousJSON.String), &entry.PreviousData); err != nil {
			return nil, fmt.Errorf("failed to decode previous snapshot: %w", err)
		}
	}
	if nextJSON.Valid {
		if err := json.Unmarshal([]byte(nextJSON.String), &entry.NewData); err != nil {
			return nil, fmt.Errorf("failed to decode new snapshot: %w", err)
		}
	}
	if changesJSON.Valid {
		if err := json.Unmarshal([]byte(changesJSON.String), &entry.Changes); err != nil {
			return nil, fmt.Errorf("failed to decode changes: %w", err)
		}
	}
	return &entry, nil
}

const historyColumns = "id, transaction_id, action, previous_data, new_data, changes, timestamp"

// GetTransactionHistory returns the audit log for one transaction, oldest first.
func (s *Store) GetTransactionHistory(ctx context.Context, transactionID string) ([]model.TransactionHistory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	query := `SELECT ` + historyColumns + ` FROM transaction_history
		WHERE transaction_id = ?
		ORDER BY timestamp ASC`
	return s.queryHistory(ctx, query, transactionID)
}

// GetAllHistory returns the global audit log, newest first, with optional
// pagination. limit <= 0 means no limit; offset applies either way.
func (s *Store) GetAllHistory(ctx context.Context, limit, offset int) ([]model.TransactionHistory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	if limit <= 0 {
		// SQLite reads a negative limit as unbounded, which keeps the
		// offset in effect.
		limit = -1
	}
	query := `SELECT ` + historyColumns + ` FROM transaction_history
		ORDER BY timestamp DESC LIMIT ? OFFSET ?`
	return s.queryHistory(ctx, query, limit, offset)
}

// CleanupOldHistory keeps only the keepLastN most recent entries per
// transaction and bulk-deletes the rest.
func (s *Store) CleanupOldHistory(ctx context.Context, keepLastN int) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if keepLastN <= 0 {
		keepLastN = 10
	}

	query := `DELETE FROM transaction_history
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY transaction_id ORDER BY timestamp DESC
				) AS rank
				FROM transaction_history
			) WHERE rank <= ?
		)`
	result, err := s.db.ExecContext(ctx, query, keepLastN)
	if err != nil {
		return 0, common.WrapStorage("failed to clean up history", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, common.WrapStorage("failed to count deleted history rows", err)
	}

	slog.Info("cleaned up transaction history", "deleted", deleted, "keep_last", keepLastN)
	return int(deleted), nil
}

func (s *Store) queryHistory(ctx context.Context, query string, args ...any) ([]model.TransactionHistory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.WrapStorage("failed to query history", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.TransactionHistory
	for rows.Next() {
		entry, scanErr := scanHistory(rows)
		if scanErr != nil {
			return nil, common.WrapStorage("failed to scan history entry", scanErr)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapStorage("error iterating history", err)
	}
	return entries, nil
}
