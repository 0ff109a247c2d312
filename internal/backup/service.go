// Package backup creates, validates and restores full-dataset snapshots,
// and keeps a small rotating window of timer-driven automatic snapshots.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fumisaki/kakeibo/internal/model"
)

// Repository is the slice of the storage layer the backup service needs.
type Repository interface {
	GetTransactions(ctx context.Context, filter *model.TransactionFilter) ([]model.Transaction, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, input model.CreateCategoryInput) (*model.Category, error)
	CreateTransaction(ctx context.Context, input model.CreateTransactionInput) (*model.Transaction, error)
}

// Options selects what goes into a snapshot.
type Options struct {
	IncludeTransactions bool
	IncludeCategories   bool
}

// Progress reports a backup stage transition.
type Progress struct {
	Stage   string
	Message string
	Current int
	Total   int
}

// ProgressFunc receives progress updates.
type ProgressFunc func(Progress)

// Backup stages.
const (
	StagePreparing = "preparing"
	StageExporting = "exporting"
	StageComplete  = "complete"
)

// Service owns snapshot creation and the auto-backup timer. The timer is
// the only background work in the application; Start/Stop are mutex-guarded
// so restarting never leaves two tickers running.
type Service struct {
	repo     Repository
	dir      string
	stopAuto chan struct{}
	autoWG   sync.WaitGroup
	mu       sync.Mutex
}

// NewService creates a backup service storing auto-snapshots under dir.
func NewService(repo Repository, dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &Service{repo: repo, dir: dir}, nil
}

// CreateManualBackup assembles a snapshot of the selected entity sets with
// counts and a checksum over the normalized projection.
func (s *Service) CreateManualBackup(ctx context.Context, options Options, onProgress ProgressFunc) (*model.BackupData, error) {
	notify := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}
	notify(Progress{Stage: StagePreparing, Message: "collecting records"})

	transactions := []model.Transaction{}
	categories := []model.Category{}

	if options.IncludeCategories {
		fetched, err := s.repo.GetCategories(ctx)
		if err != nil {
			return nil, err
		}
		if fetched != nil {
			categories = fetched
		}
	}
	if options.IncludeTransactions {
		fetched, err := s.repo.GetTransactions(ctx, nil)
		if err != nil {
			return nil, err
		}
		if fetched != nil {
			transactions = fetched
		}
	}

	notify(Progress{
		Stage:   StageExporting,
		Message: "computing checksum",
		Total:   len(transactions) + len(categories),
	})

	data := &model.BackupData{
		Version:   model.BackupVersion,
		Timestamp: time.Now(),
		Metadata: model.BackupMetadata{
			TransactionCount: len(transactions),
			CategoryCount:    len(categories),
			Checksum:         Checksum(transactions, categories),
		},
		Transactions: transactions,
		Categories:   categories,
	}

	notify(Progress{
		Stage:   StageComplete,
		Message: "backup complete",
		Current: len(transactions) + len(categories),
		Total:   len(transactions) + len(categories),
	})

	slog.Info("created backup",
		"transactions", data.Metadata.TransactionCount,
		"categories", data.Metadata.CategoryCount,
		"checksum", data.Metadata.Checksum)
	return data, nil
}

// WriteBackup writes a snapshot to a JSON file. An empty filename picks a
// default embedding the backup's date.
func (s *Service) WriteBackup(data *model.BackupData, filename string) (string, error) {
	if filename == "" {
		filename = fmt.Sprintf("kakeibo-backup-%s.json", data.Timestamp.Format("2006-01-02"))
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, encoded, 0600); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	return filename, nil
}

// ReadBackup loads a snapshot from a JSON file.
func ReadBackup(filename string) (*model.BackupData, error) {
	raw, err := os.ReadFile(filename) // #nosec G304 - user-chosen backup path
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	var data model.BackupData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode backup file: %w", err)
	}
	return &data, nil
}
