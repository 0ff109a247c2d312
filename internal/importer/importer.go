// Package importer parses delimited text (and OFX statements) back into the
// repositories. Failures are collected per row so one bad row never aborts
// the whole batch.
package importer

import (
	"context"

	"github.com/fumisaki/kakeibo/internal/model"
)

// Repository is the slice of the storage layer the importer needs.
type Repository interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, input model.CreateCategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, input model.UpdateCategoryInput) (*model.Category, error)
	GetTransactions(ctx context.Context, filter *model.TransactionFilter) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, input model.CreateTransactionInput) (*model.Transaction, error)
}

// Options control duplicate and missing-category handling.
type Options struct {
	// SkipDuplicates silently skips rows matching an existing record.
	SkipDuplicates bool
	// UpdateExisting updates color/type of a category whose name already exists.
	UpdateExisting bool
	// CreateMissingCategories creates a real category on the fly when a
	// transaction row names one that does not exist yet.
	CreateMissingCategories bool
}

// RowError describes one failed input row. Row is the line number in the
// source file, counting the header as line 1.
type RowError struct {
	Field   string
	Message string
	Row     int
}

// EntityResult counts the outcome per entity type.
type EntityResult struct {
	Imported int
	Skipped  int
	Errors   int
}

// Result is the full outcome of an import run.
type Result struct {
	Errors       []RowError
	Categories   EntityResult
	Transactions EntityResult
}

// Progress reports an import stage transition.
type Progress struct {
	Stage   string
	Message string
	Current int
	Total   int
}

// ProgressFunc receives progress updates.
type ProgressFunc func(Progress)

// Import stages.
const (
	StageCategories   = "importing-categories"
	StageTransactions = "importing-transactions"
	StageComplete     = "complete"
)

// Service applies parsed rows through the repositories.
type Service struct {
	repo Repository
}

// NewService creates an import service over the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}
