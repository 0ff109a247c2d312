package backup

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/fumisaki/kakeibo/internal/model"
)

// RestoreOptions control how a snapshot is replayed into the repositories.
type RestoreOptions struct {
	// ValidateIntegrity aborts the restore with the reported violations
	// before touching any data.
	ValidateIntegrity bool
	// SkipDuplicates skips categories and transactions that already exist.
	SkipDuplicates bool
	// CreateMissingCategories remaps transactions whose category cannot be
	// resolved to an existing catch-all ("その他"/"other") category.
	CreateMissingCategories bool
}

// EntityCounts tallies the per-entity outcome of a restore.
type EntityCounts struct {
	Imported int
	Skipped  int
	Errors   int
}

// RestoreResult is the full outcome of a restore run. Success is true only
// when the top-level Errors list is empty; per-entity error counters alone
// do not fail the run.
type RestoreResult struct {
	Errors       []string
	Transactions EntityCounts
	Categories   EntityCounts
	Success      bool
}

// markers identifying a catch-all category for unresolved remapping.
var miscCategoryMarkers = []string{"その他", "misc", "other"}

// RestoreFromBackup replays a snapshot: categories first, then transactions.
// Row-level failures are counted and never abort the run.
func (s *Service) RestoreFromBackup(ctx context.Context, data *model.BackupData, options RestoreOptions) (*RestoreResult, error) {
	result := &RestoreResult{}

	if options.ValidateIntegrity {
		validation := ValidateBackupIntegrity(data)
		if !validation.IsValid {
			result.Errors = append(result.Errors, validation.Errors...)
			return result, nil
		}
	}
	if data == nil {
		result.Errors = append(result.Errors, "backup data is missing")
		return result, nil
	}

	existing, err := s.repo.GetCategories(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load categories: %v", err))
		return result, nil
	}
	categoriesByName := make(map[string]*model.Category, len(existing))
	for i := range existing {
		categoriesByName[strings.ToLower(existing[i].Name)] = &existing[i]
	}

	// Maps backed-up category ids to ids in the current store.
	idRemap := make(map[string]string, len(data.Categories))

	for _, cat := range data.Categories {
		if current, dup := categoriesByName[strings.ToLower(cat.Name)]; dup {
			idRemap[cat.ID] = current.ID
			if options.SkipDuplicates {
				result.Categories.Skipped++
				continue
			}
		}

		created, createErr := s.repo.CreateCategory(ctx, model.CreateCategoryInput{
			Name:  cat.Name,
			Color: cat.Color,
			Type:  cat.Type,
		})
		if createErr != nil {
			result.Categories.Errors++
			continue
		}
		categoriesByName[strings.ToLower(created.Name)] = created
		idRemap[cat.ID] = created.ID
		result.Categories.Imported++
	}

	currentTransactions, err := s.repo.GetTransactions(ctx, nil)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to load transactions: %v", err))
		return result, nil
	}
	seen := make(map[string]bool, len(currentTransactions))
	for _, txn := range currentTransactions {
		seen[restoreKey(txn.Date, txn.Amount, txn.Description)] = true
	}

	for _, txn := range data.Transactions {
		if options.SkipDuplicates && seen[restoreKey(txn.Date, txn.Amount, txn.Description)] {
			result.Transactions.Skipped++
			continue
		}

		categoryID, resolved := idRemap[txn.CategoryID]
		if !resolved {
			// The backed-up id may still exist in the current store.
			if categoryExists(existing, txn.CategoryID) {
				categoryID = txn.CategoryID
				resolved = true
			}
		}
		if !resolved && options.CreateMissingCategories {
			if misc := findMiscCategory(categoriesByName); misc != nil {
				categoryID = misc.ID
				resolved = true
			}
		}
		if !resolved {
			result.Transactions.Errors++
			continue
		}

		created, createErr := s.repo.CreateTransaction(ctx, model.CreateTransactionInput{
			Date:        txn.Date,
			Amount:      math.Abs(txn.Amount),
			Description: txn.Description,
			CategoryID:  categoryID,
			Type:        txn.Type,
		})
		if createErr != nil {
			result.Transactions.Errors++
			continue
		}
		seen[restoreKey(created.Date, created.Amount, created.Description)] = true
		result.Transactions.Imported++
	}

	result.Success = len(result.Errors) == 0
	slog.Info("restored backup",
		"categories_imported", result.Categories.Imported,
		"transactions_imported", result.Transactions.Imported,
		"success", result.Success)
	return result, nil
}

func restoreKey(date time.Time, amount float64, description string) string {
	return fmt.Sprintf("%s:%.2f:%s", date.Format("2006-01-02"), amount, description)
}

func categoryExists(categories []model.Category, id string) bool {
	for _, cat := range categories {
		if cat.ID == id {
			return true
		}
	}
	return false
}

func findMiscCategory(byName map[string]*model.Category) *model.Category {
	for name, cat := range byName {
		for _, marker := range miscCategoryMarkers {
			if strings.Contains(name, marker) {
				return cat
			}
		}
	}
	return nil
}
