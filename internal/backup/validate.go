package backup

import (
	"fmt"

	"github.com/fumisaki/kakeibo/internal/model"
)

// ValidationResult accumulates every integrity violation found in a backup
// rather than stopping at the first.
type ValidationResult struct {
	Errors  []string
	IsValid bool
}

// ValidateBackupIntegrity checks a backup's structure, declared counts and
// checksum against its actual contents.
func ValidateBackupIntegrity(data *model.BackupData) ValidationResult {
	var errs []string

	if data == nil {
		return ValidationResult{Errors: []string{"backup data is missing"}}
	}

	if data.Version == "" {
		errs = append(errs, "backup version is missing")
	}
	if data.Metadata == (model.BackupMetadata{}) {
		errs = append(errs, "backup metadata is missing")
	}
	if data.Transactions == nil {
		errs = append(errs, "transactions array is missing")
	}
	if data.Categories == nil {
		errs = append(errs, "categories array is missing")
	}

	if data.Transactions != nil && data.Metadata.TransactionCount != len(data.Transactions) {
		errs = append(errs, fmt.Sprintf("transaction count mismatch: metadata says %d, found %d",
			data.Metadata.TransactionCount, len(data.Transactions)))
	}
	if data.Categories != nil && data.Metadata.CategoryCount != len(data.Categories) {
		errs = append(errs, fmt.Sprintf("category count mismatch: metadata says %d, found %d",
			data.Metadata.CategoryCount, len(data.Categories)))
	}

	if data.Metadata.Checksum != "" || data.Transactions != nil || data.Categories != nil {
		recomputed := Checksum(data.Transactions, data.Categories)
		if recomputed != data.Metadata.Checksum {
			errs = append(errs, fmt.Sprintf("checksum mismatch: metadata says %s, recomputed %s",
				data.Metadata.Checksum, recomputed))
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
