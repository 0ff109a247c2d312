// Package storage provides the SQLite persistence layer for the application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/fumisaki/kakeibo/internal/common"
	"github.com/fumisaki/kakeibo/internal/model"
)

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = errors.New("string parameter cannot be empty")
)

// Validation limits.
const (
	maxCategoryNameLength = 50
	maxDescriptionLength  = 500
	// A transaction may be dated at most one day ahead of "now" to absorb
	// timezone differences between the entry device and the clock.
	maxDateFutureSkew = 24 * time.Hour
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// Rule checks below collect every violation for a call and report them
// together rather than short-circuiting on the first failure.

func checkCategoryName(name string, violations []string) []string {
	if strings.TrimSpace(name) == "" {
		return append(violations, "name is required")
	}
	if len([]rune(name)) > maxCategoryNameLength {
		return append(violations, fmt.Sprintf("name must be %d characters or fewer", maxCategoryNameLength))
	}
	return violations
}

func checkCategoryColor(color string, violations []string) []string {
	if color == "" {
		return append(violations, "color is required")
	}
	if !colorPattern.MatchString(color) {
		return append(violations, "color must match #RRGGBB")
	}
	return violations
}

func checkCategoryType(t model.CategoryType, violations []string) []string {
	if t == "" {
		return append(violations, "type is required")
	}
	if !model.ValidCategoryType(t) {
		return append(violations, fmt.Sprintf("type must be one of income, expense, both; got %q", t))
	}
	return violations
}

func validateCreateCategory(input model.CreateCategoryInput) error {
	var violations []string
	violations = checkCategoryName(input.Name, violations)
	violations = checkCategoryColor(input.Color, violations)
	violations = checkCategoryType(input.Type, violations)
	if len(violations) > 0 {
		return common.NewValidationError(violations)
	}
	return nil
}

func validateUpdateCategory(input model.UpdateCategoryInput) error {
	var violations []string
	if input.Name != nil {
		violations = checkCategoryName(*input.Name, violations)
	}
	if input.Color != nil {
		violations = checkCategoryColor(*input.Color, violations)
	}
	if input.Type != nil {
		violations = checkCategoryType(*input.Type, violations)
	}
	if len(violations) > 0 {
		return common.NewValidationError(violations)
	}
	return nil
}

func checkTransactionDate(date time.Time, now time.Time, violations []string) []string {
	if date.IsZero() {
		return append(violations, "date is required")
	}
	if date.After(now.Add(maxDateFutureSkew)) {
		return append(violations, "date cannot be more than one day in the future")
	}
	return violations
}

func checkTransactionAmount(amount float64, violations []string) []string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return append(violations, "amount must be a finite number")
	}
	if amount <= 0 {
		return append(violations, "amount must be a positive magnitude")
	}
	return violations
}

func checkTransactionType(t model.TransactionType, violations []string) []string {
	if t == "" {
		return append(violations, "type is required")
	}
	if !model.ValidTransactionType(t) {
		return append(violations, fmt.Sprintf("type must be income or expense; got %q", t))
	}
	return violations
}

func checkTransactionDescription(description string, violations []string) []string {
	if len([]rune(description)) > maxDescriptionLength {
		return append(violations, fmt.Sprintf("description must be %d characters or fewer", maxDescriptionLength))
	}
	return violations
}

func validateCreateTransaction(input model.CreateTransactionInput, now time.Time) error {
	var violations []string
	violations = checkTransactionDate(input.Date, now, violations)
	violations = checkTransactionAmount(input.Amount, violations)
	if strings.TrimSpace(input.CategoryID) == "" {
		violations = append(violations, "categoryId is required")
	}
	violations = checkTransactionType(input.Type, violations)
	violations = checkTransactionDescription(input.Description, violations)
	if len(violations) > 0 {
		return common.NewValidationError(violations)
	}
	return nil
}

func validateUpdateTransaction(input model.UpdateTransactionInput, now time.Time) error {
	var violations []string
	if input.Date != nil {
		violations = checkTransactionDate(*input.Date, now, violations)
	}
	if input.Amount != nil {
		violations = checkTransactionAmount(*input.Amount, violations)
	}
	if input.CategoryID != nil && strings.TrimSpace(*input.CategoryID) == "" {
		violations = append(violations, "categoryId cannot be empty")
	}
	if input.Type != nil {
		violations = checkTransactionType(*input.Type, violations)
	}
	if input.Description != nil {
		violations = checkTransactionDescription(*input.Description, violations)
	}
	if len(violations) > 0 {
		return common.NewValidationError(violations)
	}
	return nil
}
