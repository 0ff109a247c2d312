package model

import "time"

// CategoryType indicates which transaction types a category may be assigned to.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeBoth represents categories usable for either direction.
	CategoryTypeBoth CategoryType = "both"
)

// ValidCategoryType reports whether t is one of the known category types.
func ValidCategoryType(t CategoryType) bool {
	switch t {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeBoth:
		return true
	default:
		return false
	}
}

// Category represents a spending or income category.
// Default categories are seeded on first run and can never be deleted;
// a category referenced by at least one transaction cannot be deleted either.
type Category struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        string
	Name      string
	Color     string // #RRGGBB
	Type      CategoryType
	IsDefault bool
}
