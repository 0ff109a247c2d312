package model

import "time"

// CreateCategoryInput carries the fields needed to create a category.
type CreateCategoryInput struct {
	Name  string
	Color string
	Type  CategoryType
}

// UpdateCategoryInput carries a partial category update. Nil fields are
// left untouched.
type UpdateCategoryInput struct {
	Name  *string
	Color *string
	Type  *CategoryType
}

// CreateTransactionInput carries the fields needed to create a transaction.
// Amount is always a positive magnitude; the repository derives the stored
// sign from Type.
type CreateTransactionInput struct {
	Date        time.Time
	Description string
	CategoryID  string
	Type        TransactionType
	Amount      float64
}

// UpdateTransactionInput carries a partial transaction update. Nil fields
// are left untouched. Supplying Amount and/or Type re-derives the stored
// signed amount from the merged pair.
type UpdateTransactionInput struct {
	Date        *time.Time
	Amount      *float64
	Description *string
	CategoryID  *string
	Type        *TransactionType
}

// TransactionFilter narrows transaction queries. Filters apply in sequence:
// date range (inclusive, date-only comparison), category, type, absolute
// amount range, case-insensitive description substring.
type TransactionFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	CategoryID  *string
	Type        *TransactionType
	MinAmount   *float64
	MaxAmount   *float64
	Description *string
}

// TransactionStats summarizes a filtered transaction set. Totals are sums of
// absolute values split by type; Balance = TotalIncome - TotalExpense.
type TransactionStats struct {
	TotalIncome  float64
	TotalExpense float64
	Balance      float64
	Count        int
}
