package model

import (
	"math"
	"time"
)

// TransactionType indicates whether a transaction is income or an expense.
type TransactionType string

const (
	// TransactionTypeIncome represents money coming in.
	TransactionTypeIncome TransactionType = "income"
	// TransactionTypeExpense represents money going out.
	TransactionTypeExpense TransactionType = "expense"
)

// ValidTransactionType reports whether t is one of the known transaction types.
func ValidTransactionType(t TransactionType) bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction represents a single booked transaction.
// Amount is stored signed: positive for income, negative for expense.
// The sign is derived from Type at the repository boundary; callers always
// supply a positive magnitude.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ID          string
	Description string
	CategoryID  string
	Type        TransactionType
	Amount      float64
}

// SignedAmount derives the stored amount from a type and a positive magnitude.
func SignedAmount(t TransactionType, magnitude float64) float64 {
	abs := math.Abs(magnitude)
	if t == TransactionTypeExpense {
		return -abs
	}
	return abs
}
