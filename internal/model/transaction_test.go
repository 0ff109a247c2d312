package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedAmount(t *testing.T) {
	tests := []struct {
		name      string
		txnType   TransactionType
		magnitude float64
		want      float64
	}{
		{name: "expense is negative", txnType: TransactionTypeExpense, magnitude: 1200, want: -1200},
		{name: "income is positive", txnType: TransactionTypeIncome, magnitude: 300000, want: 300000},
		{name: "negative input is normalized first", txnType: TransactionTypeExpense, magnitude: -1200, want: -1200},
		{name: "income from negative input", txnType: TransactionTypeIncome, magnitude: -500, want: 500},
		{name: "zero stays zero", txnType: TransactionTypeExpense, magnitude: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SignedAmount(tt.txnType, tt.magnitude))
		})
	}
}

func TestValidTypes(t *testing.T) {
	assert.True(t, ValidTransactionType(TransactionTypeIncome))
	assert.True(t, ValidTransactionType(TransactionTypeExpense))
	assert.False(t, ValidTransactionType("transfer"))
	assert.False(t, ValidTransactionType(""))

	assert.True(t, ValidCategoryType(CategoryTypeIncome))
	assert.True(t, ValidCategoryType(CategoryTypeExpense))
	assert.True(t, ValidCategoryType(CategoryTypeBoth))
	assert.False(t, ValidCategoryType("misc"))
}

func TestSnapshotOf(t *testing.T) {
	t.Run("nil transaction", func(t *testing.T) {
		assert.Nil(t, SnapshotOf(nil))
	})

	t.Run("captures tracked fields", func(t *testing.T) {
		txn := &Transaction{
			ID:          "t1",
			Date:        time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
			Amount:      -1200,
			Description: "lunch",
			CategoryID:  "c1",
			Type:        TransactionTypeExpense,
		}

		snapshot := SnapshotOf(txn)
		require.NotNil(t, snapshot)
		assert.True(t, snapshot.Date.Equal(txn.Date))
		assert.Equal(t, -1200.0, *snapshot.Amount)
		assert.Equal(t, "lunch", *snapshot.Description)
		assert.Equal(t, "c1", *snapshot.CategoryID)
		assert.Equal(t, TransactionTypeExpense, *snapshot.Type)

		// The snapshot owns copies, not references into the transaction.
		txn.Description = "changed"
		assert.Equal(t, "lunch", *snapshot.Description)
	})
}
