package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidationError(t *testing.T) {
	err := NewValidationError([]string{"name is required", "color must match #RRGGBB"})

	assert.Equal(t, KindValidation, KindOf(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, "name is required; color must match #RRGGBB", err.Error())
}

func TestNewBusinessError(t *testing.T) {
	err := NewBusinessError("category \"Food\" already exists", ErrDuplicateEntry)

	assert.Equal(t, KindBusiness, KindOf(err))
	assert.False(t, IsRetryable(err))
	require.ErrorIs(t, err, ErrDuplicateEntry)
	assert.Contains(t, err.Error(), "already exists")
}

func TestNewDatabaseError(t *testing.T) {
	cause := errors.New("disk I/O error")

	transient := NewDatabaseError("write failed", cause, true)
	assert.Equal(t, KindDatabase, KindOf(transient))
	assert.True(t, IsRetryable(transient))
	require.ErrorIs(t, transient, cause)

	permanent := NewDatabaseError("schema broken", cause, false)
	assert.False(t, IsRetryable(permanent))
}

func TestWrapStorage(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, WrapStorage("context", nil))
	})

	t.Run("typed errors pass through unchanged", func(t *testing.T) {
		original := NewBusinessError("not found", ErrNotFound)
		wrapped := WrapStorage("query failed", original)
		assert.Equal(t, original, wrapped)
		assert.Equal(t, KindBusiness, KindOf(wrapped))
	})

	t.Run("untyped errors become retryable database errors", func(t *testing.T) {
		wrapped := WrapStorage("query failed", errors.New("database is locked"))
		assert.Equal(t, KindDatabase, KindOf(wrapped))
		assert.True(t, IsRetryable(wrapped))
		assert.Contains(t, wrapped.Error(), "query failed")
	})
}

func TestKindOfUntyped(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
}
