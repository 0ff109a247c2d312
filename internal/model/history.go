package model

import "time"

// HistoryAction identifies the kind of mutation recorded in the audit log.
type HistoryAction string

const (
	// HistoryActionCreate records a transaction creation.
	HistoryActionCreate HistoryAction = "create"
	// HistoryActionUpdate records a transaction update.
	HistoryActionUpdate HistoryAction = "update"
	// HistoryActionDelete records a transaction deletion.
	HistoryActionDelete HistoryAction = "delete"
)

// TrackedHistoryFields is the fixed set of transaction fields diffed when
// recording an update. Kept explicit so the diff behavior stays predictable.
var TrackedHistoryFields = []string{"date", "amount", "description", "categoryId"}

// TransactionSnapshot is a partial copy of a transaction captured in history
// entries. Pointer fields distinguish "absent" from zero values.
type TransactionSnapshot struct {
	Date        *time.Time       `json:"date,omitempty"`
	Amount      *float64         `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
	CategoryID  *string          `json:"categoryId,omitempty"`
	Type        *TransactionType `json:"type,omitempty"`
}

// SnapshotOf captures the tracked fields of a transaction.
func SnapshotOf(txn *Transaction) *TransactionSnapshot {
	if txn == nil {
		return nil
	}
	date := txn.Date
	amount := txn.Amount
	description := txn.Description
	categoryID := txn.CategoryID
	txnType := txn.Type
	return &TransactionSnapshot{
		Date:        &date,
		Amount:      &amount,
		Description: &description,
		CategoryID:  &categoryID,
		Type:        &txnType,
	}
}

// TransactionHistory is one append-only audit log entry.
// TransactionID is a weak reference kept for lookup only; it is not enforced
// as a foreign key so entries survive the deletion of their transaction.
// Changes is nil unless the action is an update that touched a tracked field.
type TransactionHistory struct {
	Timestamp     time.Time
	PreviousData  *TransactionSnapshot
	NewData       *TransactionSnapshot
	ID            string
	TransactionID string
	Action        HistoryAction
	Changes       []string
}
